package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/app/paths"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantKind ErrorKind
	}{
		{err: &fixture.DefinitionError{Index: 2, Msg: "bad"}, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: fmt.Errorf("resolve: %w", &fixture.DefinitionError{Msg: "bad"}), wantCode: ExitInvalid, wantKind: KindValidation},
		{err: paths.ErrRootPathRequired, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: &fixture.IntegrityError{Path: "/p", Attribute: "branches"}, wantCode: ExitConflict, wantKind: KindConflict},
		{err: &fixture.CreationError{Path: "/p", Msg: "boom"}, wantCode: ExitInternal, wantKind: KindInternal},
		{err: fixture.ErrUnreachableItem, wantCode: ExitInternal, wantKind: KindInternal},
		{err: errors.New("boom"), wantCode: ExitInternal, wantKind: KindInternal},
	}

	for _, tt := range tests {
		got := NormalizeError(tt.err)
		if got.Code != tt.wantCode {
			t.Fatalf("expected code %d, got %d for %v", tt.wantCode, got.Code, tt.err)
		}
		if got.Kind != tt.wantKind {
			t.Fatalf("expected kind %s, got %s for %v", tt.wantKind, got.Kind, tt.err)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("expected ExitCode(nil) == 0")
	}

	custom := ExitError{Code: 9, Kind: KindInternal, Message: "custom"}
	if ExitCode(custom) != 9 {
		t.Fatalf("expected ExitCode(custom) == 9")
	}
}
