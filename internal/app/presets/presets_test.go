package presets

import (
	"context"
	"testing"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, string, ...string) (string, error) { return "", nil }

type noopInspector struct{}

func (noopInspector) HeadCommit(context.Context, string) (domain.Commit, error) {
	return domain.Commit{}, nil
}

func (noopInspector) FileStatus(context.Context, string, string) (domain.StatusPair, error) {
	return domain.CleanPair, nil
}

func TestPresetsResolve(t *testing.T) {
	for _, name := range Names() {
		def, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%s) returned error: %v", name, err)
		}
		if _, err := fixture.New(t.TempDir(), def, fixture.Options{
			Runner:    noopRunner{},
			Inspector: noopInspector{},
		}); err != nil {
			t.Fatalf("preset %s does not resolve: %v", name, err)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("no-such-preset"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestCustomizePatchesOneEntry(t *testing.T) {
	def := BasicGit()
	patch := []byte(`{"1": {"params": {"content": "custom payload\n"}}}`)

	out, err := Customize(context.Background(), def, patch)
	if err != nil {
		t.Fatalf("Customize returned error: %v", err)
	}
	content, ok := out[1].Params["content"].(string)
	if !ok || content != "custom payload\n" {
		t.Fatalf("entry 1 not patched: %+v", out[1].Params)
	}
	if got := out[1].Params["commit_msg"]; got != "Adding a basic file" {
		t.Fatalf("untouched field changed: %v", got)
	}
	if orig := def[1].Params["content"]; orig != "123\n" {
		t.Fatalf("original definition mutated: %v", orig)
	}
}

func TestCustomizeRejectsBadIndex(t *testing.T) {
	if _, err := Customize(context.Background(), BasicGit(), []byte(`{"99": {}}`)); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	if _, err := Customize(context.Background(), BasicGit(), []byte(`{"x": {}}`)); err == nil {
		t.Fatalf("expected error for non-numeric index")
	}
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	a := fixture.Definition{{Kind: fixture.KindFile, Params: map[string]any{"path": "f", "content": "x"}}}
	b := fixture.Definition{{Kind: fixture.KindFile, Params: map[string]any{"content": "x", "path": "f"}}}

	da, err := Digest(context.Background(), a)
	if err != nil {
		t.Fatalf("Digest returned error: %v", err)
	}
	db, err := Digest(context.Background(), b)
	if err != nil {
		t.Fatalf("Digest returned error: %v", err)
	}
	if da != db {
		t.Fatalf("equivalent definitions digest differently: %s vs %s", da, db)
	}

	c := fixture.Definition{{Kind: fixture.KindFile, Params: map[string]any{"path": "f", "content": "y"}}}
	dc, err := Digest(context.Background(), c)
	if err != nil {
		t.Fatalf("Digest returned error: %v", err)
	}
	if dc == da {
		t.Fatalf("different definitions share a digest")
	}
}
