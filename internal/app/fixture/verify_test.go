package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

func buildCleanFixture(t *testing.T, runner *fakeRunner, inspector *fakeInspector) *Fixture {
	t.Helper()
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{
			"path":       "f.txt",
			"content":    "payload",
			"state":      []string{" ", " "},
			"commit_msg": "add f.txt",
		}},
	}
	f, err := Build(context.Background(), t.TempDir(), def, testOptions(runner, inspector))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	// The faked runner does not create a real .git; seed one for the
	// on-disk checks.
	if err := os.MkdirAll(filepath.Join(f.Root(), ".git"), 0o755); err != nil {
		t.Fatalf("seed .git: %v", err)
	}
	return f
}

func TestVerifyCleanFixture(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	runner.stub("git branch -a", "* master\n")
	inspector := &fakeInspector{head: domain.Commit{SHA: "abc", Message: "add f.txt"}}
	f := buildCleanFixture(t, runner, inspector)

	if err := f.Verify(context.Background()); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
}

func TestVerifyDetectsBranchDivergence(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	runner.stub("git branch -a", "* master\n  stray\n")
	inspector := &fakeInspector{head: domain.Commit{SHA: "abc", Message: "add f.txt"}}
	f := buildCleanFixture(t, runner, inspector)

	err := f.Verify(context.Background())
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ierr.Attribute != "branches" {
		t.Fatalf("expected branches divergence, got %q", ierr.Attribute)
	}
}

func TestVerifyDetectsContentDivergence(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	runner.stub("git branch -a", "* master\n")
	inspector := &fakeInspector{head: domain.Commit{SHA: "abc", Message: "add f.txt"}}
	f := buildCleanFixture(t, runner, inspector)

	path := filepath.Join(f.Root(), "f.txt")
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper with file: %v", err)
	}

	err := f.Verify(context.Background())
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ierr.Attribute != "content" {
		t.Fatalf("expected content divergence, got %q", ierr.Attribute)
	}
}

func TestVerifyDetectsStatusDivergence(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	runner.stub("git branch -a", "* master\n")
	inspector := &fakeInspector{
		head: domain.Commit{SHA: "abc", Message: "add f.txt"},
		statuses: map[string]domain.StatusPair{
			"f.txt": {Index: domain.Unmodified, Worktree: domain.Modified},
		},
	}
	f := buildCleanFixture(t, runner, inspector)

	err := f.Verify(context.Background())
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ierr.Attribute != "status" {
		t.Fatalf("expected status divergence, got %q", ierr.Attribute)
	}
}

func TestVerifyDetectsDeletedFile(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	runner.stub("git branch -a", "* master\n")
	inspector := &fakeInspector{head: domain.Commit{SHA: "abc", Message: "add f.txt"}}
	f := buildCleanFixture(t, runner, inspector)

	if err := os.Remove(filepath.Join(f.Root(), "f.txt")); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	err := f.Verify(context.Background())
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ierr.Attribute != "existence" {
		t.Fatalf("expected existence divergence, got %q", ierr.Attribute)
	}
}
