package fixture

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

type stubRule struct {
	prefix string
	out    string
	err    error
}

// fakeRunner records every invocation and answers from ordered prefix rules.
type fakeRunner struct {
	calls []string
	rules []stubRule
}

func (r *fakeRunner) stub(prefix, out string) {
	r.rules = append(r.rules, stubRule{prefix: prefix, out: out})
}

func (r *fakeRunner) fail(prefix string, err error) {
	r.rules = append(r.rules, stubRule{prefix: prefix, err: err})
}

func (r *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	call := strings.Join(args, " ")
	r.calls = append(r.calls, call)
	for _, rule := range r.rules {
		if strings.HasPrefix(call, rule.prefix) {
			return rule.out, rule.err
		}
	}
	return "", nil
}

func (r *fakeRunner) sawPrefix(prefix string) bool {
	for _, call := range r.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

type fakeInspector struct {
	head     domain.Commit
	headErr  error
	statuses map[string]domain.StatusPair
}

func (i *fakeInspector) HeadCommit(context.Context, string) (domain.Commit, error) {
	return i.head, i.headErr
}

func (i *fakeInspector) FileStatus(_ context.Context, _ string, rel string) (domain.StatusPair, error) {
	if pair, ok := i.statuses[rel]; ok {
		return pair, nil
	}
	return domain.CleanPair, nil
}

func testOptions(runner *fakeRunner, inspector *fakeInspector) Options {
	return Options{Runner: runner, Inspector: inspector}
}

func TestBuildStagedFile(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{
			"path":    "staged.txt",
			"content": "payload",
			"state":   []string{"A", " "},
		}},
	}

	f, err := Build(context.Background(), root, def, testOptions(runner, &fakeInspector{}))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	file, ok := f.File("staged.txt")
	if !ok {
		t.Fatalf("file not indexed")
	}
	if !file.IsStaged() {
		t.Fatalf("expected staged status, got %s", file.Status())
	}
	if len(f.Self().Commits()) != 0 {
		t.Fatalf("staged file must not produce commits, got %v", f.Self().Commits().Messages())
	}
	if !runner.sawPrefix("git init") {
		t.Fatalf("expected a git init call, got %v", runner.calls)
	}
	if !runner.sawPrefix("git --work-tree=. add") {
		t.Fatalf("expected a git add call, got %v", runner.calls)
	}
}

func TestBuildCommitCommandRecordsCommit(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	inspector := &fakeInspector{head: domain.Commit{SHA: "abc123", Message: "add staged.txt"}}
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{
			"path":    "staged.txt",
			"content": "payload",
			"state":   []string{"A", " "},
		}},
		{Kind: KindCommit, Params: map[string]any{
			"msg":  "add staged.txt",
			"refs": []string{"staged.txt"},
		}},
	}

	f, err := Build(context.Background(), root, def, testOptions(runner, inspector))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	file, _ := f.File("staged.txt")
	if !file.IsClean() {
		t.Fatalf("committed file should be clean, got %s", file.Status())
	}
	want := domain.Commit{SHA: "abc123", Message: "add staged.txt"}
	if !file.Commits().Has(want) {
		t.Fatalf("file commits missing %v: %v", want, file.Commits().Messages())
	}
	if !f.Self().Commits().Has(want) {
		t.Fatalf("repo commits missing %v: %v", want, f.Self().Commits().Messages())
	}
	if !f.Self().Branches().Has("master") {
		t.Fatalf("branch discovery failed: %v", f.Self().Branches().Names())
	}
}

func TestCommitDoesNotStage(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{
			"path":    "f.txt",
			"content": "payload",
			"state":   []string{"A", " "},
		}},
		{Kind: KindCommit, Params: map[string]any{"refs": []string{"f.txt"}}},
	}

	if _, err := Build(context.Background(), root, def,
		testOptions(runner, &fakeInspector{head: domain.Commit{SHA: "a", Message: "m"}})); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	adds := 0
	for _, call := range runner.calls {
		if strings.HasPrefix(call, "git --work-tree=. add") {
			adds++
		}
	}
	if adds != 1 {
		t.Fatalf("the commit command must not stage on its own; saw %d add calls", adds)
	}
}

func TestContentAndSrcMutuallyExclusive(t *testing.T) {
	runner := &fakeRunner{}
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{"annex": true}},
		{Kind: KindFile, Params: map[string]any{
			"path":    "f.txt",
			"content": "payload",
			"src":     "http://example.com/f",
			"annexed": true,
			"state":   []string{"A", " "},
		}},
	}

	_, err := New(t.TempDir(), def, testOptions(runner, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
	if derr.Index != 1 {
		t.Fatalf("error should name entry 1, got %d", derr.Index)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("resolution must not run commands: %v", runner.calls)
	}
}

func TestForwardReferenceFails(t *testing.T) {
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindCommit, Params: map[string]any{"refs": []string{"later.txt"}}},
		{Kind: KindFile, Params: map[string]any{
			"path": "later.txt", "content": "x", "state": []string{"A", " "},
		}},
	}

	_, err := New(t.TempDir(), def, testOptions(&fakeRunner{}, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
	if derr.Index != 1 || derr.Key != "later.txt" {
		t.Fatalf("error should name entry 1 and key later.txt, got %+v", derr)
	}
}

func TestDuplicatePathFails(t *testing.T) {
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{"path": "f.txt", "content": "a"}},
		{Kind: KindFile, Params: map[string]any{"path": "f.txt", "content": "b"}},
	}
	_, err := New(t.TempDir(), def, testOptions(&fakeRunner{}, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) || derr.Index != 2 {
		t.Fatalf("expected DefinitionError at index 2, got %v", err)
	}
}

func TestSelfEntryRequired(t *testing.T) {
	def := Definition{
		{Kind: KindRepo, Params: map[string]any{"path": "r"}},
	}
	_, err := New(t.TempDir(), def, testOptions(&fakeRunner{}, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
}

func TestSecondSelfEntryFails(t *testing.T) {
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindSelf, Params: map[string]any{"path": "other"}},
	}
	_, err := New(t.TempDir(), def, testOptions(&fakeRunner{}, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) || derr.Index != 1 {
		t.Fatalf("expected DefinitionError at index 1, got %v", err)
	}
}

func TestUnknownKindFails(t *testing.T) {
	def := Definition{
		{Kind: Kind("tarball"), Params: map[string]any{}},
	}
	_, err := New(t.TempDir(), def, testOptions(&fakeRunner{}, &fakeInspector{}))
	var derr *DefinitionError
	if !errors.As(err, &derr) || derr.Index != 0 {
		t.Fatalf("expected DefinitionError at index 0, got %v", err)
	}
}

func TestInfoEntryDefaults(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	runner.stub("git branch --contains", "* master\n")
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindInfo, Params: map[string]any{}},
	}

	f, err := Build(context.Background(), root, def,
		testOptions(runner, &fakeInspector{head: domain.Commit{SHA: "a", Message: DefaultInfoCommitMsg}}))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	info, ok := f.File(InfoFilePath)
	if !ok {
		t.Fatalf("info file not indexed")
	}
	if !info.IsClean() {
		t.Fatalf("info file should be committed, got %s", info.Status())
	}
	if !strings.Contains(info.Content(), `"kind"`) {
		t.Fatalf("info content should describe the definition: %q", info.Content())
	}
	if !f.Self().Commits().Has(domain.Commit{SHA: "a", Message: DefaultInfoCommitMsg}) {
		t.Fatalf("info commit not recorded: %v", f.Self().Commits().Messages())
	}
}

func TestBuildFailsUnreachableItem(t *testing.T) {
	root := t.TempDir()
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
	}
	f, err := New(root, def, testOptions(&fakeRunner{}, &fakeInspector{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// Plant an indexed item the builder never linked anywhere.
	orphanRepo, err := NewRepoItem(RepoConfig{Path: filepath.Join(root, "orphan")}, &fakeRunner{})
	if err != nil {
		t.Fatalf("NewRepoItem returned error: %v", err)
	}
	orphan, err := NewFileItem(FileConfig{
		Path: filepath.Join(root, "orphan", "f.txt"), Repo: orphanRepo, Content: "x",
		State: domain.UntrackedPair,
	}, &fakeRunner{}, &fakeInspector{})
	if err != nil {
		t.Fatalf("NewFileItem returned error: %v", err)
	}
	f.items["orphan/f.txt"] = orphan

	if err := f.checkReachability(); !errors.Is(err, ErrUnreachableItem) {
		t.Fatalf("expected ErrUnreachableItem, got %v", err)
	}
}

func TestBuildTwiceYieldsIdenticalGraphs(t *testing.T) {
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindFile, Params: map[string]any{
			"path":    "f.txt",
			"content": "payload",
			"state":   []string{"A", " "},
		}},
		{Kind: KindRepo, Params: map[string]any{"path": "sub"}},
		{Kind: KindSubmodule, Params: map[string]any{"item": "sub"}},
	}

	build := func(root string) *Fixture {
		t.Helper()
		runner := &fakeRunner{}
		runner.stub("git branch --contains", "* master\n")
		f, err := Build(context.Background(), root, def, testOptions(runner, &fakeInspector{}))
		if err != nil {
			t.Fatalf("Build returned error: %v", err)
		}
		return f
	}
	first := build(t.TempDir())
	second := build(t.TempDir())

	if !reflect.DeepEqual(first.Keys(), second.Keys()) {
		t.Fatalf("independent builds indexed different keys: %v vs %v",
			first.Keys(), second.Keys())
	}
	for _, key := range first.Keys() {
		a, _ := first.Item(key)
		b, _ := second.Item(key)
		if reflect.TypeOf(a) != reflect.TypeOf(b) {
			t.Fatalf("key %q resolved to %T and %T", key, a, b)
		}
	}
	if len(first.Roots()) != len(second.Roots()) {
		t.Fatalf("root counts differ: %d vs %d", len(first.Roots()), len(second.Roots()))
	}

	for i, f := range []*Fixture{first, second} {
		if f.Self() == nil || f.Self().Path() != f.Root() {
			t.Fatalf("build %d: self not rooted at the fixture root", i)
		}
		if n := len(f.Self().Files()); n != 1 {
			t.Fatalf("build %d: self owns %d files, want 1", i, n)
		}
		if n := len(f.Self().Submodules()); n != 1 {
			t.Fatalf("build %d: self owns %d submodules, want 1", i, n)
		}
		sub, ok := f.Repo("sub")
		if !ok || sub.Superproject() != f.Self() {
			t.Fatalf("build %d: submodule not linked to self", i)
		}
	}
}

func TestBuildIsDeterministicInRoots(t *testing.T) {
	root := t.TempDir()
	def := Definition{
		{Kind: KindSelf, Params: map[string]any{}},
		{Kind: KindRepo, Params: map[string]any{"path": "zzz-nested"}},
	}
	f, err := New(root, def, testOptions(&fakeRunner{}, &fakeInspector{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	roots := f.Roots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].Path() > roots[1].Path() {
		t.Fatalf("roots not sorted: %s, %s", roots[0].Path(), roots[1].Path())
	}
}
