package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/osvaldoandrade/gitfixture/internal/app/paths"
	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// DefaultInfoCommitMsg is the commit message of an info file entry that does
// not declare one.
const DefaultInfoCommitMsg = "Adding a file with information about the repository"

// Options carries the collaborators a fixture is built with. Runner and
// Inspector are required; Validator and Logger are optional.
type Options struct {
	Runner    Runner
	Inspector Inspector
	Validator EntryValidator
	Logger    *slog.Logger
}

type execEntry struct {
	index int
	kind  Kind
	item  Item
}

// Fixture is a resolved definition: an index of keyed items plus the ordered
// materialization plan. Resolution performs no side effects; Build does.
type Fixture struct {
	root      string
	def       Definition
	self      *RepoItem
	items     map[string]Item
	execution []execEntry
	logger    *slog.Logger
	runner    Runner
	inspector Inspector
}

// New resolves a definition against a root directory. Every contradiction in
// the declarative input is reported here as a DefinitionError, before
// anything touches the filesystem. Entries may reference earlier entries by
// their declared path; forward references are illegal.
func New(root string, def Definition, opts Options) (*Fixture, error) {
	if opts.Runner == nil || opts.Inspector == nil {
		return nil, fmt.Errorf("fixture: runner and inspector are required")
	}
	root, err := paths.NormalizeRoot(root)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f := &Fixture{
		root:      root,
		def:       def,
		items:     make(map[string]Item),
		logger:    logger,
		runner:    opts.Runner,
		inspector: opts.Inspector,
	}

	r := &resolver{fixture: f, validator: opts.Validator}
	if err := r.resolve(def); err != nil {
		return nil, err
	}
	return f, nil
}

// Build resolves and materializes a definition in one call.
func Build(ctx context.Context, root string, def Definition, opts Options) (*Fixture, error) {
	f, err := New(root, def, opts)
	if err != nil {
		return nil, err
	}
	if err := f.Build(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// resolver walks a definition in two passes: pass 1 indexes the declared
// path keys, pass 2 constructs the items and resolves string references.
// A reference is legal only when its key is declared at an earlier entry.
type resolver struct {
	fixture   *Fixture
	validator EntryValidator

	index   int
	kind    Kind
	symbols map[string]int // declared path key -> entry index (pass 1)
	repos   []*RepoItem    // in construction order, for owner lookup
}

func (r *resolver) errorf(format string, args ...any) *DefinitionError {
	return &DefinitionError{Index: r.index, Kind: r.kind, Msg: fmt.Sprintf(format, args...)}
}

// locate tags a constructor's DefinitionError with the current entry.
func (r *resolver) locate(err error) error {
	if err == nil {
		return nil
	}
	if derr, ok := err.(*DefinitionError); ok {
		derr.Index = r.index
		derr.Kind = r.kind
		return derr
	}
	return err
}

func (r *resolver) resolve(def Definition) error {
	if err := r.collectSymbols(def); err != nil {
		return err
	}

	var selfSeen bool
	for i, entry := range def {
		r.index, r.kind = i, entry.Kind
		if !entry.Kind.IsValid() {
			return r.errorf("unknown kind %q", entry.Kind)
		}
		if entry.Params == nil {
			return r.errorf("missing parameter map")
		}
		if err := r.validateEntry(entry); err != nil {
			return err
		}

		var err error
		switch entry.Kind {
		case KindSelf:
			if selfSeen {
				return r.errorf("a definition may contain only one self entry")
			}
			selfSeen = true
			err = r.resolveRepo(entry, true)
		case KindRepo:
			err = r.resolveRepo(entry, false)
		case KindFile:
			err = r.resolveFile(entry)
		case KindInfo:
			err = r.resolveInfo(def, entry)
		case KindCommand:
			err = r.resolveCommand(entry)
		case KindCommit:
			err = r.resolveCommit(entry)
		case KindDrop:
			err = r.resolveDrop(entry)
		case KindSubmodule:
			err = r.resolveSubmodule(entry)
		}
		if err != nil {
			return err
		}
	}

	if !selfSeen {
		return &DefinitionError{Index: -1, Msg: "a definition must contain exactly one self entry"}
	}
	return nil
}

func (r *resolver) validateEntry(entry Entry) error {
	if r.validator == nil {
		return nil
	}
	raw, err := json.Marshal(entry.Params)
	if err != nil {
		return r.errorf("encode parameters: %v", err)
	}
	if err := r.validator.ValidateEntry(context.Background(), string(entry.Kind), raw); err != nil {
		return r.errorf("%v", err)
	}
	return nil
}

// collectSymbols is pass 1: it records the declared path key of every entry
// along with its position, rejecting duplicates. Malformed parameters are
// left for pass 2 to report.
func (r *resolver) collectSymbols(def Definition) error {
	r.symbols = make(map[string]int, len(def))
	for i, entry := range def {
		r.index, r.kind = i, entry.Kind
		key, ok := declaredKey(entry)
		if !ok {
			continue
		}
		if _, exists := r.symbols[key]; exists {
			return r.errorf("duplicate path %q", key)
		}
		r.symbols[key] = i
	}
	return nil
}

// declaredKey is the path key an entry contributes to the symbol table.
// Command kinds declare none; self and info entries fall back to their
// defaulted paths.
func declaredKey(entry Entry) (string, bool) {
	if !entry.Kind.IsRepo() && !entry.Kind.IsFile() {
		return "", false
	}
	if key, ok, err := stringParam(entry.Params, "path"); err == nil && ok && key != "" {
		return key, true
	}
	switch entry.Kind {
	case KindSelf:
		return ".", true
	case KindInfo:
		return InfoFilePath, true
	}
	return "", false
}

// register indexes a keyed item under its declared relative path. Key
// collisions were already rejected in pass 1.
func (r *resolver) register(key string, item Item) {
	r.fixture.items[key] = item
}

// lookup is pass 2 reference resolution against the pass-1 symbol table.
// A key declared at the current entry or later is a forward reference.
func (r *resolver) lookup(key string) (Item, error) {
	declared, known := r.symbols[key]
	if !known {
		return nil, &DefinitionError{Index: r.index, Kind: r.kind, Key: key,
			Msg: "reference does not resolve to a declared path"}
	}
	if declared >= r.index {
		return nil, &DefinitionError{Index: r.index, Kind: r.kind, Key: key,
			Msg: fmt.Sprintf("forward reference to entry %d; references must point backwards", declared)}
	}
	return r.fixture.items[key], nil
}

func (r *resolver) lookupRepo(key string) (*RepoItem, error) {
	item, err := r.lookup(key)
	if err != nil {
		return nil, err
	}
	repo, ok := item.(*RepoItem)
	if !ok {
		return nil, &DefinitionError{Index: r.index, Kind: r.kind, Key: key,
			Msg: "reference is not a repo"}
	}
	return repo, nil
}

func (r *resolver) lookupFile(key string) (*FileItem, error) {
	item, err := r.lookup(key)
	if err != nil {
		return nil, err
	}
	file, ok := item.(*FileItem)
	if !ok {
		return nil, &DefinitionError{Index: r.index, Kind: r.kind, Key: key,
			Msg: "reference is not a file"}
	}
	return file, nil
}

// repoAt returns the repo rooted exactly at path, or the closest one whose
// tree contains it.
func (r *resolver) repoAt(path string) *RepoItem {
	for _, repo := range r.repos {
		if repo.Path() == path {
			return repo
		}
	}
	return r.enclosingRepo(path)
}

// enclosingRepo returns the closest already-constructed repo whose tree
// contains path.
func (r *resolver) enclosingRepo(path string) *RepoItem {
	var best *RepoItem
	for _, repo := range r.repos {
		if path != repo.Path() && paths.Within(repo.Path(), path) {
			if best == nil || len(repo.Path()) > len(best.Path()) {
				best = repo
			}
		}
	}
	return best
}

func (r *resolver) plan(item Item) {
	r.fixture.execution = append(r.fixture.execution, execEntry{index: r.index, kind: r.kind, item: item})
}

func (r *resolver) resolveRepo(entry Entry, isSelf bool) error {
	params := entry.Params
	key, ok, err := stringParam(params, "path")
	if err != nil {
		return r.errorf("%v", err)
	}
	if !ok || key == "" {
		if !isSelf {
			return r.errorf("parameter path is required")
		}
		key = "."
	}

	src, _, err := stringParam(params, "src")
	if err != nil {
		return r.errorf("%v", err)
	}
	annex, _, err := boolParam(params, "annex")
	if err != nil {
		return r.errorf("%v", err)
	}
	version, _, err := intParam(params, "annex_version")
	if err != nil {
		return r.errorf("%v", err)
	}
	direct, err := optionalBoolParam(params, "annex_direct")
	if err != nil {
		return r.errorf("%v", err)
	}
	annexInit, err := optionalBoolParam(params, "annex_init")
	if err != nil {
		return r.errorf("%v", err)
	}

	repo, err := NewRepoItem(RepoConfig{
		Path:         paths.Resolve(r.fixture.root, key),
		Src:          src,
		Annex:        annex,
		AnnexVersion: version,
		AnnexDirect:  direct,
		AnnexInit:    annexInit,
	}, r.fixture.runner)
	if err != nil {
		return r.locate(err)
	}
	r.register(key, repo)
	if isSelf {
		r.fixture.self = repo
	}
	r.repos = append(r.repos, repo)
	r.plan(repo)
	return nil
}

func (r *resolver) fileConfig(params map[string]any, key string) (FileConfig, error) {
	var cfg FileConfig
	cfg.Path = paths.Resolve(r.fixture.root, key)

	repoKey, ok, err := stringParam(params, "repo")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	if ok {
		cfg.Repo, err = r.lookupRepo(repoKey)
		if err != nil {
			return cfg, err
		}
	} else if cfg.Repo = r.enclosingRepo(cfg.Path); cfg.Repo == nil {
		return cfg, r.errorf("no repo encloses path %q", key)
	}

	cfg.Content, _, err = stringParam(params, "content")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	cfg.Src, _, err = stringParam(params, "src")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	state, ok, err := statePairParam(params, "state")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	cfg.State = state
	if !ok {
		cfg.State = domain.UntrackedPair
	}
	cfg.CommitMsg, _, err = stringParam(params, "commit_msg")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	cfg.Annexed, _, err = boolParam(params, "annexed")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	cfg.Key, _, err = stringParam(params, "key")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	cfg.Locked, err = optionalBoolParam(params, "locked")
	if err != nil {
		return cfg, r.errorf("%v", err)
	}
	return cfg, nil
}

func (r *resolver) resolveFile(entry Entry) error {
	key, ok, err := stringParam(entry.Params, "path")
	if err != nil {
		return r.errorf("%v", err)
	}
	if !ok || key == "" {
		return r.errorf("parameter path is required")
	}
	cfg, err := r.fileConfig(entry.Params, key)
	if err != nil {
		return err
	}
	file, err := NewFileItem(cfg, r.fixture.runner, r.fixture.inspector)
	if err != nil {
		return r.locate(err)
	}
	r.register(key, file)
	r.plan(file)
	return nil
}

// resolveInfo is a file entry with everything defaulted: a committed text
// file at a fixed path describing the fixture it belongs to.
func (r *resolver) resolveInfo(def Definition, entry Entry) error {
	key, ok, err := stringParam(entry.Params, "path")
	if err != nil {
		return r.errorf("%v", err)
	}
	if !ok || key == "" {
		key = InfoFilePath
	}
	cfg, err := r.fileConfig(entry.Params, key)
	if err != nil {
		return err
	}
	if cfg.Content == "" && cfg.Src == "" {
		cfg.Content, err = renderInfoContent(def)
		if err != nil {
			return r.errorf("render info content: %v", err)
		}
	}
	if _, declared, err := statePairParam(entry.Params, "state"); err != nil {
		return r.errorf("%v", err)
	} else if !declared {
		cfg.State = domain.CleanPair
	}
	if cfg.CommitMsg == "" && cfg.State == domain.CleanPair {
		cfg.CommitMsg = DefaultInfoCommitMsg
	}
	file, err := NewFileItem(cfg, r.fixture.runner, r.fixture.inspector)
	if err != nil {
		return r.locate(err)
	}
	r.register(key, file)
	r.plan(file)
	return nil
}

func renderInfoContent(def Definition) (string, error) {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return "", err
	}
	return "This repository was created from the following definition:\n\n" + string(data) + "\n", nil
}

// commandRepo resolves the repo a command runs against: an explicit repo
// reference, or the repo owning the first referenced file.
func (r *resolver) commandRepo(params map[string]any, refs []*FileItem) (*RepoItem, error) {
	repoKey, ok, err := stringParam(params, "repo")
	if err != nil {
		return nil, r.errorf("%v", err)
	}
	if ok {
		return r.lookupRepo(repoKey)
	}
	if len(refs) > 0 {
		return refs[0].Repo(), nil
	}
	return nil, r.errorf("parameter repo is required when no file references are given")
}

func (r *resolver) fileRefs(params map[string]any) ([]*FileItem, error) {
	keys, _, err := stringListParam(params, "refs")
	if err != nil {
		return nil, r.errorf("%v", err)
	}
	refs := make([]*FileItem, 0, len(keys))
	for _, key := range keys {
		file, err := r.lookupFile(key)
		if err != nil {
			return nil, err
		}
		refs = append(refs, file)
	}
	return refs, nil
}

func (r *resolver) resolveCommand(entry Entry) error {
	params := entry.Params
	args, _, err := stringListParam(params, "args")
	if err != nil {
		return r.errorf("%v", err)
	}

	var cfg CommandConfig
	cfg.Args = args

	cwd, ok, err := stringParam(params, "cwd")
	if err != nil {
		return r.errorf("%v", err)
	}
	if ok {
		cfg.Cwd = paths.Resolve(r.fixture.root, cwd)
	}
	repoKey, ok, err := stringParam(params, "repo")
	if err != nil {
		return r.errorf("%v", err)
	}
	if ok {
		if cfg.Repo, err = r.lookupRepo(repoKey); err != nil {
			return err
		}
		if cfg.Cwd == "" {
			cfg.Cwd = cfg.Repo.Path()
		}
	} else if cfg.Cwd != "" {
		if cfg.Repo = r.repoAt(cfg.Cwd); cfg.Repo == nil {
			return r.errorf("no repo at or above cwd %q", cwd)
		}
	}

	keys, _, err := stringListParam(params, "refs")
	if err != nil {
		return r.errorf("%v", err)
	}
	for _, key := range keys {
		ref, err := r.lookup(key)
		if err != nil {
			return err
		}
		cfg.Refs = append(cfg.Refs, ref)
	}

	cmd, err := NewCommandItem(cfg, r.fixture.runner)
	if err != nil {
		return r.locate(err)
	}
	r.plan(cmd)
	return nil
}

func (r *resolver) resolveCommit(entry Entry) error {
	refs, err := r.fileRefs(entry.Params)
	if err != nil {
		return err
	}
	repo, err := r.commandRepo(entry.Params, refs)
	if err != nil {
		return err
	}
	msg, _, err := stringParam(entry.Params, "msg")
	if err != nil {
		return r.errorf("%v", err)
	}
	commit, err := NewCommitItem(CommitConfig{Repo: repo, Msg: msg, Refs: refs},
		r.fixture.runner, r.fixture.inspector)
	if err != nil {
		return r.locate(err)
	}
	r.plan(commit)
	return nil
}

func (r *resolver) resolveDrop(entry Entry) error {
	refs, err := r.fileRefs(entry.Params)
	if err != nil {
		return err
	}
	repo, err := r.commandRepo(entry.Params, refs)
	if err != nil {
		return err
	}
	drop, err := NewDropItem(repo, refs, r.fixture.runner)
	if err != nil {
		return r.locate(err)
	}
	r.plan(drop)
	return nil
}

func (r *resolver) resolveSubmodule(entry Entry) error {
	subKey, ok, err := stringParam(entry.Params, "item")
	if err != nil {
		return r.errorf("%v", err)
	}
	if !ok {
		return r.errorf("parameter item is required")
	}
	sub, err := r.lookupRepo(subKey)
	if err != nil {
		return err
	}

	var super *RepoItem
	repoKey, ok, err := stringParam(entry.Params, "repo")
	if err != nil {
		return r.errorf("%v", err)
	}
	if ok {
		if super, err = r.lookupRepo(repoKey); err != nil {
			return err
		}
	} else if super = r.enclosingRepo(sub.Path()); super == nil {
		return r.errorf("no repo encloses submodule %q", subKey)
	}

	item, err := NewSubmoduleItem(super, sub, r.fixture.runner)
	if err != nil {
		return r.locate(err)
	}
	r.plan(item)
	return nil
}

// Build materializes the fixture in definition order and then verifies that
// every indexed item is reachable from the computed roots.
func (f *Fixture) Build(ctx context.Context) error {
	for _, step := range f.execution {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.logger.Debug("materializing item",
			"index", step.index, "kind", string(step.kind), "path", step.item.Path())
		if err := step.item.Materialize(ctx); err != nil {
			if cerr, ok := err.(*CreationError); ok && cerr.Index < 0 {
				cerr.Index = step.index
				cerr.Kind = step.kind
			}
			return err
		}
	}
	return f.checkReachability()
}

// Roots are the repositories without a superproject, sorted by path.
func (f *Fixture) Roots() []*RepoItem {
	var roots []*RepoItem
	for _, item := range f.items {
		if repo, ok := item.(*RepoItem); ok && repo.Superproject() == nil {
			roots = append(roots, repo)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Path() < roots[j].Path() })
	return roots
}

// checkReachability walks the item graph from the roots and reports any
// indexed item the walk did not visit. That means the builder failed to link
// something it created, which is a bug here, not in the definition.
func (f *Fixture) checkReachability() error {
	reached := make(map[Item]struct{})
	var walk func(repo *RepoItem)
	walk = func(repo *RepoItem) {
		if _, seen := reached[repo]; seen {
			return
		}
		reached[repo] = struct{}{}
		f.logger.Debug("reached repo", "path", repo.Path())
		for _, file := range repo.Files() {
			reached[file] = struct{}{}
			f.logger.Debug("reached file", "path", file.Path())
		}
		for _, sub := range repo.Submodules() {
			walk(sub)
		}
	}
	for _, root := range f.Roots() {
		walk(root)
	}

	for key, item := range f.items {
		if _, ok := reached[item]; !ok {
			return fmt.Errorf("%w: %s", ErrUnreachableItem, key)
		}
	}
	return nil
}

// Root is the absolute directory the fixture was resolved against.
func (f *Fixture) Root() string { return f.root }

// Self is the repository the fixture exposes as its handle.
func (f *Fixture) Self() *RepoItem { return f.self }

// Definition returns the definition the fixture was resolved from.
func (f *Fixture) Definition() Definition { return f.def }

// Item looks up a keyed item by its declared relative path.
func (f *Fixture) Item(key string) (Item, bool) {
	item, ok := f.items[key]
	return item, ok
}

// Repo looks up a keyed repository by its declared relative path.
func (f *Fixture) Repo(key string) (*RepoItem, bool) {
	repo, ok := f.items[key].(*RepoItem)
	return repo, ok
}

// File looks up a keyed file by its declared relative path.
func (f *Fixture) File(key string) (*FileItem, bool) {
	file, ok := f.items[key].(*FileItem)
	return file, ok
}

// Keys returns the declared relative paths of all indexed items, sorted.
func (f *Fixture) Keys() []string {
	keys := make([]string, 0, len(f.items))
	for key := range f.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
