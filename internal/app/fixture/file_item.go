package fixture

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/osvaldoandrade/gitfixture/internal/app/paths"
	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// FileConfig carries the declared parameters of a file entry. Paths are
// absolute by the time a config reaches the constructor.
type FileConfig struct {
	Path      string
	Repo      *RepoItem
	Content   string // mutually exclusive with Src
	Src       string // annex-addurl source; requires Annexed
	State     domain.StatusPair
	CommitMsg string
	Annexed   bool
	Key       string // annex content key; looked up when empty
	Locked    *bool  // nil when lock state is not a concept for the file
}

// FileItem is a tracked or untracked file owned by a repository.
type FileItem struct {
	path      string
	runner    Runner
	inspector Inspector

	repo      *RepoItem
	content   string
	src       string
	state     domain.StatusPair
	commitMsg string
	annexed   bool
	key       string
	locked    *bool

	commits        domain.CommitSet
	contentPresent *bool // set once the file is annex-added
}

func NewFileItem(cfg FileConfig, runner Runner, inspector Inspector) (*FileItem, error) {
	if cfg.Repo == nil {
		return nil, definitionErrorf("parameter repo is required for a file")
	}
	if cfg.Path == cfg.Repo.Path() || !paths.Within(cfg.Repo.Path(), cfg.Path) {
		return nil, definitionErrorf("path %s is not beneath its repo %s", cfg.Path, cfg.Repo.Path())
	}
	if cfg.Src != "" && cfg.Content != "" {
		return nil, definitionErrorf("parameters src and content are mutually exclusive")
	}
	if cfg.Src == "" && cfg.Content == "" {
		return nil, definitionErrorf("one of src or content is required")
	}
	if !cfg.State.IsValidInitial() {
		return nil, definitionErrorf("state %s is invalid as an initial definition; use commands to reach it", cfg.State)
	}
	if cfg.CommitMsg != "" && cfg.State != domain.CleanPair {
		return nil, definitionErrorf("commit_msg requires the clean state %s, got %s", domain.CleanPair, cfg.State)
	}
	if cfg.CommitMsg == "" && cfg.State == domain.CleanPair {
		return nil, definitionErrorf("the clean state %s requires commit_msg", domain.CleanPair)
	}
	if !cfg.Annexed {
		var invalid []string
		if cfg.Src != "" {
			invalid = append(invalid, "src")
		}
		if cfg.Locked != nil {
			invalid = append(invalid, "locked")
		}
		if cfg.Key != "" {
			invalid = append(invalid, "key")
		}
		if len(invalid) > 0 {
			return nil, definitionErrorf("parameters %s require annexed=true", strings.Join(invalid, ", "))
		}
	}
	if cfg.Src != "" && cfg.State != domain.StagedAddPair {
		return nil, definitionErrorf("src requires the initial state %s, got %s", domain.StagedAddPair, cfg.State)
	}

	return &FileItem{
		path:      cfg.Path,
		runner:    runner,
		inspector: inspector,
		repo:      cfg.Repo,
		content:   cfg.Content,
		src:       cfg.Src,
		state:     cfg.State,
		commitMsg: cfg.CommitMsg,
		annexed:   cfg.Annexed,
		key:       cfg.Key,
		locked:    cfg.Locked,
		commits:   domain.NewCommitSet(),
	}, nil
}

func (f *FileItem) Path() string              { return f.path }
func (f *FileItem) Repo() *RepoItem           { return f.repo }
func (f *FileItem) Content() string           { return f.content }
func (f *FileItem) Status() domain.StatusPair { return f.state }
func (f *FileItem) Annexed() bool             { return f.annexed }
func (f *FileItem) AnnexKey() string          { return f.key }
func (f *FileItem) Commits() domain.CommitSet { return f.commits }

func (f *FileItem) IsUntracked() bool { return f.state.IsUntracked() }
func (f *FileItem) IsStaged() bool    { return f.state.IsStaged() }
func (f *FileItem) IsModified() bool  { return f.state.IsModified() }
func (f *FileItem) IsClean() bool     { return f.state.IsClean() }

// IsLocked is nil when locked/unlocked is not a concept for this file
// (plain git, untracked).
func (f *FileItem) IsLocked() *bool { return f.locked }

// ContentAvailable is nil until the file has been annex-added.
func (f *FileItem) ContentAvailable() *bool { return f.contentPresent }

func (f *FileItem) markContentAbsent() {
	absent := false
	f.contentPresent = &absent
}

func (f *FileItem) setIndexState(state domain.FileState) {
	f.state.Index = state
}

func (f *FileItem) recordCommit(c domain.Commit) {
	f.commits.Add(c)
}

// Materialize writes the file and performs the add/commit the declared
// initial state implies. Anything beyond that is expressed as command
// items in the definition.
func (f *FileItem) Materialize(ctx context.Context) error {
	if _, err := os.Lstat(f.path); err == nil {
		return creationErrorf(f.path, "target path already exists")
	}
	if f.content != "" {
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return &CreationError{Index: -1, Path: f.path, Msg: "write file", Err: err}
		}
	}

	// The file exists (or is about to be fetched); the repo owns it now.
	f.repo.adoptFile(f)

	if f.state.IsUntracked() {
		return nil
	}

	if err := f.add(ctx); err != nil {
		return err
	}

	if f.locked != nil && !*f.locked {
		// Unlock before a commit; in v6 the file would read as
		// typechanged otherwise.
		if _, err := f.runner.Run(ctx, f.repo.Path(), "git", "annex", "unlock", f.path); err != nil {
			return &CreationError{Index: -1, Path: f.path, Msg: "unlock", Err: err}
		}
	}

	if f.state == domain.CleanPair {
		return f.commit(ctx)
	}
	return nil
}

func (f *FileItem) add(ctx context.Context) error {
	var addArgs []string
	switch {
	case f.annexed && f.src != "":
		addArgs = []string{"git", "annex", "addurl", f.src, "--file=" + f.path}
	case f.annexed:
		addArgs = []string{"git", "annex", "add", f.path}
	default:
		addArgs = []string{"git", "--work-tree=.", "add", f.path}
	}
	if _, err := f.runner.Run(ctx, f.repo.Path(), addArgs...); err != nil {
		return &CreationError{Index: -1, Path: f.path, Msg: "add to repository", Err: err}
	}

	if f.annexed {
		present := true
		f.contentPresent = &present

		if f.key == "" {
			out, err := f.runner.Run(ctx, f.repo.Path(), "git", "annex", "lookupkey", f.path)
			if err != nil {
				return &CreationError{Index: -1, Path: f.path, Msg: "look up annex key", Err: err}
			}
			f.key = strings.TrimSpace(out)
		}

		if f.src != "" {
			// addurl fetched the content; read it back so the stored
			// content reflects what is on disk.
			data, err := os.ReadFile(f.path)
			if err != nil {
				return &CreationError{Index: -1, Path: f.path, Msg: "read fetched content", Err: err}
			}
			f.content = string(data)
		}
	}

	return nil
}

func (f *FileItem) commit(ctx context.Context) error {
	commitArgs := []string{"git", "--work-tree=.", "commit", "-m", f.commitMsg, "--", f.path}
	if _, err := f.runner.Run(ctx, f.repo.Path(), commitArgs...); err != nil {
		return &CreationError{Index: -1, Path: f.path, Msg: "commit", Err: err}
	}

	commit, err := f.inspector.HeadCommit(ctx, f.repo.Path())
	if err != nil {
		return &CreationError{Index: -1, Path: f.path, Msg: "look up commit", Err: err}
	}
	f.commits.Add(commit)
	f.repo.recordCommit(commit)

	branch, err := soleBranchContaining(ctx, f.runner, f.repo.Path(), commit)
	if err != nil {
		return err
	}
	f.repo.branches.Add(branch)
	return nil
}

// CheckIntegrity re-derives file state from disk and tool output and
// compares it to the stored object.
func (f *FileItem) CheckIntegrity(ctx context.Context) error {
	if err := f.checkConsistency(); err != nil {
		return err
	}

	if _, err := os.Lstat(f.path); err != nil {
		return integrityErrorf(f.path, "existence", "%v", err)
	}

	available := f.contentPresent != nil && *f.contentPresent
	if available || !f.annexed {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return integrityErrorf(f.path, "content", "read: %v", err)
		}
		if string(data) != f.content {
			return integrityErrorf(f.path, "content", "on-disk content diverges from recorded content")
		}
	}

	if f.locked != nil && *f.locked {
		w, err := os.OpenFile(f.path, os.O_WRONLY, 0)
		if err == nil {
			w.Close()
			return integrityErrorf(f.path, "lock", "locked file accepted a write open")
		}
	}

	// Cross-check against the tool's status report. Annexed files show up
	// as symlink churn there, so only plain files are compared.
	if !f.annexed && f.inspector != nil {
		rel, err := filepath.Rel(f.repo.Path(), f.path)
		if err != nil {
			return integrityErrorf(f.path, "status", "relativize: %v", err)
		}
		reported, err := f.inspector.FileStatus(ctx, f.repo.Path(), rel)
		if err != nil {
			return integrityErrorf(f.path, "status", "query status: %v", err)
		}
		if reported != f.state {
			return integrityErrorf(f.path, "status", "tool reports %s, recorded %s", reported, f.state)
		}
	}

	return nil
}

// checkConsistency asserts the stored fields agree with the status
// derivation table.
func (f *FileItem) checkConsistency() error {
	if !f.state.IsValid() {
		return integrityErrorf(f.path, "state", "invalid state pair %s", f.state)
	}

	if f.state.IsUntracked() {
		if len(f.commits) != 0 {
			return integrityErrorf(f.path, "commits", "untracked file carries commits")
		}
		if f.annexed {
			return integrityErrorf(f.path, "annexed", "untracked file marked annexed")
		}
		if f.locked != nil {
			return integrityErrorf(f.path, "lock", "untracked file carries a lock state")
		}
		if f.contentPresent != nil {
			return integrityErrorf(f.path, "availability", "untracked file carries content availability")
		}
	}

	switch f.state.Index {
	case domain.Untracked, domain.Added:
		if len(f.commits) != 0 {
			return integrityErrorf(f.path, "commits", "uncommitted file carries commits")
		}
	case domain.Unmodified:
		if len(f.commits) == 0 {
			return integrityErrorf(f.path, "commits", "committed file carries no commits")
		}
	}

	if (f.locked != nil || f.key != "" || f.contentPresent != nil) && !f.annexed {
		return integrityErrorf(f.path, "annexed", "annex fields set on a non-annexed file")
	}

	return nil
}

// soleBranchContaining returns the single branch a fresh commit landed on.
// A plain commit cannot rightfully create two branches, so finding more
// than one is a build error.
func soleBranchContaining(ctx context.Context, runner Runner, repoPath string, commit domain.Commit) (string, error) {
	out, err := runner.Run(ctx, repoPath, "git", "branch", "--contains", commit.SHA)
	if err != nil {
		return "", &CreationError{Index: -1, Path: repoPath, Msg: "look up branch", Err: err}
	}
	branches := parseBranchRows(out).Names()
	if len(branches) != 1 {
		return "", creationErrorf(repoPath, "commit %s (%s) unexpectedly reachable from %d branches",
			commit.SHA, commit.Message, len(branches))
	}
	return branches[0], nil
}
