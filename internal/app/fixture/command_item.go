package fixture

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// CommandConfig carries the declared parameters of a command entry. Either
// Cwd or Repo must be set; when both are, Cwd wins as the working directory.
type CommandConfig struct {
	Cwd  string
	Repo *RepoItem
	Args []string
	Refs []Item // referenced items, appended as paths after "--"
}

// CommandItem runs an arbitrary tool command during materialization. It
// persists nothing of its own, so integrity checking is a no-op; the items
// it touched carry the recorded effects.
type CommandItem struct {
	path   string
	runner Runner
	repo   *RepoItem
	args   []string
	refs   []Item
}

func NewCommandItem(cfg CommandConfig, runner Runner) (*CommandItem, error) {
	if len(cfg.Args) == 0 {
		return nil, definitionErrorf("a command needs at least one argument")
	}
	cwd := cfg.Cwd
	if cwd == "" {
		if cfg.Repo == nil {
			return nil, definitionErrorf("a command needs a cwd or a repo to run in")
		}
		cwd = cfg.Repo.Path()
	}
	return &CommandItem{
		path:   cwd,
		runner: runner,
		repo:   cfg.Repo,
		args:   cfg.Args,
		refs:   cfg.Refs,
	}, nil
}

func (c *CommandItem) Path() string { return c.path }
func (c *CommandItem) Args() []string {
	return append(append([]string(nil), c.args...), c.refPaths()...)
}

func (c *CommandItem) refPaths() []string {
	if len(c.refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.refs)+1)
	out = append(out, "--")
	for _, ref := range c.refs {
		out = append(out, ref.Path())
	}
	return out
}

func (c *CommandItem) Materialize(ctx context.Context) error {
	args := c.Args()
	if _, err := c.runner.Run(ctx, c.path, args...); err != nil {
		return &CreationError{Index: -1, Path: c.path,
			Msg: fmt.Sprintf("run %s", strings.Join(args, " ")), Err: err}
	}
	return nil
}

func (c *CommandItem) CheckIntegrity(context.Context) error { return nil }

// CommitItem is the specialized commit command: it runs the commit, records
// the resulting (sha, message) pair on the repository and every referenced
// file, and flips those files' index slot to unmodified. It deliberately does
// NOT stage anything; staging is the definition's responsibility.
type CommitItem struct {
	runner    Runner
	inspector Inspector
	repo      *RepoItem
	msg       string
	refs      []*FileItem
}

// CommitConfig carries the declared parameters of a commit entry.
type CommitConfig struct {
	Repo *RepoItem
	Msg  string // defaults to a message naming the referenced paths
	Refs []*FileItem
}

func NewCommitItem(cfg CommitConfig, runner Runner, inspector Inspector) (*CommitItem, error) {
	if cfg.Repo == nil {
		return nil, definitionErrorf("a commit command needs a repo")
	}
	msg := cfg.Msg
	if msg == "" {
		names := make([]string, 0, len(cfg.Refs))
		for _, f := range cfg.Refs {
			if rel, err := filepath.Rel(cfg.Repo.Path(), f.Path()); err == nil {
				names = append(names, rel)
			}
		}
		msg = "Committing " + strings.Join(names, ", ")
		if len(names) == 0 {
			msg = "Committing staged changes"
		}
	}
	return &CommitItem{
		runner:    runner,
		inspector: inspector,
		repo:      cfg.Repo,
		msg:       msg,
		refs:      cfg.Refs,
	}, nil
}

func (c *CommitItem) Path() string    { return c.repo.Path() }
func (c *CommitItem) Message() string { return c.msg }

func (c *CommitItem) Materialize(ctx context.Context) error {
	args := []string{"git", "--work-tree=.", "commit", "-m", c.msg}
	if len(c.refs) > 0 {
		args = append(args, "--")
		for _, f := range c.refs {
			args = append(args, f.Path())
		}
	}
	if _, err := c.runner.Run(ctx, c.repo.Path(), args...); err != nil {
		return &CreationError{Index: -1, Path: c.repo.Path(), Msg: "commit", Err: err}
	}

	commit, err := c.inspector.HeadCommit(ctx, c.repo.Path())
	if err != nil {
		return &CreationError{Index: -1, Path: c.repo.Path(), Msg: "look up commit", Err: err}
	}
	c.repo.recordCommit(commit)
	for _, f := range c.refs {
		f.recordCommit(commit)
		f.setIndexState(domain.Unmodified)
		c.repo.adoptFile(f)
	}

	branch, err := soleBranchContaining(ctx, c.runner, c.repo.Path(), commit)
	if err != nil {
		return err
	}
	c.repo.branches.Add(branch)
	return nil
}

func (c *CommitItem) CheckIntegrity(context.Context) error { return nil }

// DropItem drops the annexed content of the referenced files and records the
// content as no longer locally present.
type DropItem struct {
	runner Runner
	repo   *RepoItem
	refs   []*FileItem
}

func NewDropItem(repo *RepoItem, refs []*FileItem, runner Runner) (*DropItem, error) {
	if repo == nil {
		return nil, definitionErrorf("a drop command needs a repo")
	}
	if !repo.IsAnnex() {
		return nil, definitionErrorf("cannot drop content of a plain git repo %s", repo.Path())
	}
	return &DropItem{runner: runner, repo: repo, refs: refs}, nil
}

func (d *DropItem) Path() string { return d.repo.Path() }

func (d *DropItem) Materialize(ctx context.Context) error {
	args := []string{"git", "annex", "drop"}
	if len(d.refs) > 0 {
		args = append(args, "--")
		for _, f := range d.refs {
			args = append(args, f.Path())
		}
	}
	if _, err := d.runner.Run(ctx, d.repo.Path(), args...); err != nil {
		return &CreationError{Index: -1, Path: d.repo.Path(), Msg: "drop content", Err: err}
	}
	for _, f := range d.refs {
		f.markContentAbsent()
	}
	return nil
}

func (d *DropItem) CheckIntegrity(context.Context) error { return nil }

// SubmoduleItem registers an existing repository as a submodule of its
// superproject and links the two objects.
type SubmoduleItem struct {
	runner Runner
	repo   *RepoItem // superproject
	sub    *RepoItem
}

func NewSubmoduleItem(repo, sub *RepoItem, runner Runner) (*SubmoduleItem, error) {
	if repo == nil || sub == nil {
		return nil, definitionErrorf("a submodule command needs a repo and a submodule")
	}
	if sub.Path() == repo.Path() {
		return nil, definitionErrorf("a repo cannot be its own submodule")
	}
	return &SubmoduleItem{runner: runner, repo: repo, sub: sub}, nil
}

func (s *SubmoduleItem) Path() string { return s.repo.Path() }

func (s *SubmoduleItem) Materialize(ctx context.Context) error {
	rel, err := filepath.Rel(s.repo.Path(), s.sub.Path())
	if err != nil || strings.HasPrefix(rel, "..") {
		return creationErrorf(s.repo.Path(), "submodule %s is not beneath the superproject", s.sub.Path())
	}
	args := []string{"git", "submodule", "add", "./" + rel, rel}
	if _, err := s.runner.Run(ctx, s.repo.Path(), args...); err != nil {
		return &CreationError{Index: -1, Path: s.repo.Path(), Msg: "add submodule", Err: err}
	}
	s.repo.adoptSubmodule(s.sub)
	return nil
}

func (s *SubmoduleItem) CheckIntegrity(context.Context) error { return nil }
