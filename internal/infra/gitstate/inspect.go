// Package gitstate re-derives repository facts through go-git. It backs the
// verifier's Inspector port, so its answers come from a different code path
// than the binaries that created the state.
package gitstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// Inspector reads commit and status facts from a repository on disk.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

// HeadCommit returns the sha and message of the commit HEAD points at.
func (Inspector) HeadCommit(ctx context.Context, repoPath string) (domain.Commit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Commit{}, err
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return domain.Commit{}, fmt.Errorf("open %s: %w", repoPath, err)
	}
	head, err := repo.Head()
	if err != nil {
		return domain.Commit{}, fmt.Errorf("resolve HEAD of %s: %w", repoPath, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return domain.Commit{}, fmt.Errorf("read commit %s: %w", head.Hash(), err)
	}
	return domain.Commit{
		SHA:     commit.Hash.String(),
		Message: strings.TrimSpace(commit.Message),
	}, nil
}

// FileStatus returns the two-slot short status of one file, relative to the
// repository root. A file absent from the status listing is clean.
func (Inspector) FileStatus(ctx context.Context, repoPath, relPath string) (domain.StatusPair, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatusPair{}, err
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return domain.StatusPair{}, fmt.Errorf("open %s: %w", repoPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return domain.StatusPair{}, fmt.Errorf("worktree of %s: %w", repoPath, err)
	}
	status, err := worktree.Status()
	if err != nil {
		return domain.StatusPair{}, fmt.Errorf("status of %s: %w", repoPath, err)
	}

	entry, listed := status[relPath]
	if !listed {
		return domain.CleanPair, nil
	}
	index, err := mapStatusCode(entry.Staging)
	if err != nil {
		return domain.StatusPair{}, fmt.Errorf("index slot of %s: %w", relPath, err)
	}
	worktreeState, err := mapStatusCode(entry.Worktree)
	if err != nil {
		return domain.StatusPair{}, fmt.Errorf("worktree slot of %s: %w", relPath, err)
	}
	return domain.StatusPair{Index: index, Worktree: worktreeState}, nil
}

// mapStatusCode converts a go-git short-format code into the domain
// alphabet. The code sets are byte-identical, so this is a checked cast.
func mapStatusCode(code git.StatusCode) (domain.FileState, error) {
	state := domain.FileState(code)
	if !state.IsValid() {
		return 0, fmt.Errorf("unknown status code %q", byte(code))
	}
	return state, nil
}
