package fixture

import (
	"context"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// Runner executes an external tool argument vector inside a working
// directory and returns captured output. Failures carry the exit status and
// output of the process (see gitcli.CommandError).
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// Inspector re-derives repository state for the verifier through a code
// path independent of the Runner used during materialization.
type Inspector interface {
	// HeadCommit returns the commit HEAD points at.
	HeadCommit(ctx context.Context, repoPath string) (domain.Commit, error)
	// FileStatus returns the (index, worktree) state of a file, relative
	// to the repository root.
	FileStatus(ctx context.Context, repoPath, relPath string) (domain.StatusPair, error)
}

// EntryValidator checks the shape of an entry's parameter map (serialized
// as JSON) before the entry is constructed.
type EntryValidator interface {
	ValidateEntry(ctx context.Context, kind string, params []byte) error
}
