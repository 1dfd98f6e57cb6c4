package fixture

import (
	"context"

	"github.com/osvaldoandrade/gitfixture/internal/app/paths"
)

// Verify walks the fixture from its roots and re-derives every item's state
// from disk and tool output, failing on the first divergence. The graph
// links between items are checked here too; a broken back-reference means
// the in-memory picture no longer matches what was built.
func (f *Fixture) Verify(ctx context.Context) error {
	for _, root := range f.Roots() {
		if err := f.verifyRepo(ctx, root); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fixture) verifyRepo(ctx context.Context, repo *RepoItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.logger.Debug("verifying repo", "path", repo.Path())
	if err := repo.CheckIntegrity(ctx); err != nil {
		return err
	}

	for _, file := range repo.Files() {
		if file.Repo() != repo {
			return integrityErrorf(file.Path(), "graph", "file is owned by %s but linked elsewhere", repo.Path())
		}
		if !paths.Within(repo.Path(), file.Path()) {
			return integrityErrorf(file.Path(), "graph", "file lies outside its repo %s", repo.Path())
		}
		f.logger.Debug("verifying file", "path", file.Path())
		if err := file.CheckIntegrity(ctx); err != nil {
			return err
		}
	}

	for _, sub := range repo.Submodules() {
		if sub.Superproject() != repo {
			return integrityErrorf(sub.Path(), "graph", "submodule does not link back to %s", repo.Path())
		}
		if !paths.Within(repo.Path(), sub.Path()) {
			return integrityErrorf(sub.Path(), "graph", "submodule lies outside its superproject %s", repo.Path())
		}
		if err := f.verifyRepo(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}
