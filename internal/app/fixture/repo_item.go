package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// RepoConfig carries the declared parameters of a repository entry. Paths
// are absolute by the time a config reaches the constructor.
type RepoConfig struct {
	Path         string
	Src          string // clone source; empty means init
	Annex        bool
	AnnexVersion int   // 0 leaves the choice to the tool
	AnnexDirect  *bool // nil leaves the choice to the tool
	AnnexInit    *bool // nil defaults to true for an annex
}

// RepoItem is a plain git repository or an annex, possibly nested inside a
// superproject. Properties that definitions cannot express directly
// (commits, branches, submodule links) are recorded by command items during
// materialization.
type RepoItem struct {
	path   string
	runner Runner

	src          string
	annex        bool
	annexVersion int
	annexDirect  bool
	annexInit    bool

	items    map[Item]struct{} // owned children, by identity
	commits  domain.CommitSet
	branches domain.BranchSet
	remotes  domain.RemoteSet
	super    *RepoItem // nil for a top-level repo
}

func NewRepoItem(cfg RepoConfig, runner Runner) (*RepoItem, error) {
	if !cfg.Annex {
		var invalid []string
		if cfg.AnnexVersion != 0 {
			invalid = append(invalid, "annex_version")
		}
		if cfg.AnnexDirect != nil {
			invalid = append(invalid, "annex_direct")
		}
		if cfg.AnnexInit != nil {
			invalid = append(invalid, "annex_init")
		}
		if len(invalid) > 0 {
			return nil, definitionErrorf("parameters %s require annex=true",
				strings.Join(invalid, ", "))
		}
	}

	if cfg.AnnexDirect != nil && *cfg.AnnexDirect && cfg.AnnexVersion >= 6 {
		return nil, definitionErrorf("there is no direct mode for annex repository version 6 or greater")
	}

	if cfg.AnnexInit != nil && !*cfg.AnnexInit {
		if cfg.Src == "" {
			return nil, definitionErrorf("a non-initialized annex must be created by cloning: annex_init=false requires src")
		}
		if cfg.AnnexVersion != 0 || cfg.AnnexDirect != nil {
			return nil, definitionErrorf("annex_version and annex_direct are invalid when annex_init is false")
		}
	}

	r := &RepoItem{
		path:         cfg.Path,
		runner:       runner,
		src:          cfg.Src,
		annex:        cfg.Annex,
		annexVersion: cfg.AnnexVersion,
		items:        make(map[Item]struct{}),
		commits:      domain.NewCommitSet(),
		branches:     domain.NewBranchSet(),
		remotes:      domain.NewRemoteSet(),
	}
	if cfg.Annex {
		r.annexInit = cfg.AnnexInit == nil || *cfg.AnnexInit
		r.annexDirect = cfg.AnnexDirect != nil && *cfg.AnnexDirect
	}
	return r, nil
}

func (r *RepoItem) Path() string { return r.path }

// IsAnnex reports whether the repository is an annex.
func (r *RepoItem) IsAnnex() bool { return r.annex }

// IsGit reports whether the repository is a plain git repo.
func (r *RepoItem) IsGit() bool { return !r.annex }

func (r *RepoItem) AnnexVersion() int       { return r.annexVersion }
func (r *RepoItem) IsDirectMode() bool      { return r.annexDirect }
func (r *RepoItem) AnnexInitialized() bool  { return r.annexInit }
func (r *RepoItem) CloneSource() string     { return r.src }
func (r *RepoItem) Superproject() *RepoItem { return r.super }

func (r *RepoItem) Commits() domain.CommitSet  { return r.commits }
func (r *RepoItem) Branches() domain.BranchSet { return r.branches }
func (r *RepoItem) Remotes() domain.RemoteSet  { return r.remotes }

// Files returns the owned file items, sorted by path.
func (r *RepoItem) Files() []*FileItem {
	var files []*FileItem
	for it := range r.items {
		if f, ok := it.(*FileItem); ok {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files
}

// Submodules returns the owned sub-repositories, sorted by path.
func (r *RepoItem) Submodules() []*RepoItem {
	var subs []*RepoItem
	for it := range r.items {
		if sub, ok := it.(*RepoItem); ok && sub.super == r {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].path < subs[j].path })
	return subs
}

// SubmodulePaths returns the submodule paths relative to this repository.
func (r *RepoItem) SubmodulePaths() []string {
	subs := r.Submodules()
	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		if rel, err := filepath.Rel(r.path, sub.path); err == nil {
			out = append(out, rel)
		}
	}
	return out
}

func (r *RepoItem) adoptFile(f *FileItem) {
	r.items[f] = struct{}{}
}

func (r *RepoItem) adoptSubmodule(sub *RepoItem) {
	r.items[sub] = struct{}{}
	sub.super = r
}

func (r *RepoItem) recordCommit(c domain.Commit) {
	r.commits.Add(c)
}

// Materialize creates the repository on disk via the external tool.
func (r *RepoItem) Materialize(ctx context.Context) error {
	info, err := os.Stat(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(r.path, 0o755); err != nil {
			return &CreationError{Index: -1, Path: r.path, Msg: "create directory", Err: err}
		}
	case err != nil:
		return &CreationError{Index: -1, Path: r.path, Msg: "stat target", Err: err}
	case !info.IsDir():
		return creationErrorf(r.path, "target path is not a directory")
	default:
		entries, err := os.ReadDir(r.path)
		if err != nil {
			return &CreationError{Index: -1, Path: r.path, Msg: "read target directory", Err: err}
		}
		if len(entries) > 0 {
			return creationErrorf(r.path, "target path is not empty")
		}
	}

	createArgs := []string{"git", "init"}
	if r.src != "" {
		createArgs = []string{"git", "clone", r.src, "."}
	}
	if _, err := r.runner.Run(ctx, r.path, createArgs...); err != nil {
		return &CreationError{Index: -1, Path: r.path, Msg: "create git repository", Err: err}
	}

	if r.src != "" {
		r.remotes.Add(domain.Remote{Name: "origin", URL: r.src})
	}

	if r.annex && r.annexInit {
		initArgs := []string{"git", "annex", "init"}
		if r.annexVersion != 0 {
			initArgs = append(initArgs, fmt.Sprintf("--version=%d", r.annexVersion))
		}
		if _, err := r.runner.Run(ctx, r.path, initArgs...); err != nil {
			return &CreationError{Index: -1, Path: r.path, Msg: "initialize annex", Err: err}
		}
		r.branches.Add("git-annex")

		if r.annexDirect {
			if _, err := r.runner.Run(ctx, r.path, "git", "annex", "direct"); err != nil {
				return &CreationError{Index: -1, Path: r.path, Msg: "switch to direct mode", Err: err}
			}
			r.branches.Add("annex/direct/master")
		}
	}

	return nil
}

// CheckIntegrity re-derives repository state from disk and tool output and
// compares it to the recorded object.
func (r *RepoItem) CheckIntegrity(ctx context.Context) error {
	if r.IsGit() {
		if r.annexInit || r.annexVersion != 0 || r.annexDirect {
			return integrityErrorf(r.path, "annex-flags", "non-annex repo carries annex settings")
		}
	}
	if r.annex && !r.annexInit {
		if r.src == "" {
			return integrityErrorf(r.path, "annex-flags", "non-initialized annex without clone source")
		}
		if !r.remotes.Has(domain.Remote{Name: "origin", URL: r.src}) {
			return integrityErrorf(r.path, "remotes", "cloned repo lost its origin remote")
		}
	}

	if err := r.checkGitDir(); err != nil {
		return err
	}

	out, err := r.runner.Run(ctx, r.path, "git", "branch", "-a")
	if err != nil {
		return integrityErrorf(r.path, "branches", "list branches: %v", err)
	}
	if got := parseBranchRows(out); !got.Equal(r.branches) {
		return integrityErrorf(r.path, "branches", "tool reports %v, recorded %v",
			got.Names(), r.branches.Names())
	}

	out, err = r.runner.Run(ctx, r.path, "git", "--work-tree=.", "submodule")
	if err != nil {
		return integrityErrorf(r.path, "submodules", "list submodules: %v", err)
	}
	rows, err := parseSubmoduleRows(out)
	if err != nil {
		return integrityErrorf(r.path, "submodules", "%v", err)
	}
	got := domain.NewBranchSet()
	for _, row := range rows {
		got.Add(row.Path)
	}
	want := domain.NewBranchSet(r.SubmodulePaths()...)
	if !got.Equal(want) {
		return integrityErrorf(r.path, "submodules", "tool reports %v, recorded %v",
			got.Names(), want.Names())
	}

	out, err = r.runner.Run(ctx, r.path, "git", "remote", "-v")
	if err != nil {
		return integrityErrorf(r.path, "remotes", "list remotes: %v", err)
	}
	remotes, err := parseRemoteRows(out)
	if err != nil {
		return integrityErrorf(r.path, "remotes", "%v", err)
	}
	if !remotes.Equal(r.remotes) {
		return integrityErrorf(r.path, "remotes", "tool reports %v, recorded %v", remotes, r.remotes)
	}

	return nil
}

func (r *RepoItem) checkGitDir() error {
	gitPath := filepath.Join(r.path, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return integrityErrorf(r.path, "git-dir", "missing .git: %v", err)
	}

	if !r.annex || !r.annexInit {
		return nil
	}

	// Initialized annex: .git is a dir with an annex subdir, or a pointer
	// file whose gitdir contains one.
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(gitPath, "annex")); err != nil {
			return integrityErrorf(r.path, "git-dir", "initialized annex without .git/annex: %v", err)
		}
		return nil
	}

	data, err := os.ReadFile(gitPath)
	if err != nil {
		return integrityErrorf(r.path, "git-dir", "read .git pointer: %v", err)
	}
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	const prefix = "gitdir: "
	if !strings.HasPrefix(line, prefix) {
		return integrityErrorf(r.path, "git-dir", "invalid .git pointer file")
	}
	gitDir := strings.TrimPrefix(line, prefix)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.path, gitDir)
	}
	if _, err := os.Stat(filepath.Join(gitDir, "annex")); err != nil {
		return integrityErrorf(r.path, "git-dir", "initialized annex without annex dir: %v", err)
	}
	return nil
}
