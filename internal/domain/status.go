package domain

import "fmt"

// FileState is one slot of the two-letter classification git-status uses in
// its short format: the first slot describes the index, the second the
// worktree.
type FileState byte

const (
	Untracked   FileState = '?'
	Unmodified  FileState = ' '
	Modified    FileState = 'M'
	Added       FileState = 'A'
	Deleted     FileState = 'D'
	Renamed     FileState = 'R'
	Copied      FileState = 'C'
	TypeChanged FileState = 'T'
	Unmerged    FileState = 'U'
)

func (s FileState) IsValid() bool {
	switch s {
	case Untracked, Unmodified, Modified, Added, Deleted, Renamed, Copied,
		TypeChanged, Unmerged:
		return true
	}
	return false
}

// Code returns the one-character short-format code.
func (s FileState) Code() string {
	return string(rune(s))
}

func (s FileState) String() string {
	switch s {
	case Untracked:
		return "untracked"
	case Unmodified:
		return "unmodified"
	case Modified:
		return "modified"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	case TypeChanged:
		return "typechanged"
	case Unmerged:
		return "unmerged"
	}
	return fmt.Sprintf("invalid(%q)", rune(s))
}

func ParseFileState(value string) (FileState, error) {
	if len(value) != 1 {
		return 0, fmt.Errorf("invalid file state %q: want a single short-format code", value)
	}
	parsed := FileState(value[0])
	if !parsed.IsValid() {
		return 0, fmt.Errorf("invalid file state %q", value)
	}
	return parsed, nil
}

// StatusPair is the (index, worktree) state of a tracked or untracked file.
type StatusPair struct {
	Index    FileState
	Worktree FileState
}

var (
	UntrackedPair = StatusPair{Index: Untracked, Worktree: Untracked}
	StagedAddPair = StatusPair{Index: Added, Worktree: Unmodified}
	CleanPair     = StatusPair{Index: Unmodified, Worktree: Unmodified}
)

func (p StatusPair) IsValid() bool {
	return p.Index.IsValid() && p.Worktree.IsValid()
}

// IsUntracked reports whether both slots are untracked.
func (p StatusPair) IsUntracked() bool {
	return p.Index == Untracked && p.Worktree == Untracked
}

// IsStaged reports whether the index holds a pending change while the
// worktree is unmodified.
func (p StatusPair) IsStaged() bool {
	switch p.Index {
	case Modified, Added, Deleted, Renamed, Copied, TypeChanged:
		return p.Worktree == Unmodified
	}
	return false
}

// IsModified reports whether either slot is modified.
func (p StatusPair) IsModified() bool {
	return p.Index == Modified || p.Worktree == Modified
}

// IsClean reports whether both slots are unmodified.
func (p StatusPair) IsClean() bool {
	return p.Index == Unmodified && p.Worktree == Unmodified
}

// IsValidInitial reports whether the pair is a legal state for an item's
// initial definition. Anything else has to be reached through commands.
func (p StatusPair) IsValidInitial() bool {
	return p == UntrackedPair || p == StagedAddPair || p == CleanPair
}

func (p StatusPair) String() string {
	return fmt.Sprintf("(%s, %s)", p.Index, p.Worktree)
}
