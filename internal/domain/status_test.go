package domain

import "testing"

var allStates = []FileState{
	Untracked, Unmodified, Modified, Added, Deleted, Renamed, Copied,
	TypeChanged, Unmerged,
}

func isStagedIndex(s FileState) bool {
	switch s {
	case Modified, Added, Deleted, Renamed, Copied, TypeChanged:
		return true
	}
	return false
}

func TestStatusPairTable(t *testing.T) {
	// Exhaustive over all 81 pairs.
	for _, index := range allStates {
		for _, worktree := range allStates {
			pair := StatusPair{Index: index, Worktree: worktree}

			wantUntracked := index == Untracked && worktree == Untracked
			wantStaged := isStagedIndex(index) && worktree == Unmodified
			wantModified := index == Modified || worktree == Modified
			wantClean := index == Unmodified && worktree == Unmodified

			if got := pair.IsUntracked(); got != wantUntracked {
				t.Fatalf("%s IsUntracked = %v, want %v", pair, got, wantUntracked)
			}
			if got := pair.IsStaged(); got != wantStaged {
				t.Fatalf("%s IsStaged = %v, want %v", pair, got, wantStaged)
			}
			if got := pair.IsModified(); got != wantModified {
				t.Fatalf("%s IsModified = %v, want %v", pair, got, wantModified)
			}
			if got := pair.IsClean(); got != wantClean {
				t.Fatalf("%s IsClean = %v, want %v", pair, got, wantClean)
			}
		}
	}
}

func TestStatusPairValidInitial(t *testing.T) {
	valid := map[StatusPair]bool{
		UntrackedPair: true,
		StagedAddPair: true,
		CleanPair:     true,
	}
	for _, index := range allStates {
		for _, worktree := range allStates {
			pair := StatusPair{Index: index, Worktree: worktree}
			if got := pair.IsValidInitial(); got != valid[pair] {
				t.Fatalf("%s IsValidInitial = %v, want %v", pair, got, valid[pair])
			}
		}
	}
}

func TestParseFileState(t *testing.T) {
	for _, state := range allStates {
		parsed, err := ParseFileState(state.Code())
		if err != nil {
			t.Fatalf("ParseFileState(%q) returned error: %v", state.Code(), err)
		}
		if parsed != state {
			t.Fatalf("ParseFileState(%q) = %v, want %v", state.Code(), parsed, state)
		}
	}

	for _, bad := range []string{"", "x", "??", "added"} {
		if _, err := ParseFileState(bad); err == nil {
			t.Fatalf("ParseFileState(%q) succeeded, want error", bad)
		}
	}
}

func TestCommitSetTupleEquality(t *testing.T) {
	set := NewCommitSet()
	set.Add(Commit{SHA: "abc", Message: "m"})
	set.Add(Commit{SHA: "abc", Message: "m"})
	if len(set) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(set))
	}
	if !set.Has(Commit{SHA: "abc", Message: "m"}) {
		t.Fatalf("expected membership by tuple equality")
	}
	if set.Has(Commit{SHA: "abc", Message: "other"}) {
		t.Fatalf("unexpected membership for different message")
	}
}

func TestBranchSetEqual(t *testing.T) {
	a := NewBranchSet("master", "git-annex")
	b := NewBranchSet("git-annex", "master")
	if !a.Equal(b) {
		t.Fatalf("expected sets to be equal regardless of order")
	}
	b.Add("dev")
	if a.Equal(b) {
		t.Fatalf("expected sets to differ after Add")
	}
}
