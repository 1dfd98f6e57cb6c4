package domain

import "sort"

// Commit is a (sha, message) pair. Two commits are equal when both fields
// are; that tuple equality is what the set containers below rely on.
type Commit struct {
	SHA     string
	Message string
}

// Remote is a named fetch URL. Duplicate push-URL rows reported by the tool
// are not represented here.
type Remote struct {
	Name string
	URL  string
}

type CommitSet map[Commit]struct{}

func NewCommitSet(commits ...Commit) CommitSet {
	set := make(CommitSet, len(commits))
	for _, c := range commits {
		set.Add(c)
	}
	return set
}

func (s CommitSet) Add(c Commit)      { s[c] = struct{}{} }
func (s CommitSet) Has(c Commit) bool { _, ok := s[c]; return ok }

func (s CommitSet) Messages() []string {
	messages := make([]string, 0, len(s))
	for c := range s {
		messages = append(messages, c.Message)
	}
	return messages
}

type RemoteSet map[Remote]struct{}

func NewRemoteSet(remotes ...Remote) RemoteSet {
	set := make(RemoteSet, len(remotes))
	for _, r := range remotes {
		set.Add(r)
	}
	return set
}

func (s RemoteSet) Add(r Remote)      { s[r] = struct{}{} }
func (s RemoteSet) Has(r Remote) bool { _, ok := s[r]; return ok }

func (s RemoteSet) Equal(other RemoteSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

type BranchSet map[string]struct{}

func NewBranchSet(names ...string) BranchSet {
	set := make(BranchSet, len(names))
	for _, name := range names {
		set.Add(name)
	}
	return set
}

func (s BranchSet) Add(name string)      { s[name] = struct{}{} }
func (s BranchSet) Has(name string) bool { _, ok := s[name]; return ok }

func (s BranchSet) Equal(other BranchSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Has(name) {
			return false
		}
	}
	return true
}

// Names returns the member names sorted, for stable diagnostics.
func (s BranchSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
