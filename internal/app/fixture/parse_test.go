package fixture

import (
	"testing"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

func TestParseBranchRows(t *testing.T) {
	out := "* master\n  git-annex\n  remotes/origin/master\n"
	got := parseBranchRows(out)
	want := domain.NewBranchSet("master", "git-annex", "remotes/origin/master")
	if !got.Equal(want) {
		t.Fatalf("parseBranchRows = %v, want %v", got.Names(), want.Names())
	}
}

func TestParseBranchRowsEmpty(t *testing.T) {
	if got := parseBranchRows(""); len(got) != 0 {
		t.Fatalf("expected no branches, got %v", got.Names())
	}
}

func TestParseRemoteRowsKeepsFetchOnly(t *testing.T) {
	out := "origin /src/upstream (fetch)\norigin /src/upstream (push)\nmirror https://example.com/r.git (fetch)\n"
	got, err := parseRemoteRows(out)
	if err != nil {
		t.Fatalf("parseRemoteRows returned error: %v", err)
	}
	want := domain.NewRemoteSet(
		domain.Remote{Name: "origin", URL: "/src/upstream"},
		domain.Remote{Name: "mirror", URL: "https://example.com/r.git"},
	)
	if !got.Equal(want) {
		t.Fatalf("parseRemoteRows = %v, want %v", got, want)
	}
}

func TestParseRemoteRowsMalformed(t *testing.T) {
	if _, err := parseRemoteRows("origin\n"); err == nil {
		t.Fatalf("expected error for malformed row")
	}
}

func TestParseSubmoduleRows(t *testing.T) {
	sha := "89ab2345cdef89ab2345cdef89ab2345cdef0123"
	out := " " + sha + " sub/repo (heads/master)\n+" + sha + " plain\n"
	rows, err := parseSubmoduleRows(out)
	if err != nil {
		t.Fatalf("parseSubmoduleRows returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Status != ' ' || rows[0].SHA != sha || rows[0].Path != "sub/repo" || rows[0].Ref != "heads/master" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Status != '+' || rows[1].Path != "plain" || rows[1].Ref != "" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestParseSubmoduleRowsMalformed(t *testing.T) {
	if _, err := parseSubmoduleRows("x short\n"); err == nil {
		t.Fatalf("expected error for malformed row")
	}
}
