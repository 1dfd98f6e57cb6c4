package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	recs := []Record{
		{ID: "01AA", Name: "basic-git", Path: "/tmp/a", Digest: "d1", CreatedAt: time.Now()},
		{ID: "01AB", Name: "basic-mixed", Path: "/tmp/b", Digest: "d2", CreatedAt: time.Now()},
	}
	for _, rec := range recs {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "01AB" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestFindByDigest(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Record(ctx, Record{ID: "01AA", Name: "n", Path: "/p", Digest: "d1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := store.FindByDigest(ctx, "d1")
	if err != nil {
		t.Fatalf("FindByDigest returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "n" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got, _ := store.FindByDigest(ctx, "missing"); len(got) != 0 {
		t.Fatalf("expected no records for unknown digest")
	}
}

func TestRecordRequiresID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	if err := store.Record(context.Background(), Record{Name: "n"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}
