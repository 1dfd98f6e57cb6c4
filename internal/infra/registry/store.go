// Package registry is the catalog of built fixtures: one row per build,
// keyed by a ULID and carrying the digest of the canonical definition so a
// directory can be matched back to what produced it.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one cataloged fixture build.
type Record struct {
	ID        string
	Name      string
	Path      string
	Digest    string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("registry path required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fixtures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create fixtures table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS fixtures_digest ON fixtures (digest)
	`); err != nil {
		return fmt.Errorf("create digest index: %w", err)
	}
	return nil
}

// Record catalogs one build.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("record id required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixtures (id, name, path, digest, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Path, rec.Digest, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record fixture: %w", err)
	}
	return nil
}

// List returns all cataloged builds, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, digest, created_at
		FROM fixtures
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Path, &rec.Digest, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fixture row: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixture rows: %w", err)
	}
	return records, nil
}

// FindByDigest returns the builds of one definition digest, newest first.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, digest, created_at
		FROM fixtures
		WHERE digest = ?
		ORDER BY id DESC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("find fixtures: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Path, &rec.Digest, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fixture row: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixture rows: %w", err)
	}
	return records, nil
}
