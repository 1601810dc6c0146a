// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/persistence/sqlite"
)

const sqliteSchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS units (
	key        TEXT PRIMARY KEY,
	class      TEXT NOT NULL,
	blob       BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_units_class ON units(class);
`

// SQLite persists units in a single-file database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the cache database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cache: create sqlite dir: %w", err)
	}
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, sqliteSchemaVersion, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Get(ctx context.Context, key decompiler.Key) (decompiler.Unit, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM units WHERE key = ?`, key.String()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return decompiler.Unit{}, false, nil
	}
	if err != nil {
		return decompiler.Unit{}, false, fmt.Errorf("cache: sqlite get: %w", err)
	}
	u, err := decode(blob)
	if err != nil {
		return decompiler.Unit{}, false, err
	}
	return u, true, nil
}

func (s *SQLite) Put(ctx context.Context, key decompiler.Key, u decompiler.Unit) error {
	if u.Failed() {
		return nil
	}
	blob, err := encode(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO units (key, class, blob, created_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, created_at = excluded.created_at`,
		key.String(), u.ClassName, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache: sqlite put: %w", err)
	}
	return nil
}

// Prune deletes entries older than maxAge and returns how many were removed.
func (s *SQLite) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE created_at < ?`, time.Now().Add(-maxAge).Unix())
	if err != nil {
		return 0, fmt.Errorf("cache: sqlite prune: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database.
func (s *SQLite) Close() error { return s.db.Close() }
