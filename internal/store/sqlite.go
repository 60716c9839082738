// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/persistence/sqlite"
	"github.com/ManuGH/appsettings/internal/settings"
)

var sqliteMigrations = []sqlite.Migration{
	{Version: 1, SQL: `
	CREATE TABLE IF NOT EXISTS setting_values (
		path TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);`},
}

// SQLiteStore keeps records in a single table keyed by path.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings store: migration failed: %w", err)
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Backend() string { return config.BackendSQLite }

func (s *SQLiteStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT path, kind, value FROM setting_values ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r    Record
			kind string
		)
		if err := rows.Scan(&r.Path, &kind, &r.Value); err != nil {
			return nil, err
		}
		if k, err := settings.ParseKind(kind); err == nil {
			r.Kind = k
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, records []Record) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM setting_values`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO setting_values (path, kind, value, updated_at_ms) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Path, r.Kind.String(), r.Value, now); err != nil {
			return fmt.Errorf("insert %s: %w", r.Path, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.DB.Close() }
