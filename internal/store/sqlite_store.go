// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/ManuGH/multirec/internal/config"
)

// SQLiteStore persists configurations in a project-local SQLite database.
// WAL mode and busy_timeout are enforced via DSN pragmas so they apply to
// every pooled connection.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS recording_configs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	payload     BLOB NOT NULL,
	updated_at  INTEGER NOT NULL
);`

// OpenSQLite opens (and migrates) the configuration database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate failed: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, cfg *config.RecordingConfiguration) error {
	if cfg.ID == "" {
		return fmt.Errorf("save: configuration has no ID")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("save: encode configuration: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recording_configs (id, name, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		cfg.ID, cfg.Name, raw, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save %q: %w", cfg.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*config.RecordingConfiguration, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM recording_configs WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", id, err)
	}
	var cfg config.RecordingConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("load %q: decode: %w", id, err)
	}
	return &cfg, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM recording_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recording_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ ConfigStore = (*SQLiteStore)(nil)
