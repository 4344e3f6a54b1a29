package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dominoengine/simcore/engine"
)

// SQLiteStore is a SQLite-backed Store: a single file, WAL mode, two
// tables (tick_snapshots keyed by run_id with the latest row kept per
// run, checkpoints keyed by label). Grounded on the teacher's
// graph/store.SQLiteStore (WAL pragma, busy_timeout, migration-on-open),
// trimmed to the two tables a snapshot-only store needs — the teacher's
// checkpoints_v2/idempotency_keys/events_outbox tables serve workflow
// replay concerns this core doesn't have (no per-node step history, no
// transactional event outbox; emit.Emitter owns delivery instead).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tick_snapshots (
			run_id TEXT NOT NULL PRIMARY KEY,
			tick INTEGER NOT NULL,
			snapshot TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			label TEXT NOT NULL PRIMARY KEY,
			snapshot TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveTick(ctx context.Context, runID string, tick uint64, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tick_snapshots (run_id, tick, snapshot) VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET tick = excluded.tick, snapshot = excluded.snapshot, updated_at = CURRENT_TIMESTAMP
	`, runID, tick, data)
	return err
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, runID string) (*engine.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM tick_snapshots WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, label string, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (label, snapshot) VALUES (?, ?)
		ON CONFLICT(label) DO UPDATE SET snapshot = excluded.snapshot, created_at = CURRENT_TIMESTAMP
	`, label, data)
	return err
}

func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, label string) (*engine.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM checkpoints WHERE label = ?`, label).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
