package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dominoengine/simcore/engine"
)

// MySQLStore is a MySQL-backed Store, for multi-process embeddings that
// need a shared durability layer. Grounded on the teacher's
// graph/store.MySQLStore (connection pool sizing, ping-on-open,
// migration-on-open), trimmed the same way SQLiteStore is.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL connection pool against dsn and ensures
// its schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tick_snapshots (
			run_id VARCHAR(255) NOT NULL PRIMARY KEY,
			tick BIGINT UNSIGNED NOT NULL,
			snapshot LONGTEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			label VARCHAR(255) NOT NULL PRIMARY KEY,
			snapshot LONGTEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) SaveTick(ctx context.Context, runID string, tick uint64, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tick_snapshots (run_id, tick, snapshot) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE tick = VALUES(tick), snapshot = VALUES(snapshot)
	`, runID, tick, data)
	return err
}

func (s *MySQLStore) LoadLatest(ctx context.Context, runID string) (*engine.Snapshot, error) {
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

func (s *MySQLStore) SaveCheckpoint(ctx context.Context, label string, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (label, snapshot) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE snapshot = VALUES(snapshot)
	`, label, data)
	return err
}

func (s *MySQLStore) LoadCheckpoint(ctx context.Context, label string) (*engine.Snapshot, error) {
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

func (s *MySQLStore) Close() error { return s.db.Close() }
