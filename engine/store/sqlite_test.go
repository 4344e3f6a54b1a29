package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dominoengine/simcore/engine"
)

func TestSQLiteStoreSaveAndLoadLatest(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = s.Close() }()

	snap := &engine.Snapshot{RunID: "run-001", Tick: 9}
	if err := s.SaveTick(ctx, "run-001", 9, snap); err != nil {
		t.Fatalf("SaveTick: %v", err)
	}

	got, err := s.LoadLatest(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if got.Tick != 9 || got.RunID != "run-001" {
		t.Fatalf("LoadLatest = %+v, want Tick=9 RunID=run-001", got)
	}
}

func TestSQLiteStoreSaveTickUpserts(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = s.Close() }()

	_ = s.SaveTick(ctx, "run-001", 1, &engine.Snapshot{Tick: 1})
	_ = s.SaveTick(ctx, "run-001", 2, &engine.Snapshot{Tick: 2})

	got, err := s.LoadLatest(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if got.Tick != 2 {
		t.Fatalf("Tick = %d, want 2 (upsert should replace the row)", got.Tick)
	}
}

func TestSQLiteStoreLoadLatestNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := s.LoadLatest(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadLatest: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreCheckpoint(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.SaveCheckpoint(ctx, "cp-001", &engine.Snapshot{Tick: 5}); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	got, err := s.LoadCheckpoint(ctx, "cp-001")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if got.Tick != 5 {
		t.Fatalf("Tick = %d, want 5", got.Tick)
	}
}

func TestSQLiteStoreImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}
