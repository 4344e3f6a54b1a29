package store

import (
	"context"
	"sync"

	"github.com/dominoengine/simcore/engine"
)

// MemoryStore is an in-memory Store, intended for tests and
// single-process embeddings that don't need durability across restarts.
type MemoryStore struct {
	mu          sync.RWMutex
	latest      map[string]*engine.Snapshot
	checkpoints map[string]*engine.Snapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		latest:      make(map[string]*engine.Snapshot),
		checkpoints: make(map[string]*engine.Snapshot),
	}
}

func (m *MemoryStore) SaveTick(_ context.Context, runID string, _ uint64, snap *engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[runID] = snap
	return nil
}

func (m *MemoryStore) LoadLatest(_ context.Context, runID string) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.latest[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

func (m *MemoryStore) SaveCheckpoint(_ context.Context, label string, snap *engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[label] = snap
	return nil
}

func (m *MemoryStore) LoadCheckpoint(_ context.Context, label string) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.checkpoints[label]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

func (m *MemoryStore) Close() error { return nil }
