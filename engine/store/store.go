// Package store provides persistence backends for engine.Snapshot.
package store

import (
	"context"
	"errors"

	"github.com/dominoengine/simcore/engine"
)

// ErrNotFound is returned when a requested run ID or checkpoint label does not exist.
var ErrNotFound = errors.New("not found")

// Store persists engine snapshots, grounded on the teacher's
// graph/store.Store[S] shape (SaveStep/LoadLatest/SaveCheckpoint/
// LoadCheckpoint) — generalized from per-node workflow state to
// per-tick engine.Snapshot, and de-generified since a Snapshot's shape
// is fixed rather than parameterized by an embedding's state type.
type Store interface {
	// SaveTick persists snap as the latest state for runID at tick.
	SaveTick(ctx context.Context, runID string, tick uint64, snap *engine.Snapshot) error

	// LoadLatest retrieves the most recently saved snapshot for runID.
	LoadLatest(ctx context.Context, runID string) (*engine.Snapshot, error)

	// SaveCheckpoint creates a named, addressable snapshot independent
	// of the per-tick history.
	SaveCheckpoint(ctx context.Context, label string, snap *engine.Snapshot) error

	// LoadCheckpoint retrieves a named checkpoint.
	LoadCheckpoint(ctx context.Context, label string) (*engine.Snapshot, error)

	// Close releases any resources the store holds open.
	Close() error
}
