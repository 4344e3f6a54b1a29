package engine

import "sort"

// Producer is the subsystem IR-producer capability set (§4.8). Concrete
// producers (agents, economy, governance, interest/fidelity, markets)
// implement it; the engine drives every registered producer that is due
// (see DriveTick) once per tick in ascending SystemID order.
type Producer interface {
	// SystemID is the producer's stable identifier, used both for task
	// attribution and as the engine's producer iteration order.
	SystemID() uint32

	// IsSimAffecting reports whether this producer's tasks can mutate
	// simulation state (false for pure observers/exporters).
	IsSimAffecting() bool

	// LawTargets lists the governance law ids this producer's behavior
	// is subject to.
	LawTargets() []uint64

	// GetNextDueTick reports the earliest tick this producer next wants
	// to run; EmitTasks may still be called earlier, in which case the
	// producer is expected to emit nothing.
	GetNextDueTick() Tick

	// EmitTasks appends zero or more tasks to builder and zero or more
	// access-set declarations to access, for the work the producer wants
	// to perform between nowTick and targetTick. budgetHint caps the
	// number of items emitted this call; allowedOpsMask gates which
	// operation kinds may be emitted. allowedOpsMask == 0 means "emit
	// nothing", but a nonzero mask does NOT mean "emit everything": bit
	// i (OpBit(i)) gates the producer's own i-th declared Op
	// independently of every other bit, and an operation whose bit is 0
	// must be silently skipped even while sibling ops with their bit set
	// still emit. A producer that cannot finish within budgetHint
	// records an internal cursor and resumes from it on the next call
	// (§4.8's batch-equivalence property).
	EmitTasks(nowTick, targetTick Tick, budgetHint uint32, allowedOpsMask uint64, builder *TaskGraphBuilder, access *AccessSetBuilder) error

	// Degrade requests a coarser operating tier starting with the next
	// EmitTasks call.
	Degrade(tier uint8, reason string)
}

// OpBit returns the allowedOpsMask bit that gates a producer's i-th
// declared Op (0-based, in the order the producer's own Op constants are
// declared). A producer checks `allowedOpsMask&OpBit(i) != 0` before
// emitting any task (or performing any side effect) belonging to Op i;
// bit 0 unset never implies every other bit is unset too.
func OpBit(i uint) uint64 { return 1 << i }

// CursorProducer is optionally implemented by a Producer whose EmitTasks
// suspends mid-emission via an internal cursor (§4.8). Snapshotting the
// engine serializes every registered producer's cursor this way, without
// the core needing to know the cursor's shape.
type CursorProducer interface {
	Producer
	SnapshotCursor() []byte
	RestoreCursor(data []byte) error
}

// ProducerRegistry holds registered producers sorted by SystemID, giving
// the engine a single deterministic iteration order per tick (§4.8, §6).
type ProducerRegistry struct {
	producers []Producer
}

// NewProducerRegistry returns an empty registry.
func NewProducerRegistry() *ProducerRegistry { return &ProducerRegistry{} }

// Register adds p, keeping the registry sorted by SystemID. Registering a
// duplicate SystemID is rejected.
func (r *ProducerRegistry) Register(p Producer) error {
	id := p.SystemID()
	i := sort.Search(len(r.producers), func(i int) bool { return r.producers[i].SystemID() >= id })
	if i < len(r.producers) && r.producers[i].SystemID() == id {
		return ErrDuplicateID
	}
	r.producers = append(r.producers, nil)
	copy(r.producers[i+1:], r.producers[i:])
	r.producers[i] = p
	return nil
}

// All returns every registered producer in ascending SystemID order. Do
// not mutate.
func (r *ProducerRegistry) All() []Producer { return r.producers }

// DriveTick calls EmitTasks on every due producer, in ascending SystemID
// order, against a shared builder and access-set builder. A producer not
// yet due (GetNextDueTick() > nowTick) is skipped entirely, matching
// "the producer may suspend progress if now < get_next_due_tick" (§4.8).
// Per-producer errors are collected and returned as a BatchError naming
// the first one, but every due producer is still given a chance to run.
func (r *ProducerRegistry) DriveTick(nowTick, targetTick Tick, budgetHint uint32, allowedOpsMask uint64, builder *TaskGraphBuilder, access *AccessSetBuilder) error {
	var firstErr error
	var firstIdx int
	for i, p := range r.producers {
		if p.GetNextDueTick() > nowTick {
			continue
		}
		if err := p.EmitTasks(nowTick, targetTick, budgetHint, allowedOpsMask, builder, access); err != nil {
			if firstErr == nil {
				firstErr = err
				firstIdx = i
			}
		}
	}
	if firstErr != nil {
		return &BatchError{Op: "drive_tick", Index: firstIdx, Err: firstErr}
	}
	return nil
}
