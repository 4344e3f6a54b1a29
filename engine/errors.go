package engine

import (
	"errors"
	"fmt"
)

// Sentinel error kinds per the core's error taxonomy. NotFound is a soft,
// expected condition; the rest indicate a caller or invariant problem.
var (
	// ErrInvalidArgument indicates null/ill-formed input, including ID 0 where not permitted.
	ErrInvalidArgument = errors.New("engine: invalid argument")

	// ErrNotFound indicates an ID lookup miss. Soft, expected.
	ErrNotFound = errors.New("engine: not found")

	// ErrDuplicateID indicates an attempt to insert an already-present id.
	ErrDuplicateID = errors.New("engine: duplicate id")

	// ErrOutOfMemory indicates an allocator/reserve failure.
	ErrOutOfMemory = errors.New("engine: out of memory")

	// ErrBufferTooSmall indicates the caller's output capacity was insufficient.
	ErrBufferTooSmall = errors.New("engine: buffer too small")

	// ErrIntegrityViolation indicates a canonical invariant was violated mid-operation.
	ErrIntegrityViolation = errors.New("engine: integrity violation")

	// ErrDeterminismFault indicates a duplicate OrderKey, access-set conflict, or barrier violation.
	ErrDeterminismFault = errors.New("engine: determinism fault")

	// ErrCycle indicates a graph has a cycle where acyclicity was required.
	ErrCycle = errors.New("engine: cycle detected")

	// ErrCapabilityMismatch indicates a subsystem emitted tasks referencing a
	// phase/capability it did not declare.
	ErrCapabilityMismatch = errors.New("engine: capability mismatch")
)

// BatchError reports the first error encountered by a batch API (merge,
// stitch_boundary, enqueue_from_dirty, ...) along with the offending input
// index, per §7's batch-API propagation rule.
type BatchError struct {
	Op    string
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("engine: %s: input[%d]: %v", e.Op, e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// DeterminismFault carries structured detail about a determinism violation
// detected by the scheduler or a builder, surfaced on the TickReport rather
// than aborting the tick.
type DeterminismFault struct {
	// Kind is a short machine-readable classifier, e.g. "duplicate-order-key",
	// "access-conflict", "barrier-violation".
	Kind string
	// Detail is a human-readable description.
	Detail string
	// TaskID is the offending task, if applicable (0 if not task-scoped).
	TaskID TaskID
}

func (f DeterminismFault) Error() string {
	return fmt.Sprintf("engine: determinism fault [%s] task=%d: %s", f.Kind, f.TaskID, f.Detail)
}

// TaskFailure records a single task handler's error on the tick report
// without aborting the tick, per §4.6's "errors surfaced via a per-tick
// failure log but do not abort the tick".
type TaskFailure struct {
	TaskID TaskID
	Phase  Phase
	Err    error
}

func (f TaskFailure) Error() string {
	return fmt.Sprintf("engine: task %d (phase %v) failed: %v", f.TaskID, f.Phase, f.Err)
}
