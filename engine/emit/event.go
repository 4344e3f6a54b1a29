// Package emit provides event emission and observability for the
// simulation core. The engine writes no events to stdlib log/fmt directly;
// they go through an Emitter so the embedding controls the sink.
package emit

// Event represents one observability event emitted during a tick.
//
// The engine emits two events per tick: "tick_begin", and "tick_end",
// whose Meta carries the counts of faults, dropped work items and task
// failures on that tick's report. No per-work-item, per-fault or
// per-producer events are emitted.
type Event struct {
	// RunID identifies the engine run that emitted this event.
	RunID string

	// Tick is the logical tick the event occurred in.
	Tick uint64

	// Phase names the scheduler phase, empty for run-level events.
	Phase string

	// TaskID identifies the task involved, zero for non-task events.
	TaskID uint64

	// Msg is a short machine-matchable event name (e.g. "tick_begin", "determinism_fault").
	Msg string

	// Meta carries event-specific structured detail.
	Meta map[string]interface{}
}
