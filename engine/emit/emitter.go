package emit

import "context"

// Emitter receives observability events from a running engine.
//
// Implementations should be non-blocking and resilient: a slow or failing
// sink must never stall or abort a tick.
type Emitter interface {
	// Emit sends a single event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are sent, or ctx expires.
	Flush(ctx context.Context) error
}
