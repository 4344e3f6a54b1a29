package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into a short OpenTelemetry span, started
// and ended within Emit, carrying the event's tick/phase/task attributes
// (and an Error status when Meta has an "error" entry), so a tick's event
// stream can be correlated with a trace backend without the scheduler
// knowing anything about tracing.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an OTelEmitter using tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.Int64("tick", int64(event.Tick)),
		attribute.String("phase", event.Phase),
		attribute.Int64("task_id", int64(event.TaskID)),
	)
	if errDetail, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, fmt.Sprint(errDetail))
	}
}

func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.Emit(e)
	}
	return nil
}

func (o *OTelEmitter) Flush(context.Context) error { return nil }
