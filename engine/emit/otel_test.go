package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestOTelEmitterEmit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		RunID:  "run-001",
		Tick:   7,
		Phase:  "PH_SIMULATION",
		TaskID: 42,
		Msg:    "work_item_executed",
		Meta: map[string]interface{}{
			"system_id": "agent",
		},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "work_item_executed" {
		t.Errorf("span name = %q, want %q", span.Name, "work_item_executed")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["run_id"]; got != "run-001" {
		t.Errorf("run_id = %v, want %q", got, "run-001")
	}
	if got := attrs["tick"]; got != int64(7) {
		t.Errorf("tick = %v, want %d", got, 7)
	}
	if got := attrs["phase"]; got != "PH_SIMULATION" {
		t.Errorf("phase = %v, want %q", got, "PH_SIMULATION")
	}
	if got := attrs["task_id"]; got != int64(42) {
		t.Errorf("task_id = %v, want %d", got, 42)
	}
	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitterEmitWithError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	emitter.Emit(Event{
		RunID: "run-002",
		Tick:  1,
		Phase: "PH_COMMIT",
		Msg:   "determinism_fault",
		Meta: map[string]interface{}{
			"error": "duplicate order key",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code.String() != "Error" {
		t.Errorf("status code = %v, want Error", spans[0].Status.Code)
	}
}
