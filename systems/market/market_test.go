package market

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"testing"

	"github.com/dominoengine/simcore/engine"
)

func bookHash(tasks []engine.TaskNode) uint64 {
	h := fnv.New64a()
	for _, t := range tasks {
		h.Write(t.PolicyParams)
	}
	return h.Sum64()
}

func drive(t *testing.T, budgetHint uint32) []engine.TaskNode {
	t.Helper()
	p := New(11, 10, 4, nil, "", nil)

	var all []engine.TaskNode
	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()
	for iter := 0; iter < 8; iter++ {
		builder.Reset()
		access.Reset()
		tick := engine.Tick(iter)
		if err := p.EmitTasks(tick, tick, budgetHint, engine.OpBit(opBitMatch), builder, access); err != nil {
			t.Fatalf("EmitTasks: %v", err)
		}
		var out engine.TaskGraph
		if err := builder.Finalize(&out); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		all = append(all, out.Tasks...)
		if p.cursor == 0 && len(out.Tasks) > 0 {
			break
		}
	}
	return all
}

// TestBatchVsStepEquivalence is the market instance of spec.md §8's
// "Batch-vs-step" property.
func TestBatchVsStepEquivalence(t *testing.T) {
	wide := drive(t, 16)
	narrow := drive(t, 1)

	if bookHash(wide) != bookHash(narrow) {
		t.Fatalf("order-book task hash mismatch between wide and narrow budget runs")
	}
	if len(wide) != 3 || len(narrow) != 3 {
		t.Fatalf("expected 3 slices covered, got wide=%d narrow=%d", len(wide), len(narrow))
	}
}

type fakeCaller struct{ calls int }

func (f *fakeCaller) Call(_ context.Context, _ string, v any) error {
	f.calls++
	return json.Unmarshal([]byte(`{"price":42.5}`), v)
}

// TestReferencePriceRecordedOncePerTick verifies the sidecall is invoked
// at most once per tick and recorded on the side-effect log.
func TestReferencePriceRecordedOncePerTick(t *testing.T) {
	caller := &fakeCaller{}
	sideLog := &engine.SideEffectLog{}
	p := New(11, 4, 4, caller, "http://example.invalid/price", sideLog)

	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()
	if err := p.EmitTasks(0, 0, 16, engine.OpBit(opBitMatch), builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	if caller.calls != 1 {
		t.Fatalf("expected 1 sidecall, got %d", caller.calls)
	}
	if len(sideLog.Calls()) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(sideLog.Calls()))
	}

	// A second EmitTasks within the same tick must not re-invoke the caller.
	builder.Reset()
	access.Reset()
	if err := p.EmitTasks(0, 0, 16, engine.OpBit(opBitMatch), builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	if caller.calls != 1 {
		t.Fatalf("expected sidecall not to be re-invoked within the same tick, got %d calls", caller.calls)
	}
}

// TestLawGatingZeroMask verifies allowed_ops_mask == 0 suppresses every task
// and skips the reference-price consult entirely.
func TestLawGatingZeroMask(t *testing.T) {
	caller := &fakeCaller{}
	sideLog := &engine.SideEffectLog{}
	p := New(11, 4, 4, caller, "http://example.invalid/price", sideLog)

	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()
	if err := p.EmitTasks(0, 0, 16, 0, builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	var out engine.TaskGraph
	if err := builder.Finalize(&out); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(out.Tasks) != 0 {
		t.Fatalf("expected 0 tasks with allowed_ops_mask=0, got %d", len(out.Tasks))
	}
	if caller.calls != 0 {
		t.Fatalf("expected 0 sidecalls with allowed_ops_mask=0, got %d", caller.calls)
	}
}
