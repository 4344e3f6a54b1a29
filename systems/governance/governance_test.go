package governance

import (
	"testing"

	"github.com/dominoengine/simcore/engine"
)

// TestStageSwapPairing verifies each law produces exactly one
// PH_SIMULATION stage task and one PH_COMMIT swap task, joined by a
// dependency, per the "stage to a side buffer, swap at commit" pattern.
func TestStageSwapPairing(t *testing.T) {
	p := New(9, []Law{{ID: 1, Target: 100}, {ID: 2, Target: 200}})
	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()

	allOps := engine.OpBit(0) | engine.OpBit(1)
	if err := p.EmitTasks(0, 0, 16, allOps, builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	var out engine.TaskGraph
	if err := builder.Finalize(&out); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(out.Tasks) != 4 {
		t.Fatalf("expected 4 tasks (2 laws x stage+swap), got %d", len(out.Tasks))
	}
	if len(out.Deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(out.Deps))
	}

	var simCount, commitCount int
	for _, task := range out.Tasks {
		switch task.PhaseID {
		case engine.PhSimulation:
			simCount++
		case engine.PhCommit:
			commitCount++
		}
		if len(task.LawTargets) != 1 {
			t.Fatalf("expected exactly one law target per task, got %v", task.LawTargets)
		}
	}
	if simCount != 2 || commitCount != 2 {
		t.Fatalf("expected 2 stage + 2 swap tasks, got sim=%d commit=%d", simCount, commitCount)
	}

	for _, dep := range out.Deps {
		var from, to engine.TaskNode
		for _, task := range out.Tasks {
			if task.TaskID == dep.From {
				from = task
			}
			if task.TaskID == dep.To {
				to = task
			}
		}
		if from.PhaseID != engine.PhSimulation || to.PhaseID != engine.PhCommit {
			t.Fatalf("expected stage->swap dependency, got %v->%v", from.PhaseID, to.PhaseID)
		}
	}
}

// TestLawGatingZeroMask verifies allowed_ops_mask == 0 suppresses every task.
func TestLawGatingZeroMask(t *testing.T) {
	p := New(9, []Law{{ID: 1, Target: 100}})
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
		t.Fatalf("expected 0 tasks, got %d", len(out.Tasks))
	}
}

// TestLawGatingSuppressesSwapBit verifies a mask with only the stage bit
// set emits stage tasks but silently skips swap, per spec.md's
// per-operation-bit gating (not just the mask==0 all-or-nothing case).
func TestLawGatingSuppressesSwapBit(t *testing.T) {
	p := New(9, []Law{{ID: 1, Target: 100}, {ID: 2, Target: 200}})
	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()

	stageOnly := engine.OpBit(0)
	if err := p.EmitTasks(0, 0, 16, stageOnly, builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	var out engine.TaskGraph
	if err := builder.Finalize(&out); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(out.Tasks) != 2 {
		t.Fatalf("expected 2 stage-only tasks, got %d", len(out.Tasks))
	}
	for _, task := range out.Tasks {
		if task.PhaseID != engine.PhSimulation {
			t.Fatalf("expected only PH_SIMULATION stage tasks, got %v", task.PhaseID)
		}
	}
	if len(out.Deps) != 0 {
		t.Fatalf("expected 0 dependencies with swap suppressed, got %d", len(out.Deps))
	}
}

// TestLawGatingSuppressesStageBit verifies a mask with only the swap bit
// set emits swap tasks but silently skips stage.
func TestLawGatingSuppressesStageBit(t *testing.T) {
	p := New(9, []Law{{ID: 1, Target: 100}})
	builder := engine.NewTaskGraphBuilder()
	access := engine.NewAccessSetBuilder()

	swapOnly := engine.OpBit(1)
	if err := p.EmitTasks(0, 0, 16, swapOnly, builder, access); err != nil {
		t.Fatalf("EmitTasks: %v", err)
	}
	var out engine.TaskGraph
	if err := builder.Finalize(&out); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(out.Tasks) != 1 {
		t.Fatalf("expected 1 swap-only task, got %d", len(out.Tasks))
	}
	if out.Tasks[0].PhaseID != engine.PhCommit {
		t.Fatalf("expected a PH_COMMIT swap task, got %v", out.Tasks[0].PhaseID)
	}
}
