package engine

import "testing"

// countingProducer emits one PH_SIMULATION task per tick it is due for,
// tracking how many times EmitTasks actually ran.
type countingProducer struct {
	id    uint32
	calls int
}

func (p *countingProducer) SystemID() uint32     { return p.id }
func (p *countingProducer) IsSimAffecting() bool { return true }
func (p *countingProducer) LawTargets() []uint64 { return nil }
func (p *countingProducer) GetNextDueTick() Tick { return 0 }
func (p *countingProducer) Degrade(uint8, string) {}
func (p *countingProducer) EmitTasks(nowTick, targetTick Tick, budgetHint uint32, allowedOpsMask uint64, builder *TaskGraphBuilder, access *AccessSetBuilder) error {
	p.calls++
	setID := access.New()
	access.AddWrite(setID, Range{Resource: "counter", Start: 0, End: 1})
	builder.AddTask(TaskNode{
		TaskID:      TaskID(uint64(p.id)<<32 | uint64(nowTick)+1),
		SystemID:    p.id,
		PhaseID:     PhSimulation,
		AccessSetID: setID,
	})
	return nil
}

func TestEngineTickDrivesRegisteredProducer(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prod := &countingProducer{id: 1}
	if err := e.RegisterProducer(prod); err != nil {
		t.Fatalf("RegisterProducer: %v", err)
	}

	var executed int
	e.SetHandler(PhSimulation, WorkHandlerFunc(func(WorkItem) error {
		executed++
		return nil
	}))

	report := e.Tick(1)
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if len(report.Faults) != 0 {
		t.Fatalf("unexpected faults: %v", report.Faults)
	}
	if prod.calls != 1 {
		t.Fatalf("producer called %d times, want 1", prod.calls)
	}
	if executed != 1 {
		t.Fatalf("handler executed %d times, want 1", executed)
	}
}

func TestEngineRegisterGraphTypeAndInstance(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var rebuilt []uint64
	e.RegisterGraphType(1, RebuildVTable{
		Execute: func(req RebuildRequest, _ any) error {
			rebuilt = append(rebuilt, req.ItemID)
			return nil
		},
	})
	g := NewGraph()
	if _, err := g.AddNode(7); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := e.RegisterGraphInstance(1, 1, g, nil); err != nil {
		t.Fatalf("RegisterGraphInstance: %v", err)
	}

	e.DirtySet().AddNode(7)
	report := e.Tick(1)
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if len(rebuilt) != 1 || rebuilt[0] != 7 {
		t.Fatalf("rebuilt = %v, want [7]", rebuilt)
	}
}

func TestEngineSnapshotRestoreRoundTrip(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.RegisterGraphType(1, RebuildVTable{})
	g := NewGraph()
	if _, err := g.AddNode(1); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := g.AddNode(2); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := g.AddEdge(0, 1, 2, false); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := e.RegisterGraphInstance(1, 1, g, nil); err != nil {
		t.Fatalf("RegisterGraphInstance: %v", err)
	}
	e.Tick(1)

	snap := e.Snapshot()
	if len(snap.Graphs) != 1 {
		t.Fatalf("Snapshot captured %d graphs, want 1", len(snap.Graphs))
	}

	e2, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e2.RegisterGraphType(1, RebuildVTable{})
	if err := e2.RegisterGraphInstance(1, 1, NewGraph(), nil); err != nil {
		t.Fatalf("RegisterGraphInstance: %v", err)
	}
	if err := e2.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored := e2.graphs.InstanceGraph(1, 1)
	if restored.NodeCount() != 2 || restored.EdgeCount() != 1 {
		t.Fatalf("restored graph has %d nodes, %d edges; want 2, 1", restored.NodeCount(), restored.EdgeCount())
	}
}
