package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/dominoengine/simcore/engine/emit"
)

// RunDescriptor is the engine's determinism configuration. Two engines
// constructed with byte-identical RunDescriptors and fed byte-identical
// tick inputs must produce byte-identical tick reports (§6).
type RunDescriptor struct {
	SchemaVersions map[string]uint32
	Seed           uint64
	PhaseBudgets   map[Phase]uint32
	DomainBudgets  map[DomainID]uint32
	EnabledSystems []uint32
	AllowedOpsMask uint64
	BudgetHint     uint32
}

// Engine is the deterministic simulation core's entry point: it owns the
// graph registry, the scheduler, the producer registry, and the per-tick
// dirty set and work-graph builders (§6). Grounded on the teacher's
// Engine[S] in graph/engine.go for the constructor/registration/run
// shape, generalized from a single LLM-workflow DAG to a multi-graph,
// multi-producer tick loop.
type Engine struct {
	descriptor RunDescriptor
	runID      string

	graphs     *GraphRegistry
	producers  *ProducerRegistry
	scheduler  *Scheduler
	partitions map[graphInstanceKey]*Partition

	dirty     *DirtySet
	taskGraph *TaskGraphBuilder
	access    *AccessSetBuilder
	seq       seqAllocator

	emitter     emit.Emitter
	currentTick Tick
}

// New constructs an Engine from the given options, generating a fresh
// RunID via google/uuid purely for log and snapshot correlation — it is
// never consulted for ordering or hashing (§3 [NEW]).
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.emitter == nil {
		cfg.emitter = emit.NewNullEmitter()
	}

	e := &Engine{
		descriptor: cfg.descriptor,
		runID:      uuid.NewString(),
		graphs:     NewGraphRegistry(),
		producers:  NewProducerRegistry(),
		scheduler:  NewScheduler(),
		partitions: make(map[graphInstanceKey]*Partition),
		dirty:      NewDirtySet(),
		taskGraph:  NewTaskGraphBuilder(),
		access:     NewAccessSetBuilder(),
		emitter:    cfg.emitter,
	}
	e.scheduler.SetHandler(PhTopology, RegistryWorkHandler{Registry: e.graphs})
	for phase, units := range cfg.descriptor.PhaseBudgets {
		e.scheduler.SetPhaseBudget(phase, units)
	}
	for domain, units := range cfg.descriptor.DomainBudgets {
		e.scheduler.SetDomainBudget(domain, units)
	}
	return e, nil
}

// RunID returns the engine's opaque correlation label.
func (e *Engine) RunID() string { return e.runID }

// RegisterGraphType binds typeID to a rebuild vtable (§6
// engine_register_graph_type, generalized: node/edge schemas are a
// storage-layer concern out of this core's scope per spec.md §1's
// non-goals, so only the vtable is registered here).
func (e *Engine) RegisterGraphType(typeID GraphTypeID, vtable RebuildVTable) {
	e.graphs.RegisterType(typeID, vtable)
}

// RegisterGraphInstance binds (typeID, instanceID) to g and userCtx
// (§6 engine_register_graph_instance).
func (e *Engine) RegisterGraphInstance(typeID GraphTypeID, instanceID GraphInstanceID, g *Graph, userCtx any) error {
	return e.graphs.RegisterInstance(typeID, instanceID, g, userCtx)
}

// RegisterProducer registers a subsystem IR producer (§6 engine_register_system).
func (e *Engine) RegisterProducer(p Producer) error { return e.producers.Register(p) }

// graphInstanceKey identifies a registered graph instance for maps keyed
// outside the GraphRegistry itself (partitions, snapshots).
type graphInstanceKey struct {
	TypeID     GraphTypeID
	InstanceID GraphInstanceID
}

// RegisterPartition attaches a Partition to a registered graph instance,
// for scoping rebuild/locality and for snapshot/restore (§6, §4.2).
func (e *Engine) RegisterPartition(typeID GraphTypeID, instanceID GraphInstanceID, p *Partition) {
	e.partitions[graphInstanceKey{typeID, instanceID}] = p
}

// PartitionFor returns the Partition attached to (typeID, instanceID), or nil.
func (e *Engine) PartitionFor(typeID GraphTypeID, instanceID GraphInstanceID) *Partition {
	return e.partitions[graphInstanceKey{typeID, instanceID}]
}

// SetHandler installs the work handler invoked for items drained from phase.
func (e *Engine) SetHandler(phase Phase, h WorkHandler) { e.scheduler.SetHandler(phase, h) }

// DirtySet returns the engine's accumulating dirty set, for external
// mutators to mark nodes/edges/partitions changed ahead of a tick.
func (e *Engine) DirtySet() *DirtySet { return e.dirty }

// Tick drives one tick to target (§6 engine_tick): it converts the
// accumulated dirty set into PH_TOPOLOGY rebuild work against every
// registered graph instance, drives every due producer's EmitTasks into
// the shared work-graph and access-set builders, finalizes the work
// graph (which validates it; on a structural determinism fault the fault
// is recorded and none of this tick's producer tasks are enqueued, while
// already-queued work still drains), converts its tasks into work items
// on each task's own phase, and drains every phase queue in order.
// PH_TOPOLOGY items are dispatched through a RegistryWorkHandler over
// the engine's graph registry unless SetHandler replaces it.
func (e *Engine) Tick(target Tick) *TickReport {
	e.scheduler.BeginTick(target)
	e.emitter.Emit(emit.Event{RunID: e.runID, Tick: uint64(target), Msg: "tick_begin"})

	var rebuildErrs []error
	for _, inst := range e.graphs.Instances() {
		vtable, _ := e.graphs.Type(inst.TypeID)
		items, err := BuildRebuildWork(e.dirty, 0, inst.TypeID, inst.InstanceID, vtable, &e.seq)
		if err != nil {
			rebuildErrs = append(rebuildErrs, err)
			continue
		}
		for _, item := range items {
			_ = e.scheduler.EnqueueWork(PhTopology, item)
		}
	}
	e.dirty.Clear()

	e.taskGraph.Reset()
	e.access.Reset()
	driveErr := e.producers.DriveTick(e.currentTick, target, e.descriptor.BudgetHint, e.descriptor.AllowedOpsMask, e.taskGraph, e.access)

	var graph TaskGraph
	finalizeErr := e.taskGraph.Finalize(&graph)

	report := &TickReport{RunID: e.runID, Tick: target, BudgetResiduals: make(map[DomainID]uint32)}
	for _, err := range rebuildErrs {
		report.Failures = append(report.Failures, TaskFailure{Phase: PhTopology, Err: err})
	}
	if driveErr != nil {
		report.Failures = append(report.Failures, TaskFailure{Phase: PhSimulation, Err: driveErr})
	}
	if finalizeErr != nil {
		if fault, ok := finalizeErr.(*DeterminismFault); ok {
			report.Faults = append(report.Faults, *fault)
		} else {
			report.Failures = append(report.Failures, TaskFailure{Phase: PhSimulation, Err: finalizeErr})
		}
	} else {
		for _, barrier := range graph.PhaseBarriers {
			e.scheduler.AddPhaseBarrier(barrier)
		}
		costByID := make(map[uint64]uint32, len(graph.CostModels))
		for _, m := range graph.CostModels {
			costByID[m.ID] = m.Estimate()
		}
		for _, t := range graph.Tasks {
			cost := costByID[t.CostModelID]
			if cost == 0 {
				cost = 1
			}
			key := OrderKey{
				Phase:       t.PhaseID,
				DomainID:    0,
				ChunkID:     0,
				EntityID:    0,
				ComponentID: ComponentID(t.SubIndex),
				TypeID:      0,
				Seq:         e.seq.next32(),
			}
			item := NewWorkItem(key, t.SystemID, cost, target, nil, t.PolicyParams)
			item.TaskID = t.TaskID
			if err := e.scheduler.EnqueueWork(t.PhaseID, item); err != nil {
				if fault, ok := err.(*DeterminismFault); ok {
					report.Faults = append(report.Faults, *fault)
				}
			}
		}
	}

	drained := e.scheduler.Tick(target)
	report.Faults = append(report.Faults, drained.Faults...)
	report.Dropped = append(report.Dropped, drained.Dropped...)
	report.Failures = append(report.Failures, drained.Failures...)
	for domain, residual := range drained.BudgetResiduals {
		report.BudgetResiduals[domain] = residual
	}

	e.currentTick = target
	e.emitter.Emit(emit.Event{RunID: e.runID, Tick: uint64(target), Msg: "tick_end", Meta: map[string]interface{}{
		"faults": len(report.Faults), "dropped": len(report.Dropped), "failures": len(report.Failures),
	}})
	return report
}

// Shutdown releases engine-held resources. The core holds nothing that
// requires explicit teardown today; Shutdown exists so embeddings have a
// stable lifecycle hook (§6 engine_shutdown).
func (e *Engine) Shutdown() {
	_ = e.emitter.Flush(context.Background())
}
