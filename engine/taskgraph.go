package engine

import "sort"

// Dependency is a directed edge between two tasks within a tick's
// TaskGraph, carrying a reason code for diagnostics (§4.7).
type Dependency struct {
	From     TaskID
	To       TaskID
	ReasonID uint64
}

func (d Dependency) less(o Dependency) bool {
	if d.From != o.From {
		return d.From < o.From
	}
	if d.To != o.To {
		return d.To < o.To
	}
	return d.ReasonID < o.ReasonID
}

// TaskGraph is the finalized, sorted per-tick work graph: tasks ordered
// by CommitKey, dependencies ordered by (From, To, ReasonID) (§3, §4.7).
type TaskGraph struct {
	GraphID     uint64
	EpochID     uint64
	Tasks       []TaskNode
	Deps        []Dependency
	PhaseBarriers []PhaseBarrier
	CostModels  []CostModel
}

// TaskGraphBuilder accumulates tasks, dependencies, phase barriers, and
// cost models across a tick, producing a validated, sorted TaskGraph on
// Finalize (§4.7). Grounded on the teacher's node/edge registration style
// in graph/engine.go, generalized from a single execution DAG to a
// per-tick work graph with explicit commit-key ordering.
type TaskGraphBuilder struct {
	graphID uint64
	epochID uint64
	tasks   []TaskNode
	deps    []Dependency
	barriers []PhaseBarrier
	models  []CostModel
}

// NewTaskGraphBuilder returns an empty builder.
func NewTaskGraphBuilder() *TaskGraphBuilder { return &TaskGraphBuilder{} }

// Reset clears all internal buffers, preserving backing capacity.
func (b *TaskGraphBuilder) Reset() {
	b.graphID, b.epochID = 0, 0
	b.tasks = b.tasks[:0]
	b.deps = b.deps[:0]
	b.barriers = b.barriers[:0]
	b.models = b.models[:0]
}

// SetIDs records the graph's identity for this tick.
func (b *TaskGraphBuilder) SetIDs(graphID, epochID uint64) {
	b.graphID, b.epochID = graphID, epochID
}

// AddTask appends a task node.
func (b *TaskGraphBuilder) AddTask(t TaskNode) { b.tasks = append(b.tasks, t) }

// AddDependency appends a directed dependency edge.
func (b *TaskGraphBuilder) AddDependency(from, to TaskID, reasonID uint64) {
	b.deps = append(b.deps, Dependency{From: from, To: to, ReasonID: reasonID})
}

// AddPhaseBarrier appends a phase barrier declaration.
func (b *TaskGraphBuilder) AddPhaseBarrier(barrier PhaseBarrier) {
	b.barriers = append(b.barriers, barrier)
}

// AddCostModel appends a cost model referenced by this tick's tasks.
func (b *TaskGraphBuilder) AddCostModel(m CostModel) { b.models = append(b.models, m) }

// Finalize validates the accumulated state (no duplicate task ids,
// barriers reference existing tasks, dependencies form a DAG, no cost
// model has ID 0), stably
// sorts tasks by CommitKey and dependencies by (From, To, ReasonID), and
// writes the result into out (§4.7).
func (b *TaskGraphBuilder) Finalize(out *TaskGraph) error {
	seen := make(map[TaskID]bool, len(b.tasks))
	for _, t := range b.tasks {
		if seen[t.TaskID] {
			return &DeterminismFault{Kind: "duplicate-task-id", Detail: "task id reused within tick", TaskID: t.TaskID}
		}
		seen[t.TaskID] = true
	}

	for _, barrier := range b.barriers {
		for _, id := range barrier.Before {
			if !seen[id] {
				return &DeterminismFault{Kind: "barrier-violation", Detail: "barrier references unknown before-task", TaskID: id}
			}
		}
		for _, id := range barrier.After {
			if !seen[id] {
				return &DeterminismFault{Kind: "barrier-violation", Detail: "barrier references unknown after-task", TaskID: id}
			}
		}
	}

	for _, d := range b.deps {
		if !seen[d.From] || !seen[d.To] {
			return &DeterminismFault{Kind: "barrier-violation", Detail: "dependency references unknown task", TaskID: d.From}
		}
	}

	if err := checkAcyclic(b.tasks, b.deps); err != nil {
		return err
	}

	for _, m := range b.models {
		if m.ID == 0 {
			return &DeterminismFault{Kind: "cost-model-id-zero", Detail: "cost model added with id 0"}
		}
	}

	tasks := append([]TaskNode(nil), b.tasks...)
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CommitKey().Less(tasks[j].CommitKey()) })

	deps := append([]Dependency(nil), b.deps...)
	sort.SliceStable(deps, func(i, j int) bool { return deps[i].less(deps[j]) })

	out.GraphID = b.graphID
	out.EpochID = b.epochID
	out.Tasks = tasks
	out.Deps = deps
	out.PhaseBarriers = append([]PhaseBarrier(nil), b.barriers...)
	out.CostModels = append([]CostModel(nil), b.models...)
	return nil
}

// checkAcyclic runs Kahn's algorithm over the dependency edges, visiting
// ready nodes in ascending TaskID order so the check itself is
// deterministic; it returns a *DeterminismFault of Kind "cycle" if any
// task is never reached.
func checkAcyclic(tasks []TaskNode, deps []Dependency) error {
	indeg := make(map[TaskID]int, len(tasks))
	adj := make(map[TaskID][]TaskID, len(tasks))
	for _, t := range tasks {
		indeg[t.TaskID] = 0
	}
	for _, d := range deps {
		indeg[d.To]++
		adj[d.From] = append(adj[d.From], d.To)
	}
	for id := range adj {
		sort.Slice(adj[id], func(i, j int) bool { return adj[id][i] < adj[id][j] })
	}

	ready := make([]TaskID, 0, len(tasks))
	for _, t := range tasks {
		if indeg[t.TaskID] == 0 {
			ready = append(ready, t.TaskID)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	visited := 0
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		visited++
		for _, nb := range adj[cur] {
			indeg[nb]--
			if indeg[nb] == 0 {
				pos := sort.Search(len(ready), func(i int) bool { return ready[i] >= nb })
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = nb
			}
		}
	}

	if visited != len(tasks) {
		return &DeterminismFault{Kind: "cycle", Detail: "task dependency graph contains a cycle"}
	}
	return nil
}
