package engine

// GraphSnapshot is the serializable form of one registered
// graph instance: its node table, edge table, and (if attached) partition
// assignment (§6, §4.1, §4.2).
type GraphSnapshot struct {
	TypeID     GraphTypeID
	InstanceID GraphInstanceID
	Nodes      []NodeID
	Edges      []Edge
	Partition  []nodePartEntry
}

// DirtySetSnapshot is the serialized form of a DirtySet (§4.3).
type DirtySetSnapshot struct {
	Nodes []NodeID
	Edges []EdgeID
	Parts []PartID
}

// ProducerCursorSnapshot is one producer's opaque cursor state (§4.8).
type ProducerCursorSnapshot struct {
	SystemID uint32
	Cursor   []byte
}

// Snapshot serializes everything needed to resume a tick-for-tick
// identical run: every registered graph, its partition, the current
// dirty set, the scheduler's per-phase carryover queues, and every
// cursor-bearing producer's runtime cursor (§6's "snapshot()/restore()
// pair... serializes (1) all registered graphs, (2) all partitions, (3)
// all dirty sets, (4) scheduler carryover queues, (5) system runtime
// cursors"). The wire format itself is out of this core's scope (§6); this
// struct is the in-memory staging area a caller serializes however it
// likes (JSON, gob, protobuf).
type Snapshot struct {
	RunID     string
	Tick      Tick
	Graphs    []GraphSnapshot
	DirtySet  DirtySetSnapshot
	Carryover map[Phase][]WorkItem
	Cursors   []ProducerCursorSnapshot
}

// Snapshot captures e's current state.
func (e *Engine) Snapshot() *Snapshot {
	snap := &Snapshot{
		RunID:     e.runID,
		Tick:      e.currentTick,
		Carryover: make(map[Phase][]WorkItem, phaseCount),
	}

	for _, inst := range e.graphs.Instances() {
		g := e.graphs.InstanceGraph(inst.TypeID, inst.InstanceID)
		if g == nil {
			continue
		}
		gs := GraphSnapshot{TypeID: inst.TypeID, InstanceID: inst.InstanceID}
		for i := 0; i < g.NodeCount(); i++ {
			gs.Nodes = append(gs.Nodes, g.NodeAt(i).ID)
		}
		for i := 0; i < g.EdgeCount(); i++ {
			gs.Edges = append(gs.Edges, g.EdgeAt(i))
		}
		if p := e.PartitionFor(inst.TypeID, inst.InstanceID); p != nil {
			gs.Partition = append(gs.Partition, p.byNode...)
		}
		snap.Graphs = append(snap.Graphs, gs)
	}

	snap.DirtySet = DirtySetSnapshot{
		Nodes: append([]NodeID(nil), e.dirty.Nodes()...),
		Edges: append([]EdgeID(nil), e.dirty.Edges()...),
		Parts: append([]PartID(nil), e.dirty.Parts()...),
	}

	for phase := Phase(0); phase < phaseCount; phase++ {
		snap.Carryover[phase] = e.scheduler.SnapshotQueue(phase)
	}

	for _, p := range e.producers.All() {
		if cp, ok := p.(CursorProducer); ok {
			snap.Cursors = append(snap.Cursors, ProducerCursorSnapshot{SystemID: cp.SystemID(), Cursor: cp.SnapshotCursor()})
		}
	}
	return snap
}

// Restore replaces e's graphs' node/edge tables, partitions, dirty set,
// scheduler carryover queues, and producer cursors from snap. Restore
// does not re-register graph types, instances, or producers: those must
// already be registered (typically identically to how they were when
// Snapshot was taken) before calling Restore.
func (e *Engine) Restore(snap *Snapshot) error {
	if snap == nil {
		return ErrInvalidArgument
	}
	e.currentTick = snap.Tick

	for _, gs := range snap.Graphs {
		g := e.graphs.InstanceGraph(gs.TypeID, gs.InstanceID)
		if g == nil {
			return ErrNotFound
		}
		fresh := NewGraph()
		for _, id := range gs.Nodes {
			if _, err := fresh.AddNode(id); err != nil {
				return err
			}
		}
		for _, edge := range gs.Edges {
			if _, err := fresh.AddEdge(edge.ID, edge.A, edge.B, edge.Directed()); err != nil {
				return err
			}
		}
		*g = *fresh

		if len(gs.Partition) > 0 {
			p := NewPartition()
			for _, entry := range gs.Partition {
				if err := p.SetNodePartition(entry.Node, entry.Part); err != nil {
					return err
				}
			}
			e.RegisterPartition(gs.TypeID, gs.InstanceID, p)
		}
	}

	e.dirty.Clear()
	for _, id := range snap.DirtySet.Nodes {
		if err := e.dirty.AddNode(id); err != nil {
			return err
		}
	}
	for _, id := range snap.DirtySet.Edges {
		if err := e.dirty.AddEdge(id); err != nil {
			return err
		}
	}
	for _, id := range snap.DirtySet.Parts {
		if err := e.dirty.AddPart(id); err != nil {
			return err
		}
	}

	for phase, items := range snap.Carryover {
		e.scheduler.RestoreQueue(phase, items)
	}

	cursorBySystem := make(map[uint32][]byte, len(snap.Cursors))
	for _, c := range snap.Cursors {
		cursorBySystem[c.SystemID] = c.Cursor
	}
	for _, p := range e.producers.All() {
		if cp, ok := p.(CursorProducer); ok {
			if data, found := cursorBySystem[cp.SystemID()]; found {
				if err := cp.RestoreCursor(data); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
