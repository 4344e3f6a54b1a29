// Package agent implements a slice-oriented engine.Producer over a
// deterministic roster of agent entity IDs. Grounded on the teacher's
// Node[S] (graph/node.go: Run(ctx, state) NodeResult[S]) and bevi's
// System/SystemMeta scheduling metadata, generalized into
// Producer.EmitTasks's cursor/budget-hint walk.
package agent

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dominoengine/simcore/engine"
	"github.com/dominoengine/simcore/systems/advise"
)

// Op identifies the kind of per-agent operation a task requests.
type Op string

const (
	// OpPlan asks the agent to recompute its plan for the tick.
	OpPlan Op = "plan"
	// OpAct asks the agent to execute its already-computed plan.
	OpAct Op = "act"
)

// allowedOpsMask bit indices, in Op declaration order.
const (
	opBitPlan uint = iota
	opBitAct
)

// PolicyParams is the JSON-encoded PolicyParams payload every agent task
// carries, matching the teacher's json.RawMessage-based request/response
// serialization convention (graph/replay.go).
type PolicyParams struct {
	Op         Op     `json:"op"`
	StartIndex uint64 `json:"start_index"`
	Count      uint64 `json:"count"`
}

// Producer drives a sorted, fixed roster of agent entity IDs, emitting
// one PH_SIMULATION task per agent walked within [cursor, cursor+budget).
type Producer struct {
	systemID  uint32
	roster    []engine.EntityID // sorted ascending, fixed for the producer's lifetime
	op        Op
	nextDue   engine.Tick
	cursor    int
	tier      uint8
	advisor   advise.Advisor
	sideLog   *engine.SideEffectLog
	lastAdvTk engine.Tick
	seq       uint32
}

// New returns a Producer with the given systemID and roster (sorted
// ascending, deduplicated by the caller). advisor may be nil, in which
// case advise.NullAdvisor is used: planning-hint calls still happen and
// are recorded, but each returns an empty Response without any I/O.
func New(systemID uint32, roster []engine.EntityID, advisor advise.Advisor, sideLog *engine.SideEffectLog) *Producer {
	if advisor == nil {
		advisor = advise.NullAdvisor{}
	}
	sorted := append([]engine.EntityID(nil), roster...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Producer{
		systemID:  systemID,
		roster:    sorted,
		op:        OpAct,
		advisor:   advisor,
		sideLog:   sideLog,
		lastAdvTk: ^engine.Tick(0),
	}
}

// SystemID implements engine.Producer.
func (p *Producer) SystemID() uint32 { return p.systemID }

// IsSimAffecting implements engine.Producer: agent tasks mutate state.
func (p *Producer) IsSimAffecting() bool { return true }

// LawTargets implements engine.Producer: agents are subject to no
// governance laws by default.
func (p *Producer) LawTargets() []uint64 { return nil }

// GetNextDueTick implements engine.Producer.
func (p *Producer) GetNextDueTick() engine.Tick { return p.nextDue }

// Degrade implements engine.Producer: a degraded agent producer switches
// from per-entity to full-roster, single-task emission — the cheapest
// available tier, since agent has no cohort grouping of its own.
func (p *Producer) Degrade(tier uint8, _ string) { p.tier = tier }

// EmitTasks walks [cursor, cursor+budgetHint) of the roster, emitting
// one task per agent, resuming from the previous call's cursor on a
// budget-limited return (§4.8 batch-equivalence).
func (p *Producer) EmitTasks(nowTick, targetTick engine.Tick, budgetHint uint32, allowedOpsMask uint64, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	if allowedOpsMask == 0 {
		p.nextDue = targetTick + 1
		return nil
	}

	if allowedOpsMask&engine.OpBit(opBitPlan) != 0 && p.advisor != nil && p.lastAdvTk != nowTick {
		if err := p.consultAdvisor(nowTick); err != nil {
			return err
		}
		p.lastAdvTk = nowTick
	}

	if allowedOpsMask&engine.OpBit(opBitAct) == 0 {
		p.nextDue = targetTick + 1
		return nil
	}

	if p.tier > 0 {
		return p.emitDegraded(nowTick, targetTick, builder, access)
	}

	remaining := len(p.roster) - p.cursor
	if remaining <= 0 {
		p.cursor = 0
		p.nextDue = targetTick + 1
		return nil
	}

	n := remaining
	if budgetHint > 0 && uint64(budgetHint) < uint64(n) {
		n = int(budgetHint)
	}

	for i := 0; i < n; i++ {
		idx := p.cursor + i
		entity := p.roster[idx]
		params, err := json.Marshal(PolicyParams{Op: p.op, StartIndex: uint64(idx), Count: 1})
		if err != nil {
			return err
		}

		taskID := engine.TaskID(uint64(p.systemID)<<32 | uint64(idx)+1)
		setID := access.New()
		access.AddWrite(setID, engine.Range{Resource: "agent", Start: uint64(entity), End: uint64(entity) + 1})

		builder.AddTask(engine.TaskNode{
			TaskID:       taskID,
			SystemID:     p.systemID,
			Category:     "agent",
			PhaseID:      engine.PhSimulation,
			SubIndex:     uint32(idx),
			AccessSetID:  setID,
			PolicyParams: params,
			NextDueTick:  targetTick + 1,
		})
	}

	p.cursor += n
	if p.cursor >= len(p.roster) {
		p.cursor = 0
		p.nextDue = targetTick + 1
	} else {
		p.nextDue = nowTick
	}
	return nil
}

// emitDegraded emits a single task covering the whole roster, the
// concrete exercise of the fidelity-tier concept for a producer with no
// natural cohort grouping.
func (p *Producer) emitDegraded(nowTick, targetTick engine.Tick, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	params, err := json.Marshal(PolicyParams{Op: p.op, StartIndex: 0, Count: uint64(len(p.roster))})
	if err != nil {
		return err
	}
	setID := access.New()
	if len(p.roster) > 0 {
		access.AddWrite(setID, engine.Range{Resource: "agent", Start: uint64(p.roster[0]), End: uint64(p.roster[len(p.roster)-1]) + 1})
	}
	builder.AddTask(engine.TaskNode{
		TaskID:       engine.TaskID(uint64(p.systemID) << 32),
		SystemID:     p.systemID,
		Category:     "agent",
		FidelityTier: p.tier,
		PhaseID:      engine.PhSimulation,
		AccessSetID:  setID,
		PolicyParams: params,
		NextDueTick:  targetTick + 1,
	})
	p.nextDue = targetTick + 1
	return nil
}

// consultAdvisor asks the configured advisor for a coarse planning hint
// once per tick and records the call on sideLog, per the record/replay
// discipline (§4.8, engine.RecordedCall): replay never re-invokes the
// advisor, it replays the recorded response.
func (p *Producer) consultAdvisor(nowTick engine.Tick) error {
	if p.sideLog == nil {
		return nil
	}
	if _, found := p.sideLog.Lookup(p.systemID, p.seq); found {
		p.seq++
		return nil
	}

	req := advise.Request{Tick: uint64(nowTick), Prompt: "summarize roster-wide planning posture for this tick"}
	resp, err := p.advisor.Advise(context.Background(), req)
	if err != nil {
		return err
	}

	call, err := engine.RecordCall(p.systemID, nowTick, p.seq, req, resp)
	if err != nil {
		return err
	}
	p.sideLog.Append(call)
	p.seq++
	return nil
}

// SnapshotCursor implements engine.CursorProducer.
func (p *Producer) SnapshotCursor() []byte {
	data, _ := json.Marshal(struct {
		Cursor int    `json:"cursor"`
		Tier   uint8  `json:"tier"`
		Seq    uint32 `json:"seq"`
	}{p.cursor, p.tier, p.seq})
	return data
}

// RestoreCursor implements engine.CursorProducer.
func (p *Producer) RestoreCursor(data []byte) error {
	var s struct {
		Cursor int    `json:"cursor"`
		Tier   uint8  `json:"tier"`
		Seq    uint32 `json:"seq"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	p.cursor, p.tier, p.seq = s.Cursor, s.Tier, s.Seq
	return nil
}
