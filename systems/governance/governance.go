// Package governance implements a law/policy engine.Producer. Each law
// is staged during PH_SIMULATION and swapped into canonical state during
// PH_COMMIT, grounded on §5's "stage to a side buffer, swap at commit"
// pattern (the teacher's two-phase checkpoint-then-apply discipline in
// graph/checkpoint.go, generalized from a single commit to a pair of
// phase-scoped tasks joined by an explicit Dependency).
package governance

import (
	"encoding/json"
	"sort"

	"github.com/dominoengine/simcore/engine"
)

// Op identifies the kind of law-application operation a task requests.
type Op string

const (
	// OpStage computes a law's pending effect into a side buffer.
	OpStage Op = "stage"
	// OpSwap commits a previously staged effect into canonical state.
	OpSwap Op = "swap"
)

// allowedOpsMask bit indices, in Op declaration order.
const (
	opBitStage uint = iota
	opBitSwap
)

// PolicyParams is the JSON-encoded PolicyParams payload every governance
// task carries.
type PolicyParams struct {
	Op    Op     `json:"op"`
	LawID uint64 `json:"law_id"`
}

// Law is one governance law this producer enforces.
type Law struct {
	ID     uint64
	Target uint64 // the resource (account, cohort, ...) this law governs
}

// Producer drives a fixed, sorted set of laws, emitting a staged
// PH_SIMULATION task and a dependent PH_COMMIT task per law walked within
// [cursor, cursor+budget).
type Producer struct {
	systemID uint32
	laws     []Law // sorted ascending by ID
	nextDue  engine.Tick
	cursor   int
}

// New returns a Producer with the given systemID and laws (sorted
// ascending by ID; the caller must not pass duplicate IDs).
func New(systemID uint32, laws []Law) *Producer {
	sorted := append([]Law(nil), laws...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Producer{systemID: systemID, laws: sorted}
}

// SystemID implements engine.Producer.
func (p *Producer) SystemID() uint32 { return p.systemID }

// IsSimAffecting implements engine.Producer.
func (p *Producer) IsSimAffecting() bool { return true }

// LawTargets implements engine.Producer: every law's target resource ID.
func (p *Producer) LawTargets() []uint64 {
	targets := make([]uint64, len(p.laws))
	for i, l := range p.laws {
		targets[i] = l.Target
	}
	return targets
}

// GetNextDueTick implements engine.Producer.
func (p *Producer) GetNextDueTick() engine.Tick { return p.nextDue }

// Degrade implements engine.Producer: governance has no coarser tier —
// every law must still individually stage and swap, so Degrade is a no-op.
func (p *Producer) Degrade(_ uint8, _ string) {}

// EmitTasks walks [cursor, cursor+budgetHint) of the laws, emitting a
// stage/swap task pair per law with a PH_COMMIT-after-PH_SIMULATION
// dependency.
func (p *Producer) EmitTasks(nowTick, targetTick engine.Tick, budgetHint uint32, allowedOpsMask uint64, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	if allowedOpsMask == 0 {
		p.nextDue = targetTick + 1
		return nil
	}

	remaining := len(p.laws) - p.cursor
	if remaining <= 0 {
		p.cursor = 0
		p.nextDue = targetTick + 1
		return nil
	}

	n := remaining
	if budgetHint > 0 && uint64(budgetHint) < uint64(n) {
		n = int(budgetHint)
	}

	stageAllowed := allowedOpsMask&engine.OpBit(opBitStage) != 0
	swapAllowed := allowedOpsMask&engine.OpBit(opBitSwap) != 0

	for i := 0; i < n; i++ {
		idx := p.cursor + i
		law := p.laws[idx]

		var stageID, swapID engine.TaskID
		haveStage, haveSwap := false, false

		if stageAllowed {
			stageParams, err := json.Marshal(PolicyParams{Op: OpStage, LawID: law.ID})
			if err != nil {
				return err
			}
			stageSet := access.New()
			access.AddRead(stageSet, engine.Range{Resource: "law_target", Start: law.Target, End: law.Target + 1})
			stageID = engine.TaskID(uint64(p.systemID)<<32 | law.ID<<1)
			builder.AddTask(engine.TaskNode{
				TaskID:       stageID,
				SystemID:     p.systemID,
				Category:     "governance",
				PhaseID:      engine.PhSimulation,
				SubIndex:     uint32(idx),
				AccessSetID:  stageSet,
				LawTargets:   []uint64{law.Target},
				PolicyParams: stageParams,
				NextDueTick:  targetTick + 1,
			})
			haveStage = true
		}

		if swapAllowed {
			swapParams, err := json.Marshal(PolicyParams{Op: OpSwap, LawID: law.ID})
			if err != nil {
				return err
			}
			swapSet := access.New()
			access.AddWrite(swapSet, engine.Range{Resource: "law_target", Start: law.Target, End: law.Target + 1})
			swapID = engine.TaskID(uint64(p.systemID)<<32 | law.ID<<1 | 1)
			builder.AddTask(engine.TaskNode{
				TaskID:       swapID,
				SystemID:     p.systemID,
				Category:     "governance",
				PhaseID:      engine.PhCommit,
				SubIndex:     uint32(idx),
				AccessSetID:  swapSet,
				LawTargets:   []uint64{law.Target},
				PolicyParams: swapParams,
				NextDueTick:  targetTick + 1,
			})
			haveSwap = true
		}

		if haveStage && haveSwap {
			builder.AddDependency(stageID, swapID, law.ID)
		}
	}

	p.cursor += n
	if p.cursor >= len(p.laws) {
		p.cursor = 0
		p.nextDue = targetTick + 1
	} else {
		p.nextDue = nowTick
	}
	return nil
}

// SnapshotCursor implements engine.CursorProducer.
func (p *Producer) SnapshotCursor() []byte {
	data, _ := json.Marshal(struct {
		Cursor int `json:"cursor"`
	}{p.cursor})
	return data
}

// RestoreCursor implements engine.CursorProducer.
func (p *Producer) RestoreCursor(data []byte) error {
	var s struct {
		Cursor int `json:"cursor"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	p.cursor = s.Cursor
	return nil
}
