// Package economy implements a ledger-account-range engine.Producer.
// Grounded the same way as systems/agent (the teacher's Node[S]/
// NodePolicy cursor-resume shape), but keyed on ledger account ranges
// instead of an entity roster, so its AccessSet writes exercise the
// access-set builder's overlap/conflict detection across tasks sharing a
// commit-key span (§4.7).
package economy

import (
	"encoding/json"
	"sort"

	"github.com/dominoengine/simcore/engine"
)

// Op identifies the kind of ledger operation a task requests.
type Op string

const (
	// OpSettle applies already-computed postings to accounts.
	OpSettle Op = "settle"
)

// allowedOpsMask bit indices, in Op declaration order.
const opBitSettle uint = 0

// PolicyParams is the JSON-encoded PolicyParams payload every economy
// task carries.
type PolicyParams struct {
	Op           Op     `json:"op"`
	AccountStart uint64 `json:"account_start"`
	AccountCount uint64 `json:"account_count"`
}

// Producer drives a fixed, sorted set of ledger account ranges, emitting
// one PH_SIMULATION task per range walked within [cursor, cursor+budget).
type Producer struct {
	systemID uint32
	ranges   []engine.Range // sorted ascending by Start, Resource fixed to "ledger_account"
	nextDue  engine.Tick
	cursor   int
	tier     uint8
}

// New returns a Producer with the given systemID, covering the ledger
// account span [0, accountCount) split into chunkSize-sized ranges.
func New(systemID uint32, accountCount uint64, chunkSize uint64) *Producer {
	if chunkSize == 0 {
		chunkSize = accountCount
	}
	var ranges []engine.Range
	for start := uint64(0); start < accountCount; start += chunkSize {
		end := start + chunkSize
		if end > accountCount {
			end = accountCount
		}
		ranges = append(ranges, engine.Range{Resource: "ledger_account", Start: start, End: end})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return &Producer{systemID: systemID, ranges: ranges}
}

// SystemID implements engine.Producer.
func (p *Producer) SystemID() uint32 { return p.systemID }

// IsSimAffecting implements engine.Producer.
func (p *Producer) IsSimAffecting() bool { return true }

// LawTargets implements engine.Producer: ledger settlement is not itself
// subject to governance laws (governance stages its own effects).
func (p *Producer) LawTargets() []uint64 { return nil }

// GetNextDueTick implements engine.Producer.
func (p *Producer) GetNextDueTick() engine.Tick { return p.nextDue }

// Degrade implements engine.Producer: a degraded economy producer ignores
// budgetHint and emits a task for every remaining range in one call, each
// tagged with the tier; ranges are not merged into fewer tasks.
func (p *Producer) Degrade(tier uint8, _ string) { p.tier = tier }

// EmitTasks walks [cursor, cursor+budgetHint) of the ranges, emitting one
// task per range.
func (p *Producer) EmitTasks(nowTick, targetTick engine.Tick, budgetHint uint32, allowedOpsMask uint64, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	if allowedOpsMask&engine.OpBit(opBitSettle) == 0 {
		p.nextDue = targetTick + 1
		return nil
	}

	remaining := len(p.ranges) - p.cursor
	if remaining <= 0 {
		p.cursor = 0
		p.nextDue = targetTick + 1
		return nil
	}

	n := remaining
	if p.tier > 0 {
		n = remaining
	} else if budgetHint > 0 && uint64(budgetHint) < uint64(n) {
		n = int(budgetHint)
	}

	for i := 0; i < n; i++ {
		idx := p.cursor + i
		r := p.ranges[idx]
		params, err := json.Marshal(PolicyParams{Op: OpSettle, AccountStart: r.Start, AccountCount: r.End - r.Start})
		if err != nil {
			return err
		}

		setID := access.New()
		access.AddWrite(setID, r)

		builder.AddTask(engine.TaskNode{
			TaskID:       engine.TaskID(uint64(p.systemID)<<32 | uint64(idx)+1),
			SystemID:     p.systemID,
			Category:     "economy",
			FidelityTier: p.tier,
			PhaseID:      engine.PhSimulation,
			SubIndex:     uint32(idx),
			AccessSetID:  setID,
			PolicyParams: params,
			NextDueTick:  targetTick + 1,
		})
	}

	p.cursor += n
	if p.cursor >= len(p.ranges) {
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
		Cursor int   `json:"cursor"`
		Tier   uint8 `json:"tier"`
	}{p.cursor, p.tier})
	return data
}

// RestoreCursor implements engine.CursorProducer.
func (p *Producer) RestoreCursor(data []byte) error {
	var s struct {
		Cursor int   `json:"cursor"`
		Tier   uint8 `json:"tier"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	p.cursor, p.tier = s.Cursor, s.Tier
	return nil
}
