// Package interest implements a fidelity/degrade engine.Producer: the
// concrete exercise of the Fidelity tier concept. At tier 0 it emits one
// task per entity; once degraded, it switches to one task per cohort on
// the next EmitTasks call, grounded on bevi's System fidelity-tier
// metadata generalized into Producer.Degrade.
package interest

import (
	"encoding/json"
	"sort"

	"github.com/dominoengine/simcore/engine"
)

// Op identifies the kind of interest-accrual operation a task requests.
type Op string

const (
	// OpAccruePerEntity recomputes interest for one entity.
	OpAccruePerEntity Op = "accrue_entity"
	// OpAccruePerCohort recomputes interest for a whole cohort at once,
	// the degraded (lower-fidelity) operating mode.
	OpAccruePerCohort Op = "accrue_cohort"
)

// allowedOpsMask bit indices, in Op declaration order.
const (
	opBitAccruePerEntity uint = iota
	opBitAccruePerCohort
)

// PolicyParams is the JSON-encoded PolicyParams payload every interest
// task carries. Fields unused by the current Op are left zero.
type PolicyParams struct {
	Op         Op     `json:"op"`
	SourceKind string `json:"source_kind,omitempty"`
	CohortID   uint64 `json:"cohort_id,omitempty"`
	EntityID   uint64 `json:"entity_id,omitempty"`
}

// Cohort groups entities sharing an interest-accrual source kind.
type Cohort struct {
	ID         uint64
	SourceKind string
	Entities   []engine.EntityID // sorted ascending
}

// Producer drives a fixed, sorted set of cohorts, emitting per-entity
// tasks at tier 0 and per-cohort tasks once degraded.
type Producer struct {
	systemID uint32
	cohorts  []Cohort // sorted ascending by ID
	nextDue  engine.Tick
	cursor   int // flattened per-entity index at tier 0; per-cohort index once degraded
	tier     uint8
}

// New returns a Producer with the given systemID and cohorts (sorted
// ascending by ID).
func New(systemID uint32, cohorts []Cohort) *Producer {
	sorted := append([]Cohort(nil), cohorts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Producer{systemID: systemID, cohorts: sorted}
}

// SystemID implements engine.Producer.
func (p *Producer) SystemID() uint32 { return p.systemID }

// IsSimAffecting implements engine.Producer.
func (p *Producer) IsSimAffecting() bool { return true }

// LawTargets implements engine.Producer.
func (p *Producer) LawTargets() []uint64 { return nil }

// GetNextDueTick implements engine.Producer.
func (p *Producer) GetNextDueTick() engine.Tick { return p.nextDue }

// Degrade implements engine.Producer: switches to per-cohort emission
// starting with the next EmitTasks call, per §4.8's fidelity-tier
// concept.
func (p *Producer) Degrade(tier uint8, _ string) {
	p.tier = tier
	p.cursor = 0
}

// totalEntities returns the flattened entity count across every cohort.
func (p *Producer) totalEntities() int {
	n := 0
	for _, c := range p.cohorts {
		n += len(c.Entities)
	}
	return n
}

// entityAt returns the cohort and entity at flattened index idx.
func (p *Producer) entityAt(idx int) (Cohort, engine.EntityID) {
	for _, c := range p.cohorts {
		if idx < len(c.Entities) {
			return c, c.Entities[idx]
		}
		idx -= len(c.Entities)
	}
	return Cohort{}, 0
}

// EmitTasks emits per-entity tasks at tier 0, walking the flattened
// entity index within [cursor, cursor+budgetHint); once degraded it
// emits one task per cohort per call instead.
func (p *Producer) EmitTasks(nowTick, targetTick engine.Tick, budgetHint uint32, allowedOpsMask uint64, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	if allowedOpsMask == 0 {
		p.nextDue = targetTick + 1
		return nil
	}
	if p.tier > 0 {
		if allowedOpsMask&engine.OpBit(opBitAccruePerCohort) == 0 {
			p.nextDue = targetTick + 1
			return nil
		}
		return p.emitPerCohort(nowTick, targetTick, budgetHint, builder, access)
	}
	if allowedOpsMask&engine.OpBit(opBitAccruePerEntity) == 0 {
		p.nextDue = targetTick + 1
		return nil
	}
	return p.emitPerEntity(nowTick, targetTick, budgetHint, builder, access)
}

func (p *Producer) emitPerEntity(nowTick, targetTick engine.Tick, budgetHint uint32, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	total := p.totalEntities()
	remaining := total - p.cursor
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
		cohort, entity := p.entityAt(idx)
		params, err := json.Marshal(PolicyParams{Op: OpAccruePerEntity, SourceKind: cohort.SourceKind, EntityID: uint64(entity)})
		if err != nil {
			return err
		}

		setID := access.New()
		access.AddWrite(setID, engine.Range{Resource: "interest_balance", Start: uint64(entity), End: uint64(entity) + 1})

		builder.AddTask(engine.TaskNode{
			TaskID:       engine.TaskID(uint64(p.systemID)<<32 | uint64(idx)+1),
			SystemID:     p.systemID,
			Category:     "interest",
			PhaseID:      engine.PhSimulation,
			SubIndex:     uint32(idx),
			AccessSetID:  setID,
			PolicyParams: params,
			NextDueTick:  targetTick + 1,
		})
	}

	p.cursor += n
	if p.cursor >= total {
		p.cursor = 0
		p.nextDue = targetTick + 1
	} else {
		p.nextDue = nowTick
	}
	return nil
}

func (p *Producer) emitPerCohort(nowTick, targetTick engine.Tick, budgetHint uint32, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	remaining := len(p.cohorts) - p.cursor
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
		cohort := p.cohorts[idx]
		params, err := json.Marshal(PolicyParams{Op: OpAccruePerCohort, SourceKind: cohort.SourceKind, CohortID: cohort.ID})
		if err != nil {
			return err
		}

		setID := access.New()
		if len(cohort.Entities) > 0 {
			access.AddWrite(setID, engine.Range{Resource: "interest_balance", Start: uint64(cohort.Entities[0]), End: uint64(cohort.Entities[len(cohort.Entities)-1]) + 1})
		}

		builder.AddTask(engine.TaskNode{
			TaskID:       engine.TaskID(uint64(p.systemID)<<32 | cohort.ID),
			SystemID:     p.systemID,
			Category:     "interest",
			FidelityTier: p.tier,
			PhaseID:      engine.PhSimulation,
			SubIndex:     uint32(idx),
			AccessSetID:  setID,
			PolicyParams: params,
			NextDueTick:  targetTick + 1,
		})
	}

	p.cursor += n
	if p.cursor >= len(p.cohorts) {
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
