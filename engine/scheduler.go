package engine

import "math"

// WorkHandler executes one drained WorkItem. Handlers are installed
// per-phase; a handler's error is recorded as a TaskFailure and never
// aborts the tick (§7).
type WorkHandler interface {
	Handle(item WorkItem) error
}

// WorkHandlerFunc adapts a function to a WorkHandler.
type WorkHandlerFunc func(item WorkItem) error

func (f WorkHandlerFunc) Handle(item WorkItem) error { return f(item) }

// TickReport summarizes one tick: determinism faults, work dropped by
// budget exhaustion (carried into the next tick, not lost), per-task
// failures, and remaining per-domain budget. RunID is an opaque
// correlation label the embedding may set; it plays no role in ordering
// or hashing (§6, [NEW] ambient fields).
type TickReport struct {
	RunID           string
	Tick            Tick
	Faults          []DeterminismFault
	Dropped         []WorkItem
	Failures        []TaskFailure
	BudgetResiduals map[DomainID]uint32
}

// Scheduler aggregates work items for a tick, runs them in OrderKey
// order within each phase, enforces budgets and phase barriers, and
// carries over deferred work deterministically (§4.6). Grounded on the
// teacher's graph/scheduler.go Frontier/backpressure vocabulary — but
// the teacher schedules goroutine-parallel node execution off a single
// heap; this Scheduler drains phaseCount independent sorted queues
// strictly in phase order, on one logical thread, per §5.
type Scheduler struct {
	queues      [phaseCount]*WorkQueue
	handlers    [phaseCount]WorkHandler
	phaseBudget [phaseCount]uint32

	// domainLimit is the configured per-tick cap per domain (set via
	// SetDomainBudget); domainBudget is the remaining spend for the
	// current tick, reset from domainLimit at the start of every
	// BeginTick so a domain's budget replenishes each tick instead of
	// draining once over the scheduler's lifetime.
	domainLimit  map[DomainID]uint32
	domainBudget map[DomainID]uint32

	currentTick Tick
	barriers    []PhaseBarrier
	executed    map[TaskID]bool
}

// defaultBudget is the spec's "soft per-tick cap" default (§4.6).
const defaultBudget = math.MaxUint32

// NewScheduler returns a Scheduler with every phase budget defaulted to
// the maximum (unbounded in practice) and empty queues.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		domainLimit:  make(map[DomainID]uint32),
		domainBudget: make(map[DomainID]uint32),
		executed:     make(map[TaskID]bool),
	}
	for p := Phase(0); p < phaseCount; p++ {
		s.queues[p] = NewWorkQueue(0)
		s.phaseBudget[p] = defaultBudget
	}
	return s
}

// SetHandler installs the work handler invoked for items drained from phase.
func (s *Scheduler) SetHandler(phase Phase, h WorkHandler) { s.handlers[phase] = h }

// SetPhaseBudget overrides the soft per-tick cap for phase.
func (s *Scheduler) SetPhaseBudget(phase Phase, units uint32) { s.phaseBudget[phase] = units }

// SetDomainBudget overrides the per-tick cap for domain. A domain absent
// from this map is treated as unbounded. The new cap takes effect at the
// next BeginTick, which replenishes every domain's remaining spend from
// this configured limit.
func (s *Scheduler) SetDomainBudget(domain DomainID, units uint32) { s.domainLimit[domain] = units }

// BeginTick sets the current tick and resets per-tick bookkeeping,
// including replenishing every domain's remaining budget from its
// configured per-tick limit (§4.6: domain budgets are a per-tick cap, not
// a lifetime one). Carryover queues (items left undrained by a prior
// tick) are retained untouched (§4.6 step 1).
func (s *Scheduler) BeginTick(t Tick) {
	s.currentTick = t
	s.barriers = s.barriers[:0]
	for k := range s.executed {
		delete(s.executed, k)
	}
	for k := range s.domainBudget {
		delete(s.domainBudget, k)
	}
	for domain, limit := range s.domainLimit {
		s.domainBudget[domain] = limit
	}
}

// EnqueueWork pushes item onto phase's queue, stamping EnqueueTick with
// the current tick. A duplicate OrderKey already present in the queue is
// a determinism fault (§4.6) surfaced to the caller immediately, since it
// indicates a producer bug rather than a scheduling outcome.
func (s *Scheduler) EnqueueWork(phase Phase, item WorkItem) error {
	q := s.queues[phase]
	for i := 0; i < q.Count(); i++ {
		if q.At(i).Key.Equal(item.Key) {
			return &DeterminismFault{Kind: "duplicate-order-key", Detail: "work item with identical OrderKey already queued"}
		}
	}
	item.EnqueueTick = s.currentTick
	q.Push(item)
	return nil
}

// AddPhaseBarrier records a barrier checked after all phases have drained.
func (s *Scheduler) AddPhaseBarrier(barrier PhaseBarrier) {
	s.barriers = append(s.barriers, barrier)
}

// Tick drains every phase queue in enum order and returns the report.
// Within a phase, items run in ascending OrderKey order; an item whose
// cost alone exceeds the remaining phase budget still runs if nothing has
// been spent yet this phase (forward-progress guarantee; a per-domain
// budget has no such exemption and must cover the item's cost), otherwise it and
// everything behind it in OrderKey order is left queued for the next
// tick (§4.6 step 4).
func (s *Scheduler) Tick(t Tick) *TickReport {
	report := &TickReport{Tick: t, BudgetResiduals: make(map[DomainID]uint32)}

	for phase := Phase(0); phase < phaseCount; phase++ {
		s.drainPhase(phase, report)
	}

	for domain, limit := range s.domainBudget {
		report.BudgetResiduals[domain] = limit
	}

	for _, barrier := range s.barriers {
		for _, taskID := range barrier.After {
			if !s.executed[taskID] {
				report.Faults = append(report.Faults, DeterminismFault{
					Kind:   "barrier-violation",
					Detail: "after-task of a phase barrier was not executed this tick",
					TaskID: taskID,
				})
			}
		}
	}
	return report
}

func (s *Scheduler) drainPhase(phase Phase, report *TickReport) {
	q := s.queues[phase]
	q.sortInPlace()

	limit := s.phaseBudget[phase]
	var spent uint32
	handler := s.handlers[phase]

	drained := 0
	for drained < q.Count() {
		item := q.At(drained)
		cost := item.CostUnits
		if cost == 0 {
			cost = 1
		}

		if spent > 0 && spent+cost > limit {
			break
		}
		if !s.domainAdmits(item.Key.DomainID, cost) {
			break
		}

		spent += cost
		s.spendDomain(item.Key.DomainID, cost)
		drained++

		if handler != nil {
			if err := handler.Handle(item); err != nil {
				report.Failures = append(report.Failures, TaskFailure{TaskID: item.TaskID, Phase: phase, Err: err})
			}
		}
		if item.TaskID != 0 {
			s.executed[item.TaskID] = true
		}
	}

	for i := 0; i < drained; i++ {
		_, _ = q.PopFront()
	}
	for i := drained; i < q.Count(); i++ {
		report.Dropped = append(report.Dropped, q.At(i))
	}
}

func (s *Scheduler) domainAdmits(domain DomainID, cost uint32) bool {
	if domain == 0 {
		return true
	}
	remaining, ok := s.domainBudget[domain]
	if !ok {
		return true
	}
	return cost <= remaining
}

func (s *Scheduler) spendDomain(domain DomainID, cost uint32) {
	if domain == 0 {
		return
	}
	if remaining, ok := s.domainBudget[domain]; ok {
		if cost > remaining {
			s.domainBudget[domain] = 0
		} else {
			s.domainBudget[domain] = remaining - cost
		}
	}
}

// QueueCount reports the current number of queued items in phase, for
// test introspection.
func (s *Scheduler) QueueCount(phase Phase) int { return s.queues[phase].Count() }

// SnapshotQueue returns a copy of phase's current carryover queue, sorted
// by OrderKey, for serialization (§6's snapshot/restore).
func (s *Scheduler) SnapshotQueue(phase Phase) []WorkItem {
	q := s.queues[phase]
	out := make([]WorkItem, q.Count())
	for i := range out {
		out[i] = q.At(i)
	}
	return out
}

// RestoreQueue replaces phase's queue contents with items, re-sorting by
// OrderKey.
func (s *Scheduler) RestoreQueue(phase Phase, items []WorkItem) {
	q := NewWorkQueue(len(items))
	q.PushAll(items)
	s.queues[phase] = q
}
