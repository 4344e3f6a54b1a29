package engine

// CostModel estimates the scheduling cost of a unit of work (§3).
// TaskGraphBuilder.Finalize reports a CostModel with ID 0 as a
// determinism fault (§4.6): cost-model identity, not just its magnitude,
// is part of the deterministic record. A task whose CostModelID is 0 or
// names no added cost model is scheduled at 1 unit.
type CostModel struct {
	ID             uint64
	EstimatedUnits uint32
	DegradeHint    uint8
}

// Estimate clamps EstimatedUnits to at least 1, per the rebuild harness's
// "clamps 0 -> 1" rule (§4.4), which the engine applies uniformly to any
// cost model used for scheduling.
func (c CostModel) Estimate() uint32 {
	if c.EstimatedUnits == 0 {
		return 1
	}
	return c.EstimatedUnits
}
