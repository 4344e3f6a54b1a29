package engine

import "sort"

// BoundaryEndpoint is an ephemeral stitching input: a node's presence at
// a named boundary within a partition (§3, §4.2).
type BoundaryEndpoint struct {
	BoundaryKey uint64
	PartID      PartID
	NodeID      NodeID
}

func (e BoundaryEndpoint) less(o BoundaryEndpoint) bool {
	if e.BoundaryKey != o.BoundaryKey {
		return e.BoundaryKey < o.BoundaryKey
	}
	if e.PartID != o.PartID {
		return e.PartID < o.PartID
	}
	return e.NodeID < o.NodeID
}

func (e BoundaryEndpoint) equal(o BoundaryEndpoint) bool {
	return e.BoundaryKey == o.BoundaryKey && e.PartID == o.PartID && e.NodeID == o.NodeID
}

// StitchBoundary composes graphs split across partitions by introducing
// edges between boundary endpoints. Input is copied and sorted by
// (boundary_key asc, part_id asc, node_id asc); any two elements equal
// under that key are rejected (ambiguous input). For each maximal run
// sharing boundary_key, an edge is added for every pair (a, b) with a < b
// in sorted order where a.part_id != b.part_id; same-partition pairs are
// skipped. Sorting first guarantees that two different insertion orders
// of the same endpoint set yield bit-identical edge IDs and adjacency
// (§4.2).
func (g *Graph) StitchBoundary(endpoints []BoundaryEndpoint) error {
	sorted := append([]BoundaryEndpoint(nil), endpoints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].equal(sorted[i]) {
			return &BatchError{Op: "stitch_boundary", Index: i, Err: ErrDeterminismFault}
		}
	}

	start := 0
	for start < len(sorted) {
		end := start + 1
		for end < len(sorted) && sorted[end].BoundaryKey == sorted[start].BoundaryKey {
			end++
		}
		run := sorted[start:end]
		for i := 0; i < len(run); i++ {
			for j := i + 1; j < len(run); j++ {
				a, b := run[i], run[j]
				if a.PartID == b.PartID {
					continue
				}
				if _, err := g.AddEdge(0, a.NodeID, b.NodeID, false); err != nil {
					return &BatchError{Op: "stitch_boundary", Index: start + j, Err: err}
				}
			}
		}
		start = end
	}
	return nil
}
