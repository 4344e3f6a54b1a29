package engine

import "sort"

// DirtySet accumulates within-tick changes as three sorted, deduplicated
// sequences of IDs. ID 0 is rejected in every class (§3, §4.3).
type DirtySet struct {
	nodes []NodeID
	edges []EdgeID
	parts []PartID
}

// NewDirtySet returns an empty DirtySet.
func NewDirtySet() *DirtySet { return &DirtySet{} }

// AddNode inserts id into the node class, preserving sort and dedup.
func (d *DirtySet) AddNode(id NodeID) error { return addSorted(&d.nodes, id) }

// AddEdge inserts id into the edge class, preserving sort and dedup.
func (d *DirtySet) AddEdge(id EdgeID) error { return addSorted(&d.edges, id) }

// AddPart inserts id into the partition class, preserving sort and dedup.
func (d *DirtySet) AddPart(id PartID) error { return addSorted(&d.parts, id) }

// RemoveNode removes id from the node class if present; no-op otherwise.
func (d *DirtySet) RemoveNode(id NodeID) { removeSorted(&d.nodes, id) }

// RemoveEdge removes id from the edge class if present; no-op otherwise.
func (d *DirtySet) RemoveEdge(id EdgeID) { removeSorted(&d.edges, id) }

// RemovePart removes id from the partition class if present; no-op otherwise.
func (d *DirtySet) RemovePart(id PartID) { removeSorted(&d.parts, id) }

// Nodes returns the sorted, deduplicated node IDs. Do not mutate.
func (d *DirtySet) Nodes() []NodeID { return d.nodes }

// Edges returns the sorted, deduplicated edge IDs. Do not mutate.
func (d *DirtySet) Edges() []EdgeID { return d.edges }

// Parts returns the sorted, deduplicated partition IDs. Do not mutate.
func (d *DirtySet) Parts() []PartID { return d.parts }

// CountNodes, CountEdges, CountParts report per-class sizes.
func (d *DirtySet) CountNodes() int { return len(d.nodes) }
func (d *DirtySet) CountEdges() int { return len(d.edges) }
func (d *DirtySet) CountParts() int { return len(d.parts) }

// Clear empties all three classes, preserving backing capacity.
func (d *DirtySet) Clear() {
	d.nodes = d.nodes[:0]
	d.edges = d.edges[:0]
	d.parts = d.parts[:0]
}

// Merge unions src into d, preserving sort in every class. merge(a,b) ==
// merge(b,a) byte-identically because both reduce to the same sorted
// dedup'd union regardless of call order (§8).
func (d *DirtySet) Merge(src *DirtySet) error {
	if src == nil {
		return nil
	}
	for i, id := range src.nodes {
		if err := d.AddNode(id); err != nil {
			return &BatchError{Op: "merge.nodes", Index: i, Err: err}
		}
	}
	for i, id := range src.edges {
		if err := d.AddEdge(id); err != nil {
			return &BatchError{Op: "merge.edges", Index: i, Err: err}
		}
	}
	for i, id := range src.parts {
		if err := d.AddPart(id); err != nil {
			return &BatchError{Op: "merge.parts", Index: i, Err: err}
		}
	}
	return nil
}

// addSorted inserts v into the sorted slice *s if absent, rejecting the
// zero sentinel. add(x); add(x) is idempotent: the second call is a no-op.
func addSorted[T ~uint32 | ~uint64](s *[]T, v T) error {
	if v == 0 {
		return ErrInvalidArgument
	}
	xs := *s
	idx := sort.Search(len(xs), func(i int) bool { return xs[i] >= v })
	if idx < len(xs) && xs[idx] == v {
		return nil
	}
	xs = append(xs, 0)
	copy(xs[idx+1:], xs[idx:])
	xs[idx] = v
	*s = xs
	return nil
}

// removeSorted deletes v from the sorted slice *s if present; a no-op on
// a non-member per §8's dirty-set idempotence property.
func removeSorted[T ~uint32 | ~uint64](s *[]T, v T) {
	xs := *s
	idx := sort.Search(len(xs), func(i int) bool { return xs[i] >= v })
	if idx < len(xs) && xs[idx] == v {
		*s = append(xs[:idx], xs[idx+1:]...)
	}
}
