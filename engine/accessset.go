package engine

import "sort"

// Range identifies a contiguous span [Start, End) of a named resource —
// e.g. a span of population indices or a ledger account range.
type Range struct {
	Resource string
	Start    uint64
	End      uint64 // exclusive
}

// overlaps reports whether a and b share the same resource and their
// spans intersect.
func (a Range) overlaps(b Range) bool {
	if a.Resource != b.Resource {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

func (a Range) less(b Range) bool {
	if a.Resource != b.Resource {
		return a.Resource < b.Resource
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

// AccessSet declares the resource spans a task reads, writes, or reduces
// (commutative read-modify-write, e.g. a running sum). Ranges within each
// class are sorted and non-overlapping after Finalize (§3, §4.7).
type AccessSet struct {
	ID      uint64
	Reads   []Range
	Writes  []Range
	Reduces []Range
}

// Conflicts reports whether two access sets cannot safely run within the
// same commit-key span: a write overlapping another's read or write.
// Reduces are commutative and never conflict with each other or with
// reads; they do conflict with a plain write to the same span.
func (a AccessSet) Conflicts(b AccessSet) bool {
	for _, w := range a.Writes {
		for _, r := range b.Reads {
			if w.overlaps(r) {
				return true
			}
		}
		for _, w2 := range b.Writes {
			if w.overlaps(w2) {
				return true
			}
		}
		for _, rd := range b.Reduces {
			if w.overlaps(rd) {
				return true
			}
		}
	}
	for _, r := range a.Reads {
		for _, w := range b.Writes {
			if r.overlaps(w) {
				return true
			}
		}
	}
	for _, rd := range a.Reduces {
		for _, w := range b.Writes {
			if rd.overlaps(w) {
				return true
			}
		}
	}
	return false
}

// AccessSetBuilder accumulates AccessSet records for a tick, grounded on
// bevi's AccessMeta/Conflicts design — but operating over sorted Range
// lists rather than reflect.Type bitsets, since the unit of access here
// is a resource span, not a Go type.
type AccessSetBuilder struct {
	sets map[uint64]*AccessSet
	next uint64
}

// NewAccessSetBuilder creates an empty builder.
func NewAccessSetBuilder() *AccessSetBuilder {
	return &AccessSetBuilder{sets: make(map[uint64]*AccessSet)}
}

// Reset clears all accumulated sets, preserving the builder for reuse.
func (b *AccessSetBuilder) Reset() {
	for k := range b.sets {
		delete(b.sets, k)
	}
	b.next = 0
}

// New allocates a fresh AccessSet and returns its ID.
func (b *AccessSetBuilder) New() uint64 {
	b.next++
	id := b.next
	b.sets[id] = &AccessSet{ID: id}
	return id
}

// AddRead appends a read range to the set identified by id.
func (b *AccessSetBuilder) AddRead(id uint64, r Range) {
	b.sets[id].Reads = append(b.sets[id].Reads, r)
}

// AddWrite appends a write range to the set identified by id.
func (b *AccessSetBuilder) AddWrite(id uint64, r Range) {
	b.sets[id].Writes = append(b.sets[id].Writes, r)
}

// AddReduce appends a reduce range to the set identified by id.
func (b *AccessSetBuilder) AddReduce(id uint64, r Range) {
	b.sets[id].Reduces = append(b.sets[id].Reduces, r)
}

// Get returns the access set for id, or false if unknown.
func (b *AccessSetBuilder) Get(id uint64) (AccessSet, bool) {
	s, ok := b.sets[id]
	if !ok {
		return AccessSet{}, false
	}
	return *s, true
}

// Finalize sorts and merges overlapping ranges of the same class within
// every accumulated set, and cross-checks tasks sharing a commit-key span
// for access conflicts (any pair of sets for which AccessSet.Conflicts
// reports true), returning a *DeterminismFault of Kind "access-conflict"
// for the first conflict found, per §4.7.
//
// taskSets maps each task's CommitKey to the AccessSet id it declared;
// conflict checking is scoped to tasks whose commit keys share the same
// Phase (the span within which concurrent-looking writes must not alias),
// matching §4.6's "every task of phase P finishes before any task of
// phase P+1 begins" — conflicts are only meaningful within a phase.
func (b *AccessSetBuilder) Finalize(taskSets map[CommitKey]uint64) ([]AccessSet, error) {
	ids := make([]uint64, 0, len(b.sets))
	for id, s := range b.sets {
		mergeClass(&s.Reads)
		mergeClass(&s.Writes)
		mergeClass(&s.Reduces)
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]AccessSet, 0, len(ids))
	for _, id := range ids {
		out = append(out, *b.sets[id])
	}

	if err := checkPhaseConflicts(taskSets, b.sets); err != nil {
		return out, err
	}
	return out, nil
}

func checkPhaseConflicts(taskSets map[CommitKey]uint64, sets map[uint64]*AccessSet) error {
	keys := make([]CommitKey, 0, len(taskSets))
	for k := range taskSets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[i].Phase != keys[j].Phase {
				break
			}
			a, okA := sets[taskSets[keys[i]]]
			bb, okB := sets[taskSets[keys[j]]]
			if !okA || !okB {
				continue
			}
			if a.Conflicts(*bb) {
				return &DeterminismFault{
					Kind:   "access-conflict",
					Detail: "overlapping access sets in the same phase span",
					TaskID: keys[j].TaskID,
				}
			}
		}
	}
	return nil
}

// mergeClass sorts ranges and merges adjacent/overlapping ones sharing a
// resource, in place.
func mergeClass(ranges *[]Range) {
	rs := *ranges
	if len(rs) < 2 {
		return
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].less(rs[j]) })
	merged := rs[:1]
	for _, r := range rs[1:] {
		last := &merged[len(merged)-1]
		if last.Resource == r.Resource && r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	*ranges = merged
}
