package engine

import "sort"

// WorkQueue is an ordered sequence of WorkItem sorted by OrderKey. It is
// implemented as a sorted slice rather than the teacher's heap-backed
// Frontier: §4.5 explicitly allows "O(log n) amortized or O(n) if
// implemented as a sorted vector (acceptable given tick-bounded sizes)",
// and a slice lets Scheduler.tick re-sort, drain a prefix, and retain a
// carryover suffix with simple slice operations.
type WorkQueue struct {
	items []WorkItem
}

// NewWorkQueue creates an empty queue, optionally reserving capacity.
func NewWorkQueue(capacityHint int) *WorkQueue {
	return &WorkQueue{items: make([]WorkItem, 0, capacityHint)}
}

// Push inserts item, maintaining sort by OrderKey. Insertion is stable:
// among items whose keys compare equal in every field but Seq (which
// uniquely orders them anyway), insertion order is preserved because we
// insert at the first position whose key is greater than item's key.
func (q *WorkQueue) Push(item WorkItem) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return item.Key.Less(q.items[i].Key)
	})
	q.items = append(q.items, WorkItem{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item
}

// PushAll pushes every item in items, in order.
func (q *WorkQueue) PushAll(items []WorkItem) {
	for _, it := range items {
		q.Push(it)
	}
}

// PopFront removes and returns the lowest-OrderKey item. ok is false if
// the queue is empty.
func (q *WorkQueue) PopFront() (WorkItem, bool) {
	if len(q.items) == 0 {
		return WorkItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// PeekFront returns the lowest-OrderKey item without removing it.
func (q *WorkQueue) PeekFront() (WorkItem, bool) {
	if len(q.items) == 0 {
		return WorkItem{}, false
	}
	return q.items[0], true
}

// Count returns the number of items currently queued.
func (q *WorkQueue) Count() int { return len(q.items) }

// At returns the item at index i, for test introspection only (§4.5).
func (q *WorkQueue) At(i int) WorkItem { return q.items[i] }

// Reset clears the queue's contents while preserving its backing capacity,
// matching the arena-reset discipline of §5 ("per-tick allocations ...
// come from an arena reset at begin_tick").
func (q *WorkQueue) Reset() { q.items = q.items[:0] }

// sortInPlace re-establishes sort order in place. Used defensively by the
// scheduler before draining a phase queue, since OrderKey.Seq already
// makes every key unique, sort.Slice (not a stable sort) is sufficient
// and avoids the allocation sort.Stable would require.
func (q *WorkQueue) sortInPlace() {
	sort.Slice(q.items, func(i, j int) bool { return q.items[i].Key.Less(q.items[j].Key) })
}
