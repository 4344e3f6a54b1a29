package engine

// maxInlinePayload bounds the value-copied payload a WorkItem carries
// inline. Payloads larger than this must reference external storage via
// WorkItem.External instead (§4.5).
const maxInlinePayload = 64

// WorkItem is a schedulable unit of work. Payload is value-copied (no
// sharing) when it fits in the inline limit; larger payloads are
// referenced by External, which must remain valid "until the work item
// is executed or dropped by the scheduler" (§4.5).
type WorkItem struct {
	Key          OrderKey
	WorkTypeID   uint32
	CostUnits    uint32
	EnqueueTick  Tick
	// TaskID associates this item with a TaskGraph task for phase-barrier
	// bookkeeping (§4.6). Zero for items with no task-graph counterpart
	// (e.g. rebuild work items). It never participates in ordering — the
	// OrderKey alone is the scheduling comparator.
	TaskID       TaskID
	payloadLen   uint8
	payload      [maxInlinePayload]byte
	External     []byte // used when payloadLen == 0xFF (overflow marker)
	PolicyParams []byte // opaque, value-copied by the caller's convention
}

const payloadOverflow = 0xFF

// NewWorkItem constructs a WorkItem, inlining payload when it fits and
// otherwise referencing it externally (caller retains ownership per the
// External field's documented lifetime).
func NewWorkItem(key OrderKey, workTypeID, costUnits uint32, tick Tick, payload, policyParams []byte) WorkItem {
	wi := WorkItem{
		Key:          key,
		WorkTypeID:   workTypeID,
		CostUnits:    costUnits,
		EnqueueTick:  tick,
		PolicyParams: append([]byte(nil), policyParams...),
	}
	if len(payload) <= maxInlinePayload {
		wi.payloadLen = uint8(len(payload))
		copy(wi.payload[:], payload)
	} else {
		wi.payloadLen = payloadOverflow
		wi.External = payload
	}
	return wi
}

// Payload returns the work item's payload bytes, whether inline or external.
func (wi WorkItem) Payload() []byte {
	if wi.payloadLen == payloadOverflow {
		return wi.External
	}
	return wi.payload[:wi.payloadLen]
}

// TaskNode is a work item as seen by the executor: the richer record
// carried inside a tick's TaskGraph (§3).
type TaskNode struct {
	TaskID            TaskID
	SystemID          uint32
	Category          string
	DeterminismClass  string
	FidelityTier      uint8
	PhaseID           Phase
	SubIndex          uint32
	AccessSetID       uint64
	CostModelID       uint64
	LawTargets        []uint64
	PolicyParams      []byte
	NextDueTick       Tick
}

// CommitKey returns the task's commit key (phase_id, task_id, sub_index),
// used to sort tasks within the task graph (§3, §4.7).
func (t TaskNode) CommitKey() CommitKey {
	return CommitKey{Phase: t.PhaseID, TaskID: t.TaskID, SubIndex: t.SubIndex}
}

// CommitKey is a task's sort tuple within a tick's TaskGraph.
type CommitKey struct {
	Phase    Phase
	TaskID   TaskID
	SubIndex uint32
}

// Compare returns -1, 0, or 1 comparing a to b lexicographically.
func (a CommitKey) Compare(b CommitKey) int {
	if a.Phase != b.Phase {
		return cmpUint(uint64(a.Phase), uint64(b.Phase))
	}
	if a.TaskID != b.TaskID {
		return cmpUint(uint64(a.TaskID), uint64(b.TaskID))
	}
	return cmpUint(uint64(a.SubIndex), uint64(b.SubIndex))
}

func (a CommitKey) Less(b CommitKey) bool { return a.Compare(b) < 0 }

// PhaseBarrier declares that every task in Before must complete before any
// task in After runs (§3).
type PhaseBarrier struct {
	PhaseID Phase
	Before  []TaskID
	After   []TaskID
}
