package engine

import "fmt"

const (
	// workTypeRebuild is the WorkTypeID stamped on every rebuild work item.
	workTypeRebuild uint32 = 1

	kindShift   = 56
	itemIDMask  = (uint64(1) << kindShift) - 1
	maxPackedID = itemIDMask
)

// packComponentID packs a rebuild kind and item id into a single
// ComponentID: (kind:u8 << 56) | item_id (§4.4). Rejects item_id ≥ 2^56
// rather than silently truncating it, since a truncated id would collide
// with an unrelated item's packed ComponentID.
func packComponentID(kind RebuildKind, itemID uint64) (ComponentID, error) {
	if itemID > maxPackedID {
		return 0, fmt.Errorf("%w: rebuild item_id %d exceeds 2^56-1", ErrInvalidArgument, itemID)
	}
	return ComponentID(uint64(kind)<<kindShift | itemID), nil
}

// unpackComponentID reverses packComponentID.
func unpackComponentID(c ComponentID) (RebuildKind, uint64) {
	v := uint64(c)
	return RebuildKind(v >> kindShift), v & itemIDMask
}

// BuildRebuildWork translates dirty into PH_TOPOLOGY work items targeting
// (typeID, instanceID). Parts are emitted first, then nodes, then edges,
// each class in ascending id order (native to the DirtySet); every item
// gets a monotonically increasing seq from seqAlloc so two calls over the
// same dirty set in the same order produce byte-identical keys (§4.4). An
// item_id ≥ 2^56 (possible only for a PartID, which is uint64; NodeID and
// EdgeID are uint32) is rejected rather than packed, per §4.4's pack-time
// bound.
func BuildRebuildWork(dirty *DirtySet, domain DomainID, typeID GraphTypeID, instanceID GraphInstanceID, costModel RebuildVTable, seqAlloc *seqAllocator) ([]WorkItem, error) {
	if dirty == nil {
		return nil, nil
	}
	items := make([]WorkItem, 0, dirty.CountParts()+dirty.CountNodes()+dirty.CountEdges())

	appendItem := func(kind RebuildKind, partID PartID, itemID uint64) error {
		componentID, err := packComponentID(kind, itemID)
		if err != nil {
			return err
		}
		req := RebuildRequest{
			GraphTypeID:     typeID,
			GraphInstanceID: instanceID,
			PartID:          partID,
			Kind:            kind,
			ItemID:          itemID,
		}
		cost := uint32(1)
		if costModel.EstimateCostUnits != nil {
			cost = costModel.EstimateCostUnits(req)
			if cost == 0 {
				cost = 1
			}
		}
		key := OrderKey{
			Phase:       PhTopology,
			DomainID:    domain,
			ChunkID:     ChunkID(partID),
			EntityID:    EntityID(instanceID),
			ComponentID: componentID,
			TypeID:      TypeID(typeID),
			Seq:         seqAlloc.next32(),
		}
		items = append(items, NewWorkItem(key, workTypeRebuild, cost, 0, nil, nil))
		return nil
	}

	for _, p := range dirty.Parts() {
		if err := appendItem(RebuildPartition, p, uint64(p)); err != nil {
			return nil, err
		}
	}
	for _, n := range dirty.Nodes() {
		if err := appendItem(RebuildNode, 0, uint64(n)); err != nil {
			return nil, err
		}
	}
	for _, e := range dirty.Edges() {
		if err := appendItem(RebuildEdge, 0, uint64(e)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// DecodeRebuildRequest reverses the OrderKey encoding a rebuild work item
// carries, recovering {graph_type_id, instance_id, part_id, kind, item_id}.
func DecodeRebuildRequest(key OrderKey) RebuildRequest {
	kind, itemID := unpackComponentID(key.ComponentID)
	return RebuildRequest{
		GraphTypeID:     GraphTypeID(key.TypeID),
		GraphInstanceID: GraphInstanceID(key.EntityID),
		PartID:          PartID(key.ChunkID),
		Kind:            kind,
		ItemID:          itemID,
	}
}

// RebuildWorkHandler dispatches a single WorkItem against one fixed
// vtable/user-context pair, ignoring the graph_type_id/instance_id carried
// in the key (the single-target variant of §4.4).
type RebuildWorkHandler struct {
	VTable  RebuildVTable
	UserCtx any
}

// Handle decodes item's key and executes it against h's fixed target.
func (h RebuildWorkHandler) Handle(item WorkItem) error {
	req := DecodeRebuildRequest(item.Key)
	if h.VTable.Execute == nil {
		return ErrCapabilityMismatch
	}
	return h.VTable.Execute(req, h.UserCtx)
}

// RegistryWorkHandler dispatches using a GraphRegistry, looking up the
// type's vtable and the instance's user context at dispatch time so one
// scheduler can service multiple graph types (§4.4's "registry variant").
type RegistryWorkHandler struct {
	Registry *GraphRegistry
}

// Handle decodes item's key, looks up the registered type and instance,
// and executes against them.
func (h RegistryWorkHandler) Handle(item WorkItem) error {
	req := DecodeRebuildRequest(item.Key)
	vtable, ok := h.Registry.Type(req.GraphTypeID)
	if !ok {
		return ErrNotFound
	}
	_, userCtx, ok := h.Registry.Instance(req.GraphTypeID, req.GraphInstanceID)
	if !ok {
		return ErrNotFound
	}
	if vtable.Execute == nil {
		return ErrCapabilityMismatch
	}
	return vtable.Execute(req, userCtx)
}
