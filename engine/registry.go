package engine

import "sort"

// RebuildKind classifies which dirty class a rebuild work item targets.
type RebuildKind uint8

const (
	// RebuildPartition targets a dirty partition.
	RebuildPartition RebuildKind = 1
	// RebuildNode targets a dirty node.
	RebuildNode RebuildKind = 2
	// RebuildEdge targets a dirty edge.
	RebuildEdge RebuildKind = 3
)

// RebuildRequest is the decoded form of a rebuild work item, after the
// harness has unpacked its OrderKey (§4.4).
type RebuildRequest struct {
	GraphTypeID     GraphTypeID
	GraphInstanceID GraphInstanceID
	PartID          PartID
	Kind            RebuildKind
	ItemID          uint64
}

// RebuildVTable is the per-graph-type rebuild behavior: cost estimation
// and execution against a rebuild request and the instance's user
// context (§4.4).
type RebuildVTable struct {
	EstimateCostUnits func(req RebuildRequest) uint32
	Execute           func(req RebuildRequest, userCtx any) error
}

// graphType is a registered type entry.
type graphType struct {
	ID     GraphTypeID
	VTable RebuildVTable
}

// graphInstance binds a (type, instance) pair to a graph and opaque
// user context. insertIndex is retained purely as a stable debug field
// (§3), never consulted for ordering.
type graphInstance struct {
	TypeID      GraphTypeID
	InstanceID  GraphInstanceID
	Graph       *Graph
	UserCtx     any
	insertIndex int
}

// GraphRegistry holds registered graph types (sorted by GraphTypeID) and
// instances (sorted by (GraphTypeID, GraphInstanceID)). It lets one
// scheduler service multiple graph types without hard-coded tables
// (§4.4's "registry variant").
type GraphRegistry struct {
	types     []graphType
	instances []graphInstance
	inserted  int
}

// NewGraphRegistry returns an empty registry.
func NewGraphRegistry() *GraphRegistry { return &GraphRegistry{} }

// RegisterType adds or replaces the rebuild vtable for typeID, keeping
// the types table sorted.
func (r *GraphRegistry) RegisterType(typeID GraphTypeID, vtable RebuildVTable) {
	i := sort.Search(len(r.types), func(i int) bool { return r.types[i].ID >= typeID })
	if i < len(r.types) && r.types[i].ID == typeID {
		r.types[i].VTable = vtable
		return
	}
	r.types = append(r.types, graphType{})
	copy(r.types[i+1:], r.types[i:])
	r.types[i] = graphType{ID: typeID, VTable: vtable}
}

// Type returns the vtable registered for typeID, or (zero, false).
func (r *GraphRegistry) Type(typeID GraphTypeID) (RebuildVTable, bool) {
	i := sort.Search(len(r.types), func(i int) bool { return r.types[i].ID >= typeID })
	if i < len(r.types) && r.types[i].ID == typeID {
		return r.types[i].VTable, true
	}
	return RebuildVTable{}, false
}

func (r *GraphRegistry) instanceIdx(typeID GraphTypeID, instanceID GraphInstanceID) (int, bool) {
	i := sort.Search(len(r.instances), func(i int) bool {
		in := r.instances[i]
		if in.TypeID != typeID {
			return in.TypeID >= typeID
		}
		return in.InstanceID >= instanceID
	})
	if i < len(r.instances) && r.instances[i].TypeID == typeID && r.instances[i].InstanceID == instanceID {
		return i, true
	}
	return i, false
}

// RegisterInstance binds (typeID, instanceID) to g and userCtx, keeping
// the instances table sorted by (GraphTypeID, GraphInstanceID).
func (r *GraphRegistry) RegisterInstance(typeID GraphTypeID, instanceID GraphInstanceID, g *Graph, userCtx any) error {
	if typeID == 0 || instanceID == 0 {
		return ErrInvalidArgument
	}
	i, found := r.instanceIdx(typeID, instanceID)
	if found {
		return ErrDuplicateID
	}
	r.instances = append(r.instances, graphInstance{})
	copy(r.instances[i+1:], r.instances[i:])
	r.instances[i] = graphInstance{TypeID: typeID, InstanceID: instanceID, Graph: g, UserCtx: userCtx, insertIndex: r.inserted}
	r.inserted++
	return nil
}

// Instance returns the graph and user context bound to (typeID,
// instanceID), or (nil, nil, false).
func (r *GraphRegistry) Instance(typeID GraphTypeID, instanceID GraphInstanceID) (*Graph, any, bool) {
	i, found := r.instanceIdx(typeID, instanceID)
	if !found {
		return nil, nil, false
	}
	return r.instances[i].Graph, r.instances[i].UserCtx, true
}

// InstanceGraph returns the *Graph bound to (typeID, instanceID), or nil.
func (r *GraphRegistry) InstanceGraph(typeID GraphTypeID, instanceID GraphInstanceID) *Graph {
	g, _, ok := r.Instance(typeID, instanceID)
	if !ok {
		return nil
	}
	return g
}

// Instances returns every registered instance in (TypeID, InstanceID) order.
func (r *GraphRegistry) Instances() []struct {
	TypeID     GraphTypeID
	InstanceID GraphInstanceID
} {
	out := make([]struct {
		TypeID     GraphTypeID
		InstanceID GraphInstanceID
	}, len(r.instances))
	for i, in := range r.instances {
		out[i].TypeID = in.TypeID
		out[i].InstanceID = in.InstanceID
	}
	return out
}
