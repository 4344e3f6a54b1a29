package engine

import "sort"

// EdgeFlags is a bitmask of edge attributes.
type EdgeFlags uint8

// Directed marks an edge as one-way: it appears in the adjacency of its
// "A" endpoint only. Undirected edges appear in the adjacency of both
// endpoints (§3).
const Directed EdgeFlags = 1 << 0

// Arc is one adjacency entry: a neighbor reached via a specific edge.
// Adjacency is strictly ordered by (Neighbor asc, Edge asc); duplicate
// (Neighbor, Edge) pairs never occur, though two edges to the same
// neighbor are allowed as long as their EdgeIDs differ (§3).
type Arc struct {
	Neighbor NodeID
	Edge     EdgeID
}

func (a Arc) less(b Arc) bool {
	if a.Neighbor != b.Neighbor {
		return a.Neighbor < b.Neighbor
	}
	return a.Edge < b.Edge
}

// Node is a graph vertex together with its canonically ordered adjacency.
type Node struct {
	ID        NodeID
	adjacency []Arc
}

// Adjacency returns the node's adjacency list in canonical order. Do not mutate.
func (n *Node) Adjacency() []Arc { return n.adjacency }

// Edge connects two nodes, optionally directed.
type Edge struct {
	ID    EdgeID
	A, B  NodeID
	Flags EdgeFlags
}

// Directed reports whether e is a directed edge.
func (e Edge) Directed() bool { return e.Flags&Directed != 0 }

// Graph owns sorted node/edge tables and canonical adjacency, matching
// the "single sorted container of (neighbor, edge) tuples" variant that
// §9 recommends over the source's parallel-array or hash-map adjacency.
// Grounded on katalvlaran-lvlath's core package for the node/edge/adjacency
// API shape (AddVertex/AddEdge/RemoveVertex, neighbor iteration), but
// reimplemented over sorted slices with binary search instead of
// lvlath's map[string]*Vertex/map[string]map[string][]*Edge, since hash
// maps make iteration order non-deterministic (forbidden by §9).
type Graph struct {
	nodes    []Node
	edges    []Edge
	nodeIDs  allocator[NodeID]
	edgeIDs  allocator[EdgeID]
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{} }

// nodeIndex returns the index of id in g.nodes via binary search, or
// (-1, false) if absent.
func (g *Graph) nodeIndex(id NodeID) (int, bool) {
	i := sort.Search(len(g.nodes), func(i int) bool { return g.nodes[i].ID >= id })
	if i < len(g.nodes) && g.nodes[i].ID == id {
		return i, true
	}
	return i, false
}

func (g *Graph) edgeIndex(id EdgeID) (int, bool) {
	i := sort.Search(len(g.edges), func(i int) bool { return g.edges[i].ID >= id })
	if i < len(g.edges) && g.edges[i].ID == id {
		return i, true
	}
	return i, false
}

// AddNode inserts a node. If requested is the invalid sentinel, the next
// allocator ID is issued and bumped; otherwise requested is inserted at
// its sorted position, failing with ErrDuplicateID if already present.
// The node table's sort is always preserved.
func (g *Graph) AddNode(requested NodeID) (NodeID, error) {
	id := requested
	if id == 0 {
		id = g.nodeIDs.allocate()
	} else {
		if _, found := g.nodeIndex(id); found {
			return 0, ErrDuplicateID
		}
		g.nodeIDs.observe(id)
	}
	idx, found := g.nodeIndex(id)
	if found {
		return 0, ErrDuplicateID
	}
	g.nodes = append(g.nodes, Node{})
	copy(g.nodes[idx+1:], g.nodes[idx:])
	g.nodes[idx] = Node{ID: id}
	return id, nil
}

// FindNode returns a pointer to the node with the given id, or
// (nil, ErrNotFound) if absent. The pointer is valid until the next
// mutating call on g.
func (g *Graph) FindNode(id NodeID) (*Node, error) {
	idx, found := g.nodeIndex(id)
	if !found {
		return nil, ErrNotFound
	}
	return &g.nodes[idx], nil
}

// FindEdge returns a pointer to the edge with the given id, or
// (nil, ErrNotFound) if absent.
func (g *Graph) FindEdge(id EdgeID) (*Edge, error) {
	idx, found := g.edgeIndex(id)
	if !found {
		return nil, ErrNotFound
	}
	return &g.edges[idx], nil
}

// insertAdjacency inserts (neighbor, edge) into node idx's adjacency,
// maintaining lexicographic order.
func (g *Graph) insertAdjacency(nodeIdx int, arc Arc) {
	adj := g.nodes[nodeIdx].adjacency
	pos := sort.Search(len(adj), func(i int) bool { return !adj[i].less(arc) })
	adj = append(adj, Arc{})
	copy(adj[pos+1:], adj[pos:])
	adj[pos] = arc
	g.nodes[nodeIdx].adjacency = adj
}

func (g *Graph) removeAdjacency(nodeIdx int, arc Arc) {
	adj := g.nodes[nodeIdx].adjacency
	for i, a := range adj {
		if a == arc {
			g.nodes[nodeIdx].adjacency = append(adj[:i], adj[i+1:]...)
			return
		}
	}
}

// AddEdge inserts an edge between a and b (both must already exist),
// directed if requested. On any adjacency-insertion failure the
// partially-added edge is rolled back (§4.1). The edge table's sort is
// always preserved.
func (g *Graph) AddEdge(requested EdgeID, a, b NodeID, directed bool) (EdgeID, error) {
	aIdx, aOK := g.nodeIndex(a)
	if !aOK {
		return 0, ErrNotFound
	}
	bIdx, bOK := g.nodeIndex(b)
	if !bOK {
		return 0, ErrNotFound
	}

	id := requested
	if id == 0 {
		id = g.edgeIDs.allocate()
	} else {
		if _, found := g.edgeIndex(id); found {
			return 0, ErrDuplicateID
		}
		g.edgeIDs.observe(id)
	}
	idx, found := g.edgeIndex(id)
	if found {
		return 0, ErrDuplicateID
	}

	var flags EdgeFlags
	if directed {
		flags |= Directed
	}
	edge := Edge{ID: id, A: a, B: b, Flags: flags}

	g.edges = append(g.edges, Edge{})
	copy(g.edges[idx+1:], g.edges[idx:])
	g.edges[idx] = edge

	// a's index may have shifted if idx <= aIdx is never the case here
	// (edge table and node table are independent slices), so aIdx/bIdx
	// remain valid.
	g.insertAdjacency(aIdx, Arc{Neighbor: b, Edge: id})
	if !directed {
		g.insertAdjacency(bIdx, Arc{Neighbor: a, Edge: id})
	}
	return id, nil
}

// RemoveEdge removes the edge and its adjacency entries from both
// endpoints (only the "A" endpoint, for directed edges). No-op
// (ErrNotFound) if absent.
func (g *Graph) RemoveEdge(id EdgeID) error {
	idx, found := g.edgeIndex(id)
	if !found {
		return ErrNotFound
	}
	e := g.edges[idx]
	g.edges = append(g.edges[:idx], g.edges[idx+1:]...)

	if aIdx, ok := g.nodeIndex(e.A); ok {
		g.removeAdjacency(aIdx, Arc{Neighbor: e.B, Edge: id})
	}
	if !e.Directed() {
		if bIdx, ok := g.nodeIndex(e.B); ok {
			g.removeAdjacency(bIdx, Arc{Neighbor: e.A, Edge: id})
		}
	}
	return nil
}

// NodeCount and EdgeCount report table sizes.
func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeAt and EdgeAt return the table entry at a sorted position, for
// iteration and tests.
func (g *Graph) NodeAt(i int) Node { return g.nodes[i] }
func (g *Graph) EdgeAt(i int) Edge { return g.edges[i] }

// DebugChecks enables the §4.1 canonical-invariant assertions at every
// traversal entry point. Off by default (release behavior: callers that
// want the check call CheckInvariants explicitly and handle
// ErrIntegrityViolation); setting it to true mirrors a debug build.
var DebugChecks = false

// CheckInvariants verifies the three canonical-order invariants: node
// table sorted ascending, edge table sorted ascending, and every node's
// adjacency sorted by (neighbor_id, edge_id). It returns
// ErrIntegrityViolation on the first violation found (the "release"
// behavior of §4.1); when DebugChecks is set, traversal entry points
// call this and panic instead, matching "debug builds assert".
func (g *Graph) CheckInvariants() error {
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i-1].ID >= g.nodes[i].ID {
			return ErrIntegrityViolation
		}
	}
	for i := 1; i < len(g.edges); i++ {
		if g.edges[i-1].ID >= g.edges[i].ID {
			return ErrIntegrityViolation
		}
	}
	for _, n := range g.nodes {
		adj := n.adjacency
		for i := 1; i < len(adj); i++ {
			if !adj[i-1].less(adj[i]) {
				return ErrIntegrityViolation
			}
		}
	}
	return nil
}

// assertInvariants is called by traversal entry points. In DebugChecks
// mode it panics on violation (debug-build assertion); otherwise it
// returns the ErrIntegrityViolation verbatim for the caller to handle.
func (g *Graph) assertInvariants() error {
	err := g.CheckInvariants()
	if err != nil && DebugChecks {
		panic(err)
	}
	return err
}
