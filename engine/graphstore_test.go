package engine

import (
	"fmt"
	"testing"
)

// buildGraphA inserts the five edges of the canonical-order scenario in
// the given permutation of indices into [0,1,2,3,4] and returns the graph.
func buildGraphA(t *testing.T, order []int) *Graph {
	t.Helper()
	type edgeSpec struct {
		id   EdgeID
		a, b NodeID
	}
	edges := []edgeSpec{
		{20, 1, 3},
		{10, 1, 2},
		{15, 1, 3},
		{5, 1, 5},
		{7, 1, 4},
	}

	g := NewGraph()
	for _, n := range []NodeID{1, 2, 3, 4, 5} {
		if _, err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%d): %v", n, err)
		}
	}
	for _, idx := range order {
		e := edges[idx]
		if _, err := g.AddEdge(e.id, e.a, e.b, false); err != nil {
			t.Fatalf("AddEdge(%d): %v", e.id, err)
		}
	}
	return g
}

func adjacencyHash(g *Graph) string {
	var s string
	for i := 0; i < g.NodeCount(); i++ {
		n := g.NodeAt(i)
		s += fmt.Sprintf("%d:", n.ID)
		for _, a := range n.Adjacency() {
			s += fmt.Sprintf("(%d,%d)", a.Neighbor, a.Edge)
		}
		s += "|"
	}
	return s
}

func TestCanonicalOrderNeighbors(t *testing.T) {
	g := buildGraphA(t, []int{3, 0, 4, 1, 2})

	node1, err := g.FindNode(1)
	if err != nil {
		t.Fatalf("FindNode(1): %v", err)
	}
	want := []Arc{{2, 10}, {3, 15}, {3, 20}, {4, 7}, {5, 5}}
	got := node1.Adjacency()
	if len(got) != len(want) {
		t.Fatalf("adjacency length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("adjacency[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestInsertionOrderDeterminism(t *testing.T) {
	a := buildGraphA(t, []int{3, 0, 4, 1, 2})
	b := buildGraphA(t, []int{2, 1, 0, 4, 3})

	if adjacencyHash(a) != adjacencyHash(b) {
		t.Fatalf("adjacency hash differs between insertion orders:\n%s\n%s", adjacencyHash(a), adjacencyHash(b))
	}
}

func TestAddNodeDuplicateRejected(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddNode(1); err != nil {
		t.Fatalf("AddNode(1): %v", err)
	}
	if _, err := g.AddNode(1); err != ErrDuplicateID {
		t.Fatalf("AddNode(1) second time: got %v, want ErrDuplicateID", err)
	}
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddNode(1); err != nil {
		t.Fatalf("AddNode(1): %v", err)
	}
	if _, err := g.AddEdge(0, 1, 2, false); err != ErrNotFound {
		t.Fatalf("AddEdge to missing node: got %v, want ErrNotFound", err)
	}
}

func TestRemoveEdgeClearsAdjacency(t *testing.T) {
	g := NewGraph()
	_, _ = g.AddNode(1)
	_, _ = g.AddNode(2)
	id, err := g.AddEdge(0, 1, 2, false)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.RemoveEdge(id); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}
	n1, _ := g.FindNode(1)
	n2, _ := g.FindNode(2)
	if len(n1.Adjacency()) != 0 || len(n2.Adjacency()) != 0 {
		t.Fatalf("adjacency not cleared after RemoveEdge: n1=%v n2=%v", n1.Adjacency(), n2.Adjacency())
	}
	if err := g.RemoveEdge(id); err != ErrNotFound {
		t.Fatalf("RemoveEdge on absent id: got %v, want ErrNotFound", err)
	}
}

func TestDirectedEdgeSingleSided(t *testing.T) {
	g := NewGraph()
	_, _ = g.AddNode(1)
	_, _ = g.AddNode(2)
	_, err := g.AddEdge(0, 1, 2, true)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	n1, _ := g.FindNode(1)
	n2, _ := g.FindNode(2)
	if len(n1.Adjacency()) != 1 {
		t.Fatalf("directed edge should appear in A's adjacency, got %v", n1.Adjacency())
	}
	if len(n2.Adjacency()) != 0 {
		t.Fatalf("directed edge should not appear in B's adjacency, got %v", n2.Adjacency())
	}
}
