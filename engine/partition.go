package engine

import "sort"

// Partition maps nodes to partitions and back: node_map (sorted by
// node_id) and per-partition inner lists (sorted by part_id, inner list
// sorted by node_id). A node belongs to at most one partition (§3, §4.2).
type Partition struct {
	// byNode is sorted by NodeID; entries map a node to its partition.
	byNode []nodePartEntry
	// byPart is sorted by PartID; each entry's inner node list is sorted.
	byPart []partEntry
}

type nodePartEntry struct {
	Node NodeID
	Part PartID
}

type partEntry struct {
	Part  PartID
	Nodes []NodeID
}

// NewPartition returns an empty partition map.
func NewPartition() *Partition { return &Partition{} }

func (p *Partition) nodeIdx(id NodeID) (int, bool) {
	i := sort.Search(len(p.byNode), func(i int) bool { return p.byNode[i].Node >= id })
	if i < len(p.byNode) && p.byNode[i].Node == id {
		return i, true
	}
	return i, false
}

func (p *Partition) partIdx(id PartID) (int, bool) {
	i := sort.Search(len(p.byPart), func(i int) bool { return p.byPart[i].Part >= id })
	if i < len(p.byPart) && p.byPart[i].Part == id {
		return i, true
	}
	return i, false
}

// GetNodePartition returns the partition a node currently belongs to, or
// the invalid sentinel if unassigned.
func (p *Partition) GetNodePartition(node NodeID) PartID {
	if i, ok := p.nodeIdx(node); ok {
		return p.byNode[i].Part
	}
	return 0
}

// SetNodePartition removes node from its old partition (if any) and
// assigns it to part (the invalid sentinel unassigns it), keeping both
// the node map and every partition's inner list sorted (§4.2).
func (p *Partition) SetNodePartition(node NodeID, part PartID) error {
	if node == 0 {
		return ErrInvalidArgument
	}

	if i, ok := p.nodeIdx(node); ok {
		oldPart := p.byNode[i].Part
		if oldPart == part {
			return nil
		}
		p.removeFromInnerList(oldPart, node)
		if part == 0 {
			p.byNode = append(p.byNode[:i], p.byNode[i+1:]...)
		} else {
			p.byNode[i].Part = part
		}
	} else if part != 0 {
		idx, _ := p.nodeIdx(node)
		p.byNode = append(p.byNode, nodePartEntry{})
		copy(p.byNode[idx+1:], p.byNode[idx:])
		p.byNode[idx] = nodePartEntry{Node: node, Part: part}
	}

	if part != 0 {
		p.addToInnerList(part, node)
	}
	return nil
}

func (p *Partition) addToInnerList(part PartID, node NodeID) {
	idx, found := p.partIdx(part)
	if !found {
		p.byPart = append(p.byPart, partEntry{})
		copy(p.byPart[idx+1:], p.byPart[idx:])
		p.byPart[idx] = partEntry{Part: part}
	}
	nodes := p.byPart[idx].Nodes
	pos := sort.Search(len(nodes), func(i int) bool { return nodes[i] >= node })
	if pos < len(nodes) && nodes[pos] == node {
		return
	}
	nodes = append(nodes, 0)
	copy(nodes[pos+1:], nodes[pos:])
	nodes[pos] = node
	p.byPart[idx].Nodes = nodes
}

func (p *Partition) removeFromInnerList(part PartID, node NodeID) {
	idx, found := p.partIdx(part)
	if !found {
		return
	}
	nodes := p.byPart[idx].Nodes
	pos := sort.Search(len(nodes), func(i int) bool { return nodes[i] >= node })
	if pos < len(nodes) && nodes[pos] == node {
		p.byPart[idx].Nodes = append(nodes[:pos], nodes[pos+1:]...)
	}
	if len(p.byPart[idx].Nodes) == 0 {
		p.byPart = append(p.byPart[:idx], p.byPart[idx+1:]...)
	}
}

// PartIDs returns every partition id in ascending order.
func (p *Partition) PartIDs() []PartID {
	ids := make([]PartID, len(p.byPart))
	for i, e := range p.byPart {
		ids[i] = e.Part
	}
	return ids
}

// Nodes returns the sorted node list belonging to part. Do not mutate.
func (p *Partition) Nodes(part PartID) []NodeID {
	if i, ok := p.partIdx(part); ok {
		return p.byPart[i].Nodes
	}
	return nil
}
