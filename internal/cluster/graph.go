package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("cluster: duplicate node id")

	// ErrNodeNotFound is returned when an edge references a missing node.
	ErrNodeNotFound = errors.New("cluster: node not found")

	// ErrSelfLoop is returned for an edge from a node to itself.
	ErrSelfLoop = errors.New("cluster: self-loop not allowed")
)

// Graph is an undirected attributed graph of cluster nodes.
// It has no mutating methods; build one with a Builder.
type Graph struct {
	nodes map[NodeID]Node
	order []NodeID
	adj   map[NodeID][]NodeID
	edges int
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// EdgeCount returns the number of edges added, parallel edges included.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// IDs returns all node ids in insertion order. The slice is a copy.
func (g *Graph) IDs() []NodeID {
	if g == nil {
		return nil
	}
	return append([]NodeID(nil), g.order...)
}

// Neighbors returns the distinct nodes adjacent to id in the order their
// first edge was added. The slice is a copy.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	if g == nil {
		return nil
	}
	return append([]NodeID(nil), g.adj[id]...)
}

// NodesOfKind returns the ids of all nodes with kind k in insertion order.
func (g *Graph) NodesOfKind(k Kind) []NodeID {
	if g == nil {
		return nil
	}
	var ids []NodeID
	for _, id := range g.order {
		if g.nodes[id].Kind() == k {
			ids = append(ids, id)
		}
	}
	return ids
}

// Map returns a new graph with the same ids and edges whose nodes are
// fn applied to a private copy of each node. The receiver is not changed.
func (g *Graph) Map(fn func(NodeID, Node) Node) *Graph {
	out := &Graph{
		nodes: make(map[NodeID]Node, g.Len()),
		adj:   make(map[NodeID][]NodeID, g.Len()),
	}
	if g == nil {
		return out
	}
	out.order = append([]NodeID(nil), g.order...)
	out.edges = g.edges
	for _, id := range g.order {
		out.nodes[id] = fn(id, clone(g.nodes[id]))
	}
	for id, nbrs := range g.adj {
		out.adj[id] = append([]NodeID(nil), nbrs...)
	}
	return out
}

// Builder accumulates nodes and edges for one Graph.
type Builder struct {
	g    *Graph
	seen map[[2]NodeID]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		g: &Graph{
			nodes: make(map[NodeID]Node),
			adj:   make(map[NodeID][]NodeID),
		},
		seen: make(map[[2]NodeID]bool),
	}
}

// AddNode adds a node under id.
func (b *Builder) AddNode(id NodeID, n Node) error {
	if n == nil {
		return fmt.Errorf("cluster: nil node for id %d", id)
	}
	if _, exists := b.g.nodes[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	b.g.nodes[id] = n
	b.g.order = append(b.g.order, id)
	return nil
}

// AddEdge connects a and b. Parallel edges are counted but each
// neighbor is recorded once.
func (b *Builder) AddEdge(a, c NodeID) error {
	if a == c {
		return fmt.Errorf("%w: %d", ErrSelfLoop, a)
	}
	if _, ok := b.g.nodes[a]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, a)
	}
	if _, ok := b.g.nodes[c]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, c)
	}
	b.g.edges++

	key := [2]NodeID{min(a, c), max(a, c)}
	if b.seen[key] {
		return nil
	}
	b.seen[key] = true
	b.g.adj[a] = append(b.g.adj[a], c)
	b.g.adj[c] = append(b.g.adj[c], a)
	return nil
}

// Build returns the graph. The Builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	g := b.g
	b.g = nil
	b.seen = nil
	return g
}
