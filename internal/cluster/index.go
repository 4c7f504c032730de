package cluster

// Index is a read-only view over a Graph with per-kind node lists.
type Index struct {
	g      *Graph
	byKind map[Kind][]NodeID
}

// NewIndex builds an Index over g. A nil or empty graph gives an empty index.
func NewIndex(g *Graph) *Index {
	ix := &Index{g: g, byKind: make(map[Kind][]NodeID)}
	if g == nil {
		ix.g = NewBuilder().Build()
		return ix
	}
	for _, id := range g.order {
		k := g.nodes[id].Kind()
		ix.byKind[k] = append(ix.byKind[k], id)
	}
	return ix
}

// Graph returns the indexed graph.
func (ix *Index) Graph() *Graph {
	return ix.g
}

// NodesOfType returns all node ids with kind k in graph order.
// The slice must not be modified.
func (ix *Index) NodesOfType(k Kind) []NodeID {
	return ix.byKind[k]
}

// Neighbors returns the nodes adjacent to id. The slice is a copy.
func (ix *Index) Neighbors(id NodeID) []NodeID {
	return ix.g.Neighbors(id)
}

// NeighborsOfType returns the neighbors of id with kind k.
func (ix *Index) NeighborsOfType(id NodeID, k Kind) []NodeID {
	var out []NodeID
	for _, nb := range ix.g.adj[id] {
		if ix.g.nodes[nb].Kind() == k {
			out = append(out, nb)
		}
	}
	return out
}

// Counts returns the number of nodes per kind.
func (ix *Index) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(ix.byKind))
	for k, ids := range ix.byKind {
		counts[k] = len(ids)
	}
	return counts
}

// Blob returns the blob stored at id.
func (ix *Index) Blob(id NodeID) (Blob, bool) {
	b, ok := ix.g.nodes[id].(Blob)
	return b, ok
}

// Slice returns the slice stored at id.
func (ix *Index) Slice(id NodeID) (Slice, bool) {
	s, ok := ix.g.nodes[id].(Slice)
	return s, ok
}

// Wire returns the wire stored at id.
func (ix *Index) Wire(id NodeID) (Wire, bool) {
	w, ok := ix.g.nodes[id].(Wire)
	return w, ok
}

// Measurement returns the measurement stored at id.
func (ix *Index) Measurement(id NodeID) (Measurement, bool) {
	m, ok := ix.g.nodes[id].(Measurement)
	return m, ok
}

// TotalBlobCharge sums Value over all blobs.
func (ix *Index) TotalBlobCharge() float64 {
	var q float64
	for _, id := range ix.byKind[KindBlob] {
		if b, ok := ix.Blob(id); ok {
			q += b.Value
		}
	}
	return q
}

// TotalSliceCharge sums the signal values of every slice.
func (ix *Index) TotalSliceCharge() float64 {
	var q float64
	for _, id := range ix.byKind[KindSlice] {
		s, ok := ix.Slice(id)
		if !ok {
			continue
		}
		for _, a := range s.Signal {
			q += a.Value
		}
	}
	return q
}
