package cluster

import "github.com/nvandessel/wcimg/internal/drift"

// Undrift returns a copy of g with slice times converted by d.
//
// With a drift speed each slice gets X = Speed*(Start+T0) and
// Width = Speed*Span and its times are kept. Without one only the slice
// start is shifted by T0. Other node kinds carry no time and are copied as is.
func Undrift(g *Graph, d drift.Drift) *Graph {
	return g.Map(func(_ NodeID, n Node) Node {
		s, ok := n.(Slice)
		if !ok {
			return n
		}
		if d.HasSpeed() {
			s.X = d.X(s.Start)
			s.Width = d.Length(s.Span)
		} else {
			s.Start = d.Shift(s.Start)
		}
		return s
	})
}
