// Package visualization renders cluster graphs as Graphviz DOT or JSON text.
package visualization

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nvandessel/wcimg/internal/cluster"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatDOT, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown graph format %q (want dot or json)", s)
	}
}

// nodeColors maps node kinds to DOT colors.
var nodeColors = map[cluster.Kind]string{
	cluster.KindBlob:        "tomato",
	cluster.KindSlice:       "goldenrod",
	cluster.KindWire:        "steelblue",
	cluster.KindMeasurement: "mediumseagreen",
}

// nodeShapes maps node kinds to DOT shapes.
var nodeShapes = map[cluster.Kind]string{
	cluster.KindBlob:        "ellipse",
	cluster.KindSlice:       "box",
	cluster.KindWire:        "point",
	cluster.KindMeasurement: "diamond",
}

// Edge is an undirected edge with A < B.
type Edge struct {
	A cluster.NodeID `json:"a"`
	B cluster.NodeID `json:"b"`
}

// CollectEdges returns each distinct edge of g once, ordered by endpoint.
func CollectEdges(g *cluster.Graph) []Edge {
	var result []Edge
	for _, id := range g.IDs() {
		for _, nb := range g.Neighbors(id) {
			if id < nb {
				result = append(result, Edge{A: id, B: nb})
			}
		}
	}
	slices.SortFunc(result, func(x, y Edge) int {
		if x.A != y.A {
			return int(x.A) - int(y.A)
		}
		return int(x.B) - int(y.B)
	})
	return result
}

// Label returns the short display label of a node.
func Label(n cluster.Node) string {
	switch v := n.(type) {
	case cluster.Blob:
		return fmt.Sprintf("b%d q=%.0f", v.Ident, v.Value)
	case cluster.Slice:
		return fmt.Sprintf("s%d t=%g", v.Ident, v.Start)
	case cluster.Wire:
		return fmt.Sprintf("%s%d ch%d", v.Plane.Name(), v.Index, v.Channel)
	case cluster.Measurement:
		return fmt.Sprintf("m%d %s q=%.0f", v.Ident, v.Plane.Name(), v.Value)
	case cluster.Unknown:
		return v.Code.String()
	default:
		return "?"
	}
}

// RenderDOT produces a Graphviz DOT representation of a cluster graph.
func RenderDOT(g *cluster.Graph) string {
	var b strings.Builder
	b.WriteString("graph wcimg {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		color := nodeColors[n.Kind()]
		if color == "" {
			color = "lightgray"
		}
		shape := nodeShapes[n.Kind()]
		if shape == "" {
			shape = "box"
		}
		fmt.Fprintf(&b, "  \"%d\" [label=%q, shape=%s, fillcolor=%q];\n", id, Label(n), shape, color)
	}
	b.WriteString("\n")

	for _, e := range CollectEdges(g) {
		fmt.Fprintf(&b, "  \"%d\" -- \"%d\";\n", e.A, e.B)
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(g *cluster.Graph) map[string]interface{} {
	jsonNodes := make([]map[string]interface{}, 0, g.Len())
	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		entry := map[string]interface{}{
			"id":    int(id),
			"kind":  n.Kind().String(),
			"label": Label(n),
		}
		switch v := n.(type) {
		case cluster.Blob:
			entry["ident"] = v.Ident
			entry["charge"] = v.Value
		case cluster.Slice:
			entry["ident"] = v.Ident
			entry["start"] = v.Start
			entry["span"] = v.Span
		case cluster.Wire:
			entry["ident"] = v.Ident
			entry["channel"] = v.Channel
			entry["plane"] = int(v.Plane)
		case cluster.Measurement:
			entry["ident"] = v.Ident
			entry["plane"] = int(v.Plane)
			entry["charge"] = v.Value
		}
		jsonNodes = append(jsonNodes, entry)
	}

	edges := CollectEdges(g)
	jsonEdges := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		jsonEdges = append(jsonEdges, map[string]interface{}{
			"source": int(e.A),
			"target": int(e.B),
		})
	}

	return map[string]interface{}{
		"nodes":      jsonNodes,
		"edges":      jsonEdges,
		"node_count": len(jsonNodes),
		"edge_count": len(jsonEdges),
	}
}

// Subgraph returns the graph induced by center and its direct neighbors,
// keeping node ids.
func Subgraph(g *cluster.Graph, center cluster.NodeID) (*cluster.Graph, error) {
	if _, ok := g.Node(center); !ok {
		return nil, fmt.Errorf("%w: %d", cluster.ErrNodeNotFound, center)
	}
	keep := append([]cluster.NodeID{center}, g.Neighbors(center)...)
	in := make(map[cluster.NodeID]bool, len(keep))
	b := cluster.NewBuilder()
	for _, id := range g.IDs() {
		if !slices.Contains(keep, id) {
			continue
		}
		n, _ := g.Node(id)
		if err := b.AddNode(id, n); err != nil {
			return nil, err
		}
		in[id] = true
	}
	for _, id := range keep {
		for _, nb := range g.Neighbors(id) {
			if id < nb && in[nb] {
				if err := b.AddEdge(id, nb); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.Build(), nil
}
