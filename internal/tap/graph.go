package tap

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nvandessel/wcimg/internal/cluster"
)

type graphDoc struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges [][2]int          `json:"edges"`
}

type signalDoc struct {
	Ident int     `json:"ident"`
	Val   float64 `json:"val"`
	Unc   float64 `json:"unc"`
}

type nodeDoc struct {
	ID      int         `json:"id"`
	Code    string      `json:"code"`
	Ident   int         `json:"ident"`
	Val     float64     `json:"val"`
	Unc     float64     `json:"unc"`
	Corners [][]float64 `json:"corners,omitempty"`
	Start   float64     `json:"start"`
	Span    float64     `json:"span"`
	Signal  []signalDoc `json:"signal,omitempty"`
	Chid    int         `json:"chid"`
	Wpid    int         `json:"wpid"`
	Index   int         `json:"index"`
}

func (doc graphDoc) build() (*cluster.Graph, error) {
	b := cluster.NewBuilder()
	for i, raw := range doc.Nodes {
		var nd nodeDoc
		if err := json.Unmarshal(raw, &nd); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		n, err := nd.node(raw)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", nd.ID, err)
		}
		if err := b.AddNode(cluster.NodeID(nd.ID), n); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Edges {
		if err := b.AddEdge(cluster.NodeID(e[0]), cluster.NodeID(e[1])); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (nd nodeDoc) node(raw json.RawMessage) (cluster.Node, error) {
	if len(nd.Code) != 1 {
		return nil, fmt.Errorf("invalid node code %q", nd.Code)
	}
	switch code := cluster.Kind(nd.Code[0]); code {
	case cluster.KindBlob:
		corners := make([]cluster.YZ, 0, len(nd.Corners))
		for _, c := range nd.Corners {
			switch len(c) {
			case 2:
				corners = append(corners, cluster.YZ{Y: c[0], Z: c[1]})
			case 3:
				corners = append(corners, cluster.YZ{Y: c[1], Z: c[2]})
			default:
				return nil, fmt.Errorf("corner with %d coordinates", len(c))
			}
		}
		if len(corners) == 0 {
			corners = nil
		}
		return cluster.Blob{Ident: nd.Ident, Value: nd.Val, Uncertainty: nd.Unc, Corners: corners}, nil
	case cluster.KindSlice:
		sig := make(map[int]cluster.Activity, len(nd.Signal))
		for _, s := range nd.Signal {
			sig[s.Ident] = cluster.Activity{Value: s.Val, Uncertainty: s.Unc}
		}
		return cluster.Slice{Ident: nd.Ident, Start: nd.Start, Span: nd.Span, Signal: sig}, nil
	case cluster.KindWire:
		return cluster.Wire{Ident: nd.Ident, Channel: nd.Chid, Plane: cluster.PlaneID(nd.Wpid), Index: nd.Index}, nil
	case cluster.KindMeasurement:
		return cluster.Measurement{Ident: nd.Ident, Plane: cluster.PlaneID(nd.Wpid), Value: nd.Val, Uncertainty: nd.Unc}, nil
	default:
		var attrs map[string]any
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, err
		}
		delete(attrs, "id")
		delete(attrs, "code")
		return cluster.Unknown{Code: code, Attrs: attrs}, nil
	}
}

// EncodeGraph returns the JSON dump form of g, the inverse of DecodeGraphs
// for a single graph.
func EncodeGraph(g *cluster.Graph) ([]byte, error) {
	type edge = [2]int
	doc := struct {
		Nodes []any  `json:"nodes"`
		Edges []edge `json:"edges"`
	}{Nodes: []any{}, Edges: []edge{}}

	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		doc.Nodes = append(doc.Nodes, encodeNode(int(id), n))
		for _, nb := range g.Neighbors(id) {
			if id < nb {
				doc.Edges = append(doc.Edges, edge{int(id), int(nb)})
			}
		}
	}
	return json.Marshal(doc)
}

func encodeNode(id int, n cluster.Node) any {
	nd := nodeDoc{ID: id, Code: n.Kind().String()}
	switch v := n.(type) {
	case cluster.Blob:
		nd.Ident, nd.Val, nd.Unc = v.Ident, v.Value, v.Uncertainty
		for _, c := range v.Corners {
			nd.Corners = append(nd.Corners, []float64{c.Y, c.Z})
		}
	case cluster.Slice:
		nd.Ident, nd.Start, nd.Span = v.Ident, v.Start, v.Span
		chans := make([]int, 0, len(v.Signal))
		for ch := range v.Signal {
			chans = append(chans, ch)
		}
		slices.Sort(chans)
		for _, ch := range chans {
			a := v.Signal[ch]
			nd.Signal = append(nd.Signal, signalDoc{Ident: ch, Val: a.Value, Unc: a.Uncertainty})
		}
	case cluster.Wire:
		nd.Ident, nd.Chid, nd.Wpid, nd.Index = v.Ident, v.Channel, int(v.Plane), v.Index
	case cluster.Measurement:
		nd.Ident, nd.Wpid, nd.Val, nd.Unc = v.Ident, int(v.Plane), v.Value, v.Uncertainty
	case cluster.Unknown:
		attrs := make(map[string]any, len(v.Attrs)+2)
		for k, a := range v.Attrs {
			attrs[k] = a
		}
		attrs["id"] = id
		attrs["code"] = v.Code.String()
		return attrs
	}
	return nd
}
