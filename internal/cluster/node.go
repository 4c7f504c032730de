// Package cluster defines the typed cluster graph produced for each event:
// blobs, time slices, wires and measurements connected in blob-centric stars.
//
// A Graph is built once with a Builder and is read-only afterwards. Index
// provides the typed lookups used by the analysis packages.
package cluster

// Kind is the one-character code discriminating node variants.
type Kind byte

const (
	KindBlob        Kind = 'b'
	KindSlice       Kind = 's'
	KindWire        Kind = 'w'
	KindMeasurement Kind = 'm'
)

// String returns the kind code as a string.
func (k Kind) String() string {
	return string(rune(k))
}

// Known reports whether the kind is one this package interprets.
func (k Kind) Known() bool {
	switch k {
	case KindBlob, KindSlice, KindWire, KindMeasurement:
		return true
	default:
		return false
	}
}

// NodeID identifies a node within one event's graph.
type NodeID int

// Node is one of Blob, Slice, Wire, Measurement or Unknown.
// The set is closed: other packages match on it with a type switch.
type Node interface {
	Kind() Kind
	node()
}

// YZ is a point in the plane transverse to the drift direction.
type YZ struct {
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Blob is a 3-D charge deposit candidate.
type Blob struct {
	Ident       int
	Value       float64
	Uncertainty float64
	// Corners is the blob's wire-crossing polygon transverse to drift.
	Corners []YZ
}

// Activity is a signed amplitude with its uncertainty.
type Activity struct {
	Value       float64
	Uncertainty float64
}

// Slice is a time window's per-channel amplitude snapshot.
type Slice struct {
	Ident  int
	Start  float64
	Span   float64
	Signal map[int]Activity
	// X and Width are the drift-coordinate extent, set by Undrift.
	X     float64
	Width float64
}

// Wire identifies a sense wire within its readout plane.
type Wire struct {
	Ident   int
	Channel int
	Plane   PlaneID
	Index   int
}

// Measurement is a per-plane aggregate projection value.
type Measurement struct {
	Ident       int
	Plane       PlaneID
	Value       float64
	Uncertainty float64
}

// Unknown preserves a node whose kind code is not interpreted.
type Unknown struct {
	Code  Kind
	Attrs map[string]any
}

func (Blob) Kind() Kind        { return KindBlob }
func (Slice) Kind() Kind       { return KindSlice }
func (Wire) Kind() Kind        { return KindWire }
func (Measurement) Kind() Kind { return KindMeasurement }
func (u Unknown) Kind() Kind   { return u.Code }

func (Blob) node()        {}
func (Slice) node()       {}
func (Wire) node()        {}
func (Measurement) node() {}
func (Unknown) node()     {}

// clone returns a copy of n that shares no mutable state with it.
func clone(n Node) Node {
	switch v := n.(type) {
	case Blob:
		if v.Corners != nil {
			v.Corners = append([]YZ(nil), v.Corners...)
		}
		return v
	case Slice:
		if v.Signal != nil {
			sig := make(map[int]Activity, len(v.Signal))
			for ch, a := range v.Signal {
				sig[ch] = a
			}
			v.Signal = sig
		}
		return v
	case Wire:
		return v
	case Measurement:
		return v
	case Unknown:
		if v.Attrs != nil {
			attrs := make(map[string]any, len(v.Attrs))
			for k, a := range v.Attrs {
				attrs[k] = a
			}
			v.Attrs = attrs
		}
		return v
	default:
		return n
	}
}
