package cluster

import (
	"math"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nvandessel/wcimg/internal/drift"
)

// starGraph builds one blob connected to two slices, three wires and
// one measurement.
func starGraph(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder()
	mustAdd(t, b, 1, Blob{Ident: 1, Value: 1000, Uncertainty: 30})
	mustAdd(t, b, 2, Slice{Ident: 0, Start: 0, Span: 1000, Signal: map[int]Activity{5: {Value: 10}}})
	mustAdd(t, b, 3, Slice{Ident: 2, Start: 1000, Span: 500, Signal: map[int]Activity{2405: {Value: 4}}})
	mustAdd(t, b, 4, Wire{Ident: 4, Channel: 5, Plane: PlaneU, Index: 5})
	mustAdd(t, b, 5, Wire{Ident: 5, Channel: 2407, Plane: PlaneV, Index: 7})
	mustAdd(t, b, 6, Wire{Ident: 6, Channel: 4803, Plane: PlaneW, Index: 3})
	mustAdd(t, b, 7, Measurement{Ident: 7, Plane: PlaneU, Value: 12})
	for id := NodeID(2); id <= 7; id++ {
		mustEdge(t, b, 1, id)
	}
	return b.Build()
}

func TestIndex_Queries(t *testing.T) {
	ix := NewIndex(starGraph(t))

	if got := ix.NodesOfType(KindWire); !slices.Equal(got, []NodeID{4, 5, 6}) {
		t.Errorf("NodesOfType(w) = %v", got)
	}
	if got := ix.NeighborsOfType(1, KindSlice); !slices.Equal(got, []NodeID{2, 3}) {
		t.Errorf("NeighborsOfType(1, s) = %v", got)
	}
	if got := ix.NeighborsOfType(4, KindBlob); !slices.Equal(got, []NodeID{1}) {
		t.Errorf("NeighborsOfType(4, b) = %v", got)
	}

	counts := ix.Counts()
	want := map[Kind]int{KindBlob: 1, KindSlice: 2, KindWire: 3, KindMeasurement: 1}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("Counts()[%s] = %d, want %d", k, counts[k], n)
		}
	}

	if _, ok := ix.Blob(2); ok {
		t.Error("Blob(2) should fail on a slice node")
	}
	if w, ok := ix.Wire(5); !ok || w.Index != 7 {
		t.Errorf("Wire(5) = %+v, %v", w, ok)
	}
	if m, ok := ix.Measurement(7); !ok || m.Value != 12 {
		t.Errorf("Measurement(7) = %+v, %v", m, ok)
	}
	if ix.TotalBlobCharge() != 1000 {
		t.Errorf("TotalBlobCharge() = %v", ix.TotalBlobCharge())
	}
	if ix.TotalSliceCharge() != 14 {
		t.Errorf("TotalSliceCharge() = %v", ix.TotalSliceCharge())
	}
}

func TestIndex_NeighborsIsCopy(t *testing.T) {
	ix := NewIndex(starGraph(t))
	nbs := ix.Neighbors(1)
	if len(nbs) != 6 {
		t.Fatalf("Neighbors(1) = %v", nbs)
	}
	nbs[0] = 99
	if got := ix.Neighbors(1); got[0] != 2 {
		t.Errorf("Neighbors(1)[0] = %v after caller write, want 2", got[0])
	}
	if got := ix.NeighborsOfType(1, KindSlice); !slices.Equal(got, []NodeID{2, 3}) {
		t.Errorf("NeighborsOfType(1, s) = %v", got)
	}
}

func TestIndex_Empty(t *testing.T) {
	for _, g := range []*Graph{nil, NewBuilder().Build()} {
		ix := NewIndex(g)
		if len(ix.NodesOfType(KindBlob)) != 0 || len(ix.Counts()) != 0 {
			t.Error("empty graph should index to nothing")
		}
		if ix.Graph() == nil {
			t.Error("Graph() should never be nil")
		}
	}
}

func TestUndrift(t *testing.T) {
	g := starGraph(t)

	t.Run("with speed", func(t *testing.T) {
		out := Undrift(g, drift.Drift{Speed: 1.6e-3, T0: 500})
		s, _ := NewIndex(out).Slice(3)
		if math.Abs(s.X-2.4) > 1e-12 || math.Abs(s.Width-0.8) > 1e-12 {
			t.Errorf("slice extent = (%v, %v), want (2.4, 0.8)", s.X, s.Width)
		}
		if s.Start != 1000 {
			t.Errorf("Start = %v, time should be untouched", s.Start)
		}
	})

	t.Run("without speed", func(t *testing.T) {
		out := Undrift(g, drift.Drift{T0: 500})
		s, _ := NewIndex(out).Slice(3)
		if s.Start != 1500 || s.X != 0 {
			t.Errorf("slice = %+v, want Start 1500 and no X", s)
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		_ = Undrift(g, drift.Drift{T0: 500})
		s, _ := NewIndex(g).Slice(3)
		if s.Start != 1000 {
			t.Errorf("input Start = %v, want 1000", s.Start)
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		if out := Undrift(NewBuilder().Build(), drift.Drift{Speed: 1}); out.Len() != 0 {
			t.Errorf("Len() = %d", out.Len())
		}
	})
}

func TestUndrift_Inverse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("drift.Time recovers slice start", prop.ForAll(
		func(start, t0 float64) bool {
			b := NewBuilder()
			if err := b.AddNode(1, Slice{Start: start, Span: 100}); err != nil {
				return false
			}
			d := drift.Drift{Speed: 1.6e-3, T0: t0}
			s, _ := NewIndex(Undrift(b.Build(), d)).Slice(1)
			return math.Abs(d.Time(s.X)-start) <= 1e-6*math.Max(1, math.Abs(start)+math.Abs(t0))
		},
		gen.Float64Range(0, 5e6),
		gen.Float64Range(-1e4, 1e4),
	))

	properties.TestingRun(t)
}
