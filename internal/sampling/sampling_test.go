package sampling

import (
	"math"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nvandessel/wcimg/internal/cluster"
)

var square = []cluster.YZ{{Y: 0, Z: 0}, {Y: 10, Z: 10}, {Y: 10, Z: 0}, {Y: 0, Z: 10}}

// blobIndex builds blob 1 with the given corners and charge connected to
// two slices spanning x in [2, 6).
func blobIndex(t *testing.T, corners []cluster.YZ, charge float64) *cluster.Index {
	t.Helper()
	b := cluster.NewBuilder()
	for id, n := range map[cluster.NodeID]cluster.Node{
		1: cluster.Blob{Ident: 42, Value: charge, Corners: corners},
		2: cluster.Slice{Ident: 0, X: 2, Width: 1},
		3: cluster.Slice{Ident: 1, X: 4, Width: 2},
	} {
		if err := b.AddNode(id, n); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []cluster.NodeID{2, 3} {
		if err := b.AddEdge(1, id); err != nil {
			t.Fatal(err)
		}
	}
	return cluster.NewIndex(b.Build())
}

func TestVolumeOf(t *testing.T) {
	ix := blobIndex(t, square, 100)
	v, ok := VolumeOf(ix, 1)
	if !ok {
		t.Fatal("VolumeOf() ok = false")
	}
	if v.X0 != 2 || v.X1 != 6 || v.Ident != 42 || v.Charge != 100 {
		t.Errorf("VolumeOf() = %+v", v)
	}
	if v.Area() != 100 {
		t.Errorf("Area() = %v, want 100 after reordering corners", v.Area())
	}
	if c := v.Centroid(); c != (cluster.YZ{Y: 5, Z: 5}) {
		t.Errorf("Centroid() = %v", c)
	}

	if _, ok := VolumeOf(ix, 2); ok {
		t.Error("VolumeOf(slice) should fail")
	}
	if _, ok := VolumeOf(blobIndex(t, nil, 1), 1); ok {
		t.Error("VolumeOf(no corners) should fail")
	}
}

func TestCenter(t *testing.T) {
	v, _ := VolumeOf(blobIndex(t, square, 100), 1)
	pts := Center{}.Sample(v)
	want := []Point{{X: 4, Y: 5, Z: 5, Q: 100}}
	if !slices.Equal(pts, want) {
		t.Errorf("Sample() = %v, want %v", pts, want)
	}
}

func TestUniform(t *testing.T) {
	v, _ := VolumeOf(blobIndex(t, square, 100), 1)
	u := Uniform{Density: 0.25}

	pts := u.Sample(v)
	if len(pts) != 100 {
		t.Fatalf("len = %d, want 100", len(pts))
	}
	for _, p := range pts {
		if p.X < 2 || p.X > 6 || p.Y < 0 || p.Y > 10 || p.Z < 0 || p.Z > 10 {
			t.Fatalf("point %v outside volume", p)
		}
	}
	if again := u.Sample(v); !slices.Equal(pts, again) {
		t.Error("Sample() is not deterministic")
	}

	if n := (Uniform{Density: 1e-9}).Count(v); n != 1 {
		t.Errorf("Count() = %d, want at least 1", n)
	}
}

func TestUniform_ZeroDensity(t *testing.T) {
	v, _ := VolumeOf(blobIndex(t, square, 100), 1)
	s, err := New("uniform", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pts := s.Sample(v)
	if len(pts) != 1 || pts[0].Q != 100 {
		t.Errorf("Sample() = %v, want one point carrying charge 100", pts)
	}
}

func TestUniform_CountCapped(t *testing.T) {
	v, _ := VolumeOf(blobIndex(t, square, 100), 1)
	if n := (Uniform{Density: 1e300}).Count(v); n != MaxPoints {
		t.Errorf("Count() = %d, want %d", n, MaxPoints)
	}
	if n := (Uniform{Density: math.Inf(1)}).Count(v); n != MaxPoints {
		t.Errorf("Count(+Inf) = %d, want %d", n, MaxPoints)
	}
}

func TestUniform_Degenerate(t *testing.T) {
	v, _ := VolumeOf(blobIndex(t, []cluster.YZ{{Y: 1, Z: 2}, {Y: 3, Z: 4}}, 5), 1)
	pts := Uniform{Density: 10}.Sample(v)
	if len(pts) != 1 || pts[0].Y != 2 || pts[0].Z != 3 || pts[0].Q != 5 {
		t.Errorf("Sample() = %v", pts)
	}
}

func TestUniform_ChargeConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("weights sum to blob charge", prop.ForAll(
		func(ident int, charge, size, thick, density float64) bool {
			v := Volume{
				Ident:   ident,
				X0:      0,
				X1:      thick,
				Corners: []cluster.YZ{{Y: 0, Z: 0}, {Y: size, Z: 0}, {Y: size, Z: size}, {Y: 0, Z: size}},
				Charge:  charge,
			}
			pts := Uniform{Density: density}.Sample(v)
			if len(pts) < 1 {
				return false
			}
			var q float64
			for _, p := range pts {
				q += p.Q
			}
			return math.Abs(q-charge) <= 1e-9*math.Max(1, math.Abs(charge))
		},
		gen.IntRange(0, 1<<20),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 20),
		gen.Float64Range(0, 5),
		gen.Float64Range(0, 2),
	))

	properties.TestingRun(t)
}

func TestBlobPoints(t *testing.T) {
	b := cluster.NewBuilder()
	for id, n := range map[cluster.NodeID]cluster.Node{
		1: cluster.Blob{Ident: 1, Value: 3, Corners: square},
		2: cluster.Blob{Ident: 2, Value: 4},
		3: cluster.Blob{Ident: 3, Value: 5, Corners: square},
	} {
		if err := b.AddNode(id, n); err != nil {
			t.Fatal(err)
		}
	}
	pts, skipped := BlobPoints(cluster.NewIndex(b.Build()), Center{})
	if len(pts) != 2 || skipped != 1 {
		t.Errorf("BlobPoints() = %d points, %d skipped", len(pts), skipped)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		strategy string
		density  float64
		wantErr  bool
	}{
		{"center", 0, false},
		{"uniform", 9e-3, false},
		{"uniform", 0, false},
		{"uniform", -1, true},
		{"uniform", math.NaN(), true},
		{"uniform", math.Inf(1), true},
		{"grid", 1, true},
	}
	for _, tt := range tests {
		_, err := New(tt.strategy, tt.density)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q, %v) error = %v, wantErr %v", tt.strategy, tt.density, err, tt.wantErr)
		}
	}
}
