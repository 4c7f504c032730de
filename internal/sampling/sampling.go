// Package sampling converts blobs into weighted 3-D points.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/nvandessel/wcimg/internal/cluster"
)

// Point is a weighted sample of blob charge.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	Q float64 `json:"q"`
}

// Volume is the prism a blob occupies: its transverse polygon extruded
// over the drift extent of its slices.
type Volume struct {
	Ident   int
	X0, X1  float64
	Corners []cluster.YZ
	Charge  float64
}

// Thickness returns the drift extent.
func (v Volume) Thickness() float64 {
	return v.X1 - v.X0
}

// Area returns the polygon area.
func (v Volume) Area() float64 {
	var a float64
	n := len(v.Corners)
	for i := range n {
		p, q := v.Corners[i], v.Corners[(i+1)%n]
		a += p.Y*q.Z - q.Y*p.Z
	}
	return math.Abs(a) / 2
}

// Centroid returns the mean of the polygon vertices.
func (v Volume) Centroid() cluster.YZ {
	var c cluster.YZ
	if len(v.Corners) == 0 {
		return c
	}
	for _, p := range v.Corners {
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(v.Corners))
	return cluster.YZ{Y: c.Y / n, Z: c.Z / n}
}

// VolumeOf returns the volume of the blob at id. It reports false when
// the node is not a blob or the blob has no corners. The x extent spans
// all connected slices; corners are ordered by angle about their mean.
func VolumeOf(ix *cluster.Index, id cluster.NodeID) (Volume, bool) {
	b, ok := ix.Blob(id)
	if !ok || len(b.Corners) == 0 {
		return Volume{}, false
	}
	v := Volume{Ident: b.Ident, Charge: b.Value, Corners: slices.Clone(b.Corners)}

	first := true
	for _, sid := range ix.NeighborsOfType(id, cluster.KindSlice) {
		s, _ := ix.Slice(sid)
		lo, hi := s.X, s.X+s.Width
		if first {
			v.X0, v.X1 = lo, hi
			first = false
			continue
		}
		v.X0 = min(v.X0, lo)
		v.X1 = max(v.X1, hi)
	}

	c := v.Centroid()
	slices.SortStableFunc(v.Corners, func(p, q cluster.YZ) int {
		ap := math.Atan2(p.Z-c.Z, p.Y-c.Y)
		aq := math.Atan2(q.Z-c.Z, q.Y-c.Y)
		switch {
		case ap < aq:
			return -1
		case ap > aq:
			return 1
		default:
			return 0
		}
	})
	return v, true
}

// Sampler turns one volume into points whose weights sum to its charge.
type Sampler interface {
	Sample(v Volume) []Point
}

// Center places a single point at the middle of the volume.
type Center struct{}

// Sample implements Sampler.
func (Center) Sample(v Volume) []Point {
	c := v.Centroid()
	return []Point{{X: (v.X0 + v.X1) / 2, Y: c.Y, Z: c.Z, Q: v.Charge}}
}

// Uniform spreads points uniformly through the volume.
type Uniform struct {
	// Density is the number of points per unit volume.
	Density float64
}

// MaxPoints caps the number of points drawn for a single blob.
const MaxPoints = 1 << 20

// Count returns the number of points drawn for v: at least one and at
// most MaxPoints.
func (u Uniform) Count(v Volume) int {
	n := math.Floor(u.Density * v.Area() * v.Thickness())
	switch {
	case n < 1 || math.IsNaN(n):
		return 1
	case n > MaxPoints:
		return MaxPoints
	}
	return int(n)
}

// Sample implements Sampler. The generator is seeded by the blob ident
// so a blob always yields the same points.
func (u Uniform) Sample(v Volume) []Point {
	n := u.Count(v)
	rng := rand.New(rand.NewPCG(uint64(v.Ident), 0x9e3779b97f4a7c15))

	tris, cum := fan(v.Corners)
	total := 0.0
	if len(cum) > 0 {
		total = cum[len(cum)-1]
	}
	centroid := v.Centroid()
	q := v.Charge / float64(n)

	pts := make([]Point, n)
	for i := range pts {
		p := Point{X: v.X0 + rng.Float64()*v.Thickness(), Q: q}
		if total > 0 {
			k, _ := slices.BinarySearch(cum, rng.Float64()*total)
			k = min(k, len(tris)-1)
			yz := tris[k].sample(rng)
			p.Y, p.Z = yz.Y, yz.Z
		} else {
			p.Y, p.Z = centroid.Y, centroid.Z
		}
		pts[i] = p
	}
	return pts
}

type triangle [3]cluster.YZ

func (t triangle) area() float64 {
	return math.Abs((t[1].Y-t[0].Y)*(t[2].Z-t[0].Z)-(t[2].Y-t[0].Y)*(t[1].Z-t[0].Z)) / 2
}

func (t triangle) sample(rng *rand.Rand) cluster.YZ {
	r1, r2 := math.Sqrt(rng.Float64()), rng.Float64()
	a, b, c := 1-r1, r1*(1-r2), r1*r2
	return cluster.YZ{
		Y: a*t[0].Y + b*t[1].Y + c*t[2].Y,
		Z: a*t[0].Z + b*t[1].Z + c*t[2].Z,
	}
}

// fan splits a convex polygon into triangles sharing its first vertex and
// returns them with their cumulative areas.
func fan(poly []cluster.YZ) ([]triangle, []float64) {
	if len(poly) < 3 {
		return nil, nil
	}
	tris := make([]triangle, 0, len(poly)-2)
	cum := make([]float64, 0, len(poly)-2)
	var acc float64
	for i := 1; i+1 < len(poly); i++ {
		t := triangle{poly[0], poly[i], poly[i+1]}
		acc += t.area()
		tris = append(tris, t)
		cum = append(cum, acc)
	}
	return tris, cum
}

// New returns the sampler named by strategy: "center" or "uniform".
func New(strategy string, density float64) (Sampler, error) {
	switch strategy {
	case "center":
		return Center{}, nil
	case "uniform":
		if err := CheckDensity(density); err != nil {
			return nil, err
		}
		return Uniform{Density: density}, nil
	default:
		return nil, fmt.Errorf("sampling: unknown strategy %q", strategy)
	}
}

// CheckDensity accepts a finite, non-negative uniform sampling density.
// A zero density still yields one point per blob.
func CheckDensity(density float64) error {
	if density < 0 || math.IsNaN(density) || math.IsInf(density, 0) {
		return fmt.Errorf("sampling: uniform density must be finite and non-negative, got %g", density)
	}
	return nil
}

// BlobPoints samples every blob in the graph. Blobs without corners are
// skipped and counted.
func BlobPoints(ix *cluster.Index, s Sampler) (pts []Point, skipped int) {
	for _, id := range ix.NodesOfType(cluster.KindBlob) {
		v, ok := VolumeOf(ix, id)
		if !ok {
			skipped++
			continue
		}
		pts = append(pts, s.Sample(v)...)
	}
	return pts, skipped
}
