// Package activity builds dense channel-by-slice histograms of slice
// signal and of the footprint of blobs over the same grid.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/signature"
)

var (
	// ErrShapeMismatch is returned when two histograms cover different ranges.
	ErrShapeMismatch = errors.New("activity: histogram shapes differ")

	// ErrDegenerateRange is returned by ValueRange when no cell is positive.
	ErrDegenerateRange = errors.New("activity: no positive cells")

	// ErrTooLarge is returned by Build when the grid would exceed MaxCells.
	ErrTooLarge = errors.New("activity: histogram too large")
)

// Range is a half-open integer interval [Lo, Hi).
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Len returns Hi-Lo, or 0 for an empty range.
func (r Range) Len() int {
	return max(0, r.Hi-r.Lo)
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v int) bool {
	return v >= r.Lo && v < r.Hi
}

// MaxCells bounds the size of a histogram grid. The grid spans the
// observed channel and slice ident ranges, so sparse idents far apart
// would otherwise allocate without limit.
const MaxCells = 1 << 28

// Histogram is a dense grid with one row per channel and one column per
// slice ident. A histogram with an empty range has no grid.
type Histogram struct {
	Channels Range `json:"channels"`
	Slices   Range `json:"slices"`

	grid *mat.Dense
}

// Build sums the focused signal of every slice in the graph into a
// histogram spanning the observed channels and slice idents. It fails
// with ErrTooLarge when that span exceeds MaxCells.
func Build(ix *cluster.Index, focus signature.Focus) (*Histogram, error) {
	var (
		chans, sids Range
		haveCh      bool
		haveSl      bool
	)
	sliceIDs := ix.NodesOfType(cluster.KindSlice)
	for _, id := range sliceIDs {
		s, _ := ix.Slice(id)
		if !haveSl {
			sids = Range{s.Ident, s.Ident + 1}
			haveSl = true
		}
		sids.Lo = min(sids.Lo, s.Ident)
		sids.Hi = max(sids.Hi, s.Ident+1)
		for ch := range s.Signal {
			if !haveCh {
				chans = Range{ch, ch + 1}
				haveCh = true
			}
			chans.Lo = min(chans.Lo, ch)
			chans.Hi = max(chans.Hi, ch+1)
		}
	}
	if !haveCh {
		return &Histogram{}, nil
	}
	if rows, cols := chans.Len(), sids.Len(); cols > MaxCells/rows {
		return nil, fmt.Errorf("%w: %d channels x %d slices", ErrTooLarge, rows, cols)
	}

	h := New(chans, sids)
	for _, id := range sliceIDs {
		s, _ := ix.Slice(id)
		for ch, a := range s.Signal {
			h.Add(ch, s.Ident, focus.Of(a))
		}
	}
	return h, nil
}

// New returns a zero histogram over the given ranges.
func New(chans, sids Range) *Histogram {
	h := &Histogram{Channels: chans, Slices: sids}
	if chans.Len() > 0 && sids.Len() > 0 {
		h.grid = mat.NewDense(chans.Len(), sids.Len(), nil)
	}
	return h
}

// Like returns a zero histogram with the same ranges.
func (h *Histogram) Like() *Histogram {
	return New(h.Channels, h.Slices)
}

// Empty reports whether the histogram has no cells.
func (h *Histogram) Empty() bool {
	return h.grid == nil
}

// Total sums every cell.
func (h *Histogram) Total() float64 {
	if h.grid == nil {
		return 0
	}
	return mat.Sum(h.grid)
}

// NonZero counts the cells that are not zero.
func (h *Histogram) NonZero() int {
	var n int
	h.each(func(_, _ int, v float64) {
		if v != 0 {
			n++
		}
	})
	return n
}

// At returns the cell for a global channel and slice ident, and whether
// it lies inside the histogram.
func (h *Histogram) At(ch, sid int) (float64, bool) {
	if h.grid == nil || !h.Channels.Contains(ch) || !h.Slices.Contains(sid) {
		return 0, false
	}
	return h.grid.At(ch-h.Channels.Lo, sid-h.Slices.Lo), true
}

// Add adds v to the cell for a global channel and slice ident. It
// reports false when the cell lies outside the histogram.
func (h *Histogram) Add(ch, sid int, v float64) bool {
	if h.grid == nil || !h.Channels.Contains(ch) || !h.Slices.Contains(sid) {
		return false
	}
	i, j := ch-h.Channels.Lo, sid-h.Slices.Lo
	h.grid.Set(i, j, h.grid.At(i, j)+v)
	return true
}

// Rows copies the grid out as one slice per channel.
func (h *Histogram) Rows() [][]float64 {
	rows := make([][]float64, h.Channels.Len())
	for i := range rows {
		rows[i] = make([]float64, h.Slices.Len())
		if h.grid != nil {
			copy(rows[i], h.grid.RawRowView(i))
		}
	}
	return rows
}

// MarshalJSON includes the grid as "data".
func (h *Histogram) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data     [][]float64 `json:"data"`
		Channels Range       `json:"channels"`
		Slices   Range       `json:"slices"`
	}{h.Rows(), h.Channels, h.Slices})
}

// each calls fn with the row, column and value of every cell.
func (h *Histogram) each(fn func(i, j int, v float64)) {
	if h.grid == nil {
		return
	}
	rows, _ := h.grid.Dims()
	for i := 0; i < rows; i++ {
		for j, v := range h.grid.RawRowView(i) {
			fn(i, j, v)
		}
	}
}

// PaintBlobs adds 1 to every cell covered by a blob: for each plane the
// channels from offset+min index to offset+max index inclusive, crossed
// with the idents of the blob's slices. Cells outside the histogram are
// ignored.
func (h *Histogram) PaintBlobs(ix *cluster.Index, offsets cluster.ChannelOffsets) {
	for _, bid := range ix.NodesOfType(cluster.KindBlob) {
		type bounds struct{ lo, hi int }
		planes := make(map[cluster.PlaneID]*bounds, len(cluster.Planes))
		for _, wid := range ix.NeighborsOfType(bid, cluster.KindWire) {
			w, _ := ix.Wire(wid)
			b := planes[w.Plane]
			if b == nil {
				planes[w.Plane] = &bounds{w.Index, w.Index}
				continue
			}
			b.lo = min(b.lo, w.Index)
			b.hi = max(b.hi, w.Index)
		}

		for _, sid := range ix.NeighborsOfType(bid, cluster.KindSlice) {
			s, _ := ix.Slice(sid)
			if !h.Slices.Contains(s.Ident) {
				continue
			}
			for p, b := range planes {
				lo := max(offsets.Global(p, b.lo), h.Channels.Lo)
				hi := min(offsets.Global(p, b.hi)+1, h.Channels.Hi)
				for ch := lo; ch < hi; ch++ {
					h.Add(ch, s.Ident, 1)
				}
			}
		}
	}
}

// ValueRange returns the smallest positive cell and the largest cell.
func (h *Histogram) ValueRange() (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	h.each(func(_, _ int, v float64) {
		if v > 0 {
			lo = min(lo, v)
		}
		hi = max(hi, v)
	})
	if math.IsInf(lo, 1) {
		return 0, 0, ErrDegenerateRange
	}
	return lo, hi, nil
}

// Window returns a copy restricted to slice idents in [lo, hi) clipped to
// the histogram range.
func (h *Histogram) Window(lo, hi int) *Histogram {
	r := Range{max(lo, h.Slices.Lo), min(hi, h.Slices.Hi)}
	if r.Len() == 0 {
		r = Range{h.Slices.Lo, h.Slices.Lo}
	}
	out := &Histogram{Channels: h.Channels, Slices: r}
	if h.grid != nil && r.Len() > 0 {
		view := h.grid.Slice(0, h.Channels.Len(), r.Lo-h.Slices.Lo, r.Hi-h.Slices.Lo)
		out.grid = mat.DenseCopyOf(view)
	}
	return out
}

// PlaneBoundaries converts per-plane channel group sizes, counted from
// channel 0, into the histogram rows where one group ends and the next
// begins. Boundaries outside the channel range are dropped.
func (h *Histogram) PlaneBoundaries(groups []int) []int {
	var rows []int
	end := 0
	for _, n := range groups {
		end += n
		if end > h.Channels.Lo && end < h.Channels.Hi {
			rows = append(rows, end-h.Channels.Lo)
		}
	}
	return rows
}

func (h *Histogram) sameShape(o *Histogram) bool {
	return h.Channels == o.Channels && h.Slices == o.Slices
}

// Comparison splits activity by whether a blob covers it.
type Comparison struct {
	// Found holds activity in cells covered by at least one blob.
	Found *Histogram
	// Missed holds activity in cells no blob covers.
	Missed      *Histogram
	NFound      int
	NMissed     int
	FoundTotal  float64
	MissedTotal float64
}

// Compare splits nonzero activity cells into found (mask >= 1) and
// missed (mask < 1).
func Compare(act, mask *Histogram) (*Comparison, error) {
	if !act.sameShape(mask) {
		return nil, fmt.Errorf("%w: activity %v x %v, mask %v x %v",
			ErrShapeMismatch, act.Channels, act.Slices, mask.Channels, mask.Slices)
	}
	c := &Comparison{Found: act.Like(), Missed: act.Like()}
	act.each(func(i, j int, v float64) {
		if v == 0 {
			return
		}
		if mask.grid.At(i, j) >= 1 {
			c.Found.grid.Set(i, j, v)
			c.NFound++
			c.FoundTotal += v
		} else {
			c.Missed.grid.Set(i, j, v)
			c.NMissed++
			c.MissedTotal += v
		}
	})
	return c, nil
}
