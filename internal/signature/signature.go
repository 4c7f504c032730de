// Package signature reduces each blob of a cluster graph to a fixed-width
// numeric row: its time bounds, per-plane wire bounds, per-plane activity
// status and per-plane measurement.
package signature

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/wcimg/internal/cluster"
)

// RowWidth is the number of columns produced by Extract.
const RowWidth = 15

// MatrixWidth is RowWidth plus the scaled blob value and the blob ident.
const MatrixWidth = RowWidth + 2

// Column positions within a Row.
const (
	ColTmin = iota
	ColTmax
	ColUMin
	ColUMax
	ColVMin
	ColVMax
	ColWMin
	ColWMax
	ColUStatus
	ColVStatus
	ColWStatus
	ColUMeas
	ColVMeas
	ColWMeas
	ColNSlices
	ColValue
	ColIdent
)

// Columns names every matrix column in order.
var Columns = []string{
	"tmin", "tmax",
	"umin", "umax", "vmin", "vmax", "wmin", "wmax",
	"ustatus", "vstatus", "wstatus",
	"umeas", "vmeas", "wmeas",
	"nslices", "value", "ident",
}

// Missing is the status of a wire whose channel has no signal.
const Missing = -1.0

// ErrShape is returned when a row is narrower than RowWidth.
var ErrShape = errors.New("signature: row narrower than signature width")

// Focus selects which half of a channel activity is read.
type Focus string

const (
	FocusValue       Focus = "val"
	FocusUncertainty Focus = "unc"
)

// ParseFocus validates a focus name.
func ParseFocus(s string) (Focus, error) {
	switch Focus(s) {
	case FocusValue, FocusUncertainty:
		return Focus(s), nil
	default:
		return "", fmt.Errorf("signature: unknown focus %q (want val or unc)", s)
	}
}

// Of returns the focused component of a.
func (f Focus) Of(a cluster.Activity) float64 {
	if f == FocusUncertainty {
		return a.Uncertainty
	}
	return a.Value
}

// Row is one blob signature. See the Col constants for the layout.
type Row []float64

// Extractor computes blob signatures.
type Extractor struct {
	// Tick is the sampling period that converts slice times to ticks.
	Tick float64
	// Focus picks the activity component used for plane status.
	Focus Focus
	// Offsets maps a plane to the global channel of its wire index 0.
	Offsets cluster.ChannelOffsets
}

type planeWires struct {
	lo, hi  int
	sum     float64
	present int
	seen    bool
}

// Extract returns the signature of the blob at id. The second result is
// false when the node is not a blob or the blob lacks wires in some plane.
func (e Extractor) Extract(ix *cluster.Index, id cluster.NodeID) (Row, bool) {
	if _, ok := ix.Blob(id); !ok {
		return nil, false
	}

	meas := make(map[cluster.PlaneID]float64, len(cluster.Planes))
	for _, mid := range ix.NeighborsOfType(id, cluster.KindMeasurement) {
		m, _ := ix.Measurement(mid)
		meas[m.Plane] = m.Value
	}

	var (
		tmin, tmax float64
		nslices    int
		signal     = make(map[int]cluster.Activity)
	)
	for _, sid := range ix.NeighborsOfType(id, cluster.KindSlice) {
		s, _ := ix.Slice(sid)
		lo := math.Floor(s.Start / e.Tick)
		hi := lo + math.Floor(s.Span/e.Tick)
		if nslices == 0 || lo < tmin {
			tmin = lo
		}
		if nslices == 0 || hi > tmax {
			tmax = hi
		}
		nslices++
		for ch, a := range s.Signal {
			signal[ch] = a
		}
	}

	wires := make(map[cluster.PlaneID]*planeWires, len(cluster.Planes))
	for _, wid := range ix.NeighborsOfType(id, cluster.KindWire) {
		w, _ := ix.Wire(wid)
		pw := wires[w.Plane]
		if pw == nil {
			pw = &planeWires{lo: w.Index, hi: w.Index}
			wires[w.Plane] = pw
		}
		pw.lo = min(pw.lo, w.Index)
		pw.hi = max(pw.hi, w.Index)

		a, ok := signal[e.Offsets.Global(w.Plane, w.Index)]
		if !ok {
			continue
		}
		v := e.Focus.Of(a)
		if v < 1 {
			v = 0
		}
		if e.Focus == FocusUncertainty {
			v *= v
		}
		pw.sum += v
		pw.present++
	}

	row := make(Row, RowWidth)
	row[ColTmin] = tmin
	row[ColTmax] = tmax
	for i, p := range cluster.Planes {
		pw, ok := wires[p]
		if !ok {
			return nil, false
		}
		row[ColUMin+2*i] = float64(pw.lo)
		row[ColUMax+2*i] = float64(pw.hi)
		row[ColUStatus+i] = pw.status(e.Focus)
		row[ColUMeas+i] = meas[p]
	}
	row[ColNSlices] = float64(nslices)
	return row, true
}

func (pw *planeWires) status(f Focus) float64 {
	if pw.present == 0 {
		return Missing
	}
	if f == FocusUncertainty {
		return math.Sqrt(pw.sum)
	}
	return pw.sum
}
