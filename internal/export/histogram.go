package export

import (
	"encoding/json"
	"io"

	"github.com/nvandessel/wcimg/internal/activity"
)

// HistogramDoc is the JSON form of one or more histograms over the same grid.
type HistogramDoc struct {
	Channels        activity.Range         `json:"channels"`
	Slices          activity.Range         `json:"slices"`
	PlaneBoundaries []int                  `json:"plane_boundaries"`
	Grids           map[string][][]float64 `json:"grids"`
	Range           *ValueRange            `json:"range,omitempty"`
}

// ValueRange is the color range of the first grid.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewHistogramDoc starts a document shaped like h.
func NewHistogramDoc(h *activity.Histogram, boundaries []int) *HistogramDoc {
	if boundaries == nil {
		boundaries = []int{}
	}
	doc := &HistogramDoc{
		Channels:        h.Channels,
		Slices:          h.Slices,
		PlaneBoundaries: boundaries,
		Grids:           make(map[string][][]float64),
	}
	if lo, hi, err := h.ValueRange(); err == nil {
		doc.Range = &ValueRange{Min: lo, Max: hi}
	}
	return doc
}

// Add stores a grid under name.
func (d *HistogramDoc) Add(name string, h *activity.Histogram) {
	d.Grids[name] = h.Rows()
}

// WriteJSON encodes the document.
func (d *HistogramDoc) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(d)
}
