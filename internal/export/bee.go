package export

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/nvandessel/wcimg/internal/sampling"
	"github.com/nvandessel/wcimg/internal/units"
)

// fixed3 is a float encoded with exactly three decimals.
type fixed3 float64

func (f fixed3) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(f), 'f', 3, 64), nil
}

// Bee is the point-cloud upload document of the Bee event display.
type Bee struct {
	RunNo    int      `json:"runNo"`
	SubRunNo int      `json:"subRunNo"`
	EventNo  int      `json:"eventNo"`
	Geom     string   `json:"geom"`
	Type     string   `json:"type"`
	X        []fixed3 `json:"x"`
	Y        []fixed3 `json:"y"`
	Z        []fixed3 `json:"z"`
	Q        []fixed3 `json:"q"`
}

// NewBee returns an empty document for the given run, subrun and event.
func NewBee(run, subrun, event int, geom string) *Bee {
	return &Bee{
		RunNo:    run,
		SubRunNo: subrun,
		EventNo:  event,
		Geom:     geom,
		Type:     "wire-cell",
		X:        []fixed3{},
		Y:        []fixed3{},
		Z:        []fixed3{},
		Q:        []fixed3{},
	}
}

// Add appends points, converting positions to centimeters.
func (b *Bee) Add(pts []sampling.Point) {
	for _, p := range pts {
		b.X = append(b.X, fixed3(p.X/units.Centimeter))
		b.Y = append(b.Y, fixed3(p.Y/units.Centimeter))
		b.Z = append(b.Z, fixed3(p.Z/units.Centimeter))
		b.Q = append(b.Q, fixed3(p.Q))
	}
}

// Len returns the number of points.
func (b *Bee) Len() int {
	return len(b.X)
}

// WriteJSON encodes the document.
func (b *Bee) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(b)
}
