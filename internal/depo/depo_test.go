package depo

import (
	"math"
	"testing"

	"github.com/nvandessel/wcimg/internal/drift"
)

func TestUndrift(t *testing.T) {
	in := Set{{T: 1000, Q: 5, X: 7}, {T: 2000, Q: 1, X: 8}}

	tests := []struct {
		name  string
		d     drift.Drift
		wantT []float64
		wantX []float64
	}{
		{"with speed", drift.Drift{Speed: 1.6e-3, T0: 250}, []float64{1000, 2000}, []float64{2.0, 3.6}},
		{"without speed", drift.Drift{T0: 250}, []float64{1250, 2250}, []float64{7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Undrift(in, tt.d)
			for i, dp := range out {
				if math.Abs(dp.T-tt.wantT[i]) > 1e-9 || math.Abs(dp.X-tt.wantX[i]) > 1e-9 {
					t.Errorf("depo %d = (t %v, x %v), want (%v, %v)", i, dp.T, dp.X, tt.wantT[i], tt.wantX[i])
				}
			}
		})
	}

	if in[0].T != 1000 || in[0].X != 7 {
		t.Errorf("input modified: %+v", in[0])
	}
}

func TestCenter(t *testing.T) {
	in := Set{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 4, Z: 6}}
	out := Center(in, 10, 10, 10)
	want := Set{{X: 9, Y: 8, Z: 7}, {X: 11, Y: 12, Z: 13}}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Center()[%d] = %+v, want %+v", i, out[i], want[i])
		}
	}
	if len(Center(nil, 1, 1, 1)) != 0 {
		t.Error("Center(nil) should be empty")
	}
}

func TestRow(t *testing.T) {
	d := Depo{T: 1, Q: 2, X: 3, Y: 4, Z: 5, L: 6, Tr: 7}
	if got := d.Row(); got != [7]float64{1, 2, 3, 4, 5, 6, 7} {
		t.Errorf("Row() = %v", got)
	}
	if (Set{{Q: 2}, {Q: 3}}).TotalCharge() != 5 {
		t.Error("TotalCharge() mismatch")
	}
}
