package drift

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDrift_X(t *testing.T) {
	d := Drift{Speed: 1.6e-3, T0: 100}
	if got := d.X(900); math.Abs(got-1.6) > 1e-12 {
		t.Errorf("X(900) = %v, want 1.6", got)
	}
	if got := d.Length(1000); math.Abs(got-1.6) > 1e-12 {
		t.Errorf("Length(1000) = %v, want 1.6", got)
	}
}

func TestDrift_NoSpeed(t *testing.T) {
	d := Drift{T0: 50}
	if d.HasSpeed() {
		t.Error("HasSpeed() = true for zero speed")
	}
	if got := d.Shift(10); got != 60 {
		t.Errorf("Shift(10) = %v, want 60", got)
	}
}

func TestDrift_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Time(X(t)) recovers t", prop.ForAll(
		func(speed, t0, tm float64) bool {
			if speed == 0 {
				return true
			}
			d := Drift{Speed: speed, T0: t0}
			back := d.Time(d.X(tm))
			scale := math.Max(1, math.Abs(tm)+math.Abs(t0))
			return math.Abs(back-tm) <= 1e-9*scale
		},
		gen.Float64Range(-10, 10).SuchThat(func(v float64) bool { return math.Abs(v) > 1e-3 }),
		gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
