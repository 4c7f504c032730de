// Package drift converts between elapsed time and the drift-direction
// coordinate using a constant drift speed.
package drift

import "fmt"

// Drift holds the parameters of the time to drift-coordinate conversion.
//
// A zero Speed means no speed was supplied. In that case transforms shift
// times by T0 and leave spatial coordinates alone.
type Drift struct {
	Speed float64
	T0    float64
}

// HasSpeed reports whether a drift speed was supplied.
func (d Drift) HasSpeed() bool {
	return d.Speed != 0
}

// X returns the drift coordinate for time t: Speed*(t+T0).
func (d Drift) X(t float64) float64 {
	return d.Speed * (t + d.T0)
}

// Length converts a time span to a drift-coordinate length.
func (d Drift) Length(span float64) float64 {
	return d.Speed * span
}

// Time inverts X. Only meaningful when HasSpeed is true.
func (d Drift) Time(x float64) float64 {
	return x/d.Speed - d.T0
}

// Shift returns t+T0, the time-only form of the transform.
func (d Drift) Shift(t float64) float64 {
	return t + d.T0
}

func (d Drift) String() string {
	if !d.HasSpeed() {
		return fmt.Sprintf("drift{t0=%g}", d.T0)
	}
	return fmt.Sprintf("drift{speed=%g, t0=%g}", d.Speed, d.T0)
}
