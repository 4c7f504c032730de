// Package depo holds energy depositions, the simulation truth that
// cluster graphs are compared against.
package depo

import "github.com/nvandessel/wcimg/internal/drift"

// Columns is the per-depo field order of the flat array form.
const Columns = "tqxyzLT"

// Depo is one point-like energy deposition.
type Depo struct {
	T float64 `json:"t"`
	Q float64 `json:"q"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	// L and Tr are the longitudinal and transverse extents.
	L  float64 `json:"L"`
	Tr float64 `json:"T"`
}

// Set is an ordered collection of depositions.
type Set []Depo

// Undrift returns a copy of s with times converted by d. With a drift
// speed X becomes Speed*(T+T0) and T is kept; otherwise T is shifted by T0.
func Undrift(s Set, d drift.Drift) Set {
	out := make(Set, len(s))
	for i, dp := range s {
		if d.HasSpeed() {
			dp.X = d.X(dp.T)
		} else {
			dp.T = d.Shift(dp.T)
		}
		out[i] = dp
	}
	return out
}

// Move returns a copy of s translated by (dx, dy, dz).
func Move(s Set, dx, dy, dz float64) Set {
	out := make(Set, len(s))
	for i, dp := range s {
		dp.X += dx
		dp.Y += dy
		dp.Z += dz
		out[i] = dp
	}
	return out
}

// Center returns a copy of s moved so its mean position is (x, y, z).
// An empty set is returned unchanged.
func Center(s Set, x, y, z float64) Set {
	if len(s) == 0 {
		return Set{}
	}
	var mx, my, mz float64
	for _, dp := range s {
		mx += dp.X
		my += dp.Y
		mz += dp.Z
	}
	n := float64(len(s))
	return Move(s, x-mx/n, y-my/n, z-mz/n)
}

// TotalCharge sums Q.
func (s Set) TotalCharge() float64 {
	var q float64
	for _, dp := range s {
		q += dp.Q
	}
	return q
}

// Row returns the depo as a flat array in Columns order.
func (d Depo) Row() [7]float64 {
	return [7]float64{d.T, d.Q, d.X, d.Y, d.Z, d.L, d.Tr}
}
