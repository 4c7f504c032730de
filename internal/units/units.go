// Package units provides the system of units used for physical quantities
// and a parser for simple unit expressions such as "1.6*mm/us".
//
// The base units are millimeter, nanosecond and MeV, so a bare number is
// interpreted in those units.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Length units.
const (
	Millimeter = 1.0
	Micrometer = 1e-3 * Millimeter
	Centimeter = 10 * Millimeter
	Meter      = 1000 * Millimeter
	Kilometer  = 1000 * Meter
)

// Time units.
const (
	Nanosecond  = 1.0
	Microsecond = 1000 * Nanosecond
	Millisecond = 1000 * Microsecond
	Second      = 1000 * Millisecond
)

// Energy units.
const (
	MeV = 1.0
	KeV = 1e-3 * MeV
	GeV = 1000 * MeV
	EV  = 1e-6 * MeV
)

// Volume units.
const (
	CubicCentimeter = Centimeter * Centimeter * Centimeter
	CubicMillimeter = Millimeter * Millimeter * Millimeter
)

var names = map[string]float64{
	"um": Micrometer,
	"mm": Millimeter,
	"cm": Centimeter,
	"m":  Meter,
	"km": Kilometer,

	"ns": Nanosecond,
	"us": Microsecond,
	"ms": Millisecond,
	"s":  Second,

	"eV":  EV,
	"keV": KeV,
	"MeV": MeV,
	"GeV": GeV,

	"cc":  CubicCentimeter,
	"cm3": CubicCentimeter,
	"mm3": CubicMillimeter,
}

// Lookup returns the value of a named unit.
func Lookup(name string) (float64, bool) {
	v, ok := names[name]
	return v, ok
}

// Parse evaluates a unit expression: numbers and unit names joined by '*'
// and '/', evaluated left to right. Whitespace is ignored.
//
//	Parse("1.6*mm/us") == 1.6 * Millimeter / Microsecond
//	Parse("500*ns")    == 500
//	Parse("9")         == 9
func Parse(expr string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(expr), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty unit expression")
	}

	result := 1.0
	op := byte('*')
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '*' && s[i] != '/' {
			continue
		}
		term := s[start:i]
		if term == "" {
			return 0, fmt.Errorf("malformed unit expression %q", expr)
		}
		v, err := termValue(term)
		if err != nil {
			return 0, fmt.Errorf("unit expression %q: %w", expr, err)
		}
		if op == '*' {
			result *= v
		} else {
			if v == 0 {
				return 0, fmt.Errorf("unit expression %q: division by zero", expr)
			}
			result /= v
		}
		if i < len(s) {
			op = s[i]
		}
		start = i + 1
	}
	return result, nil
}

// MustParse is like Parse but panics on error. For constants in tests and defaults.
func MustParse(expr string) float64 {
	v, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return v
}

func termValue(term string) (float64, error) {
	if v, ok := names[term]; ok {
		return v, nil
	}
	v, err := strconv.ParseFloat(term, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown unit or number %q", term)
	}
	return v, nil
}
