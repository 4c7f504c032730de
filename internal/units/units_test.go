package units

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"bare number", "9", 9},
		{"drift speed", "1.6*mm/us", 1.6e-3},
		{"ticks", "500*ns", 500},
		{"zero time", "0*ns", 0},
		{"whitespace", " 1.6 * mm / us ", 1.6e-3},
		{"centimeter", "2*cm", 20},
		{"per cc", "1/cc", 1e-3},
		{"scientific", "1e3*ns", 1000},
		{"unit only", "us", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Parse(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"unknown unit", "3*furlong"},
		{"dangling operator", "3*"},
		{"leading operator", "/us"},
		{"divide by zero", "1/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.expr); err == nil {
				t.Errorf("Parse(%q) expected error", tt.expr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	if v, ok := Lookup("cm"); !ok || v != Centimeter {
		t.Errorf("Lookup(cm) = %v, %v", v, ok)
	}
	if _, ok := Lookup("parsec"); ok {
		t.Error("Lookup(parsec) should fail")
	}
}
