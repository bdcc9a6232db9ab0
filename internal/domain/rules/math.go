// Package rules contains the pure calculation logic for game mechanics.
// Every derived value is recomputed from the state on each call.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "math"

// SafeLog10 is log10 with non-positive and non-finite inputs clamped to 0.
func SafeLog10(x float64) float64 {
	if !(x > 0) || math.IsInf(x, 1) {
		return 0
	}
	return math.Log10(x)
}

// Finite returns x, or fallback when x is NaN or infinite.
func Finite(x, fallback float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fallback
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// pow is math.Pow for non-negative bases that collapses NaN to 0.
func pow(base, exp float64) float64 {
	if base < 0 {
		base = 0
	}
	v := math.Pow(base, exp)
	if math.IsNaN(v) {
		return 0
	}
	return v
}
