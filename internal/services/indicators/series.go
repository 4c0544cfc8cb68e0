// Package indicators implements the technical indicators used by the feature
// builder. Every function takes and returns aligned series; positions inside a
// lookback window are NaN.
package indicators

import "math"

// NaN is the undefined value of a series.
var NaN = math.NaN()

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NaN
	}
	return out
}

func firstValid(x []float64) int {
	for i, v := range x {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// Diff returns x[i] - x[i-1], NaN at 0.
func Diff(x []float64) []float64 {
	out := nanSeries(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// Defined reports whether v is a usable number.
func Defined(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ZeroFill replaces an undefined value with 0.
func ZeroFill(v float64) float64 {
	if Defined(v) {
		return v
	}
	return 0
}
