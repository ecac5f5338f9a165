// Package indicators computes technical indicators over ordered price series.
//
// Every function returns a series aligned with its input. Indexes below an
// indicator's minimum history hold NaN, which callers read through At or a
// Snapshot so the marker never reaches a trading decision.
package indicators

import "math"

// Series is an indicator output aligned with its input; NaN marks unavailable.
type Series []float64

// At returns the value at i and whether it is available.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	v := s[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Last returns the final value and whether it is available.
func (s Series) Last() (float64, bool) {
	return s.At(len(s) - 1)
}

// UnavailablePrefix counts leading unavailable values.
func (s Series) UnavailablePrefix() int {
	for i := range s {
		if _, ok := s.At(i); ok {
			return i
		}
	}
	return len(s)
}

// unavailable returns an all-NaN series of length n.
func unavailable(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
