// Package floatutils provides utilities for working with floats
package floatutils

import "math"

// Finite returns whether x is neither NaN nor an infinity.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// AllFinite returns whether every value in a slice of float64 is
// finite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if !Finite(v) {
			return false
		}
	}
	return true
}
