package network

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// InitWFn is a weight initialization algorithm. It returns n draws
// for a layer with the given fan-in and fan-out, using src as the
// source of randomness.
type InitWFn func(fanIn, fanOut, n int, src rand.Source) []float64

// GlorotU returns a Glorot (Xavier) symmetric-uniform weight
// initializer with the given gain. Draws are uniform on
// [-limit, limit] with limit = gain * sqrt(6 / (fanIn + fanOut)).
func GlorotU(gain float64) InitWFn {
	return func(fanIn, fanOut, n int, src rand.Source) []float64 {
		limit := gain * math.Sqrt(6.0/float64(fanIn+fanOut))
		dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}

		draws := make([]float64, n)
		for i := range draws {
			draws[i] = dist.Rand()
		}
		return draws
	}
}

// Zeroes returns an InitWFn that initializes every weight to 0.
func Zeroes() InitWFn {
	return func(fanIn, fanOut, n int, src rand.Source) []float64 {
		return make([]float64, n)
	}
}
