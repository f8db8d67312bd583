package oscillator

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Generator turns the scalar control parameter chosen by a driving
// agent into the 2-D force applied to the oscillator. The parameter
// is the angle of a unit force, so the generated signal is
// [sin c, cos c].
//
// The generator holds the most recent parameter and keeps emitting
// its signal until SetParameters is called again, decoupling the rate
// at which the agent produces controls from the simulation rate.
type Generator struct {
	time    float64
	control float64
}

// NewGenerator returns a Generator with a zero control angle
func NewGenerator() *Generator {
	return &Generator{}
}

// SetParameters records the control parameter chosen at the given
// time.
func (g *Generator) SetParameters(control, time float64) {
	g.time = time
	g.control = control
}

// ControlSignal returns the force to apply at the given time
func (g *Generator) ControlSignal(time float64) *mat.VecDense {
	sin, cos := math.Sincos(g.control)
	return mat.NewVecDense(ControlSignalDims, []float64{sin, cos})
}
