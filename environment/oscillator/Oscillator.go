// Package oscillator implements a driven 2-D simple harmonic
// oscillator. The oscillator obeys
//
//	d²x/dt² = -k·x + F(t)
//
// where x is the position, k is the stiffness, and F is the driving
// force supplied by a Generator. The control objective is to hold the
// oscillator on the unit circle, and DynamicsLoss measures the
// squared deviation of the squared radius from 1.
//
// The simulator keeps a short ring of past states and controls so
// that observers see a delay-embedded window of the process rather
// than a single snapshot. Each observation in the window holds the
// position and the control signal that was active at that state.
package oscillator

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/driftline/sholearn/utils/floatutils"
)

// System dimensions
const (
	// DelayDepth is the number of past observations in the window
	// seen by observers of the simulator.
	DelayDepth int = 3

	PositionDims      int = 2
	ControlParamDims  int = 1
	ControlSignalDims int = 2

	// ObservationDims is the size of a single snapshot in the
	// observation window: position followed by control signal.
	ObservationDims int = PositionDims + ControlSignalDims

	// LatentDims is the size of the latent representation a state
	// predictor produces from the observation window.
	LatentDims int = DelayDepth * ObservationDims

	// AmplitudeBound bounds the oscillator displacement on each axis.
	// A position outside these bounds indicates a diverged
	// integration, so Update fails rather than running on.
	AmplitudeBound float64 = 100.0
)

// System holds the physical parameters of the oscillator
type System struct {
	Stiffness float64 // Restoring force per unit displacement
	Gamma     float64 // Discount factor for agents driving the system
}

// NewSystem returns a System with the given stiffness and discount
// factor.
func NewSystem(stiffness, gamma float64) System {
	return System{Stiffness: stiffness, Gamma: gamma}
}

// systemState is one snapshot of the oscillator
type systemState struct {
	time     float64
	position [PositionDims]float64
	velocity [PositionDims]float64
}

// acceleration computes the oscillator acceleration at this state
// under the given control signal.
func (s systemState) acceleration(stiffness float64,
	control [ControlSignalDims]float64) [PositionDims]float64 {
	var acc [PositionDims]float64
	for i := range acc {
		acc[i] = -s.position[i]*stiffness + control[i]
	}
	return acc
}

// Simulator integrates a System forward in time with the velocity
// Verlet method, retaining the last DelayDepth+1 states and control
// signals in a ring.
type Simulator struct {
	system   System
	states   [DelayDepth + 1]systemState
	controls [DelayDepth + 1][ControlSignalDims]float64
	offset   int
	bounds   r1.Interval
}

// NewSimulator returns a Simulator for the given system. The
// oscillator starts at rest at the origin, with every past control
// signal set to the unit force along the first axis.
func NewSimulator(system System) *Simulator {
	sim := &Simulator{
		system: system,
		bounds: r1.Interval{Min: -AmplitudeBound, Max: AmplitudeBound},
	}
	for i := range sim.controls {
		sim.controls[i][0] = 1.0
	}
	return sim
}

// Time returns the current simulation time
func (sim *Simulator) Time() float64 {
	return sim.states[sim.offset].time
}

// Position returns the current position of the oscillator
func (sim *Simulator) Position() (x, y float64) {
	pos := sim.states[sim.offset].position
	return pos[0], pos[1]
}

// DynamicsLoss returns the deviation of the oscillator from the unit
// circle, measured as (‖x‖² − 1)². It is zero exactly when the
// oscillator sits on the circle and grows quartically with radial
// displacement.
func (sim *Simulator) DynamicsLoss() float64 {
	radius2 := 0.0
	for _, v := range sim.states[sim.offset].position {
		radius2 += v * v
	}
	return (radius2 - 1.0) * (radius2 - 1.0)
}

// Observations returns the delay-embedded observation window as a
// flat vector, oldest snapshot first. Each snapshot contributes its
// position followed by the control signal that was active at it; time
// is not part of the window. The window covers the DelayDepth states
// preceding the current one, so observers always act on slightly
// stale information.
func (sim *Simulator) Observations() *mat.VecDense {
	obs := make([]float64, 0, DelayDepth*ObservationDims)
	for i := 1; i <= DelayDepth; i++ {
		index := (sim.offset + i) % (DelayDepth + 1)
		obs = append(obs, sim.states[index].position[:]...)
		obs = append(obs, sim.controls[index][:]...)
	}
	return mat.NewVecDense(len(obs), obs)
}

// Update advances the simulation by dt under the given control
// signal. The previous control signal accelerates the oscillator
// across the step and the new one contributes to the closing velocity
// half-step.
//
// Update fails if the signal has the wrong size or if the integration
// has diverged past the amplitude bounds.
func (sim *Simulator) Update(dt float64, signal mat.Vector) error {
	if signal.Len() != ControlSignalDims {
		return &OscillatorError{Op: "update", Err: errSignalSize}
	}

	nextOffset := (sim.offset + 1) % (DelayDepth + 1)
	for i := range sim.controls[nextOffset] {
		sim.controls[nextOffset][i] = signal.AtVec(i)
	}

	curr := sim.states[sim.offset]
	prevAcc := curr.acceleration(sim.system.Stiffness,
		sim.controls[sim.offset])

	var next systemState
	next.time = curr.time + dt
	for i := range next.position {
		next.position[i] = curr.position[i] + curr.velocity[i]*dt +
			prevAcc[i]*dt*dt/2.0
	}

	nextAcc := next.acceleration(sim.system.Stiffness,
		sim.controls[nextOffset])
	for i := range next.velocity {
		next.velocity[i] = curr.velocity[i] +
			(prevAcc[i]+nextAcc[i])/2.0*dt
	}

	for _, v := range next.position {
		if !floatutils.Finite(v) || v < sim.bounds.Min || v > sim.bounds.Max {
			return &OscillatorError{Op: "update", Err: errDiverged}
		}
	}

	sim.states[nextOffset] = next
	sim.offset = nextOffset
	return nil
}
