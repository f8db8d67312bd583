// Package solver implements stateful gradient-based optimizers with
// value-threaded state.
//
// A solver is split into a static configuration and an immutable
// State. Update never mutates its inputs: it returns the parameter
// updates to apply together with a new State, so optimizer state can
// be checkpointed and restored bit-identically alongside the
// parameters it tracks.
package solver

import (
	"math"

	"github.com/driftline/sholearn/network"
)

// Default Adam hyperparameters
const (
	DefaultStepSize float64 = 1e-3
	DefaultEpsilon  float64 = 1e-8
	DefaultBeta1    float64 = 0.9
	DefaultBeta2    float64 = 0.999
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
}

// NewDefaultAdam returns an Adam configuration with default
// hyperparameters and the given step size.
func NewDefaultAdam(stepSize float64) AdamConfig {
	return NewAdam(stepSize, DefaultEpsilon, DefaultBeta1, DefaultBeta2)
}

// NewAdam returns a new Adam configuration
func NewAdam(stepSize, epsilon, beta1, beta2 float64) AdamConfig {
	return AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}
}

// State holds the Adam moment accumulators for one network. The
// moment trees mirror the network's parameter tree. Step counts the
// updates applied so far and drives bias correction.
type State struct {
	M    *network.Gradient
	V    *network.Gradient
	Step int
}

// Init returns the zero Adam State for a network's parameters.
func (a AdamConfig) Init(net *network.MLP) *State {
	return &State{
		M:    network.NewGradient(net),
		V:    network.NewGradient(net),
		Step: 0,
	}
}

// Update consumes one gradient and returns the parameter updates to
// apply together with the successor State. Neither the gradient nor
// the input State is modified.
//
// Zero-gradient leaves go through the identical update path as any
// other leaf: their first and second moment estimates decay toward
// zero. Frozen sub-networks therefore keep live optimizer state, and
// skipping them here would change subsequent training.
func (a AdamConfig) Update(grad *network.Gradient, state *State) (
	*network.Gradient, *State) {
	step := state.Step + 1
	m := state.M.Clone()
	v := state.V.Clone()

	// m ← β₁·m + (1−β₁)·g and v ← β₂·v + (1−β₂)·g²
	scaled := grad.Clone()
	scaled.Scale(1.0 - a.Beta1)
	m.Scale(a.Beta1)
	m.Add(scaled)

	squared := grad.Clone()
	squared.Leaves(func(leaf []float64) {
		for i := range leaf {
			leaf[i] = leaf[i] * leaf[i] * (1.0 - a.Beta2)
		}
	})
	v.Scale(a.Beta2)
	v.Add(squared)

	// updates = −α·m̂ / (√v̂ + ε) with bias-corrected moments
	correction1 := 1.0 - math.Pow(a.Beta1, float64(step))
	correction2 := 1.0 - math.Pow(a.Beta2, float64(step))

	updates := m.Clone()
	updateLeaves := flatten(updates)
	vLeaves := flatten(v)
	for l := range updateLeaves {
		uLeaf, vLeaf := updateLeaves[l], vLeaves[l]
		for i := range uLeaf {
			mHat := uLeaf[i] / correction1
			vHat := vLeaf[i] / correction2
			uLeaf[i] = -a.StepSize * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}

	return updates, &State{M: m, V: v, Step: step}
}

// ApplyUpdates returns a new network with the given updates added to
// its parameters.
func ApplyUpdates(net *network.MLP, updates *network.Gradient) (*network.MLP,
	error) {
	return net.ApplyUpdates(updates)
}

// flatten collects the raw backing slice of every leaf of a Gradient,
// in a fixed traversal order.
func flatten(g *network.Gradient) [][]float64 {
	var leaves [][]float64
	g.Leaves(func(leaf []float64) {
		leaves = append(leaves, leaf)
	})
	return leaves
}
