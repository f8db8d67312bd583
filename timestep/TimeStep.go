// Package timestep implements records of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TimeStep packages together one observed latent state and the
// instantaneous dynamics-match signal recorded alongside it. A
// TimeStep is immutable once constructed.
type TimeStep struct {
	LatentState   *mat.VecDense
	DynamicsMatch float64
}

// New returns a TimeStep holding a copy of the latent state, so that
// later mutation of the argument cannot alter the record.
func New(latentState mat.Vector, dynamicsMatch float64) TimeStep {
	latent := mat.NewVecDense(latentState.Len(), nil)
	latent.CloneFromVec(latentState)

	return TimeStep{
		LatentState:   latent,
		DynamicsMatch: dynamicsMatch,
	}
}

// Zero returns a placeholder TimeStep with a zero latent state of the
// given dimension and a zero dynamics-match signal.
func Zero(latentDim int) TimeStep {
	return TimeStep{
		LatentState:   mat.NewVecDense(latentDim, nil),
		DynamicsMatch: 0.0,
	}
}

func (t TimeStep) String() string {
	str := "TimeStep | Latent State: %v  |  Dynamics Match:  %.4f"
	return fmt.Sprintf(str, mat.Formatted(t.LatentState.T()), t.DynamicsMatch)
}

// ExperiencePair packages two temporally consecutive TimeSteps used to
// compute a one-step bootstrapped target. Pairs are constructed only
// by the replay buffer's sampler.
type ExperiencePair struct {
	Curr TimeStep
	Next TimeStep
}
