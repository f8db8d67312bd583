package sho

import (
	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/timestep"
)

// BellmanLoss returns the squared one-step Bellman error of a single
// experience pair under the given parameters and discount factor:
//
//	reward = (curr.DynamicsMatch + next.DynamicsMatch) / 2
//	loss   = (critic(curr, actor(curr)) − (reward + γ·targetValue))²
//
// where targetValue is the target critic's estimate at the next
// latent state under the target actor. The target networks never
// contribute gradient, so their evaluation here is plain forward
// computation. With γ = 0 the loss degenerates exactly to
// (critic output − reward)².
func BellmanLoss(params Parameters, pair timestep.ExperiencePair,
	gamma float64) (float64, error) {
	curr := pair.Curr.LatentState.RawVector().Data
	next := pair.Next.LatentState.RawVector().Data

	currAction, err := params.actor.Predict(curr)
	if err != nil {
		return 0, err
	}
	currValue, err := params.critic.Predict(concat(curr, currAction))
	if err != nil {
		return 0, err
	}

	nextAction, err := params.targetActor.Predict(next)
	if err != nil {
		return 0, err
	}
	targetValue, err := params.targetCritic.Predict(concat(next, nextAction))
	if err != nil {
		return 0, err
	}

	reward := (pair.Curr.DynamicsMatch + pair.Next.DynamicsMatch) / 2.0
	delta := currValue[0] - (reward + gamma*targetValue[0])
	return delta * delta, nil
}

// bellmanGrad computes the mean BellmanLoss over a batch together
// with its gradient with respect to the critic and actor parameters.
//
// The gradient respects the parameters' freeze mode: a frozen
// sub-network receives an explicitly zero gradient tree of its own
// shape. The actor's gradient is chained through the critic: the
// derivative of the critic's output with respect to its action inputs
// feeds the actor's backward pass, so the critic participates in the
// actor's gradient even when the critic's own leaves are frozen.
func bellmanGrad(params Parameters, batch []timestep.ExperiencePair,
	gamma float64) (float64, *network.Gradient, *network.Gradient, error) {
	criticGrad := network.NewGradient(params.critic)
	actorGrad := network.NewGradient(params.actor)
	loss := 0.0

	for _, pair := range batch {
		curr := pair.Curr.LatentState.RawVector().Data
		next := pair.Next.LatentState.RawVector().Data

		currAction, err := params.actor.Predict(curr)
		if err != nil {
			return 0, nil, nil, err
		}
		criticIn := concat(curr, currAction)

		currValue, err := params.critic.Predict(criticIn)
		if err != nil {
			return 0, nil, nil, err
		}

		nextAction, err := params.targetActor.Predict(next)
		if err != nil {
			return 0, nil, nil, err
		}
		targetValue, err := params.targetCritic.Predict(
			concat(next, nextAction))
		if err != nil {
			return 0, nil, nil, err
		}

		reward := (pair.Curr.DynamicsMatch + pair.Next.DynamicsMatch) / 2.0
		delta := currValue[0] - (reward + gamma*targetValue[0])
		loss += delta * delta

		// d(delta²)/d(currValue)
		valueGrad := []float64{2.0 * delta}

		pairCriticGrad, criticInGrad, err := params.critic.Backprop(criticIn,
			valueGrad)
		if err != nil {
			return 0, nil, nil, err
		}
		if params.frozen != freezeCritic {
			if err := criticGrad.Add(pairCriticGrad); err != nil {
				return 0, nil, nil, err
			}
		}

		if params.frozen != freezeActor {
			// The gradient w.r.t. the action components of the critic
			// input is the actor's output gradient.
			pairActorGrad, _, err := params.actor.Backprop(curr,
				criticInGrad[params.latentDim:])
			if err != nil {
				return 0, nil, nil, err
			}
			if err := actorGrad.Add(pairActorGrad); err != nil {
				return 0, nil, nil, err
			}
		}
	}

	// Reduce by arithmetic mean
	scale := 1.0 / float64(len(batch))
	criticGrad.Scale(scale)
	actorGrad.Scale(scale)
	return loss * scale, criticGrad, actorGrad, nil
}

// concat returns a new slice holding a followed by b.
func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
