package sho

import (
	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
)

// Network architecture shared by the critic and the actor
const (
	HiddenLayers int = 3
	HiddenWidth  int = 32
)

// freezeMode selects which sub-network is excluded from gradient
// computation. Freezing changes nothing about the forward pass.
type freezeMode int

const (
	freezeNone freezeMode = iota
	freezeCritic
	freezeActor
)

// Parameters is the composite parameter tree of the agent: the critic
// (state-action value estimator), the actor (policy), and a delayed
// target copy of each. The target networks are structural copies made
// once at construction; no synchronization path from the live
// networks exists, so they stay fixed at their initial values for the
// lifetime of the agent.
type Parameters struct {
	latentDim  int
	controlDim int

	critic       *network.MLP
	actor        *network.MLP
	targetCritic *network.MLP
	targetActor  *network.MLP

	frozen freezeMode
}

// hiddenSpec returns the hidden sizes and activations shared by every
// sub-network.
func hiddenSpec() ([]int, []*network.Activation) {
	sizes := make([]int, HiddenLayers)
	acts := make([]*network.Activation, HiddenLayers)
	for i := range sizes {
		sizes[i] = HiddenWidth
		acts[i] = network.Swish()
	}
	return sizes, acts
}

// NewParameters constructs the agent's parameter tree. The critic
// maps a concatenated latent state and action to a scalar value; the
// actor maps a latent state to an action. Both use Glorot uniform
// initialization for weights and biases, with independent sub-streams
// split from cursor.
func NewParameters(cursor randstream.Cursor, latentDim,
	controlDim int) (Parameters, error) {
	criticCursor, cursor := cursor.Split()
	actorCursor, _ := cursor.Split()

	sizes, acts := hiddenSpec()
	init := network.GlorotU(1.0)

	critic, err := network.NewMLP(latentDim+controlDim, 1, sizes, acts, init,
		criticCursor.Source())
	if err != nil {
		return Parameters{}, err
	}

	sizes, acts = hiddenSpec()
	actor, err := network.NewMLP(latentDim, controlDim, sizes, acts, init,
		actorCursor.Source())
	if err != nil {
		return Parameters{}, err
	}

	return Parameters{
		latentDim:    latentDim,
		controlDim:   controlDim,
		critic:       critic,
		actor:        actor,
		targetCritic: critic.Clone(),
		targetActor:  actor.Clone(),
		frozen:       freezeNone,
	}, nil
}

// LatentDim returns the dimension of the latent state the agent
// consumes.
func (p Parameters) LatentDim() int {
	return p.latentDim
}

// ControlDim returns the dimension of the action the agent emits.
func (p Parameters) ControlDim() int {
	return p.controlDim
}

// Critic returns the live critic network
func (p Parameters) Critic() *network.MLP {
	return p.critic
}

// Actor returns the live actor network
func (p Parameters) Actor() *network.MLP {
	return p.actor
}

// TargetCritic returns the target critic network
func (p Parameters) TargetCritic() *network.MLP {
	return p.targetCritic
}

// TargetActor returns the target actor network
func (p Parameters) TargetActor() *network.MLP {
	return p.targetActor
}

// FreezeCritic returns a copy of the Parameters in which the critic
// contributes exactly zero gradient, while the actor remains fully
// differentiable. The forward pass is unchanged. Pure: the receiver
// is not modified.
func (p Parameters) FreezeCritic() Parameters {
	p.frozen = freezeCritic
	return p
}

// FreezeActor returns a copy of the Parameters in which the actor
// contributes exactly zero gradient, while the critic remains fully
// differentiable. The forward pass is unchanged. Pure: the receiver
// is not modified.
func (p Parameters) FreezeActor() Parameters {
	p.frozen = freezeActor
	return p
}

// Equal returns whether two parameter trees are bit-identical.
func (p Parameters) Equal(other Parameters) bool {
	return p.latentDim == other.latentDim &&
		p.controlDim == other.controlDim &&
		p.critic.Equal(other.critic) &&
		p.actor.Equal(other.actor) &&
		p.targetCritic.Equal(other.targetCritic) &&
		p.targetActor.Equal(other.targetActor)
}
