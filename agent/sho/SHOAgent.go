// Package sho implements an online actor-critic agent that drives a
// system toward a target dynamics by training on a stream of
// scalar-rewarded latent observations.
//
// The agent alternates between training a state-action value
// estimator (the critic) and a policy (the actor) on experience pairs
// sampled from a fixed-capacity replay buffer, bootstrapping its
// value targets through delayed target copies of both networks, and
// emits control actions from the target policy.
//
// All agent state is threaded by value: Step and Update consume a
// State and return a new one, never mutating the input. Callers are
// responsible for sequencing calls against one logical State; the
// package performs no locking.
package sho

import (
	"gonum.org/v1/gonum/mat"

	"github.com/driftline/sholearn/expreplay"
	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
	"github.com/driftline/sholearn/solver"
	"github.com/driftline/sholearn/timestep"
	"github.com/driftline/sholearn/utils/floatutils"
)

// Default agent hyperparameters
const (
	DefaultStepSize float64 = 1e-3
)

// Config is the static configuration of the agent: fixed at
// construction and shared by every State derived from it.
type Config struct {
	Buffer expreplay.Config
	Solver solver.AdamConfig
	Gamma  float64 // Discount factor for the bootstrapped target
}

// NewConfig returns the default agent configuration with the given
// discount factor.
func NewConfig(gamma float64) Config {
	return Config{
		Buffer: expreplay.NewConfig(),
		Solver: solver.NewDefaultAdam(DefaultStepSize),
		Gamma:  gamma,
	}
}

// OptState holds one optimizer State per sub-network, structurally
// mirroring Parameters. The target networks carry optimizer state
// too: they sit in the parameter tree and receive zero gradients,
// which still pass through the optimizer's moment updates.
type OptState struct {
	Critic       *solver.State
	Actor        *solver.State
	TargetCritic *solver.State
	TargetActor  *solver.State
}

// State is the complete state of the agent. Every operation consumes
// one State and produces a new one; no State is ever mutated in
// place, so any State a caller holds remains valid for checkpointing
// or rollback.
type State struct {
	config      Config
	bufferState expreplay.State
	optState    OptState
	params      Parameters
	stepCount   int
	cursor      randstream.Cursor
}

// InitState returns the initial agent State for the given random
// seed, latent and control dimensions, and discount factor, with the
// default buffer and solver configuration.
func InitState(seed uint64, latentDim, controlDim int,
	gamma float64) (State, error) {
	return InitStateFrom(NewConfig(gamma), seed, latentDim, controlDim)
}

// InitStateFrom is InitState with an explicit configuration.
func InitStateFrom(config Config, seed uint64, latentDim,
	controlDim int) (State, error) {
	cursor := randstream.New(seed)
	paramsCursor, cursor := cursor.Split()

	params, err := NewParameters(paramsCursor, latentDim, controlDim)
	if err != nil {
		return State{}, err
	}

	bufferState, err := config.Buffer.Init(latentDim)
	if err != nil {
		return State{}, err
	}

	optState := OptState{
		Critic:       config.Solver.Init(params.critic),
		Actor:        config.Solver.Init(params.actor),
		TargetCritic: config.Solver.Init(params.targetCritic),
		TargetActor:  config.Solver.Init(params.targetActor),
	}

	return State{
		config:      config,
		bufferState: bufferState,
		optState:    optState,
		params:      params,
		stepCount:   0,
		cursor:      cursor,
	}, nil
}

// Config returns the agent's static configuration
func (s State) Config() Config {
	return s.config
}

// StepCount returns the number of Step calls consumed so far
func (s State) StepCount() int {
	return s.stepCount
}

// Params returns the agent's parameter tree
func (s State) Params() Parameters {
	return s.params
}

// BufferState returns the replay buffer state
func (s State) BufferState() expreplay.State {
	return s.bufferState
}

// OptState returns the optimizer state
func (s State) OptState() OptState {
	return s.optState
}

// Update performs one training step: it samples a batch of experience
// pairs from the replay buffer using the given sub-stream, freezes
// one sub-network according to the alternation rule, and applies one
// optimizer step over the full parameter tree with the gradient of
// the mean Bellman loss.
//
// The alternation rule is asymmetric: when stepCount is divisible by
// 3 the critic is frozen and the actor trains; on the other two
// thirds of steps the actor is frozen and the critic trains. The
// 1-in-3 / 2-in-3 split is a recorded design decision, not an
// accident of implementation.
//
// Update fails with a buffer error if the buffer cannot be sampled
// yet (callers must guard with CanSample; Step does), and with a
// non-finite error if a NaN or Inf appears in the loss, a gradient,
// or the parameter updates.
func (s State) Update(cursor randstream.Cursor) (State, error) {
	batch, err := s.config.Buffer.Sample(s.bufferState, cursor.Rand())
	if err != nil {
		return State{}, err
	}

	var frozen Parameters
	if s.stepCount%3 == 0 {
		frozen = s.params.FreezeCritic()
	} else {
		frozen = s.params.FreezeActor()
	}

	loss, criticGrad, actorGrad, err := bellmanGrad(frozen, batch,
		s.config.Gamma)
	if err != nil {
		return State{}, err
	}
	if !floatutils.Finite(loss) || !gradFinite(criticGrad) ||
		!gradFinite(actorGrad) {
		return State{}, &AgentError{Op: "update", Err: errNonFinite}
	}

	// The target networks are part of the parameter tree: they
	// receive identically zero gradients, which still decay their
	// optimizer moments.
	adam := s.config.Solver
	criticUpdates, criticOpt := adam.Update(criticGrad, s.optState.Critic)
	actorUpdates, actorOpt := adam.Update(actorGrad, s.optState.Actor)
	targetCriticUpdates, targetCriticOpt := adam.Update(
		network.NewGradient(s.params.targetCritic), s.optState.TargetCritic)
	targetActorUpdates, targetActorOpt := adam.Update(
		network.NewGradient(s.params.targetActor), s.optState.TargetActor)

	if !gradFinite(criticUpdates) || !gradFinite(actorUpdates) {
		return State{}, &AgentError{Op: "update", Err: errNonFinite}
	}

	critic, err := solver.ApplyUpdates(s.params.critic, criticUpdates)
	if err != nil {
		return State{}, err
	}
	actor, err := solver.ApplyUpdates(s.params.actor, actorUpdates)
	if err != nil {
		return State{}, err
	}
	targetCritic, err := solver.ApplyUpdates(s.params.targetCritic,
		targetCriticUpdates)
	if err != nil {
		return State{}, err
	}
	targetActor, err := solver.ApplyUpdates(s.params.targetActor,
		targetActorUpdates)
	if err != nil {
		return State{}, err
	}

	next := s
	next.optState = OptState{
		Critic:       criticOpt,
		Actor:        actorOpt,
		TargetCritic: targetCriticOpt,
		TargetActor:  targetActorOpt,
	}
	next.params = Parameters{
		latentDim:    s.params.latentDim,
		controlDim:   s.params.controlDim,
		critic:       critic,
		actor:        actor,
		targetCritic: targetCritic,
		targetActor:  targetActor,
		frozen:       freezeNone,
	}
	return next, nil
}

// Step consumes one observed latent state and its dynamics-match
// signal and returns the successor State together with the control
// action for the observation.
//
// Step splits a fresh sub-stream off the random cursor, trains once
// via Update if the replay buffer is ready (and leaves the State
// untouched otherwise), records the observation in the buffer,
// increments the step counter, and computes the action with the
// target actor. Action selection deliberately uses the target policy
// rather than the live actor, for output stability.
func (s State) Step(latentState mat.Vector,
	dynamicsMatch float64) (State, *mat.VecDense, error) {
	if latentState.Len() != s.params.latentDim {
		return State{}, nil, &AgentError{Op: "step", Err: errShapeMismatch}
	}

	sub, cursor := s.cursor.Split()
	next := s
	next.cursor = cursor

	if s.config.Buffer.CanSample(next.bufferState) {
		var err error
		next, err = next.Update(sub)
		if err != nil {
			return State{}, nil, err
		}
	}

	next.bufferState = next.config.Buffer.Add(next.bufferState,
		timestep.New(latentState, dynamicsMatch))
	next.stepCount++

	obs := make([]float64, latentState.Len())
	for i := range obs {
		obs[i] = latentState.AtVec(i)
	}
	action, err := next.params.targetActor.Predict(obs)
	if err != nil {
		return State{}, nil, err
	}

	return next, mat.NewVecDense(len(action), action), nil
}

// gradFinite returns whether every leaf of a gradient tree is finite.
func gradFinite(grad *network.Gradient) bool {
	finite := true
	grad.Leaves(func(leaf []float64) {
		if !floatutils.AllFinite(leaf) {
			finite = false
		}
	})
	return finite
}
