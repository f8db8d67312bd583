package sho

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/driftline/sholearn/expreplay"
	"github.com/driftline/sholearn/randstream"
	"github.com/driftline/sholearn/solver"
	"github.com/driftline/sholearn/timestep"
)

// testConfig returns a small configuration so tests can reach the
// training regime in a few steps.
func testConfig(gamma float64) Config {
	return Config{
		Buffer: expreplay.Config{
			Capacity:    32,
			MinCapacity: 4,
			BatchSize:   8,
		},
		Solver: solver.NewDefaultAdam(1e-3),
		Gamma:  gamma,
	}
}

// testLatent returns a deterministic latent observation for step i
func testLatent(latentDim, i int) *mat.VecDense {
	data := make([]float64, latentDim)
	for j := range data {
		data[j] = math.Sin(float64(i)*0.3 + float64(j))
	}
	return mat.NewVecDense(latentDim, data)
}

// Until the replay buffer holds MinCapacity records, Step must record
// experience without touching the parameters.
func TestStepNoTrainBeforeReady(t *testing.T) {
	const latentDim = 2
	const controlDim = 1

	state, err := InitState(112045, latentDim, controlDim, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	initial := state.Params()
	minCapacity := state.Config().Buffer.MinCapacity

	for i := 0; i < minCapacity; i++ {
		state, _, err = state.Step(testLatent(latentDim, i), -0.5)
		if err != nil {
			t.Fatal(err)
		}
		if !state.Params().Equal(initial) {
			t.Fatalf("parameters changed at step %d with %d records",
				i, i)
		}
		if state.OptState().Critic.Step != 0 ||
			state.OptState().Actor.Step != 0 {
			t.Fatalf("optimizer stepped at step %d with %d records", i, i)
		}
	}

	// The buffer is now at MinCapacity, so the next step trains.
	state, _, err = state.Step(testLatent(latentDim, minCapacity), -0.5)
	if err != nil {
		t.Fatal(err)
	}
	if state.Params().Equal(initial) {
		t.Error("parameters unchanged after first eligible training step")
	}
}

// momentNorm returns the norm of an optimizer state's first moment
func momentNorm(s *solver.State) float64 {
	norm := 0.0
	s.M.Leaves(func(leaf []float64) {
		for _, v := range leaf {
			norm += v * v
		}
	})
	return math.Sqrt(norm)
}

// trainedState returns a fresh State whose buffer is sampleable but
// whose networks and optimizer moments are untouched, with the given
// step count.
func trainedState(t *testing.T, stepCount int) State {
	t.Helper()
	const latentDim = 2
	const controlDim = 1

	state, err := InitStateFrom(testConfig(0.5), 42, latentDim, controlDim)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < state.config.Buffer.MinCapacity+2; i++ {
		state.bufferState = state.config.Buffer.Add(state.bufferState,
			timestep.New(testLatent(latentDim, i), -0.5))
	}
	state.stepCount = stepCount
	return state
}

// Update trains the actor on every third step and the critic on the
// other two, an exact 100:200 split across 300 training-eligible
// steps. Which side trained is visible in the optimizer moments:
// starting from zero moments, only the live sub-network's first
// moment becomes nonzero.
func TestUpdateAlternation(t *testing.T) {
	actorSteps := 0
	criticSteps := 0

	for i := 0; i < 300; i++ {
		state := trainedState(t, i)
		next, err := state.Update(randstream.New(uint64(1000 + i)))
		if err != nil {
			t.Fatal(err)
		}

		actorTrained := momentNorm(next.OptState().Actor) > 0
		criticTrained := momentNorm(next.OptState().Critic) > 0
		if actorTrained == criticTrained {
			t.Fatalf("step %d: actor trained %v, critic trained %v",
				i, actorTrained, criticTrained)
		}

		if actorTrained {
			if i%3 != 0 {
				t.Errorf("actor trained at step %d", i)
			}
			actorSteps++
		} else {
			if i%3 == 0 {
				t.Errorf("critic trained at step %d", i)
			}
			criticSteps++
		}
	}

	if actorSteps != 100 || criticSteps != 200 {
		t.Errorf("got %d actor and %d critic steps, want 100 and 200",
			actorSteps, criticSteps)
	}
}

// The target networks never train and never drift: their optimizer
// moments stay zero, so the bias-corrected update is exactly zero.
func TestUpdateTargetsFixed(t *testing.T) {
	state := trainedState(t, 0)
	targetCritic := state.Params().TargetCritic().Clone()
	targetActor := state.Params().TargetActor().Clone()

	for i := 0; i < 12; i++ {
		var err error
		state, err = state.Update(randstream.New(uint64(2000 + i)))
		if err != nil {
			t.Fatal(err)
		}
		state.stepCount++
	}

	if !state.Params().TargetCritic().Equal(targetCritic) {
		t.Error("target critic changed during training")
	}
	if !state.Params().TargetActor().Equal(targetActor) {
		t.Error("target actor changed during training")
	}
}

// Step must reject observations of the wrong dimension
func TestStepShapeMismatch(t *testing.T) {
	state, err := InitState(1, 3, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = state.Step(mat.NewVecDense(4, nil), -0.5)
	if err == nil {
		t.Fatal("expected an error for a wrong-size observation")
	}
	if !IsShapeMismatch(err) {
		t.Errorf("expected a shape mismatch error, got %v", err)
	}
}

// Reloading a checkpoint and continuing must reproduce the exact
// trajectory of the uninterrupted run.
func TestCheckpointRoundTrip(t *testing.T) {
	const latentDim = 2
	const controlDim = 1

	state, err := InitStateFrom(testConfig(0.5), 112045, latentDim,
		controlDim)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		state, _, err = state.Step(testLatent(latentDim, i), -0.5)
		if err != nil {
			t.Fatal(err)
		}
	}

	filename := filepath.Join(t.TempDir(), "agent.bin")
	if err := state.Save(filename); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}

	if !loaded.Params().Equal(state.Params()) {
		t.Fatal("loaded parameters differ from saved parameters")
	}
	if loaded.StepCount() != state.StepCount() {
		t.Fatalf("loaded step count %d, want %d", loaded.StepCount(),
			state.StepCount())
	}

	for i := 10; i < 20; i++ {
		obs := testLatent(latentDim, i)

		var origAction, loadedAction *mat.VecDense
		state, origAction, err = state.Step(obs, -0.5)
		if err != nil {
			t.Fatal(err)
		}
		loaded, loadedAction, err = loaded.Step(obs, -0.5)
		if err != nil {
			t.Fatal(err)
		}

		if !mat.Equal(origAction, loadedAction) {
			t.Fatalf("actions diverge at step %d: %v vs %v", i,
				mat.Formatted(origAction), mat.Formatted(loadedAction))
		}
	}

	if !loaded.Params().Equal(state.Params()) {
		t.Error("parameters diverge after continuing from the checkpoint")
	}
}
