// A demonstration of driving the simple harmonic oscillator onto the
// unit circle with the online actor-critic agent.
package main

import (
	"fmt"
	"os"

	"github.com/driftline/sholearn/agent/sho"
	"github.com/driftline/sholearn/environment/oscillator"
	"github.com/driftline/sholearn/experiment"
	"github.com/driftline/sholearn/experiment/checkpointer"
	"github.com/driftline/sholearn/experiment/savers"
	"github.com/driftline/sholearn/predictor"
	"github.com/driftline/sholearn/randstream"
)

func main() {
	const seed uint64 = 112045
	const stiffness = 1.0
	const gamma = 1.1
	const dt = 1e-2
	const steps = 100_000
	const checkpointEvery = 10_000

	system := oscillator.NewSystem(stiffness, gamma)
	simulator := oscillator.NewSimulator(system)
	generator := oscillator.NewGenerator()

	cursor := randstream.New(seed)
	predictorCursor, cursor := cursor.Split()
	pred, err := predictor.New(predictorCursor, oscillator.DelayDepth,
		oscillator.ObservationDims, oscillator.LatentDims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create predictor: %v\n", err)
		os.Exit(1)
	}

	agentCursor, _ := cursor.Split()
	agentState, err := sho.InitState(agentCursor.Key,
		oscillator.LatentDims, oscillator.ControlParamDims, gamma)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create agent: %v\n", err)
		os.Exit(1)
	}

	s := []savers.Saver{
		savers.NewTrajectory("trajectory.png"),
		savers.NewDynamicsLoss("dynamics_loss.bin"),
	}
	c := []checkpointer.Checkpointer{
		checkpointer.NewNStep(checkpointEvery,
			checkpointer.FilenameEnumerator(0, "checkpoint", ".bin")),
	}

	exp := experiment.NewOnline(simulator, generator, pred, agentState,
		dt, steps, s, c)
	if err := exp.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "\nexperiment failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()

	if err := exp.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "could not save experiment data: %v\n", err)
		os.Exit(1)
	}
}
