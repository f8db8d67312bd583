package experiment

import (
	"github.com/driftline/sholearn/agent/sho"
	"github.com/driftline/sholearn/environment/oscillator"
	"github.com/driftline/sholearn/experiment/checkpointer"
	"github.com/driftline/sholearn/experiment/savers"
	"github.com/driftline/sholearn/predictor"
	"github.com/driftline/sholearn/utils/progressbar"
)

// progress bar width in characters
const progressWidth int = 50

// Online runs the control loop online: on every tick the agent
// observes the current latent state estimate, trains, and emits the
// control parameter that shapes the force driving the simulator
// across the same tick.
type Online struct {
	simulator *oscillator.Simulator
	generator *oscillator.Generator
	pred      *predictor.Predictor

	agentState sho.State
	dt         float64

	maxSteps      int
	currentSteps  int
	savers        []savers.Saver
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ProgressBar
}

// NewOnline creates and returns a new online experiment driving the
// given simulator with the given agent state. The steps parameter
// determines how many ticks the experiment is run for, the s
// parameter is a slice of savers.Saver which determine what data is
// saved, and the c parameter is a slice of checkpointers which
// persist the agent state as the experiment runs.
func NewOnline(sim *oscillator.Simulator, gen *oscillator.Generator,
	pred *predictor.Predictor, agentState sho.State, dt float64,
	steps int, s []savers.Saver,
	c []checkpointer.Checkpointer) *Online {
	return &Online{
		simulator:     sim,
		generator:     gen,
		pred:          pred,
		agentState:    agentState,
		dt:            dt,
		maxSteps:      steps,
		savers:        s,
		checkpointers: c,
		progress:      progressbar.New(progressWidth, steps),
	}
}

// Register registers a savers.Saver with the Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(s savers.Saver) {
	o.savers = append(o.savers, s)
}

// AgentState returns the current agent state
func (o *Online) AgentState() sho.State {
	return o.agentState
}

// RunTick runs a single tick of the control loop
func (o *Online) RunTick() error {
	latent, err := o.pred.Predict(o.simulator.Observations())
	if err != nil {
		return err
	}

	dynamicsMatch := -o.simulator.DynamicsLoss()
	agentState, action, err := o.agentState.Step(latent, dynamicsMatch)
	if err != nil {
		return err
	}
	o.agentState = agentState

	now := o.simulator.Time()
	o.generator.SetParameters(action.AtVec(0), now)

	signal := o.generator.ControlSignal(now)
	if err := o.simulator.Update(o.dt, signal); err != nil {
		return err
	}

	o.currentSteps++
	x, y := o.simulator.Position()
	o.track(savers.Record{
		Step:         o.currentSteps,
		Time:         o.simulator.Time(),
		PositionX:    x,
		PositionY:    y,
		DynamicsLoss: o.simulator.DynamicsLoss(),
	})

	for _, c := range o.checkpointers {
		if err := c.Checkpoint(o.currentSteps, o.agentState); err != nil {
			return err
		}
	}

	return nil
}

// Run runs the entire experiment for all ticks
func (o *Online) Run() error {
	for o.currentSteps < o.maxSteps {
		if err := o.RunTick(); err != nil {
			return err
		}
		o.progress.Increment()
		o.progress.Display()
	}
	return nil
}

// Save saves all the data cached by the Savers to disk
func (o *Online) Save() error {
	for _, saver := range o.savers {
		if err := saver.Save(); err != nil {
			return err
		}
	}
	return nil
}

// track tracks the current tick by caching its data in each saver
func (o *Online) track(r savers.Record) {
	for _, saver := range o.savers {
		saver.Track(r)
	}
}
