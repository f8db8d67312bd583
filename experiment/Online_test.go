package experiment

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftline/sholearn/agent/sho"
	"github.com/driftline/sholearn/environment/oscillator"
	"github.com/driftline/sholearn/experiment/checkpointer"
	"github.com/driftline/sholearn/experiment/savers"
	"github.com/driftline/sholearn/predictor"
	"github.com/driftline/sholearn/randstream"
)

// countingSaver records how many ticks it was handed
type countingSaver struct {
	records []savers.Record
}

func (c *countingSaver) Track(r savers.Record) {
	c.records = append(c.records, r)
}

func (c *countingSaver) Save() error {
	return nil
}

func newTestExperiment(t *testing.T, steps int, s []savers.Saver,
	c []checkpointer.Checkpointer) *Online {
	t.Helper()
	const seed uint64 = 112045
	const dt = 1e-2

	system := oscillator.NewSystem(1.0, 1.1)
	sim := oscillator.NewSimulator(system)
	gen := oscillator.NewGenerator()

	cursor := randstream.New(seed)
	predCursor, cursor := cursor.Split()
	pred, err := predictor.New(predCursor, oscillator.DelayDepth,
		oscillator.ObservationDims, oscillator.LatentDims)
	if err != nil {
		t.Fatal(err)
	}

	agentCursor, _ := cursor.Split()
	agentState, err := sho.InitState(agentCursor.Key,
		oscillator.LatentDims, oscillator.ControlParamDims, system.Gamma)
	if err != nil {
		t.Fatal(err)
	}

	return NewOnline(sim, gen, pred, agentState, dt, steps, s, c)
}

// The control loop must advance the simulation one dt per tick and
// hand every tick to the registered savers.
func TestOnlineRunTicks(t *testing.T) {
	const steps = 30
	const dt = 1e-2

	saver := &countingSaver{}
	exp := newTestExperiment(t, steps, []savers.Saver{saver}, nil)

	for i := 0; i < steps; i++ {
		if err := exp.RunTick(); err != nil {
			t.Fatal(err)
		}
	}

	if len(saver.records) != steps {
		t.Errorf("tracked %d records, want %d", len(saver.records), steps)
	}

	last := saver.records[len(saver.records)-1]
	if last.Step != steps {
		t.Errorf("last record step: got %d want %d", last.Step, steps)
	}
	wantTime := float64(steps) * dt
	if math.Abs(last.Time-wantTime) > 1e-12 {
		t.Errorf("last record time: got %v want %v", last.Time, wantTime)
	}

	if exp.AgentState().StepCount() != steps {
		t.Errorf("agent step count: got %d want %d",
			exp.AgentState().StepCount(), steps)
	}
}

// An NStep checkpointer registered with the experiment must produce a
// reloadable checkpoint file on its interval.
func TestOnlineCheckpoints(t *testing.T) {
	const steps = 20
	const interval = 10

	dir := t.TempDir()
	name := filepath.Join(dir, "agent")
	check := checkpointer.NewNStep(interval,
		checkpointer.FilenameEnumerator(0, name, ".bin"))

	exp := newTestExperiment(t, steps, nil,
		[]checkpointer.Checkpointer{check})
	for i := 0; i < steps; i++ {
		if err := exp.RunTick(); err != nil {
			t.Fatal(err)
		}
	}

	for i := 1; i <= steps/interval; i++ {
		filename := fmt.Sprintf("%v%d.bin", name, i)
		if _, err := os.Stat(filename); err != nil {
			t.Errorf("missing checkpoint file %v: %v", filename, err)
		}
	}

	loaded, err := sho.Load(name + "2.bin")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.StepCount() != steps {
		t.Errorf("loaded step count: got %d want %d", loaded.StepCount(),
			steps)
	}
}
