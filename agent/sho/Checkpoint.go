package sho

import (
	"bytes"
	"encoding/gob"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
	"github.com/driftline/sholearn/timestep"
)

// checkpoint is the serialized form of a State. Every field that
// affects future behavior is captured, so reloading a checkpoint and
// continuing produces the same trajectory as never having stopped.
type checkpoint struct {
	Config Config

	LatentDim  int
	ControlDim int

	BufferLatent [][]float64
	BufferMatch  []float64
	BufferCursor int
	BufferCount  int

	Critic       *network.MLP
	Actor        *network.MLP
	TargetCritic *network.MLP
	TargetActor  *network.MLP

	Opt OptState

	StepCount int
	Cursor    randstream.Cursor
}

// GobEncode implements the gob.GobEncoder interface
func (s State) GobEncode() ([]byte, error) {
	point := checkpoint{
		Config:       s.config,
		LatentDim:    s.params.latentDim,
		ControlDim:   s.params.controlDim,
		BufferCursor: s.bufferState.Cursor(),
		BufferCount:  s.bufferState.Count(),
		Critic:       s.params.critic,
		Actor:        s.params.actor,
		TargetCritic: s.params.targetCritic,
		TargetActor:  s.params.targetActor,
		Opt:          s.optState,
		StepCount:    s.stepCount,
		Cursor:       s.cursor,
	}

	// Every slot is persisted, placeholders included, so Restore sees
	// a full-capacity storage array.
	capacity := s.config.Buffer.Capacity
	point.BufferLatent = make([][]float64, capacity)
	point.BufferMatch = make([]float64, capacity)
	for i := 0; i < capacity; i++ {
		t := s.bufferState.Get(i)
		point.BufferLatent[i] = rawVec(t.LatentState)
		point.BufferMatch[i] = t.DynamicsMatch
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(point); err != nil {
		return nil, &AgentError{Op: "gobencode", Err: err}
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (s *State) GobDecode(data []byte) error {
	var point checkpoint
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&point); err != nil {
		return &AgentError{Op: "gobdecode", Err: err}
	}

	storage := make([]timestep.TimeStep, len(point.BufferLatent))
	for i, latent := range point.BufferLatent {
		storage[i] = timestep.New(mat.NewVecDense(len(latent), latent),
			point.BufferMatch[i])
	}
	bufferState, err := point.Config.Buffer.Restore(storage,
		point.BufferCursor, point.BufferCount)
	if err != nil {
		return err
	}

	s.config = point.Config
	s.bufferState = bufferState
	s.optState = point.Opt
	s.params = Parameters{
		latentDim:    point.LatentDim,
		controlDim:   point.ControlDim,
		critic:       point.Critic,
		actor:        point.Actor,
		targetCritic: point.TargetCritic,
		targetActor:  point.TargetActor,
		frozen:       freezeNone,
	}
	s.stepCount = point.StepCount
	s.cursor = point.Cursor
	return nil
}

// Save serializes the State to the file at filename, truncating any
// existing file.
func (s State) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return &AgentError{Op: "save", Err: err}
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(s); err != nil {
		return &AgentError{Op: "save", Err: err}
	}
	return nil
}

// Load deserializes a State from the file at filename
func Load(filename string) (State, error) {
	file, err := os.Open(filename)
	if err != nil {
		return State{}, &AgentError{Op: "load", Err: err}
	}
	defer file.Close()

	var s State
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return State{}, &AgentError{Op: "load", Err: err}
	}
	return s, nil
}

// rawVec copies a vector's elements into a fresh slice
func rawVec(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
