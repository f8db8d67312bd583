// Package expreplay implements a fixed-capacity circular experience
// replay buffer with value-threaded state.
//
// The buffer is split into a static Config and an immutable State.
// Every operation takes a State and returns a new State; no State is
// ever mutated in place, so a caller can hold on to any previous
// State (for checkpointing or inspection) without it being changed
// underneath them.
//
// Storage is a circular array. Once the buffer saturates, each
// insertion evicts exactly the oldest record. Sampling draws
// consecutive-pair experiences (storage[i], storage[i+1]) uniformly at
// random, excluding the write cursor's immediate predecessor so that a
// pair never straddles the eviction boundary by joining the newest
// record to the oldest.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/driftline/sholearn/timestep"
)

// Default buffer parameters.
const (
	DefaultCapacity    int = 1024
	DefaultMinCapacity int = 16
	DefaultBatchSize   int = 64
)

// Config implements a specific configuration of a replay buffer. A
// Config is static: it is fixed at construction time and shared by
// every State derived from it.
type Config struct {
	Capacity    int // Maximum number of records held
	MinCapacity int // Records required before sampling is permitted
	BatchSize   int // Number of pairs returned by Sample
}

// NewConfig returns the default replay buffer configuration.
func NewConfig() Config {
	return Config{
		Capacity:    DefaultCapacity,
		MinCapacity: DefaultMinCapacity,
		BatchSize:   DefaultBatchSize,
	}
}

// Validate returns an error if the Config describes an unusable
// buffer.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("validate: capacity must be >= 1")
	}
	if c.MinCapacity < 2 {
		return fmt.Errorf("validate: min capacity must be >= 2 to form " +
			"consecutive pairs")
	}
	if c.MinCapacity > c.Capacity {
		return fmt.Errorf("validate: min capacity (%v) > capacity (%v)",
			c.MinCapacity, c.Capacity)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be >= 1")
	}
	return nil
}

// Init allocates a State of c.Capacity placeholder records with the
// write cursor at 0 and no valid entries.
func (c Config) Init(latentDim int) (State, error) {
	if err := c.Validate(); err != nil {
		return State{}, err
	}

	storage := make([]timestep.TimeStep, c.Capacity)
	for i := range storage {
		storage[i] = timestep.Zero(latentDim)
	}

	return State{storage: storage, cursor: 0, count: 0}, nil
}

// Restore reconstructs a State from checkpointed storage. The storage
// slice is copied; its length must equal the configured capacity.
func (c Config) Restore(storage []timestep.TimeStep, cursor, count int) (
	State, error) {
	if len(storage) != c.Capacity {
		return State{}, fmt.Errorf("restore: storage length (%v) does not "+
			"match capacity (%v)", len(storage), c.Capacity)
	}
	if cursor < 0 || cursor >= c.Capacity || count < 0 || count > c.Capacity {
		return State{}, fmt.Errorf("restore: cursor (%v) or count (%v) out "+
			"of range for capacity %v", cursor, count, c.Capacity)
	}

	copied := make([]timestep.TimeStep, len(storage))
	copy(copied, storage)
	return State{storage: copied, cursor: cursor, count: count}, nil
}

// State is the per-step state of a replay buffer: the circular
// storage array, the write cursor, and the count of valid
// (non-placeholder) entries. The count is monotonically non-decreasing
// and saturates at the configured capacity.
type State struct {
	storage []timestep.TimeStep
	cursor  int
	count   int
}

// Cursor returns the index at which the next record will be written.
func (s State) Cursor() int {
	return s.cursor
}

// Count returns the number of valid records currently stored.
func (s State) Count() int {
	return s.count
}

// Get returns the record stored at index i. Records are immutable;
// callers must not modify the returned TimeStep's latent state.
func (s State) Get(i int) timestep.TimeStep {
	return s.storage[i]
}

// Add writes t at the cursor, advancing the cursor modulo capacity,
// and returns the resulting State. Once the buffer is full, the
// record overwritten is always the oldest one. Add cannot fail.
func (c Config) Add(s State, t timestep.TimeStep) State {
	storage := make([]timestep.TimeStep, len(s.storage))
	copy(storage, s.storage)
	storage[s.cursor] = t

	count := s.count + 1
	if count > c.Capacity {
		count = c.Capacity
	}

	return State{
		storage: storage,
		cursor:  (s.cursor + 1) % c.Capacity,
		count:   count,
	}
}

// CanSample returns whether the buffer holds enough records for
// Sample to be called.
func (c Config) CanSample(s State) bool {
	return s.count >= c.MinCapacity
}

// Sample draws BatchSize consecutive-pair experiences uniformly at
// random from the valid records. The index preceding the write cursor
// is excluded from the draw: its successor slot holds either the
// record about to be overwritten or a placeholder, so pairing across
// it would join non-consecutive records.
//
// Sample fails if called while CanSample is false; callers must guard
// with CanSample. Use IsEmptyBuffer and IsInsufficientSamples to
// inspect the failure.
func (c Config) Sample(s State, rng *rand.Rand) ([]timestep.ExperiencePair,
	error) {
	if s.count == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if !c.CanSample(s) {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	// The excluded index is the newest record: the cursor's immediate
	// predecessor in the circular order.
	excluded := (s.cursor - 1 + c.Capacity) % c.Capacity

	batch := make([]timestep.ExperiencePair, c.BatchSize)
	for i := range batch {
		index := rng.Intn(s.count - 1)
		if index >= excluded {
			index++
		}

		batch[i] = timestep.ExperiencePair{
			Curr: s.storage[index],
			Next: s.storage[(index+1)%c.Capacity],
		}
	}

	return batch, nil
}
