// Package savers implements caching and saving of data generated
// while an experiment runs.
package savers

import (
	"encoding/gob"
	"log"
	"os"
)

// Record is the data generated by one tick of an experiment
type Record struct {
	Step         int
	Time         float64
	PositionX    float64
	PositionY    float64
	DynamicsLoss float64
}

// Interface Saver keeps track of the experiment data and saves the
// data after the experiment has finished
type Saver interface {
	Track(r Record)
	Save() error
}

// DynamicsLoss tracks and saves the per-tick dynamics loss of an
// experiment.
type DynamicsLoss struct {
	losses   []float64
	filename string
}

// NewDynamicsLoss creates and returns a new *DynamicsLoss Saver
func NewDynamicsLoss(filename string) *DynamicsLoss {
	return &DynamicsLoss{filename: filename}
}

// Track caches the dynamics loss of a tick
func (d *DynamicsLoss) Track(r Record) {
	d.losses = append(d.losses, r.DynamicsLoss)
}

// Save saves the tracked losses to disk
func (d *DynamicsLoss) Save() error {
	file, err := os.Create(d.filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(d.losses)
}

// LoadData loads and returns the data saved by a DynamicsLoss Saver
func LoadData(filename string) []float64 {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}
