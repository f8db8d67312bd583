// Package experiment implements functionality for running an
// experiment: a closed control loop where an agent drives a simulated
// system toward a target dynamics.
package experiment

import "github.com/driftline/sholearn/experiment/savers"

// Interface Experiment outlines structs that can run experiments.
// Experiments cache data generated on each tick in RAM through
// savers.Saver values; the Save() function then takes all cached data
// and saves it to disk, usually after the experiment has been run.
// The Run() method runs the control loop until the maximum step limit
// is reached or the simulation fails.
//
// New Savers can be registered with an Experiment through the
// constructor or through the Experiment's Register() function.
type Experiment interface {
	Run() error

	// Save all tracked data to disk
	Save() error

	// Adds a new savers.Saver to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(s savers.Saver)
}
