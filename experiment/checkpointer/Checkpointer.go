// Package checkpointer implements periodic saving of experiment
// state so that a run can be resumed from where it stopped.
package checkpointer

// Serializable is an object that can save itself to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer saves serializable objects based on the current
// experiment step.
type Checkpointer interface {
	Checkpoint(step int, object Serializable) error
}
