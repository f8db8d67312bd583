package oscillator

import "errors"

// OscillatorError implements errors unique to the oscillator
// simulator.
type OscillatorError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *OscillatorError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errSignalSize error = errors.New("control signal has wrong size")

var errDiverged = errors.New("integration diverged")

// IsDiverged returns whether or not an error reports that the
// simulation left the amplitude bounds.
func IsDiverged(err error) bool {
	if oscErr, ok := err.(*OscillatorError); ok {
		err = oscErr.Err
	}
	return err == errDiverged
}
