package network

import "errors"

// NetworkError implements errors unique to neural network function
// approximators.
type NetworkError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errShapeMismatch = errors.New("vector length does not match network shape")

// IsShapeMismatch returns whether or not an error reports that an
// input or gradient vector had the wrong length for the network it
// was given to. Shape mismatches are programming errors and are
// raised synchronously at the call boundary.
func IsShapeMismatch(err error) bool {
	if netErr, ok := err.(*NetworkError); ok {
		err = netErr.Err
	}
	return err == errShapeMismatch
}
