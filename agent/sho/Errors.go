package sho

import "errors"

// AgentError implements errors unique to the SHO agent.
type AgentError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *AgentError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errShapeMismatch = errors.New("observation length does not match " +
	"latent dimension")

var errNonFinite = errors.New("non-finite value in loss, gradient, or " +
	"updated parameters")

// IsShapeMismatch returns whether or not an error reports that an
// observation vector had the wrong length for the agent it was given
// to. Shape mismatches are programming errors raised synchronously at
// the call boundary; they are not recoverable locally.
func IsShapeMismatch(err error) bool {
	if agentErr, ok := err.(*AgentError); ok {
		err = agentErr.Err
	}
	return err == errShapeMismatch
}

// IsNonFinite returns whether or not an error reports a NaN or Inf in
// the loss, a gradient, or updated parameters. Non-finite values
// propagate to the caller rather than being clamped or skipped:
// masking them would corrupt subsequent training silently. The
// surrounding application decides whether to abort or restart from a
// checkpoint.
func IsNonFinite(err error) bool {
	if agentErr, ok := err.(*AgentError); ok {
		err = agentErr.Err
	}
	return err == errNonFinite
}
