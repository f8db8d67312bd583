package network

import (
	"fmt"
	"math"
)

type activationType string

const (
	swish    activationType = "swish"
	identity activationType = "identity"
)

// Activation represents an activation function type. Activations hold
// both the function and its derivative so that networks can run an
// analytic backward pass.
type Activation struct {
	activationType
	f  func(x float64) float64
	df func(x float64) float64
}

// fwd applies the activation elementwise
func (a *Activation) fwd(x float64) float64 {
	return a.f(x)
}

// deriv evaluates the activation's derivative at x
func (a *Activation) deriv(x float64) float64 {
	return a.df(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded := activationType(encoded)
	switch decoded {
	case swish:
		*a = *Swish()
	case identity:
		*a = *Identity()
	default:
		return fmt.Errorf("gobdecode: illegal Activation type")
	}
	return nil
}

// sigmoid is the logistic function
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Swish returns a swish (sigmoid-weighted linear) *Activation. Swish
// is smooth everywhere, which keeps the Bellman loss differentiable
// through every layer.
func Swish() *Activation {
	return &Activation{
		activationType: swish,
		f: func(x float64) float64 {
			return x * sigmoid(x)
		},
		df: func(x float64) float64 {
			s := sigmoid(x)
			return s * (1.0 + x*(1.0-s))
		},
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x float64) float64 {
			return x
		},
		df: func(x float64) float64 {
			return 1.0
		},
	}
}
