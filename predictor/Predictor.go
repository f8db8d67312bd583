// Package predictor implements a delay-embedding state predictor: a
// forward-only network that maps a window of past observations to a
// latent state estimate for a driving agent. The predictor has no
// training loop; its value lies in giving the agent a fixed latent
// coordinate system.
package predictor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
)

// Network architecture
const (
	HiddenLayers int = 3
	HiddenWidth  int = 32
)

// Predictor maps flattened observation windows to latent states
type Predictor struct {
	net        *network.MLP
	windowSize int
	latentDims int
}

// New returns a Predictor for observation windows of delayDepth
// snapshots of obsDims features each, producing latent states of
// latentDims features. The network weights are drawn from the given
// random sub-stream.
func New(cursor randstream.Cursor, delayDepth, obsDims,
	latentDims int) (*Predictor, error) {
	sizes := make([]int, HiddenLayers)
	acts := make([]*network.Activation, HiddenLayers)
	for i := range sizes {
		sizes[i] = HiddenWidth
		acts[i] = network.Swish()
	}

	windowSize := delayDepth * obsDims
	net, err := network.NewMLP(windowSize, latentDims, sizes, acts,
		network.GlorotU(1.0), cursor.Source())
	if err != nil {
		return nil, err
	}

	return &Predictor{
		net:        net,
		windowSize: windowSize,
		latentDims: latentDims,
	}, nil
}

// LatentDims returns the size of the predicted latent states
func (p *Predictor) LatentDims() int {
	return p.latentDims
}

// Predict returns the latent state estimate for a flattened
// observation window, oldest snapshot first.
func (p *Predictor) Predict(window mat.Vector) (*mat.VecDense, error) {
	flat := make([]float64, window.Len())
	for i := range flat {
		flat[i] = window.AtVec(i)
	}

	latent, err := p.net.Predict(flat)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(latent), latent), nil
}
