// Package network implements feed-forward neural network function
// approximators with analytic forward and backward passes.
//
// Networks here are small fixed-architecture MLPs evaluated one
// sample at a time, with gradients computed by explicit
// backpropagation rather than a computational graph. This keeps
// parameters as plain values: an MLP is never mutated in place, and
// parameter updates produce a fresh MLP, so agent state built on top
// of this package can be threaded and checkpointed by value.
package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// MLP is a fully-connected feed-forward network. Layer l multiplies
// by an (in × out) weight matrix, adds a bias, and applies the
// layer's activation. The output layer is always linear.
type MLP struct {
	features int
	outputs  int
	weights  []*mat.Dense
	biases   []*mat.VecDense
	acts     []*Activation
}

// NewMLP returns a new MLP with the given input and output
// dimensions and hidden layer sizes. The activations parameter holds
// one activation per hidden layer; the output layer is linear. Both
// weights and biases are initialized with init, with fans taken from
// the layer the parameter belongs to.
func NewMLP(features, outputs int, hiddenSizes []int,
	activations []*Activation, init InitWFn, src rand.Source) (*MLP, error) {
	if features < 1 || outputs < 1 {
		return nil, fmt.Errorf("newmlp: features and outputs must be >= 1")
	}
	if len(activations) != len(hiddenSizes) {
		return nil, fmt.Errorf("newmlp: require one activation per hidden "+
			"layer \n\twant(%v)\n\thave(%v)", len(hiddenSizes),
			len(activations))
	}

	sizes := make([]int, 0, len(hiddenSizes)+2)
	sizes = append(sizes, features)
	sizes = append(sizes, hiddenSizes...)
	sizes = append(sizes, outputs)

	numLayers := len(sizes) - 1
	weights := make([]*mat.Dense, numLayers)
	biases := make([]*mat.VecDense, numLayers)
	acts := make([]*Activation, numLayers)

	for l := 0; l < numLayers; l++ {
		in, out := sizes[l], sizes[l+1]

		weights[l] = mat.NewDense(in, out, init(in, out, in*out, src))
		biases[l] = mat.NewVecDense(out, init(in, out, out, src))

		if l < numLayers-1 {
			acts[l] = activations[l]
		} else {
			acts[l] = Identity()
		}
	}

	return &MLP{
		features: features,
		outputs:  outputs,
		weights:  weights,
		biases:   biases,
		acts:     acts,
	}, nil
}

// Features returns the number of input features of the MLP
func (m *MLP) Features() int {
	return m.features
}

// Outputs returns the number of outputs of the MLP
func (m *MLP) Outputs() int {
	return m.outputs
}

// numLayers returns the number of weight layers of the MLP
func (m *MLP) numLayers() int {
	return len(m.weights)
}

// Clone returns a structural deep copy of the MLP. Training the clone
// never alters the original; this is how target networks are split
// off from their source networks.
func (m *MLP) Clone() *MLP {
	weights := make([]*mat.Dense, m.numLayers())
	biases := make([]*mat.VecDense, m.numLayers())
	acts := make([]*Activation, m.numLayers())

	for l := 0; l < m.numLayers(); l++ {
		weights[l] = mat.DenseCopyOf(m.weights[l])

		bias := mat.NewVecDense(m.biases[l].Len(), nil)
		bias.CloneFromVec(m.biases[l])
		biases[l] = bias

		act := *m.acts[l]
		acts[l] = &act
	}

	return &MLP{
		features: m.features,
		outputs:  m.outputs,
		weights:  weights,
		biases:   biases,
		acts:     acts,
	}
}

// forward runs the forward pass on a single input sample, returning
// the per-layer inputs and pre-activations needed for backprop. The
// final entry of inputs is the network output.
func (m *MLP) forward(x *mat.VecDense) (inputs []*mat.VecDense,
	preacts []*mat.VecDense) {
	inputs = make([]*mat.VecDense, m.numLayers()+1)
	preacts = make([]*mat.VecDense, m.numLayers())
	inputs[0] = x

	for l := 0; l < m.numLayers(); l++ {
		out := m.biases[l].Len()

		z := mat.NewVecDense(out, nil)
		z.MulVec(m.weights[l].T(), inputs[l])
		z.AddVec(z, m.biases[l])
		preacts[l] = z

		a := mat.NewVecDense(out, nil)
		for i := 0; i < out; i++ {
			a.SetVec(i, m.acts[l].fwd(z.AtVec(i)))
		}
		inputs[l+1] = a
	}

	return inputs, preacts
}

// Predict runs the forward pass on a single input sample and returns
// the network output.
func (m *MLP) Predict(input []float64) ([]float64, error) {
	if len(input) != m.features {
		return nil, &NetworkError{Op: "predict", Err: errShapeMismatch}
	}

	inputs, _ := m.forward(mat.NewVecDense(len(input), input))
	out := inputs[len(inputs)-1]

	output := make([]float64, m.outputs)
	copy(output, out.RawVector().Data)
	return output, nil
}

// Backprop runs a forward and backward pass on a single input sample.
// The outputGrad parameter is the gradient of the loss with respect
// to the network output. Backprop returns the gradient with respect
// to every weight and bias, together with the gradient with respect
// to the input, which callers use to chain gradients through
// composed networks.
func (m *MLP) Backprop(input, outputGrad []float64) (*Gradient, []float64,
	error) {
	if len(input) != m.features {
		return nil, nil, &NetworkError{Op: "backprop", Err: errShapeMismatch}
	}
	if len(outputGrad) != m.outputs {
		return nil, nil, &NetworkError{Op: "backprop", Err: errShapeMismatch}
	}

	inputs, preacts := m.forward(mat.NewVecDense(len(input), input))

	grad := NewGradient(m)
	da := mat.NewVecDense(m.outputs, nil)
	copy(da.RawVector().Data, outputGrad)

	for l := m.numLayers() - 1; l >= 0; l-- {
		out := m.biases[l].Len()

		// dz = da ⊙ act'(z)
		dz := mat.NewVecDense(out, nil)
		for i := 0; i < out; i++ {
			dz.SetVec(i, da.AtVec(i)*m.acts[l].deriv(preacts[l].AtVec(i)))
		}

		// dW = a · dzᵀ, db = dz
		grad.Weights[l].Outer(1.0, inputs[l], dz)
		grad.Biases[l].CopyVec(dz)

		// da for the layer below
		prev := mat.NewVecDense(m.weights[l].RawMatrix().Rows, nil)
		prev.MulVec(m.weights[l], dz)
		da = prev
	}

	inputGrad := make([]float64, m.features)
	copy(inputGrad, da.RawVector().Data)
	return grad, inputGrad, nil
}

// ApplyUpdates returns a new MLP whose parameters are the receiver's
// plus the given updates. The receiver is unchanged.
func (m *MLP) ApplyUpdates(updates *Gradient) (*MLP, error) {
	if len(updates.Weights) != m.numLayers() {
		return nil, &NetworkError{Op: "applyupdates", Err: errShapeMismatch}
	}

	next := m.Clone()
	for l := 0; l < next.numLayers(); l++ {
		next.weights[l].Add(next.weights[l], updates.Weights[l])
		next.biases[l].AddVec(next.biases[l], updates.Biases[l])
	}
	return next, nil
}

// Equal returns whether two MLPs have identical architecture and
// bit-identical parameters.
func (m *MLP) Equal(other *MLP) bool {
	if m.features != other.features || m.outputs != other.outputs ||
		m.numLayers() != other.numLayers() {
		return false
	}
	for l := 0; l < m.numLayers(); l++ {
		if !mat.Equal(m.weights[l], other.weights[l]) {
			return false
		}
		if !mat.Equal(m.biases[l], other.biases[l]) {
			return false
		}
	}
	return true
}

// mlpGob is the gob wire representation of an MLP
type mlpGob struct {
	Features int
	Outputs  int
	Acts     []*Activation
	Rows     []int
	Cols     []int
	Weights  [][]float64
	Biases   [][]float64
}

// GobEncode implements the GobEncoder interface
func (m *MLP) GobEncode() ([]byte, error) {
	encoded := mlpGob{
		Features: m.features,
		Outputs:  m.outputs,
		Acts:     m.acts,
		Rows:     make([]int, m.numLayers()),
		Cols:     make([]int, m.numLayers()),
		Weights:  make([][]float64, m.numLayers()),
		Biases:   make([][]float64, m.numLayers()),
	}
	for l := 0; l < m.numLayers(); l++ {
		raw := m.weights[l].RawMatrix()
		encoded.Rows[l] = raw.Rows
		encoded.Cols[l] = raw.Cols
		encoded.Weights[l] = raw.Data
		encoded.Biases[l] = m.biases[l].RawVector().Data
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(encoded); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode mlp: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the GobDecoder interface
func (m *MLP) GobDecode(data []byte) error {
	var encoded mlpGob
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&encoded)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode mlp: %v", err)
	}

	numLayers := len(encoded.Weights)
	m.features = encoded.Features
	m.outputs = encoded.Outputs
	m.acts = encoded.Acts
	m.weights = make([]*mat.Dense, numLayers)
	m.biases = make([]*mat.VecDense, numLayers)
	for l := 0; l < numLayers; l++ {
		m.weights[l] = mat.NewDense(encoded.Rows[l], encoded.Cols[l],
			encoded.Weights[l])
		m.biases[l] = mat.NewVecDense(len(encoded.Biases[l]),
			encoded.Biases[l])
	}
	return nil
}

// Gradient holds one value per MLP parameter, in the same shapes as
// the MLP it was created from. Gradients double as optimizer moment
// accumulators and as parameter update trees.
type Gradient struct {
	Weights []*mat.Dense
	Biases  []*mat.VecDense
}

// NewGradient returns a zero Gradient shaped like net's parameters.
func NewGradient(net *MLP) *Gradient {
	weights := make([]*mat.Dense, net.numLayers())
	biases := make([]*mat.VecDense, net.numLayers())

	for l := 0; l < net.numLayers(); l++ {
		raw := net.weights[l].RawMatrix()
		weights[l] = mat.NewDense(raw.Rows, raw.Cols, nil)
		biases[l] = mat.NewVecDense(net.biases[l].Len(), nil)
	}

	return &Gradient{Weights: weights, Biases: biases}
}

// Add accumulates other into the receiver elementwise.
func (g *Gradient) Add(other *Gradient) error {
	if len(other.Weights) != len(g.Weights) {
		return &NetworkError{Op: "add", Err: errShapeMismatch}
	}
	for l := range g.Weights {
		g.Weights[l].Add(g.Weights[l], other.Weights[l])
		g.Biases[l].AddVec(g.Biases[l], other.Biases[l])
	}
	return nil
}

// Scale multiplies every entry of the Gradient by alpha.
func (g *Gradient) Scale(alpha float64) {
	for l := range g.Weights {
		g.Weights[l].Scale(alpha, g.Weights[l])
		g.Biases[l].ScaleVec(alpha, g.Biases[l])
	}
}

// Leaves calls f once per parameter leaf with the leaf's raw backing
// data. Mutating the slice mutates the Gradient.
func (g *Gradient) Leaves(f func(leaf []float64)) {
	for l := range g.Weights {
		f(g.Weights[l].RawMatrix().Data)
		f(g.Biases[l].RawVector().Data)
	}
}

// Clone returns a deep copy of the Gradient.
func (g *Gradient) Clone() *Gradient {
	weights := make([]*mat.Dense, len(g.Weights))
	biases := make([]*mat.VecDense, len(g.Biases))
	for l := range g.Weights {
		weights[l] = mat.DenseCopyOf(g.Weights[l])

		bias := mat.NewVecDense(g.Biases[l].Len(), nil)
		bias.CloneFromVec(g.Biases[l])
		biases[l] = bias
	}
	return &Gradient{Weights: weights, Biases: biases}
}

// gradientGob is the gob wire representation of a Gradient
type gradientGob struct {
	Rows    []int
	Cols    []int
	Weights [][]float64
	Biases  [][]float64
}

// GobEncode implements the GobEncoder interface
func (g *Gradient) GobEncode() ([]byte, error) {
	encoded := gradientGob{
		Rows:    make([]int, len(g.Weights)),
		Cols:    make([]int, len(g.Weights)),
		Weights: make([][]float64, len(g.Weights)),
		Biases:  make([][]float64, len(g.Biases)),
	}
	for l := range g.Weights {
		raw := g.Weights[l].RawMatrix()
		encoded.Rows[l] = raw.Rows
		encoded.Cols[l] = raw.Cols
		encoded.Weights[l] = raw.Data
		encoded.Biases[l] = g.Biases[l].RawVector().Data
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(encoded); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode gradient: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the GobDecoder interface
func (g *Gradient) GobDecode(data []byte) error {
	var encoded gradientGob
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&encoded)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode gradient: %v", err)
	}

	g.Weights = make([]*mat.Dense, len(encoded.Weights))
	g.Biases = make([]*mat.VecDense, len(encoded.Biases))
	for l := range encoded.Weights {
		g.Weights[l] = mat.NewDense(encoded.Rows[l], encoded.Cols[l],
			encoded.Weights[l])
		g.Biases[l] = mat.NewVecDense(len(encoded.Biases[l]),
			encoded.Biases[l])
	}
	return nil
}
