package predictor

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
)

func TestPredictShapes(t *testing.T) {
	const delayDepth = 3
	const obsDims = 4
	const latentDims = 12

	cursor := randstream.New(5)
	pred, err := New(cursor, delayDepth, obsDims, latentDims)
	if err != nil {
		t.Fatal(err)
	}
	if pred.LatentDims() != latentDims {
		t.Errorf("latent dims: got %d want %d", pred.LatentDims(),
			latentDims)
	}

	window := mat.NewVecDense(delayDepth*obsDims, nil)
	latent, err := pred.Predict(window)
	if err != nil {
		t.Fatal(err)
	}
	if latent.Len() != latentDims {
		t.Errorf("latent length: got %d want %d", latent.Len(), latentDims)
	}
}

func TestPredictWrongWindowSize(t *testing.T) {
	cursor := randstream.New(5)
	pred, err := New(cursor, 3, 4, 12)
	if err != nil {
		t.Fatal(err)
	}

	_, err = pred.Predict(mat.NewVecDense(5, nil))
	if err == nil {
		t.Fatal("expected an error for a wrong-size window")
	}
	if !network.IsShapeMismatch(err) {
		t.Errorf("expected a shape mismatch error, got %v", err)
	}
}

// The same sub-stream must yield the same predictor
func TestNewDeterministic(t *testing.T) {
	cursor := randstream.New(9)

	a, err := New(cursor, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(cursor, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}

	window := mat.NewVecDense(6, []float64{0.1, -0.2, 0.3, -0.4, 0.5, -0.6})
	got, err := a.Predict(window)
	if err != nil {
		t.Fatal(err)
	}
	want, err := b.Predict(window)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(got, want) {
		t.Errorf("predictions differ: %v vs %v", mat.Formatted(got),
			mat.Formatted(want))
	}
}
