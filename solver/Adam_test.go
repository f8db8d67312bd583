package solver

import (
	"math"
	"testing"

	"github.com/driftline/sholearn/network"
	"github.com/driftline/sholearn/randstream"
)

func testNet(t *testing.T) *network.MLP {
	t.Helper()
	net, err := network.NewMLP(2, 1, []int{4},
		[]*network.Activation{network.Swish()}, network.GlorotU(1.0),
		randstream.New(9).Source())
	if err != nil {
		t.Fatal(err)
	}
	return net
}

// constGradient returns a gradient with every leaf entry set to c.
func constGradient(net *network.MLP, c float64) *network.Gradient {
	grad := network.NewGradient(net)
	grad.Leaves(func(leaf []float64) {
		for i := range leaf {
			leaf[i] = c
		}
	})
	return grad
}

// TestFirstStepMagnitude checks the well-known Adam property that the
// very first update has magnitude ≈ stepSize regardless of the
// gradient scale.
func TestFirstStepMagnitude(t *testing.T) {
	net := testNet(t)
	adam := NewDefaultAdam(1e-3)

	for _, scale := range []float64{1e-4, 1.0, 1e4} {
		updates, _ := adam.Update(constGradient(net, scale), adam.Init(net))

		updates.Leaves(func(leaf []float64) {
			for i := range leaf {
				if math.Abs(math.Abs(leaf[i])-adam.StepSize) > 1e-6 {
					t.Errorf("gradient scale %v: first update %v, want "+
						"magnitude ≈ %v", scale, leaf[i], adam.StepSize)
				}
			}
		})
	}
}

// TestZeroGradientMomentDecay checks that a zero gradient still
// updates the moment accumulators: moments decay rather than being
// skipped, so a previously trained leaf keeps drifting briefly after
// it is frozen.
func TestZeroGradientMomentDecay(t *testing.T) {
	net := testNet(t)
	adam := NewDefaultAdam(1e-3)
	state := adam.Init(net)

	// Build up nonzero moments
	_, state = adam.Update(constGradient(net, 1.0), state)
	mBefore := leafAt(state.M, 0)
	vBefore := leafAt(state.V, 0)

	// Feed a zero gradient: moments must decay by β, not freeze
	updates, state := adam.Update(network.NewGradient(net), state)
	if got, want := leafAt(state.M, 0), adam.Beta1*mBefore; got != want {
		t.Errorf("first moment after zero grad = %v, want %v", got, want)
	}
	if got, want := leafAt(state.V, 0), adam.Beta2*vBefore; got != want {
		t.Errorf("second moment after zero grad = %v, want %v", got, want)
	}

	// The decayed momentum still produces a nonzero update
	if leafAt(updates, 0) == 0 {
		t.Error("zero gradient with live momentum produced a zero update")
	}
	if state.Step != 2 {
		t.Errorf("step = %v, want 2", state.Step)
	}
}

// TestUpdatePure checks that Update does not mutate its inputs.
func TestUpdatePure(t *testing.T) {
	net := testNet(t)
	adam := NewDefaultAdam(1e-3)
	state := adam.Init(net)

	grad := constGradient(net, 0.25)
	_, next := adam.Update(grad, state)

	if leafAt(grad, 0) != 0.25 {
		t.Error("Update mutated the input gradient")
	}
	if leafAt(state.M, 0) != 0 || leafAt(state.V, 0) != 0 || state.Step != 0 {
		t.Error("Update mutated the input state")
	}
	if next == state {
		t.Error("Update returned its input state")
	}
}

// TestNeverTrainedLeafInert checks that a leaf whose gradient has
// always been zero never receives an update, which is what keeps
// target networks fixed.
func TestNeverTrainedLeafInert(t *testing.T) {
	net := testNet(t)
	adam := NewDefaultAdam(1e-3)
	state := adam.Init(net)

	for i := 0; i < 10; i++ {
		var updates *network.Gradient
		updates, state = adam.Update(network.NewGradient(net), state)
		updates.Leaves(func(leaf []float64) {
			for j := range leaf {
				if leaf[j] != 0 {
					t.Fatalf("step %v: zero-history leaf updated by %v", i,
						leaf[j])
				}
			}
		})
	}
}

// leafAt returns the first entry of the first leaf of g.
func leafAt(g *network.Gradient, i int) float64 {
	var out float64
	first := true
	g.Leaves(func(leaf []float64) {
		if first {
			out = leaf[i]
			first = false
		}
	})
	return out
}
