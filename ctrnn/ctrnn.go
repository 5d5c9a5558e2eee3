// Package ctrnn implements the continuous-time recurrent neural network
// evaluator: a dense weight matrix, state vector, bias vector, and time
// constants, stepped by forward-Euler integration through a fixed steep
// sigmoid, using gonum.org/v1/gonum/mat for the underlying matrix algebra
// with pre-allocated scratch buffers reused across every micro-step.
package ctrnn

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/basalt-evo/ctrneat/genome"
)

// steepness is the fixed CTRNN sigmoid steepness constant:
// σ(z) = 1 / (1 + exp(-4.9·z)).
const steepness = 4.9

// SteepSigmoid is the fixed activation function handle passed to Scenario
// implementations, exported so a scenario can apply the same squashing to
// its own post-processing of CTRNN outputs without hardcoding the
// steepness constant itself.
func SteepSigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-steepness*z))
}

func steepSigmoidElem(_, _ int, z float64) float64 {
	return SteepSigmoid(z)
}

// Evaluator holds the CTRNN's fixed dimensions and pre-allocated buffers.
// All matrices are 1×n row vectors except W, which is n×n. Every buffer is
// allocated once in FromGenome and reused across all micro-steps and
// input applications.
type Evaluator struct {
	n int

	y     *mat.Dense // 1×n state
	theta *mat.Dense // 1×n bias (1 for static/bias nodes, else 0)
	tau   *mat.Dense // 1×n time constants

	w *mat.Dense // n×n weights, w[from,to]

	sensory [2]int
	action  [2]int

	// Scratch buffers, allocated once and reused across Step calls.
	activated *mat.Dense // 1×n, σ(y+θ)
	netInput  *mat.Dense // 1×n, activated · w
	delta     *mat.Dense // 1×n, τ ⊙ (netInput - y) / precision
}

// FromGenome builds an Evaluator from a compiled genome: W[from,to] = the
// weight of the enabled connection from→to (0 where none exists or the
// connection is disabled), θ = 1 for bias/static nodes else 0, τ = 0.1 for
// every node, and sensory/action ranges taken directly from the genome's
// node layout.
func FromGenome(g *genome.Genome) *Evaluator {
	n := g.NodeCount()

	thetaData := make([]float64, n)
	for i := 0; i < n; i++ {
		if g.IsStatic(i) {
			thetaData[i] = 1.0
		}
	}
	tauData := make([]float64, n)
	for i := range tauData {
		tauData[i] = 0.1
	}

	w := mat.NewDense(n, n, nil)
	for _, c := range g.Connections {
		if c.Enabled {
			w.Set(c.Source, c.Target, c.Weight)
		}
	}

	sLo, sHi := g.SensoryRange()
	aLo, aHi := g.ActionRange()

	return &Evaluator{
		n:         n,
		y:         mat.NewDense(1, n, nil),
		theta:     mat.NewDense(1, n, thetaData),
		tau:       mat.NewDense(1, n, tauData),
		w:         w,
		sensory:   [2]int{sLo, sHi},
		action:    [2]int{aLo, aHi},
		activated: mat.NewDense(1, n, nil),
		netInput:  mat.NewDense(1, n, nil),
		delta:     mat.NewDense(1, n, nil),
	}
}

// Flush zeros the state vector, used between unrelated evaluations of the
// same compiled network.
func (e *Evaluator) Flush() {
	e.y.Zero()
}

// Step integrates the network for precision micro-steps with input
// clamped into the sensory slots of the state vector at every micro-step:
//
//	for step in 1..=precision:
//	    a = σ(y + θ)
//	    y ← y + τ ⊙ (W·a − y) / precision
//	    y[sensory] ← input
//
// Output is read via Output() afterward — raw, unsquashed action-range
// state values.
func (e *Evaluator) Step(precision int, input []float64) {
	inv := 1.0 / float64(precision)

	for step := 0; step < precision; step++ {
		e.activated.Add(e.y, e.theta)
		e.activated.Apply(steepSigmoidElem, e.activated)

		e.netInput.Mul(e.activated, e.w)

		e.delta.Sub(e.netInput, e.y)
		e.delta.MulElem(e.delta, e.tau)
		e.delta.Scale(inv, e.delta)

		e.y.Add(e.y, e.delta)

		for i, lo := 0, e.sensory[0]; lo+i < e.sensory[1] && i < len(input); i++ {
			e.y.Set(0, lo+i, input[i])
		}
	}
}

// Output returns the raw (unsquashed) state values at the action indices.
func (e *Evaluator) Output() []float64 {
	lo, hi := e.action[0], e.action[1]
	out := make([]float64, hi-lo)
	for i := range out {
		out[i] = e.y.At(0, lo+i)
	}
	return out
}
