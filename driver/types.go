package driver

import (
	"github.com/google/uuid"

	"github.com/basalt-evo/ctrneat/genome"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/rng"
	"github.com/basalt-evo/ctrneat/species"
)

// ActivationFunc is the fixed activation handle the driver passes to
// Scenario.Eval (always ctrnn.SteepSigmoid in practice).
type ActivationFunc func(float64) float64

// Scenario is the external collaborator supplied by the caller: given a
// genome and the activation handle, it returns a scalar fitness,
// higher-is-better. May be invoked many times per generation and must be
// referentially transparent w.r.t. its inputs for determinism. The rng
// argument exists for scenarios whose evaluation is itself stochastic;
// under parallel evaluation each worker is handed a distinct,
// deterministically-derived sub-RNG.
type Scenario interface {
	IO() (nSensory, nAction int)
	Eval(g *genome.Genome, sigma ActivationFunc, r *rng.Source) float64
}

// Initializer builds the initial flat population and the innovation
// registry it was built with, given the scenario's (n_sensory, n_action)
// pair.
type Initializer func(nSensory, nAction, populationSize int, r *rng.Source) ([]*genome.Genome, *innov.Registry)

// Decision is a termination hook's verdict.
type Decision int

const (
	Continue Decision = iota
	Stop
)

// Snapshot is the read-only generation view passed to termination hooks
// and logged by the driver once a generation finishes evaluating.
type Snapshot struct {
	RunID      uuid.UUID
	Generation int
	Species    []*species.Species
	Best       *genome.Genome
	BestFitness float64
	MeanFitness float64
	MinFitness  float64
}

// TerminationHook observes a generation snapshot and may halt evolution by
// returning Stop. Hooks run in registration order; the first to return
// Stop ends the run.
type TerminationHook func(Snapshot) Decision
