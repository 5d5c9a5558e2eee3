package driver

import (
	"github.com/basalt-evo/ctrneat/genome"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/rng"
)

// DefaultInitializer constructs each genome with all edges from
// (sensory ∪ bias) → action enabled, weights drawn uniformly from
// [-3, 3]. All genomes share one registry so identical edges receive
// identical innovation ids from the start.
func DefaultInitializer(nSensory, nAction, populationSize int, r *rng.Source) ([]*genome.Genome, *innov.Registry) {
	reg := innov.New(0)
	pop := make([]*genome.Genome, populationSize)
	for i := range pop {
		pop[i] = genome.New(nSensory, nAction, reg, r)
	}
	return pop, reg
}

// DiverseInitializer builds population/2 single-connection genomes, each
// duplicated into a pair (plus one unpaired genome for an odd population),
// so the first speciation pass already exhibits topological diversity.
// Each genome's connection is drawn at random, so two genomes are not
// guaranteed to differ from one another. Callers using this initializer should
// set Driver.InitialSpeciesCap to population/2 so each pair can found its
// own species.
func DiverseInitializer(nSensory, nAction, populationSize int, r *rng.Source) ([]*genome.Genome, *innov.Registry) {
	reg := innov.New(0)
	numUnique := populationSize / 2
	pop := make([]*genome.Genome, 0, populationSize)
	for i := 0; i < numUnique; i++ {
		g := genome.NewSingleConnection(nSensory, nAction, reg, r)
		pop = append(pop, g, g.Clone())
	}
	if populationSize%2 == 1 {
		pop = append(pop, genome.NewSingleConnection(nSensory, nAction, reg, r))
	}
	return pop, reg
}
