// Package reproduce implements per-species offspring production: champion
// preservation, asexual clone+mutate, and crossover+mutate. Each species
// fills its allocated slots champion-first, then a copy-ratio fraction of
// mutated clones, then crossover+mutate for the rest.
package reproduce

import (
	"math"
	"sort"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/genome"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/rng"
	"github.com/basalt-evo/ctrneat/species"
)

// Reproduce produces the next flat generation of genomes from the current
// species list and their allocated slot counts (species.Allocate's
// output, same order). Mutation draws from the shared registry so that
// identical structural mutations across siblings receive matching
// innovation ids.
func Reproduce(all []*species.Species, slots []int, cfg *config.Config, reg *innov.Registry, r *rng.Source) []*genome.Genome {
	var next []*genome.Genome

	for i, sp := range all {
		k := slots[i]
		if k <= 0 || len(sp.Members) == 0 {
			continue
		}
		next = append(next, reproduceSpecies(sp, k, cfg, reg, r)...)
	}
	return next
}

func reproduceSpecies(sp *species.Species, k int, cfg *config.Config, reg *innov.Registry, r *rng.Source) []*genome.Genome {
	members := append([]species.Member(nil), sp.Members...)
	sort.SliceStable(members, func(a, b int) bool {
		return members[a].Fitness > members[b].Fitness
	})

	offspring := make([]*genome.Genome, 0, k)
	remaining := k

	if cfg.ChampionPreservation > 0 && k >= cfg.ChampionPreservation {
		champion := members[0].Genome.Clone()
		champion.Fitness = members[0].Fitness
		offspring = append(offspring, champion)
		remaining--
	}
	if remaining <= 0 {
		return offspring
	}

	numCopy := int(math.Ceil(cfg.ReproductionCopyRatio * float64(k)))
	if numCopy > remaining {
		numCopy = remaining
	}
	if len(members) < 2 {
		// No second parent available for crossover; every remaining slot
		// becomes a clone+mutate instead.
		numCopy = remaining
	}
	for c := 0; c < numCopy; c++ {
		parent := members[r.Intn(len(members))]
		child := parent.Genome.Clone()
		child.Fitness = 0
		child.Mutate(cfg, reg, r)
		offspring = append(offspring, child)
	}
	remaining -= numCopy

	if remaining == 0 {
		return offspring
	}

	weights := make([]float64, len(members))
	for idx, m := range members {
		weights[idx] = m.Fitness
	}
	for c := 0; c < remaining; c++ {
		p1, p2 := pickDistinctParents(members, weights, r)
		child := genome.Crossover(p1.Genome, p2.Genome, p1.Fitness, p2.Fitness, cfg, r)
		child.Mutate(cfg, reg, r)
		offspring = append(offspring, child)
	}
	return offspring
}

// pickDistinctParents selects two distinct members via fitness-weighted
// sampling (if ten weighted redraws all repeat the first parent, the
// second is drawn uniformly from the other members), falling back to
// whatever single member exists if the species has only one (crossover
// with itself, effectively a mutated clone).
func pickDistinctParents(members []species.Member, weights []float64, r *rng.Source) (species.Member, species.Member) {
	i1 := r.WeightedIndex(weights)
	if len(members) == 1 {
		return members[i1], members[i1]
	}
	i2 := i1
	for attempt := 0; attempt < 10 && i2 == i1; attempt++ {
		i2 = r.WeightedIndex(weights)
	}
	if i2 == i1 {
		i2 = (i1 + 1 + r.Intn(len(members)-1)) % len(members)
	}
	return members[i1], members[i2]
}
