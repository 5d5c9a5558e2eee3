// Package species implements species tracking, a first-match speciator,
// and a largest-remainder population allocator.
//
// Speciation uses first-match rather than nearest-match placement: a
// genome joins the first existing species it's compatible with, matching
// classical NEAT's behavior. An optional max-species cap folds genomes
// into the closest existing species once reached, rather than opening new
// ones indefinitely — useful alongside a hand-built diverse starting
// population. Allocation distributes population slots across species by
// Hamilton's largest-remainder method so the total always matches the
// target population size exactly.
package species

import (
	"math"
	"sort"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/genome"
)

// Member pairs a genome with its raw fitness from the current generation's
// evaluation.
type Member struct {
	Genome  *genome.Genome
	Fitness float64
}

// Species is a representative genome's connections plus the members
// assigned to it this generation, with the stagnation bookkeeping the
// driver needs for the allocator's forced-zero override.
type Species struct {
	ID int

	// Repr is a frozen snapshot of a genome's connections from the
	// generation in which this species was seeded or last re-represented.
	Repr []genome.Connection

	Members []Member

	BestFitnessEver             float64
	GenerationsSinceImprovement int
}

// AdjustedFitness is the mean raw fitness of the species' members —
// fitness sharing that penalizes large species for their raw member count.
func (s *Species) AdjustedFitness() float64 {
	if len(s.Members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range s.Members {
		sum += m.Fitness
	}
	return sum / float64(len(s.Members))
}

// BestFitness returns the maximum raw fitness among this generation's
// members, or negative infinity if the species has no members.
func (s *Species) BestFitness() float64 {
	best := math.Inf(-1)
	for _, m := range s.Members {
		if m.Fitness > best {
			best = m.Fitness
		}
	}
	return best
}

// Speciate partitions a scored population into species:
//
//  1. Start from prevSpecies with members cleared; representatives kept.
//  2. For each (genome, fitness), place it into the first species whose
//     representative has δ < threshold (first-match, not nearest-match).
//  3. If none matches, open a new species with this genome as its
//     representative.
//  4. Drop species left with no members.
//
// maxSpecies, if non-zero, forces genomes into the closest existing
// species once the cap is reached instead of opening a new one — used
// alongside the diverse population initializer's first generation.
func Speciate(prevSpecies []*Species, scored []Member, cfg *config.Config, maxSpecies int, nextID *int) []*Species {
	working := make([]*Species, len(prevSpecies))
	for i, s := range prevSpecies {
		working[i] = &Species{
			ID:                          s.ID,
			Repr:                        s.Repr,
			BestFitnessEver:             s.BestFitnessEver,
			GenerationsSinceImprovement: s.GenerationsSinceImprovement,
		}
	}

	for _, m := range scored {
		placed := false
		for _, sp := range working {
			if delta(sp.Repr, m.Genome, cfg) < cfg.SpecieThreshold {
				sp.Members = append(sp.Members, m)
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		if maxSpecies > 0 && len(working) >= maxSpecies {
			closest := working[0]
			best := delta(closest.Repr, m.Genome, cfg)
			for _, sp := range working[1:] {
				if d := delta(sp.Repr, m.Genome, cfg); d < best {
					best = d
					closest = sp
				}
			}
			closest.Members = append(closest.Members, m)
			continue
		}

		*nextID++
		working = append(working, &Species{
			ID:      *nextID,
			Repr:    append([]genome.Connection(nil), m.Genome.Connections...),
			Members: []Member{m},
		})
	}

	out := working[:0]
	for _, sp := range working {
		if len(sp.Members) > 0 {
			out = append(out, sp)
		}
	}
	return out
}

// delta computes the compatibility distance between a representative's
// frozen connections and a live genome by wrapping repr in a throwaway
// genome value (Distance reads only Connections, so the node counts are
// left zero).
func delta(repr []genome.Connection, g *genome.Genome, cfg *config.Config) float64 {
	reprGenome := &genome.Genome{Connections: repr}
	return reprGenome.Distance(g, cfg)
}

// UpdateStagnation advances each species' best-ever fitness and
// no-improvement counter: if this generation's max raw fitness exceeds
// BestFitnessEver, update and reset the counter; otherwise increment it.
func UpdateStagnation(all []*Species) {
	for _, sp := range all {
		if best := sp.BestFitness(); best > sp.BestFitnessEver {
			sp.BestFitnessEver = best
			sp.GenerationsSinceImprovement = 0
		} else {
			sp.GenerationsSinceImprovement++
		}
	}
}

// SortByAdjustedFitnessDesc is a small helper used by callers needing a
// stable ranking over species (e.g. for reporting).
func SortByAdjustedFitnessDesc(all []*Species) {
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].AdjustedFitness() > all[j].AdjustedFitness()
	})
}
