package reproduce

import (
	"testing"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/genome"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/rng"
	"github.com/basalt-evo/ctrneat/species"
)

func buildSpecies(reg *innov.Registry, r *rng.Source, n int) *species.Species {
	sp := &species.Species{ID: 1}
	for i := 0; i < n; i++ {
		g := genome.New(2, 1, reg, r)
		g.Fitness = float64(i + 1)
		sp.Members = append(sp.Members, species.Member{Genome: g, Fitness: g.Fitness})
	}
	return sp
}

func TestReproduceProducesExactlyTheAllocatedSlotCount(t *testing.T) {
	cfg := config.Default()
	reg := innov.New(0)
	r := rng.New(1)
	sp := buildSpecies(reg, r, 6)

	offspring := Reproduce([]*species.Species{sp}, []int{10}, cfg, reg, r)
	if len(offspring) != 10 {
		t.Fatalf("expected 10 offspring, got %d", len(offspring))
	}
}

func TestReproducePreservesChampionUnmutated(t *testing.T) {
	cfg := config.Default()
	reg := innov.New(0)
	r := rng.New(1)
	sp := buildSpecies(reg, r, 4)

	var best *genome.Genome
	for _, m := range sp.Members {
		if best == nil || m.Fitness > best.Fitness {
			best = m.Genome
		}
	}

	offspring := Reproduce([]*species.Species{sp}, []int{4}, cfg, reg, r)

	var foundChampion bool
	for _, child := range offspring {
		if len(child.Connections) == len(best.Connections) {
			match := true
			for i, c := range child.Connections {
				if c != best.Connections[i] {
					match = false
					break
				}
			}
			if match {
				foundChampion = true
				break
			}
		}
	}
	if !foundChampion {
		t.Fatalf("expected the unmutated champion to appear among the offspring")
	}
}

func TestReproduceWithSingleMemberFallsBackToCloneOnly(t *testing.T) {
	cfg := config.Default()
	cfg.ChampionPreservation = 0
	reg := innov.New(0)
	r := rng.New(1)
	sp := buildSpecies(reg, r, 1)

	offspring := Reproduce([]*species.Species{sp}, []int{5}, cfg, reg, r)
	if len(offspring) != 5 {
		t.Fatalf("expected 5 offspring from a single-member species, got %d", len(offspring))
	}
}

func TestReproduceSkipsZeroSlotSpecies(t *testing.T) {
	cfg := config.Default()
	reg := innov.New(0)
	r := rng.New(1)
	sp1 := buildSpecies(reg, r, 4)
	sp2 := buildSpecies(reg, r, 4)

	offspring := Reproduce([]*species.Species{sp1, sp2}, []int{0, 6}, cfg, reg, r)
	if len(offspring) != 6 {
		t.Fatalf("expected 6 offspring (only from the species with slots), got %d", len(offspring))
	}
}
