package species

import (
	"testing"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/genome"
)

func speciesWithMembers(id int, fitnesses ...float64) *Species {
	sp := &Species{ID: id}
	for _, f := range fitnesses {
		sp.Members = append(sp.Members, Member{Genome: &genome.Genome{}, Fitness: f})
	}
	return sp
}

func neverHoldsBest(*Species) bool { return false }

// TestAllocateWorkedExample checks a worked numeric example: species with
// adjusted fitnesses [10.0, 5.0, 3.0] and target 1000 slots. Proportional
// shares are [555.56, 277.78, 166.67]; floors [555, 277, 166] sum to 998,
// leaving 2 remainder slots to distribute by largest fractional part
// (species 1's .78, then species 2's .67).
func TestAllocateWorkedExample(t *testing.T) {
	all := []*Species{
		speciesWithMembers(0, 10.0),
		speciesWithMembers(1, 5.0),
		speciesWithMembers(2, 3.0),
	}
	cfg := config.Default()
	alloc := Allocate(all, 1000, cfg, neverHoldsBest)

	sum := 0
	for _, v := range alloc {
		sum += v
	}
	if sum != 1000 {
		t.Fatalf("expected slots to sum to 1000, got %d (%v)", sum, alloc)
	}
	for _, v := range alloc {
		if v < 0 {
			t.Fatalf("expected no negative allocation, got %v", alloc)
		}
	}
	// Monotonic: higher adjusted fitness must not receive fewer slots.
	if !(alloc[0] >= alloc[1] && alloc[1] >= alloc[2]) {
		t.Fatalf("expected monotonic allocation by fitness rank, got %v", alloc)
	}
}

// TestAllocateHandlesNegativeFitness checks a second worked example:
// [-5.0, 10.0] at target 1000 — allocation must still sum exactly to
// 1000 and remain non-negative after the negative-shift step.
func TestAllocateHandlesNegativeFitness(t *testing.T) {
	all := []*Species{
		speciesWithMembers(0, -5.0),
		speciesWithMembers(1, 10.0),
	}
	cfg := config.Default()
	alloc := Allocate(all, 1000, cfg, neverHoldsBest)

	if sum := alloc[0] + alloc[1]; sum != 1000 {
		t.Fatalf("expected slots to sum to 1000, got %d (%v)", sum, alloc)
	}
	if alloc[0] < 0 || alloc[1] < 0 {
		t.Fatalf("expected no negative allocation, got %v", alloc)
	}
	if alloc[1] <= alloc[0] {
		t.Fatalf("expected the higher-fitness species to receive more slots, got %v", alloc)
	}
}

// TestAllocateExcludesStagnantSpeciesButPreservesSum checks the
// stagnation eviction property: a species stagnant beyond
// no_improvement_truncate generations, not holding the global best, gets
// exactly 0 slots — and the full target is still redistributed across
// the remaining species exactly.
func TestAllocateExcludesStagnantSpeciesButPreservesSum(t *testing.T) {
	stagnant := speciesWithMembers(0, 10.0)
	stagnant.GenerationsSinceImprovement = 11 // > default no_improvement_truncate of 10

	healthy := speciesWithMembers(1, 5.0)

	cfg := config.Default()
	alloc := Allocate([]*Species{stagnant, healthy}, 100, cfg, neverHoldsBest)

	if alloc[0] != 0 {
		t.Fatalf("expected the stagnant species to receive 0 slots, got %d", alloc[0])
	}
	if alloc[1] != 100 {
		t.Fatalf("expected the entire target to go to the surviving species, got %d", alloc[1])
	}
}

func TestAllocateSpareStagnantSpeciesHoldingGlobalBest(t *testing.T) {
	stagnant := speciesWithMembers(0, 10.0)
	stagnant.GenerationsSinceImprovement = 20

	healthy := speciesWithMembers(1, 5.0)

	cfg := config.Default()
	holdsBest := func(s *Species) bool { return s.ID == 0 }
	alloc := Allocate([]*Species{stagnant, healthy}, 100, cfg, holdsBest)

	if alloc[0] == 0 {
		t.Fatalf("expected the stagnant species holding the global best to still receive slots, got %v", alloc)
	}
	if sum := alloc[0] + alloc[1]; sum != 100 {
		t.Fatalf("expected slots to sum to 100, got %d", sum)
	}
}

func TestAllocateAllStagnantFallsBackRatherThanExtinguishingEveryone(t *testing.T) {
	a := speciesWithMembers(0, 10.0)
	a.GenerationsSinceImprovement = 50
	b := speciesWithMembers(1, 5.0)
	b.GenerationsSinceImprovement = 50

	cfg := config.Default()
	alloc := Allocate([]*Species{a, b}, 100, cfg, neverHoldsBest)

	if sum := alloc[0] + alloc[1]; sum != 100 {
		t.Fatalf("expected slots to sum to 100 even when every species is stagnant, got %d", sum)
	}
}

func TestAllocateZeroTargetReturnsAllZero(t *testing.T) {
	all := []*Species{speciesWithMembers(0, 10.0), speciesWithMembers(1, 5.0)}
	alloc := Allocate(all, 0, config.Default(), neverHoldsBest)
	for _, v := range alloc {
		if v != 0 {
			t.Fatalf("expected all-zero allocation for target=0, got %v", alloc)
		}
	}
}
