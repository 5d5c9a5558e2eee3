package species

import (
	"math"
	"sort"

	"github.com/basalt-evo/ctrneat/config"
)

// Allocate maps each species' adjusted fitness to an integer
// next-generation slot count summing exactly to target, using the
// largest-remainder (Hamilton's) method:
//
//  1. Shift all values non-negative if the minimum is negative.
//  2. If the (shifted) total is zero, distribute target evenly.
//  3. Otherwise each species gets floor(exact_i), exact_i = target·fᵢ/Σf.
//  4. The remaining target−Σfloor slots go one at a time to the species
//     with the largest fractional remainder.
//
// Species whose GenerationsSinceImprovement exceeds
// cfg.NoImprovementTruncate are excluded from the computation entirely
// (forced to 0 slots) unless holdsGlobalBest reports they contain the
// global best genome ever observed — their removal, not a late override,
// is what keeps Σ slots == target exactly (the full target is
// redistributed only across the surviving species). If every species is
// stagnant, none is excluded and the target is distributed across all.
func Allocate(all []*Species, target int, cfg *config.Config, holdsGlobalBest func(*Species) bool) []int {
	n := len(all)
	alloc := make([]int, n)
	if n == 0 || target <= 0 {
		return alloc
	}

	eligible := make([]int, 0, n)
	for i, s := range all {
		if s.GenerationsSinceImprovement > cfg.NoImprovementTruncate && !holdsGlobalBest(s) {
			continue
		}
		eligible = append(eligible, i)
	}
	if len(eligible) == 0 {
		// Degenerate case: every species is stagnant. Falling back to
		// distributing across all species avoids manufacturing an
		// extinction event purely from the stagnation override.
		eligible = make([]int, n)
		for i := range eligible {
			eligible[i] = i
		}
	}

	adjusted := make([]float64, len(eligible))
	for k, i := range eligible {
		adjusted[k] = all[i].AdjustedFitness()
	}

	minF := adjusted[0]
	for _, v := range adjusted {
		if v < minF {
			minF = v
		}
	}
	shifted := make([]float64, len(adjusted))
	if minF < 0 {
		shift := -minF + 1
		for k, v := range adjusted {
			shifted[k] = v + shift
		}
	} else {
		copy(shifted, adjusted)
	}

	var total float64
	for _, v := range shifted {
		total += v
	}

	eligibleAlloc := make([]int, len(eligible))
	if total == 0 {
		base := target / len(eligible)
		rem := target % len(eligible)
		for k := range eligibleAlloc {
			eligibleAlloc[k] = base
			if k < rem {
				eligibleAlloc[k]++
			}
		}
	} else {
		exact := make([]float64, len(eligible))
		floors := make([]int, len(eligible))
		floorSum := 0
		for k, v := range shifted {
			exact[k] = float64(target) * v / total
			floors[k] = int(math.Floor(exact[k]))
			floorSum += floors[k]
		}
		leftover := target - floorSum

		order := make([]int, len(eligible))
		for k := range order {
			order[k] = k
		}
		sort.SliceStable(order, func(a, b int) bool {
			fa := exact[order[a]] - float64(floors[order[a]])
			fb := exact[order[b]] - float64(floors[order[b]])
			return fa > fb
		})

		copy(eligibleAlloc, floors)
		for k := 0; k < leftover; k++ {
			eligibleAlloc[order[k]]++
		}
	}

	for k, i := range eligible {
		alloc[i] = eligibleAlloc[k]
	}
	return alloc
}
