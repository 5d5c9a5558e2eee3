package genome

import (
	"math"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/rng"
)

// Distance computes the compatibility distance δ(g, other), used by the
// speciator to decide whether two genomes belong to the same species.
//
// δ = c_e·E + c_d·D + c_w·W̄, with NO division by genome length — unlike
// classical NEAT's length-normalized variant, this compatibility distance
// stays scale-sensitive as genomes grow.
func (g *Genome) Distance(other *Genome, cfg *config.Config) float64 {
	excess, disjoint, weightDiffSum, matched := geneDiff(g.Connections, other.Connections)

	var wbar float64
	if matched > 0 {
		wbar = weightDiffSum / float64(matched)
	}
	return cfg.ExcessCoefficient*float64(excess) +
		cfg.DisjointCoefficient*float64(disjoint) +
		cfg.ParamCoefficient*wbar
}

// geneDiff walks two innovation-sorted connection slices in lockstep,
// classifying every non-matching gene as disjoint (its id falls within
// the other slice's innovation range) or excess (beyond it). The result is
// symmetric in (l, r) by construction.
func geneDiff(l, r []Connection) (excess, disjoint int, weightDiffSum float64, matched int) {
	var maxL, maxR uint64
	if len(l) > 0 {
		maxL = l[len(l)-1].Innovation
	}
	if len(r) > 0 {
		maxR = r[len(r)-1].Innovation
	}

	i, j := 0, 0
	for i < len(l) && j < len(r) {
		switch {
		case l[i].Innovation == r[j].Innovation:
			weightDiffSum += math.Abs(l[i].Weight - r[j].Weight)
			matched++
			i++
			j++
		case l[i].Innovation < r[j].Innovation:
			if l[i].Innovation > maxR {
				excess++
			} else {
				disjoint++
			}
			i++
		default:
			if r[j].Innovation > maxL {
				excess++
			} else {
				disjoint++
			}
			j++
		}
	}
	// Once one side is exhausted, all remaining genes on the other side
	// are necessarily beyond the exhausted side's max innovation: excess.
	excess += (len(l) - i) + (len(r) - j)
	return
}

// fitOrder is the crossover fitness ordering between two parents.
type fitOrder int

const (
	orderEqual fitOrder = iota
	orderLeftFitter
	orderRightFitter
)

func orderOf(lFitness, rFitness float64) fitOrder {
	switch {
	case lFitness > rFitness:
		return orderLeftFitter
	case lFitness < rFitness:
		return orderRightFitter
	default:
		return orderEqual
	}
}

// Crossover produces a child genome from parents l and r, walking both
// innovation-sorted connection sequences in lockstep:
//
//   - Matching genes: inherited deterministically from the fitter parent;
//     if fitness is equal, chosen from either side with probability
//     cfg.ProbabilityPickLessFit. A gene disabled on either side is
//     disabled in the child with probability cfg.ProbabilityKeepDisabled.
//   - Disjoint/excess genes: inherited from the fitter parent only; if
//     fitness is equal, inherited with probability 0.5 independently of
//     which side they came from; otherwise dropped.
//
// Node counts are the component-wise max across parents, so internal node
// ids inherited from either parent remain valid in the child.
func Crossover(l, r *Genome, lFitness, rFitness float64, cfg *config.Config, rnd *rng.Source) *Genome {
	order := orderOf(lFitness, rFitness)

	var offspring []Connection
	li, ri := 0, 0
	for li < len(l.Connections) && ri < len(r.Connections) {
		lc, rc := l.Connections[li], r.Connections[ri]
		switch {
		case lc.Innovation == rc.Innovation:
			offspring = append(offspring, pickMatching(lc, rc, order, cfg, rnd))
			li++
			ri++
		case lc.Innovation < rc.Innovation:
			if gene, ok := pickUnilateral(lc, leftSide, order, rnd); ok {
				offspring = append(offspring, gene)
			}
			li++
		default:
			if gene, ok := pickUnilateral(rc, rightSide, order, rnd); ok {
				offspring = append(offspring, gene)
			}
			ri++
		}
	}
	for ; li < len(l.Connections); li++ {
		if gene, ok := pickUnilateral(l.Connections[li], leftSide, order, rnd); ok {
			offspring = append(offspring, gene)
		}
	}
	for ; ri < len(r.Connections); ri++ {
		if gene, ok := pickUnilateral(r.Connections[ri], rightSide, order, rnd); ok {
			offspring = append(offspring, gene)
		}
	}

	child := &Genome{
		NSensory:  maxInt(l.NSensory, r.NSensory),
		NAction:   maxInt(l.NAction, r.NAction),
		NBias:     maxInt(l.NBias, r.NBias),
		NInternal: maxInt(l.NInternal, r.NInternal),
	}
	child.Connections = offspring
	child.sortConnections()
	return child
}

type side int

const (
	leftSide side = iota
	rightSide
)

func pickMatching(lc, rc Connection, order fitOrder, cfg *config.Config, rnd *rng.Source) Connection {
	var chosen Connection
	switch order {
	case orderLeftFitter:
		chosen = lc
	case orderRightFitter:
		chosen = rc
	default:
		if rnd.Bool(cfg.ProbabilityPickLessFit) {
			chosen = rc
		} else {
			chosen = lc
		}
	}
	if !lc.Enabled || !rc.Enabled {
		chosen.Enabled = !rnd.Bool(cfg.ProbabilityKeepDisabled)
	}
	return chosen
}

// pickUnilateral decides whether a disjoint/excess gene from one side
// survives into the child.
func pickUnilateral(gene Connection, from side, order fitOrder, rnd *rng.Source) (Connection, bool) {
	switch order {
	case orderLeftFitter:
		return gene, from == leftSide
	case orderRightFitter:
		return gene, from == rightSide
	default:
		return gene, rnd.Bool(0.5)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
