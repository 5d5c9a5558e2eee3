// Package genome implements the connection gene and genome types: an
// ordered, innovation-sorted sequence of directed weighted edges plus node
// counts, supporting mutation, crossover, and compilation to a CTRNN.
// Weights are drawn uniformly from [-3,3] rather than from a normal
// distribution, and compatibility distance is not normalized by genome
// length — both deliberate departures from classical NEAT.
package genome

import (
	"sort"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/rng"
)

// Connection is one directed edge between two node ids.
type Connection struct {
	Innovation uint64
	Source     int
	Target     int
	Weight     float64
	Enabled    bool
}

// Genome is an ordered collection of connection genes plus node counts.
// Node ids are laid out [0, NSensory) sensory, [NSensory, NSensory+NAction)
// action, [NSensory+NAction, NSensory+NAction+NBias) bias/static, and
// everything from there on internal nodes added by bisection.
type Genome struct {
	NSensory  int
	NAction   int
	NBias     int
	NInternal int

	// Connections is always kept sorted by Innovation ascending.
	Connections []Connection

	Fitness float64
}

const weightMin, weightMax = -3.0, 3.0

// NodeCount returns the total number of nodes referenced by this genome.
func (g *Genome) NodeCount() int {
	return g.NSensory + g.NAction + g.NBias + g.NInternal
}

// SensoryRange returns the half-open [start, end) range of sensory node ids.
func (g *Genome) SensoryRange() (int, int) { return 0, g.NSensory }

// ActionRange returns the half-open [start, end) range of action node ids.
func (g *Genome) ActionRange() (int, int) {
	return g.NSensory, g.NSensory + g.NAction
}

// biasRange returns the half-open [start, end) range of bias/static node ids.
func (g *Genome) biasRange() (int, int) {
	start := g.NSensory + g.NAction
	return start, start + g.NBias
}

// IsStatic reports whether node id belongs to the bias/static range, the
// CTRNN evaluator's θ=1 population.
func (g *Genome) IsStatic(node int) bool {
	lo, hi := g.biasRange()
	return node >= lo && node < hi
}

// isSensoryOrBias reports whether node may never be a connection target.
func (g *Genome) isSensoryOrBias(node int) bool {
	lo, hi := g.biasRange()
	return node < g.NSensory || (node >= lo && node < hi)
}

// New builds a genome for the default population initializer: one bias
// node, full fan-out from sensory∪bias to every action node, all enabled,
// weights drawn uniformly from [-3,3].
func New(nSensory, nAction int, reg *innov.Registry, r *rng.Source) *Genome {
	g := &Genome{
		NSensory: nSensory,
		NAction:  nAction,
		NBias:    1,
		Fitness:  0,
	}
	biasNode := nSensory + nAction // sole bias node, before any internal nodes
	sources := make([]int, 0, nSensory+1)
	for s := 0; s < nSensory; s++ {
		sources = append(sources, s)
	}
	sources = append(sources, biasNode)

	for _, src := range sources {
		for a := 0; a < nAction; a++ {
			target := nSensory + a
			g.Connections = append(g.Connections, Connection{
				Innovation: reg.Intern(src, target),
				Source:     src,
				Target:     target,
				Weight:     r.Float(weightMin, weightMax),
				Enabled:    true,
			})
		}
	}
	g.sortConnections()
	return g
}

// NewSingleConnection builds a genome with no topology beyond one bias
// node and exactly one random enabled connection, used by the diverse
// population initializer.
func NewSingleConnection(nSensory, nAction int, reg *innov.Registry, r *rng.Source) *Genome {
	g := &Genome{NSensory: nSensory, NAction: nAction, NBias: 1}
	biasNode := nSensory + nAction
	candidates := make([]int, 0, nSensory+1)
	for s := 0; s < nSensory; s++ {
		candidates = append(candidates, s)
	}
	candidates = append(candidates, biasNode)

	src := candidates[r.Intn(len(candidates))]
	target := nSensory + r.Intn(nAction)
	g.Connections = append(g.Connections, Connection{
		Innovation: reg.Intern(src, target),
		Source:     src,
		Target:     target,
		Weight:     r.Float(weightMin, weightMax),
		Enabled:    true,
	})
	return g
}

// Clone returns a deep copy, safe to mutate independently of g.
func (g *Genome) Clone() *Genome {
	out := &Genome{
		NSensory:  g.NSensory,
		NAction:   g.NAction,
		NBias:     g.NBias,
		NInternal: g.NInternal,
		Fitness:   g.Fitness,
	}
	out.Connections = make([]Connection, len(g.Connections))
	copy(out.Connections, g.Connections)
	return out
}

func (g *Genome) sortConnections() {
	sort.Slice(g.Connections, func(i, j int) bool {
		return g.Connections[i].Innovation < g.Connections[j].Innovation
	})
}

func (g *Genome) hasEdge(source, target int) bool {
	for _, c := range g.Connections {
		if c.Source == source && c.Target == target {
			return true
		}
	}
	return false
}

func (g *Genome) enabledConnections() []int {
	idx := make([]int, 0, len(g.Connections))
	for i, c := range g.Connections {
		if c.Enabled {
			idx = append(idx, i)
		}
	}
	return idx
}

// Mutate applies exactly one top-level mutation event, chosen by a single
// branch-free draw against cfg's pre-converted cumulative thresholds, then
// separately mutates weights and toggles enable bits per connection. If
// the chosen structural event cannot proceed (e.g. add-connection finds no
// valid pair), it falls back to the next-preferred event rather than
// producing no mutation at all.
func (g *Genome) Mutate(cfg *config.Config, reg *innov.Registry, r *rng.Source) {
	switch r.Pick(cfg.MutationThresholds()) {
	case 0: // new connection
		if !g.addConnection(reg, r) {
			g.bisectConnection(reg, r)
		}
	case 1: // bisect connection
		if !g.bisectConnection(reg, r) {
			g.addConnection(reg, r)
		}
	default: // mutate weights (also the fallback for an out-of-range draw)
	}

	g.mutateWeights(cfg, r)
	g.toggleEnable(cfg, r)
}

// addConnection attempts up to 20 random (source, target) pairs where
// target is not sensory/bias and the edge does not already exist. Returns
// false (no change) if none of the attempts succeed; this is non-fatal.
func (g *Genome) addConnection(reg *innov.Registry, r *rng.Source) bool {
	n := g.NodeCount()
	if n < 2 {
		return false
	}
	for attempt := 0; attempt < 20; attempt++ {
		src := r.Intn(n)
		target := r.Intn(n)
		if g.isSensoryOrBias(target) {
			continue
		}
		if g.hasEdge(src, target) {
			continue
		}
		g.Connections = append(g.Connections, Connection{
			Innovation: reg.Intern(src, target),
			Source:     src,
			Target:     target,
			Weight:     r.Float(weightMin, weightMax),
			Enabled:    true,
		})
		g.sortConnections()
		return true
	}
	return false
}

// bisectConnection disables a random enabled connection (u,v,w) and
// replaces its signal path with two new connections (u,k,1.0) and
// (k,v,w), where k is a freshly allocated internal node id — preserving
// signal magnitude while adding structure.
func (g *Genome) bisectConnection(reg *innov.Registry, r *rng.Source) bool {
	candidates := g.enabledConnections()
	if len(candidates) == 0 {
		return false
	}
	idx := candidates[r.Intn(len(candidates))]
	orig := g.Connections[idx]
	g.Connections[idx].Enabled = false

	k := g.NodeCount()
	g.NInternal++

	g.Connections = append(g.Connections,
		Connection{
			Innovation: reg.Intern(orig.Source, k),
			Source:     orig.Source,
			Target:     k,
			Weight:     1.0,
			Enabled:    true,
		},
		Connection{
			Innovation: reg.Intern(k, orig.Target),
			Source:     k,
			Target:     orig.Target,
			Weight:     orig.Weight,
			Enabled:    true,
		},
	)
	g.sortConnections()
	return true
}

// mutateWeights perturbs or replaces each connection's weight
// independently.
func (g *Genome) mutateWeights(cfg *config.Config, r *rng.Source) {
	for i := range g.Connections {
		if r.Bool(cfg.ParamReplaceProb) {
			g.Connections[i].Weight = r.Float(weightMin, weightMax)
		} else {
			g.Connections[i].Weight += cfg.ParamPerturbFactor * r.Float(weightMin, weightMax)
		}
	}
}

// toggleEnable flips the enabled bit of each connection with small
// per-connection probability.
func (g *Genome) toggleEnable(cfg *config.Config, r *rng.Source) {
	for i := range g.Connections {
		if r.Bool(cfg.ToggleEnableProb) {
			g.Connections[i].Enabled = !g.Connections[i].Enabled
		}
	}
}
