// Package driver implements the generational driver: the single-threaded,
// sequential seven-phase state machine that orchestrates evaluation,
// speciation, allocation, and reproduction, plus a bounded-parallel
// evaluation option built on a worker pool with buffered job/result
// channels, context-aware shutdown, and a sync.WaitGroup.
package driver

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/ctrnn"
	"github.com/basalt-evo/ctrneat/genome"
	"github.com/basalt-evo/ctrneat/innov"
	"github.com/basalt-evo/ctrneat/internal/stats"
	"github.com/basalt-evo/ctrneat/reproduce"
	"github.com/basalt-evo/ctrneat/rng"
	"github.com/basalt-evo/ctrneat/species"
)

// Driver owns the RNG, the innovation registry, and the live species list
// for the duration of one run.
type Driver struct {
	Config *config.Config
	RNG    *rng.Source
	Innov  *innov.Registry
	Logger *log.Logger
	RunID  uuid.UUID

	// InitialSpeciesCap, if non-zero, is passed as the species cap only to
	// the first generation's speciation call — used alongside
	// DiverseInitializer to bound how many species a hand-built diverse
	// starting population fragments into.
	InitialSpeciesCap int

	hooks []TerminationHook

	population []*genome.Genome
	species    []*species.Species

	nextSpeciesID   int
	bestEver        *genome.Genome
	bestEverFitness float64
}

// New constructs a Driver with a fresh RNG seeded from cfg.Seed, a new
// run id, and logging to log.Default() — callers may override Logger.
func New(cfg *config.Config) *Driver {
	return &Driver{
		Config:          cfg,
		RNG:             rng.New(cfg.Seed),
		Innov:           innov.New(0),
		Logger:          log.Default(),
		RunID:           uuid.New(),
		bestEverFitness: math.Inf(-1),
	}
}

// AddHook registers a termination hook, called in registration order at
// the end of each generation's stats phase.
func (d *Driver) AddHook(h TerminationHook) {
	d.hooks = append(d.hooks, h)
}

// Run executes the generational loop until a hook signals Stop or
// Config.MaxGenerations is reached (0 means unbounded, left to the caller
// to bound if desired).
func (d *Driver) Run(ctx context.Context, scenario Scenario, init Initializer) (Snapshot, error) {
	if err := d.Config.Validate(); err != nil {
		return Snapshot{}, err
	}

	nSensory, nAction := scenario.IO()
	pop, reg := init(nSensory, nAction, d.Config.PopulationSize, d.RNG)
	d.population = pop
	d.Innov = reg
	d.species = nil
	d.nextSpeciesID = 0

	var snapshot Snapshot
	for gen := 0; d.Config.MaxGenerations <= 0 || gen < d.Config.MaxGenerations; gen++ {
		start := time.Now()

		scored, err := d.evaluate(ctx, scenario)
		if err != nil {
			return snapshot, err
		}
		d.trackGlobalBest(scored)

		cap := 0
		if gen == 0 {
			cap = d.InitialSpeciesCap
		}
		d.species = species.Speciate(d.species, scored, d.Config, cap, &d.nextSpeciesID)

		snapshot = d.buildSnapshot(gen, scored)
		d.logSnapshot(snapshot, time.Since(start))

		stop := false
		for _, hook := range d.hooks {
			if hook(snapshot) == Stop {
				stop = true
				break
			}
		}
		if stop {
			break
		}

		species.UpdateStagnation(d.species)

		slots := species.Allocate(d.species, d.Config.PopulationSize, d.Config, d.holdsGlobalBest)
		d.population = reproduce.Reproduce(d.species, slots, d.Config, d.Innov, d.RNG)
		d.Innov.Roll()

		d.reselectRepresentatives()
	}

	return snapshot, nil
}

func (d *Driver) trackGlobalBest(scored []species.Member) {
	for _, m := range scored {
		if m.Fitness > d.bestEverFitness {
			d.bestEverFitness = m.Fitness
			d.bestEver = m.Genome
		}
	}
}

func (d *Driver) holdsGlobalBest(sp *species.Species) bool {
	if d.bestEver == nil {
		return false
	}
	for _, m := range sp.Members {
		if m.Genome == d.bestEver {
			return true
		}
	}
	return false
}

// reselectRepresentatives closes out the generation: for each
// surviving species, pick a random member as the next generation's
// representative and clear the member list. The actual population becomes
// the reproducer's flat offspring list, re-speciated next iteration.
func (d *Driver) reselectRepresentatives() {
	for _, sp := range d.species {
		if len(sp.Members) > 0 {
			rep := sp.Members[d.RNG.Intn(len(sp.Members))].Genome
			sp.Repr = append([]genome.Connection(nil), rep.Connections...)
		}
		sp.Members = nil
	}
}

func (d *Driver) buildSnapshot(gen int, scored []species.Member) Snapshot {
	fitnesses := make([]float64, len(scored))
	var best *genome.Genome
	bestFit := math.Inf(-1)
	for i, m := range scored {
		fitnesses[i] = m.Fitness
		if m.Fitness > bestFit {
			bestFit = m.Fitness
			best = m.Genome
		}
	}
	return Snapshot{
		RunID:       d.RunID,
		Generation:  gen,
		Species:     d.species,
		Best:        best,
		BestFitness: bestFit,
		MeanFitness: stats.Mean(fitnesses),
		MinFitness:  stats.MinFloat(fitnesses),
	}
}

func (d *Driver) logSnapshot(snap Snapshot, elapsed time.Duration) {
	d.Logger.Printf(
		"[%s] generation %d: %s genomes across %d species — best=%.4f mean=%.4f min=%.4f (%s)",
		d.RunID, snap.Generation,
		humanize.Comma(int64(len(d.population))),
		len(snap.Species),
		snap.BestFitness, snap.MeanFitness, snap.MinFitness,
		elapsed,
	)
}

// evaluate dispatches to the sequential or bounded-parallel evaluator
// depending on Config.ParallelEvaluation.
func (d *Driver) evaluate(ctx context.Context, scenario Scenario) ([]species.Member, error) {
	if d.Config.ParallelEvaluation {
		return d.evaluateParallel(ctx, scenario)
	}
	return d.evaluateSequential(ctx, scenario)
}

func scoreGenome(scenario Scenario, g *genome.Genome, r *rng.Source) float64 {
	fit := scenario.Eval(g, ctrnn.SteepSigmoid, r)
	// Scenario failure (non-finite fitness) is treated as -∞ and
	// deprioritized by selection rather than aborting the run.
	if math.IsNaN(fit) || math.IsInf(fit, 0) {
		return math.Inf(-1)
	}
	return fit
}

func (d *Driver) evaluateSequential(ctx context.Context, scenario Scenario) ([]species.Member, error) {
	out := make([]species.Member, len(d.population))
	for i, g := range d.population {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = species.Member{Genome: g, Fitness: scoreGenome(scenario, g, d.RNG)}
	}
	return out, nil
}

// evaluateParallel scores genomes across a bounded pool of workers, each
// with its own deterministically-derived sub-RNG split off d.RNG by
// worker index. Results are re-indexed by original position before
// returning, so the downstream pipeline sees a canonical order regardless
// of scheduling.
func (d *Driver) evaluateParallel(ctx context.Context, scenario Scenario) ([]species.Member, error) {
	n := len(d.population)
	workerCount := d.Config.MaxWorkers
	if workerCount > n {
		workerCount = n
	}
	if workerCount < 1 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, n)
	type result struct {
		idx     int
		fitness float64
	}
	results := make(chan result, n)

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		workerRNG := d.RNG.Split(w)
		wg.Add(1)
		go func(workerRNG *rng.Source) {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				fit := scoreGenome(scenario, d.population[idx], workerRNG)
				select {
				case results <- result{idx, fit}:
				case <-ctx.Done():
					return
				}
			}
		}(workerRNG)
	}

	for i := range d.population {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]species.Member, n)
	for r := range results {
		out[r.idx] = species.Member{Genome: d.population[r.idx], Fitness: r.fitness}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
