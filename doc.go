// Package ctrneat provides a Go implementation of NEAT (NeuroEvolution of
// Augmenting Topologies) generalized over continuous-time recurrent neural
// networks (CTRNNs) rather than feedforward networks: genomes compile to
// CTRNNs stepped by forward-Euler integration, and the external contract is
// a Scenario that scores a genome given the fixed CTRNN activation handle.
//
// The implementation is split by concern rather than kept as one flat
// package: innov (innovation-number registry), rng (seeded, splittable
// randomness), config (tunables loaded from an ini file), genome
// (connection genes, mutation, crossover), ctrnn (the network evaluator),
// species (speciation, fitness sharing, population allocation), reproduce
// (offspring generation), and driver (the generational loop tying all of
// the above together).
//
// Basic usage:
//
//	cfg := config.Default()
//	d := driver.New(cfg)
//	d.AddHook(func(s driver.Snapshot) driver.Decision {
//		if s.BestFitness >= 15.9 {
//			return driver.Stop
//		}
//		return driver.Continue
//	})
//	snap, err := d.Run(context.Background(), myScenario, driver.DefaultInitializer)
package ctrneat
