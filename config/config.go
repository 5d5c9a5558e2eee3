// Package config loads and validates the configuration bundle consumed by
// the rest of ctrneat: every hyperparameter is a value threaded through the
// driver, never a recompiled constant.
//
// The [ctrneat] section of an INI file is mapped via gopkg.in/ini.v1, with
// a manual re-parse of the parallel_evaluation boolean (a field ini.v1's
// MapTo handles inconsistently around inline comments), and a single
// Validate pass that fails fast with wrapped errors.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config is the full configuration bundle recognized by the core.
type Config struct {
	// Population & speciation.
	PopulationSize        int     `ini:"population_size"`
	SpecieThreshold        float64 `ini:"specie_threshold"`
	NoImprovementTruncate  int     `ini:"no_improvement_truncate"`

	// Reproduction.
	ChampionPreservation int     `ini:"champion_preservation"`
	ReproductionCopyRatio float64 `ini:"reproduction_copy_ratio"`

	// Compatibility distance coefficients.
	ExcessCoefficient   float64 `ini:"excess_coefficient"`
	DisjointCoefficient float64 `ini:"disjoint_coefficient"`
	ParamCoefficient    float64 `ini:"param_coefficient"`

	// Crossover.
	ProbabilityPickLessFit  float64 `ini:"probability_pick_less_fit"`
	ProbabilityKeepDisabled float64 `ini:"probability_keep_disabled"`

	// Weight mutation.
	ParamReplaceProb  float64 `ini:"param_replace_prob"`
	ParamPerturbFactor float64 `ini:"param_perturb_factor"`

	// Genome-level mutation event mix.
	NewConnectionProb float64 `ini:"new_connection_prob"`
	BisectProb        float64 `ini:"bisect_prob"`
	MutateConnProb    float64 `ini:"mutate_conn_prob"`
	ToggleEnableProb  float64 `ini:"toggle_enable_prob"`

	// CTRNN evaluator.
	CTRNNPrecision int `ini:"ctrnn_precision"`

	// Ambient: parallel evaluation and a run safety bound, layered on top
	// of the core option table to drive the bounded worker-pool scheduler
	// and an optional max-generation cutoff.
	ParallelEvaluation bool `ini:"parallel_evaluation"`
	MaxWorkers         int  `ini:"max_workers"`
	MaxGenerations     int  `ini:"max_generations"`
	Seed               int64 `ini:"seed"`
}

// Default returns the configuration bundle with every option set to its
// documented default value.
func Default() *Config {
	return &Config{
		PopulationSize:        150,
		SpecieThreshold:       3.0,
		NoImprovementTruncate: 10,
		ChampionPreservation:  1,
		ReproductionCopyRatio: 0.25,
		ExcessCoefficient:     1.0,
		DisjointCoefficient:   1.0,
		ParamCoefficient:      0.4,
		ProbabilityPickLessFit:  0.5,
		ProbabilityKeepDisabled: 0.75,
		ParamReplaceProb:        0.10,
		ParamPerturbFactor:      0.05,
		NewConnectionProb:       0.05,
		BisectProb:              0.15,
		MutateConnProb:          0.80,
		ToggleEnableProb:        0.01,
		CTRNNPrecision:          10,
		ParallelEvaluation:      false,
		MaxWorkers:              4,
		MaxGenerations:          0,
		Seed:                    1,
	}
}

// Load reads an INI file and overlays it onto the defaults, then validates
// the result. Missing keys keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()

	src, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", path, err)
	}

	section := src.Section("ctrneat")
	if err := section.MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to map [ctrneat] section: %w", err)
	}

	// Manual re-parse workaround: ini.v1's MapTo has historically mishandled
	// bool/float keys that sit next to inline comments even with
	// IgnoreInlineComment set, so re-read the boolean explicitly.
	if key, err := section.GetKey("parallel_evaluation"); err == nil {
		if v, err := key.Bool(); err == nil {
			cfg.ParallelEvaluation = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every option against its required range and reports the
// first violation found. Invalid configuration is fatal at driver startup,
// never silently clamped. All errors are wrapped with "config error:".
func (c *Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("config error: population_size must be positive")
	}
	if c.SpecieThreshold <= 0 {
		return fmt.Errorf("config error: specie_threshold must be positive")
	}
	if c.NoImprovementTruncate <= 0 {
		return fmt.Errorf("config error: no_improvement_truncate must be positive")
	}
	if c.ChampionPreservation < 0 {
		return fmt.Errorf("config error: champion_preservation cannot be negative")
	}
	if c.ReproductionCopyRatio < 0 || c.ReproductionCopyRatio > 1 {
		return fmt.Errorf("config error: reproduction_copy_ratio must be between 0 and 1")
	}
	for name, v := range map[string]float64{
		"excess_coefficient":         c.ExcessCoefficient,
		"disjoint_coefficient":       c.DisjointCoefficient,
		"param_coefficient":          c.ParamCoefficient,
		"probability_pick_less_fit":  c.ProbabilityPickLessFit,
		"probability_keep_disabled":  c.ProbabilityKeepDisabled,
		"param_replace_prob":         c.ParamReplaceProb,
		"new_connection_prob":        c.NewConnectionProb,
		"bisect_prob":                c.BisectProb,
		"mutate_conn_prob":           c.MutateConnProb,
		"toggle_enable_prob":         c.ToggleEnableProb,
	} {
		if v < 0 {
			return fmt.Errorf("config error: %s cannot be negative", name)
		}
	}
	if c.ProbabilityPickLessFit > 1 || c.ProbabilityKeepDisabled > 1 ||
		c.ParamReplaceProb > 1 || c.ToggleEnableProb > 1 {
		return fmt.Errorf("config error: probability fields must be between 0 and 1")
	}
	if sum := c.NewConnectionProb + c.BisectProb + c.MutateConnProb; sum <= 0 {
		return fmt.Errorf("config error: new_connection_prob + bisect_prob + mutate_conn_prob must be positive")
	}
	if c.CTRNNPrecision <= 0 {
		return fmt.Errorf("config error: ctrnn_precision must be positive")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("config error: max_workers must be positive")
	}
	return nil
}

// MutationThresholds converts the genome-level event mix into cumulative
// uint64 thresholds for a single branch-free draw. Order: new-connection,
// bisect, mutate-weights.
func (c *Config) MutationThresholds() []uint64 {
	total := c.NewConnectionProb + c.BisectProb + c.MutateConnProb
	probs := []float64{
		c.NewConnectionProb / total,
		c.BisectProb / total,
		c.MutateConnProb / total,
	}
	var cum float64
	out := make([]uint64, len(probs))
	maxU := float64(^uint64(0))
	for i, p := range probs {
		cum += p
		// maxU rounds up to 2^64, which does not fit in a uint64: clamp so a
		// full cumulative mass maps to the top of the range.
		if v := cum * maxU; v >= maxU {
			out[i] = ^uint64(0)
		} else {
			out[i] = uint64(v)
		}
	}
	return out
}
