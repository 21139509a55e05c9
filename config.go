// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk, YAML-backed shape of every recognised configuration
// option. It exists so cmd/marsctl can load one file and derive the
// DifferOption/RefinerOption/PatternCreatorOption slices each component
// actually wants, rather than every caller hand-rolling functional options.
// A zero Config (as produced by an empty or partial YAML document) is not
// directly usable; obtain one through DefaultConfig or LoadConfig, which fill
// in zero fields with the documented defaults. The Options methods do not
// apply defaults themselves.
type Config struct {
	Differencer struct {
		// F is the pair-score floor; entries below are evicted. Default 0.1.
		F float64 `yaml:"f"`
		// Iterations caps the bottom-up/top-down fixed-point loop. Default 1000.
		Iterations int `yaml:"iterations"`
	} `yaml:"differencer"`

	EditScript struct {
		// SimThreshold is the score below which a paired node is treated as
		// unmatched rather than updated. Default 0.5.
		SimThreshold float64 `yaml:"sim_threshold"`
	} `yaml:"editscript"`

	Refiner struct {
		// MinCount stops refinement once len(patterns) <= this. Default 2.
		MinCount int `yaml:"min_count"`
		// MaxDistance stops refinement once the nearest pair's distance is at
		// least this far apart. Zero (the YAML zero value) means unbounded;
		// Options rewrites it to +Inf.
		MaxDistance float64 `yaml:"max_distance"`
		// Optimisers is the ordered decorator chain, each of "compressor" or
		// "propagator". Unknown names are rejected by the Optimiser method.
		Optimisers []string `yaml:"optimisers"`
	} `yaml:"refiner"`

	Matcher struct {
		// Emitter selects the match emitter: "readable", "xml", or "count".
		Emitter string `yaml:"emitter"`
	} `yaml:"matcher"`
}

// LoadConfig reads and parses a YAML configuration file at path, applying
// documented defaults to any field the file leaves zero.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mars: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("mars: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns a Config holding every documented default, suitable
// as a starting point before overriding individual fields.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Differencer.F == 0 {
		c.Differencer.F = 0.1
	}
	if c.Differencer.Iterations == 0 {
		c.Differencer.Iterations = 1000
	}
	if c.EditScript.SimThreshold == 0 {
		c.EditScript.SimThreshold = 0.5
	}
	if c.Refiner.MinCount == 0 {
		c.Refiner.MinCount = 2
	}
	if c.Matcher.Emitter == "" {
		c.Matcher.Emitter = "readable"
	}
}

// DifferOptions derives the DifferOption slice this config implies.
func (c *Config) DifferOptions() []DifferOption {
	return []DifferOption{
		WithThreshold(c.Differencer.F),
		WithMaxIterations(c.Differencer.Iterations),
	}
}

// PatternCreatorOptions derives the PatternCreatorOption slice this config
// implies, forwarding the differencer options too.
func (c *Config) PatternCreatorOptions() []PatternCreatorOption {
	return []PatternCreatorOption{
		WithDifferOptions(c.DifferOptions()...),
		WithEditScriptThreshold(c.EditScript.SimThreshold),
	}
}

// RefinerOptions derives the RefinerOption slice this config implies. A zero
// MaxDistance (unset in the YAML source) is treated as unbounded.
func (c *Config) RefinerOptions() []RefinerOption {
	maxDist := c.Refiner.MaxDistance
	if maxDist == 0 {
		maxDist = math.Inf(1)
	}
	return []RefinerOption{
		WithMinPatterns(c.Refiner.MinCount),
		WithMaxPatternDistance(maxDist),
		WithRefinerEditScriptThreshold(c.EditScript.SimThreshold),
		WithRefinerDifferOptions(c.DifferOptions()...),
	}
}

// Optimiser builds the ordered decorator chain named in Refiner.Optimisers.
// An unrecognised name is an error rather than a silent skip, since a typo'd
// optimiser name would otherwise produce a Refiner that quietly does less
// deduplication than the config author asked for.
func (c *Config) Optimiser() (Optimiser, error) {
	chain := make([]Optimiser, 0, len(c.Refiner.Optimisers))
	for _, name := range c.Refiner.Optimisers {
		switch name {
		case "compressor":
			chain = append(chain, WildcardUseCompressor{})
		case "propagator":
			chain = append(chain, FunctionPropagator{})
		default:
			return nil, fmt.Errorf("mars: unrecognised optimiser %q", name)
		}
	}
	return NewOptimiserChain(chain...), nil
}

// Emitter builds the Emitter named by Matcher.Emitter. hostSource is only
// used by "readable", which merges matches back into the original text.
func (c *Config) Emitter(hostSource string) (Emitter, error) {
	switch c.Matcher.Emitter {
	case "readable":
		return NewReadable(hostSource), nil
	case "xml":
		return NewXML(), nil
	case "count":
		return &Counter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEmitter, c.Matcher.Emitter)
	}
}
