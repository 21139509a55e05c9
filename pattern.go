// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import "context"

// Parser turns a source of host-language text into a Node Model tree. It is
// the one collaborator core deliberately does not implement itself: parsing
// is host-language-specific (see adapter/goast for the Go implementation),
// while everything downstream of a Node tree is not.
type Parser interface {
	Parse(ctx context.Context, path string) (Node, error)
}

// Pattern is an (original, modified) tree pair connected by a Pairing. It is
// the unit the Refiner fuses and the Matcher scans for.
type Pattern struct {
	Original Node
	Modified Node
	Pairing  *Pairing

	// Name optionally labels the pattern, surfaced by emitters; PatternCreator
	// leaves it empty, the Refiner assigns one when fusing.
	Name string
}

// EditScript derives this pattern's edit script at the given similarity
// threshold. It is computed on demand and not cached; the Refiner calls it
// whenever it needs a pattern's edit script.
func (p *Pattern) EditScript(threshold float64) *EditScript {
	return Generate(p.Original, p.Modified, p.Pairing, threshold)
}

// PatternCreatorOption configures a PatternCreator.
type PatternCreatorOption func(*patternCreatorConfig)

type patternCreatorConfig struct {
	differOpts         []DifferOption
	editScriptThreshold float64
}

func defaultPatternCreatorConfig() patternCreatorConfig {
	return patternCreatorConfig{editScriptThreshold: 0.5}
}

// WithDifferOptions forwards options to the PatternCreator's internal
// Differencer.
func WithDifferOptions(opts ...DifferOption) PatternCreatorOption {
	return func(c *patternCreatorConfig) { c.differOpts = append(c.differOpts, opts...) }
}

// WithEditScriptThreshold sets the similarity threshold (tau) a paired node
// must clear to become an Update instead of a Delete+Insert. The default,
// 0.5, matches the original implementation.
func WithEditScriptThreshold(tau float64) PatternCreatorOption {
	return func(c *patternCreatorConfig) { c.editScriptThreshold = tau }
}

// PatternCreator builds Patterns from pairs of already-parsed trees, or from
// source pairs via a Parser.
type PatternCreator struct {
	cfg    patternCreatorConfig
	differ *Differencer
}

// NewPatternCreator returns a PatternCreator with the given options applied.
func NewPatternCreator(opts ...PatternCreatorOption) *PatternCreator {
	cfg := defaultPatternCreatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PatternCreator{cfg: cfg, differ: NewDifferencer(cfg.differOpts...)}
}

// Create connects original and modified with the creator's Differencer and
// returns the resulting Pattern.
func (pc *PatternCreator) Create(original, modified Node) *Pattern {
	pairing := pc.differ.Connect(original, modified)
	return &Pattern{Original: original, Modified: modified, Pairing: pairing}
}

// CreateFromSources parses originalPath and modifiedPath with parser and
// connects the results. A parse failure on either side is returned as a
// *ParseFailure, per the error model: the caller decides whether to skip
// this pattern and continue mining, rather than the creator deciding for it.
func (pc *PatternCreator) CreateFromSources(ctx context.Context, parser Parser, originalPath, modifiedPath string) (*Pattern, error) {
	original, err := parser.Parse(ctx, originalPath)
	if err != nil {
		return nil, &ParseFailure{Path: originalPath, Err: err}
	}
	modified, err := parser.Parse(ctx, modifiedPath)
	if err != nil {
		return nil, &ParseFailure{Path: modifiedPath, Err: err}
	}
	return pc.Create(original, modified), nil
}
