// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import (
	"iter"
	"log/slog"

	"github.com/TvrtkoSternak/MARS/internal/iterutil"
)

// MatcherOption configures a Recommender.
type MatcherOption func(*matcherConfig)

type matcherConfig struct{}

// Recommender scans a host tree's pre-order stream against a pool of
// patterns, driving one PatternFactoryListener per pattern and any
// PatternListeners they spawn, and reports every completed Match.
type Recommender struct {
	patterns []*Pattern
	logger   *slog.Logger
}

// NewRecommender returns a Recommender over patterns. A nil logger disables
// diagnostic logging.
func NewRecommender(patterns []*Pattern, logger *slog.Logger, _ ...MatcherOption) *Recommender {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(nopWriter{}, nil))
	}
	return &Recommender{patterns: patterns, logger: logger}
}

// Scan walks host's pre-order stream once and returns every Match found.
func (r *Recommender) Scan(host Node) []*Match {
	var matches []*Match
	for m := range r.Matches(host) {
		matches = append(matches, m)
	}
	return matches
}

// Matches lazily scans host's pre-order stream, yielding each Match as soon
// as its listener completes. Consumers that only need the first few matches
// (or want to stop early) avoid buffering the whole host tree's worth of
// results.
func (r *Recommender) Matches(host Node) iter.Seq[*Match] {
	return func(yield func(*Match) bool) {
		factories := make([]*PatternFactoryListener, len(r.patterns))
		for i, p := range r.patterns {
			factories[i] = NewPatternFactoryListener(p)
		}

		var active []*PatternListener
		for pos, node := range r.positioned(host) {
			next := active[:0]
			for _, l := range active {
				outcome := l.Step(node, pos)
				switch outcome.Result {
				case StepContinue:
					next = append(next, l)
				case StepEmit:
					if !yield(outcome.Match) {
						return
					}
				case StepDone:
				}
			}
			active = next

			for _, f := range factories {
				outcome := f.Step(node, pos)
				if outcome.Result == StepSpawn {
					active = append(active, outcome.Spawned)
				}
			}
		}
	}
}

// positioned zips a host tree's pre-order stream with its indices. Positions
// and Nodes below are both projections of this single sequence via
// iterutil.Left/Right, so they can never drift out of sync with the scan
// loop's own traversal.
func (r *Recommender) positioned(host Node) iter.Seq2[int, Node] {
	stream := Walk(host, PreOrder)
	return func(yield func(int, Node) bool) {
		for i, n := range stream {
			if !yield(i, n) {
				return
			}
		}
	}
}

// Positions exposes a host tree's pre-order stream positions on their own,
// for callers that want to align them with an independently derived Nodes
// sequence (e.g. to report progress without materializing a slice).
func (r *Recommender) Positions(host Node) iter.Seq[int] {
	return iterutil.Left(r.positioned(host))
}

// Nodes exposes a host tree's pre-order stream nodes on their own.
func (r *Recommender) Nodes(host Node) iter.Seq[Node] {
	return iterutil.Right(r.positioned(host))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
