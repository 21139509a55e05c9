// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/TvrtkoSternak/MARS/internal/slicesutil"
)

// RefinerOption configures a Refiner.
type RefinerOption func(*refinerConfig)

type refinerConfig struct {
	minPatterns         int
	maxPatternDistance  float64
	editScriptThreshold float64
	differOpts          []DifferOption
}

func defaultRefinerConfig() refinerConfig {
	return refinerConfig{
		minPatterns:         2,
		maxPatternDistance:  math.Inf(1),
		editScriptThreshold: 0.5,
	}
}

// WithMinPatterns sets the floor the refinement loop stops at: it never
// fuses below this many patterns. The default is 2.
func WithMinPatterns(n int) RefinerOption {
	return func(c *refinerConfig) {
		if n < 1 {
			n = 1
		}
		c.minPatterns = n
	}
}

// WithMaxPatternDistance stops refinement once the nearest remaining pair of
// patterns is at least this far apart. The default is unbounded.
func WithMaxPatternDistance(d float64) RefinerOption {
	return func(c *refinerConfig) { c.maxPatternDistance = d }
}

// WithRefinerEditScriptThreshold sets tau for the edit scripts the refiner
// computes internally while fusing. Defaults to 0.5, matching PatternCreator.
func WithRefinerEditScriptThreshold(tau float64) RefinerOption {
	return func(c *refinerConfig) { c.editScriptThreshold = tau }
}

// WithRefinerDifferOptions forwards options to the Differencer the refiner
// uses to compare two patterns' trees while fusing them.
func WithRefinerDifferOptions(opts ...DifferOption) RefinerOption {
	return func(c *refinerConfig) { c.differOpts = append(c.differOpts, opts...) }
}

// Refiner repeatedly fuses the two nearest patterns in a set into one
// generalized pattern, until the set shrinks to its floor or the nearest
// remaining pair is too far apart to be worth fusing.
type Refiner struct {
	cfg       refinerConfig
	differ    *Differencer
	optimiser Optimiser
	logger    *slog.Logger
}

// NewRefiner returns a Refiner. optimiser runs on every freshly fused
// pattern before it re-enters the pool; pass NewOptimiserChain() (no
// arguments) for a no-op. A nil logger disables diagnostic logging.
func NewRefiner(optimiser Optimiser, logger *slog.Logger, opts ...RefinerOption) *Refiner {
	cfg := defaultRefinerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if optimiser == nil {
		optimiser = NewOptimiserChain()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Refiner{
		cfg:       cfg,
		differ:    NewDifferencer(cfg.differOpts...),
		optimiser: optimiser,
		logger:    logger,
	}
}

// Refine fuses patterns down toward the configured floor, returning a new
// slice; the input is left untouched.
func (r *Refiner) Refine(patterns []*Pattern) []*Pattern {
	pool := append([]*Pattern(nil), patterns...)

	for len(pool) > r.cfg.minPatterns {
		i, j, dist, ok := r.nearestPair(pool)
		if !ok || dist >= r.cfg.maxPatternDistance {
			break
		}

		fused := r.fuse(pool[i], pool[j])
		fused = r.optimiser.Optimise(fused)
		r.logFuse(pool[i], pool[j], fused)

		next := make([]*Pattern, 0, len(pool)-1)
		for k, p := range pool {
			if k == i || k == j {
				continue
			}
			next = append(next, p)
		}
		next = append(next, fused)
		pool = next
	}

	return pool
}

// nearestPair finds the two patterns with the smallest combined distance,
// where a pair's distance is the sum of each pattern's own edit-script size:
// simpler patterns (fewer internal edits) are considered "closer" and fuse
// first, leaving more structurally elaborate patterns for later rounds.
func (r *Refiner) nearestPair(pool []*Pattern) (i, j int, dist float64, ok bool) {
	if len(pool) < 2 {
		return 0, 0, 0, false
	}
	best := math.Inf(1)
	bi, bj := -1, -1
	sizes := make([]int, len(pool))
	for k, p := range pool {
		sizes[k] = p.EditScript(r.cfg.editScriptThreshold).Len()
	}
	for a := 0; a < len(pool); a++ {
		for b := a + 1; b < len(pool); b++ {
			d := float64(sizes[a] + sizes[b])
			if d < best {
				best, bi, bj = d, a, b
			}
		}
	}
	if bi < 0 {
		return 0, 0, 0, false
	}
	return bi, bj, best, true
}

// fuse generalizes p1 using p2 as the comparison point: wherever p1's
// original tree differs from p2's, the differing subtree is wrapped in a
// Wildcard; wherever p1's modified tree differs from p2's, it is wrapped in
// a Use. A Wildcard/Use pair originating from the same Update operation in
// p1's own edit script is linked with a shared, incrementing index; anything
// left unlinked keeps index 0 (an unconstrained, unsubstituted wildcard —
// see the Node.Equals doc comment for why that needs no special-casing at
// match time).
func (r *Refiner) fuse(p1, p2 *Pattern) *Pattern {
	threshold := r.cfg.editScriptThreshold

	originalDiff := r.differ.Connect(p1.Original, p2.Original)
	modifiedDiff := r.differ.Connect(p1.Modified, p2.Modified)
	originalPartner := partnerLookup(originalDiff)
	modifiedPartner := partnerLookup(modifiedDiff)
	origStream := Walk(p1.Original, PreOrder)
	ops := p1.EditScript(threshold).Ops()

	newOriginal, wildcardOf := replaceSubtrees(p1.Original, differsFrom(originalPartner, originalDiff, threshold), func(n Node) Node {
		return NewWildcard(n, EditOpDelete)
	})
	newModified, useOf := replaceSubtrees(p1.Modified, differsFrom(modifiedPartner, modifiedDiff, threshold), func(n Node) Node {
		return NewUse(n, EditOpInsert)
	})

	linkWildcardsAndUses(origStream, ops, wildcardOf, useOf)
	r.checkLinkage(newOriginal, newModified)

	return &Pattern{
		Original: newOriginal,
		Modified: newModified,
		Pairing:  NewPairing(),
		Name:     fuseName(p1, p2),
	}
}

func fuseName(p1, p2 *Pattern) string {
	n1, n2 := p1.Name, p2.Name
	if n1 == "" {
		n1 = "pattern"
	}
	if n2 == "" {
		n2 = "pattern"
	}
	return fmt.Sprintf("fuse(%s, %s)", n1, n2)
}

// partnerLookup builds an original-side-node -> modified-side-node map from
// a Pairing's entries.
func partnerLookup(pairing *Pairing) map[Node]Node {
	out := make(map[Node]Node, pairing.Len())
	for _, e := range pairing.Entries() {
		out[e.Original] = e.Modified
	}
	return out
}

// differsFrom returns a predicate that is true for nodes with no partner in
// the comparison tree, or whose partner's similarity falls below threshold.
func differsFrom(partners map[Node]Node, pairing *Pairing, threshold float64) func(Node) bool {
	return func(n Node) bool {
		partner, ok := partners[n]
		if !ok {
			return true
		}
		return pairedSimilarity(pairing, n, partner) < threshold
	}
}

// replaceSubtrees rewrites root's pre-order stream, replacing every subtree
// whose root node satisfies shouldReplace with wrap(root-of-subtree), and
// dropping that subtree's descendants from the stream before reconstructing.
// It returns the rebuilt tree and a map from original node to its
// replacement, for callers that need to cross-reference which nodes got
// replaced (e.g. to link a Wildcard to its corresponding Use).
func replaceSubtrees(root Node, shouldReplace func(Node) bool, wrap func(Node) Node) (Node, map[Node]Node) {
	stream := Walk(root, PreOrder)
	replacement := make(map[Node]Node)
	out := make([]Node, 0, len(stream))
	i := 0
	for i < len(stream) {
		n := stream[i]
		if !isSentinel(n) && shouldReplace(n) {
			ph := wrap(n)
			replacement[n] = ph
			out = append(out, ph)
			i += n.NumChildren() + 1
			continue
		}
		out = append(out, n)
		i++
	}
	return Reconstruct(out), replacement
}

// linkWildcardsAndUses connects wildcards and uses that both originate from
// the same Update operation in p1's own edit script, assigning each matched
// pair the next incrementing index. origStream and ops are p1's pre-order
// stream and edit script, taken before replaceSubtrees rebuilds p1's nodes.
func linkWildcardsAndUses(origStream []Node, ops []EditOp, wildcardOf, useOf map[Node]Node) {
	index := 1
	for _, op := range ops {
		u, ok := op.(*Update)
		if !ok {
			continue
		}
		if u.At < 0 || u.At >= len(origStream) {
			continue
		}
		wcNode, wcOk := wildcardOf[origStream[u.At]]
		useNode, useOk := useOf[u.Change]
		if !wcOk || !useOk {
			continue
		}
		wc := wcNode.(*Wildcard)
		use := useNode.(*Use)
		if wc.Index != 0 {
			continue
		}
		wc.Index = index
		use.Index = index
		index++
	}
}

// checkLinkage warns if a freshly fused pattern's linked-index sets diverge:
// every non-zero Wildcard index in the original tree should have exactly one
// matching Use index in the modified tree, and vice versa, with order
// irrelevant (linkWildcardsAndUses assigns both sides from the same counter,
// but in whatever pre-order it encounters them in each tree). A mismatch
// indicates a bug upstream in replaceSubtrees/linkWildcardsAndUses, not a
// recoverable input condition, so this only logs; it does not fail fuse.
func (r *Refiner) checkLinkage(original, modified Node) {
	wildcardIdx := nonzeroIndices(Walk(original, PreOrder), func(n Node) (int, bool) {
		w, ok := n.(*Wildcard)
		if !ok || w.Index == 0 {
			return 0, false
		}
		return w.Index, true
	})
	useIdx := nonzeroIndices(Walk(modified, PreOrder), func(n Node) (int, bool) {
		u, ok := n.(*Use)
		if !ok || u.Index == 0 {
			return 0, false
		}
		return u.Index, true
	})
	if !slicesutil.EqualUnsorted(wildcardIdx, useIdx) {
		r.logger.Warn("refiner produced mismatched wildcard/use linkage",
			slog.Any("wildcards", wildcardIdx),
			slog.Any("uses", useIdx),
		)
	}
}

func nonzeroIndices(stream []Node, extract func(Node) (int, bool)) []int {
	var out []int
	for _, n := range stream {
		if idx, ok := extract(n); ok {
			out = append(out, idx)
		}
	}
	return out
}

func (r *Refiner) logFuse(p1, p2, fused *Pattern) {
	r.logger.Debug("refiner fused patterns",
		slog.String("left", p1.Name),
		slog.String("right", p2.Name),
		slog.String("fused", fused.Name),
	)
}
