// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import "math"

// DifferOption configures a Differencer.
type DifferOption func(*differConfig)

type differConfig struct {
	threshold     float64
	maxIterations int
}

func defaultDifferConfig() differConfig {
	return differConfig{threshold: 0.1, maxIterations: 1000}
}

// WithThreshold sets f, the minimum similarity a candidate pair must clear to
// be kept at any stage (leaf seeding, bottom-up, top-down). The default is
// 0.1, matching the original implementation's default.
func WithThreshold(f float64) DifferOption {
	return func(c *differConfig) { c.threshold = f }
}

// WithMaxIterations caps the bottom-up/top-down fixed-point loop. The
// default, 1000, is a hard backstop against pathological inputs that never
// settle; real trees converge in a handful of rounds.
func WithMaxIterations(n int) DifferOption {
	return func(c *differConfig) { c.maxIterations = n }
}

// Differencer connects the nodes of two trees by iterating a bottom-up and
// top-down similarity pass to a fixed point, then deduplicating into a
// one-to-one Pairing.
type Differencer struct {
	cfg differConfig
}

// NewDifferencer returns a Differencer with the given options applied over
// the defaults (f=0.1, 1000 max iterations).
func NewDifferencer(opts ...DifferOption) *Differencer {
	cfg := defaultDifferConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Differencer{cfg: cfg}
}

// Connect scores and pairs the nodes of original against modified, returning
// the deduplicated Pairing. It seeds leaf-to-leaf similarity, then
// alternates bottom-up (children already paired, score the parents) and
// top-down (parents already paired, refine which children correspond) passes
// until neither changes anything or the iteration cap is hit. Finally it
// drops every pair at or below the threshold (including scores memoized
// while internal nodes scored their children) and runs greedy one-to-one
// deduplication.
func (d *Differencer) Connect(original, modified Node) *Pairing {
	pairing := NewPairing()
	d.initLeafPairs(original, modified, pairing)

	for i := 0; i < d.cfg.maxIterations; i++ {
		changedUp := d.bottomUp(original, modified, pairing)
		changedDown := d.topDown(original, modified, pairing)
		if !changedUp && !changedDown {
			break
		}
	}

	for _, e := range pairing.Entries() {
		if e.Score <= d.cfg.threshold {
			pairing.Delete(e.Original, e.Modified)
		}
	}
	pairing.Dedup()
	return pairing
}

// initLeafPairs scores every (original leaf, modified leaf) combination
// directly (no pairing context; leaves never need one) and records those
// clearing the threshold. This seeds the fixed point the same way the
// original's init_leaf_pairs does.
func (d *Differencer) initLeafPairs(original, modified Node, pairing *Pairing) {
	for _, ol := range leafNodes(original) {
		for _, ml := range leafNodes(modified) {
			if sim := ol.Similarity(ml, nil); sim > d.cfg.threshold {
				pairing.Set(ol, ml, sim)
			}
		}
	}
}

// bottomUp scores every (original internal node, modified internal node)
// combination using the Pairing accumulated so far (so it sees the latest
// settled child scores) and records those clearing the threshold, reporting
// whether any score changed meaningfully.
func (d *Differencer) bottomUp(original, modified Node, pairing *Pairing) bool {
	changed := false
	for _, oi := range internalNodes(original) {
		for _, mi := range internalNodes(modified) {
			sim := oi.Similarity(mi, pairing)
			prev, existed := pairing.Get(oi, mi)
			if sim > d.cfg.threshold {
				if !existed || math.Abs(prev-sim) > 1e-9 {
					changed = true
				}
				pairing.Set(oi, mi, sim)
			} else if existed {
				pairing.Delete(oi, mi)
				changed = true
			}
		}
	}
	return changed
}

// topDown revisits every candidate pair of internal nodes and computes a
// parent confidence s* via parentSimSoftmax, then blends that confidence into
// every already-paired child pair's score: P(cx,cy) <- mean(s*, P(cx,cy)).
// Blended pairs that fall to or below the threshold are dropped. This is the
// parent-confidence-propagates-to-children pass the original's top_down
// implements; it never introduces a new pair, only refines or removes one
// bottom-up already seeded. A parent pair whose score is exactly 1 is
// skipped: it contributes no softmax blend to its children.
func (d *Differencer) topDown(original, modified Node, pairing *Pairing) bool {
	changed := false
	for _, oi := range internalNodes(original) {
		for _, mi := range internalNodes(modified) {
			if parentScore, _ := pairing.Get(oi, mi); parentScore == 1 {
				continue
			}
			confidence := parentSimSoftmax(oi, mi, pairing)
			for _, co := range oi.Children() {
				for _, cm := range mi.Children() {
					childSim, existed := pairing.Get(co, cm)
					if !existed || childSim == 0 {
						continue
					}
					mean := arithmeticMean(confidence, childSim)
					if mean <= d.cfg.threshold {
						pairing.Delete(co, cm)
						changed = true
						continue
					}
					if math.Abs(childSim-mean) > 1e-9 {
						changed = true
					}
					pairing.Set(co, cm, mean)
				}
			}
		}
	}
	return changed
}

// parentSimSoftmax scores the confidence that x and y correspond, relative to
// every other candidate pairing either one participates in:
//
//	s* = exp(P(x,y)) / sum(exp(P(x,z)) for z paired with x, exp(P(z,y)) for z paired with y)
//
// If (x,y) itself isn't a recorded pair, P(x,y) is treated as 0 and the
// numerator exp(0)=1 can't be distinguished from a genuine zero-confidence
// match, so the function short-circuits to 0 rather than reporting a
// misleadingly nonzero softmax share.
func parentSimSoftmax(x, y Node, pairing *Pairing) float64 {
	pairScore, _ := pairing.Get(x, y)
	parentSim := math.Exp(pairScore)
	if parentSim == 1 {
		return 0
	}
	othersSim := 0.0
	for _, e := range pairing.Entries() {
		if e.Original == x || e.Modified == x || e.Original == y || e.Modified == y {
			othersSim += math.Exp(e.Score)
		}
	}
	if othersSim == 0 {
		return 0
	}
	return parentSim / othersSim
}

// internalNodes returns n's non-leaf, non-sentinel descendants (including n
// itself if applicable), in pre-order.
func internalNodes(n Node) []Node {
	var out []Node
	for _, c := range Walk(n, PreOrder) {
		if isSentinel(c) || c.IsLeaf() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// leafNodes returns n's leaf descendants (including n itself if it is a
// leaf), excluding Start/End sentinels, in pre-order.
func leafNodes(n Node) []Node {
	var out []Node
	for _, c := range Walk(n, PreOrder) {
		if isSentinel(c) {
			continue
		}
		if c.IsLeaf() {
			out = append(out, c)
		}
	}
	return out
}
