// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import "sort"

// pairKey identifies a scored (original, modified) node pair by pointer
// identity, not by structural value: two distinct Variable{"x"} nodes are
// different keys even though they'd compare Equals.
type pairKey struct {
	a, b Node
}

// Pairing accumulates similarity scores for node pairs discovered while the
// differencer connects an original tree to a modified one. It doubles as a
// memoization cache (internal node similarity recurses into child similarity,
// and re-scoring the same pair twice would be wasted work) and as the final
// connection result handed to edit-script generation.
//
// Entries preserve insertion order so that dedup/export can be deterministic
// without an extra sort key.
type Pairing struct {
	scores map[pairKey]float64
	order  []pairKey
}

// NewPairing returns an empty Pairing.
func NewPairing() *Pairing {
	return &Pairing{scores: make(map[pairKey]float64)}
}

// Set records (or overwrites) the similarity score for the pair (a, b).
func (p *Pairing) Set(a, b Node, score float64) {
	k := pairKey{a, b}
	if _, exists := p.scores[k]; !exists {
		p.order = append(p.order, k)
	}
	p.scores[k] = score
}

// Get returns the recorded score for (a, b), if any.
func (p *Pairing) Get(a, b Node) (float64, bool) {
	v, ok := p.scores[pairKey{a, b}]
	return v, ok
}

// Delete removes the pair (a, b), used when deduplication rejects a
// previously recorded candidate in favour of a higher-scoring one.
func (p *Pairing) Delete(a, b Node) {
	k := pairKey{a, b}
	if _, exists := p.scores[k]; !exists {
		return
	}
	delete(p.scores, k)
	for i, e := range p.order {
		if e == k {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// PairEntry is a single (original, modified, score) connection.
type PairEntry struct {
	Original Node
	Modified Node
	Score    float64
}

// Entries returns all recorded pairs in insertion order.
func (p *Pairing) Entries() []PairEntry {
	out := make([]PairEntry, 0, len(p.order))
	for _, k := range p.order {
		out = append(out, PairEntry{Original: k.a, Modified: k.b, Score: p.scores[k]})
	}
	return out
}

// Len reports the number of recorded pairs.
func (p *Pairing) Len() int { return len(p.order) }

// sortedByScoreDesc returns Entries() sorted by descending score, used by the
// differencer's greedy one-to-one deduplication pass. Ties break by original
// insertion order, making dedup deterministic for identical input.
func (p *Pairing) sortedByScoreDesc() []PairEntry {
	entries := p.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Dedup performs the differencer's greedy one-to-one deduplication pass:
// entries are visited highest-score first, and a candidate is kept only if
// neither its original nor its modified node has already been claimed by a
// higher-scoring pair. Rejected entries are removed from the Pairing.
func (p *Pairing) Dedup() {
	entries := p.sortedByScoreDesc()
	usedOriginal := make(map[Node]bool, len(entries))
	usedModified := make(map[Node]bool, len(entries))
	keep := make(map[pairKey]bool, len(entries))
	for _, e := range entries {
		if usedOriginal[e.Original] || usedModified[e.Modified] {
			continue
		}
		usedOriginal[e.Original] = true
		usedModified[e.Modified] = true
		keep[pairKey{e.Original, e.Modified}] = true
	}
	for _, k := range append([]pairKey(nil), p.order...) {
		if !keep[k] {
			p.Delete(k.a, k.b)
		}
	}
}

// pairedSimilarity looks up a memoized score for (a, b) in pairing, computing
// and caching it on first use. Passing a nil pairing disables memoization
// (every call recomputes), which unit tests use to keep scoring pure.
func pairedSimilarity(pairing *Pairing, a, b Node) float64 {
	if pairing == nil {
		return a.Similarity(b, nil)
	}
	if v, ok := pairing.Get(a, b); ok {
		return v
	}
	v := a.Similarity(b, pairing)
	pairing.Set(a, b, v)
	return v
}

// arithmeticMean averages xs. The top-down differencer pass and most node
// Similarity implementations use this rather than a harmonic or geometric
// mean: a single strongly-dissimilar child should pull a parent's score down
// proportionally, not dominate it.
func arithmeticMean(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// weightedOperatorMean combines an operator/condition similarity with two
// operand similarities, weighting the operator term twice as heavily as each
// operand: (2*op + a + b) / 4. Assign, Compare, BoolOperation, and If/ElIf
// all use this shape, matching astwrapper.py's similarity methods.
func weightedOperatorMean(op, a, b float64) float64 {
	return (2*op + a + b) / 4
}

// weightedUnaryMean combines a unary operator similarity with its single
// operand similarity, weighting the operator 1.5x against the operand:
// (1.5*op + operand) / 2.5, matching astwrapper.py's UnaryOperation
// similarity.
func weightedUnaryMean(op, operand float64) float64 {
	return (1.5*op + operand) / 2.5
}
