// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import "sort"

// EditOp is a single change applied to a pre-order node stream: insert a new
// subtree, delete an existing one, or update a leaf's payload in place.
// Update is modeled as Delete followed by Insert at the same index.
type EditOp interface {
	// Index returns the position this op targets in the stream it was
	// generated against.
	Index() int
	apply(stream []Node) []Node
}

// Insert splices Change's pre-order walk into the stream starting at At.
type Insert struct {
	At     int
	Change Node
}

// NewInsert returns an Insert op.
func NewInsert(at int, change Node) *Insert { return &Insert{At: at, Change: change} }

func (o *Insert) Index() int { return o.At }
func (o *Insert) apply(stream []Node) []Node {
	ins := Walk(o.Change, PreOrder)
	out := make([]Node, 0, len(stream)+len(ins))
	out = append(out, stream[:o.At]...)
	out = append(out, ins...)
	out = append(out, stream[o.At:]...)
	return out
}

// Delete removes the subtree rooted at At, i.e. the range [At, At+numChildren+1).
type Delete struct {
	At int
}

// NewDelete returns a Delete op.
func NewDelete(at int) *Delete { return &Delete{At: at} }

func (o *Delete) Index() int { return o.At }
func (o *Delete) apply(stream []Node) []Node {
	end := o.At + stream[o.At].NumChildren() + 1
	out := make([]Node, 0, len(stream)-(end-o.At))
	out = append(out, stream[:o.At]...)
	out = append(out, stream[end:]...)
	return out
}

// Update replaces the node at At with Change: a Delete of the old subtree
// followed by an Insert of Change at the same index.
type Update struct {
	At     int
	Change Node
}

// NewUpdate returns an Update op.
func NewUpdate(at int, change Node) *Update { return &Update{At: at, Change: change} }

func (o *Update) Index() int { return o.At }
func (o *Update) apply(stream []Node) []Node {
	stream = (&Delete{At: o.At}).apply(stream)
	return (&Insert{At: o.At, Change: o.Change}).apply(stream)
}

// EditScript is an ordered collection of EditOps generated against a single
// original tree's pre-order stream.
type EditScript struct {
	ops []EditOp
}

// NewEditScript returns an empty EditScript.
func NewEditScript() *EditScript { return &EditScript{} }

// Add appends op to the script.
func (es *EditScript) Add(op EditOp) { es.ops = append(es.ops, op) }

// Len reports the number of operations.
func (es *EditScript) Len() int { return len(es.ops) }

// Ops returns the script's operations sorted ascending by Index, stable for
// ties on insertion order. This is the canonical iteration/serialisation
// order; Apply internally walks the reverse of this order so earlier splices
// don't invalidate later ones' coordinates.
func (es *EditScript) Ops() []EditOp {
	out := make([]EditOp, len(es.ops))
	copy(out, es.ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// Apply reconstructs a tree with this script's edits applied to original.
// Operations are indexed against original's own pre-order stream, so they
// are applied from the highest index down to the lowest: an op at a higher
// index never shifts the coordinates an op at a lower index still needs.
func (es *EditScript) Apply(original Node) Node {
	stream := Walk(original, PreOrder)
	ops := es.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		stream = ops[i].apply(stream)
	}
	return Reconstruct(stream)
}

func isSentinel(n Node) bool {
	switch n.(type) {
	case *Start, *End:
		return true
	default:
		return false
	}
}

// Generate derives the EditScript that transforms original into modified,
// given a Pairing already connecting their nodes (see Differencer.Connect).
// threshold is the minimum similarity a paired node must meet to be kept as
// an Update rather than replaced by a Delete+Insert pair; 0.5 is the default
// used by PatternCreator.
func Generate(original, modified Node, pairing *Pairing, threshold float64) *EditScript {
	es := NewEditScript()
	origStream := Walk(original, PreOrder)
	modStream := Walk(modified, PreOrder)

	matchedOriginal := make(map[Node]Node, pairing.Len())
	matchedModified := make(map[Node]Node, pairing.Len())
	for _, e := range pairing.Entries() {
		matchedOriginal[e.Original] = e.Modified
		matchedModified[e.Modified] = e.Original
	}

	origIndex := make(map[Node]int, len(origStream))
	for i, n := range origStream {
		origIndex[n] = i
	}

	// keptModified holds every modified-side node whose original partner was
	// left in place (Updated or untouched) rather than Deleted: only these
	// are skipped by the insert pass below. A pair that Dedup kept but fell
	// below threshold or failed IsMutableAgainst still gets its original
	// side deleted, so its modified side must still be inserted — otherwise
	// the edit script would silently drop that subtree instead of replacing
	// it, breaking apply(generate(A, B), A) == B.
	keptModified := make(map[Node]bool, len(matchedModified))

	skipUntil := -1
	for i, node := range origStream {
		if i < skipUntil {
			continue
		}
		if isSentinel(node) {
			continue
		}
		partner, matched := matchedOriginal[node]
		if !matched {
			es.Add(NewDelete(i))
			skipUntil = i + node.NumChildren() + 1
			continue
		}
		sim := pairedSimilarity(pairing, node, partner)
		switch {
		case sim < threshold:
			es.Add(NewDelete(i))
			skipUntil = i + node.NumChildren() + 1
		case !node.IsMutableAgainst(partner):
			es.Add(NewDelete(i))
			skipUntil = i + node.NumChildren() + 1
		case node.IsLeaf() && sim < 1:
			es.Add(NewUpdate(i, partner))
			keptModified[partner] = true
		default:
			keptModified[partner] = true
		}
	}

	skipModified := -1
	for i, node := range modStream {
		if i < skipModified {
			continue
		}
		if isSentinel(node) {
			continue
		}
		if keptModified[node] {
			continue
		}
		at := insertionPoint(modStream, i, matchedModified, origIndex)
		es.Add(NewInsert(at, node))
		skipModified = i + node.NumChildren() + 1
	}

	return es
}

// insertionPoint locates where a new, unmatched modified-side node at modStream[i]
// should be spliced into the original stream's coordinates: immediately after
// the nearest preceding modified node that does have an original counterpart.
// Falling off the front of the stream with no matched predecessor means the
// insertion belongs at the very start.
func insertionPoint(modStream []Node, i int, matchedModified map[Node]Node, origIndex map[Node]int) int {
	for j := i - 1; j >= 0; j-- {
		orig, ok := matchedModified[modStream[j]]
		if !ok {
			continue
		}
		oi, ok := origIndex[orig]
		if !ok {
			continue
		}
		return oi + orig.NumChildren() + 1
	}
	return 0
}
