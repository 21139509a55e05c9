// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

// Optimiser post-processes a freshly fused Pattern, typically to remove
// redundancy the fusing step itself doesn't bother avoiding. Optimisers
// compose through NewOptimiserChain, which feeds each one's output to the
// next, so NewOptimiserChain(a, b, c) runs a, then b, then c.
type Optimiser interface {
	Optimise(p *Pattern) *Pattern
}

// optimiserFunc adapts a plain function to Optimiser.
type optimiserFunc func(*Pattern) *Pattern

func (f optimiserFunc) Optimise(p *Pattern) *Pattern { return f(p) }

// NewOptimiserChain links optimisers into a single Optimiser that applies
// each in order. An empty chain is a no-op passthrough.
func NewOptimiserChain(optimisers ...Optimiser) Optimiser {
	return optimiserFunc(func(p *Pattern) *Pattern {
		for _, o := range optimisers {
			p = o.Optimise(p)
		}
		return p
	})
}

// WildcardUseCompressor collapses two adjacent Wildcard nodes in a pattern's
// original tree into one: the second, immediately-following Wildcard is
// dropped. Its linked Use (if any) is dropped from the modified tree
// alongside it. At the matcher a Wildcard absorbs one host node and its
// subtree, so the compressed pattern no longer requires a second absorbed
// sibling.
type WildcardUseCompressor struct{}

func (WildcardUseCompressor) Optimise(p *Pattern) *Pattern {
	origStream := Walk(p.Original, PreOrder)
	dropOriginal := make(map[int]bool)
	for i := 0; i+1 < len(origStream); i++ {
		if dropOriginal[i] {
			continue
		}
		_, aIsWildcard := origStream[i].(*Wildcard)
		_, bIsWildcard := origStream[i+1].(*Wildcard)
		if aIsWildcard && bIsWildcard {
			dropOriginal[i+1] = true
		}
	}
	if len(dropOriginal) == 0 {
		return p
	}

	droppedIndices := make(map[int]bool)
	newOriginal := make([]Node, 0, len(origStream))
	for i, n := range origStream {
		if dropOriginal[i] {
			if wc, ok := n.(*Wildcard); ok && wc.Index != 0 {
				droppedIndices[wc.Index] = true
			}
			continue
		}
		newOriginal = append(newOriginal, n)
	}

	modStream := Walk(p.Modified, PreOrder)
	newModified := make([]Node, 0, len(modStream))
	for _, n := range modStream {
		if use, ok := n.(*Use); ok && use.Index != 0 && droppedIndices[use.Index] {
			continue
		}
		newModified = append(newModified, n)
	}

	return &Pattern{
		Original: Reconstruct(newOriginal),
		Modified: Reconstruct(newModified),
		Pairing:  p.Pairing,
		Name:     p.Name,
	}
}

// FunctionPropagator lifts a Wildcard from a Function's callee up to the
// whole call when every argument is also a Wildcard: "f(a, b)" generalized
// on every part is no more informative as "Wildcard(Wildcard, Wildcard)"
// than as a single Wildcard standing for the entire call, and the latter is
// cheaper for the matcher to absorb.
type FunctionPropagator struct{}

func (FunctionPropagator) Optimise(p *Pattern) *Pattern {
	return &Pattern{
		Original: propagateFunctionWildcards(p.Original),
		Modified: p.Modified,
		Pairing:  p.Pairing,
		Name:     p.Name,
	}
}

func propagateFunctionWildcards(n Node) Node {
	switch v := n.(type) {
	case *Function:
		v.Callee = propagateFunctionWildcards(v.Callee)
		for i, a := range v.Args {
			v.Args[i] = propagateFunctionWildcards(a)
		}
		if isWholeCallWildcardCompatible(v) {
			return NewWildcard(v, EditOpDelete)
		}
		return v
	case *Assign:
		v.Target = propagateFunctionWildcards(v.Target)
		v.Value = propagateFunctionWildcards(v.Value)
		return v
	case *Body:
		for i, c := range v.Statements {
			v.Statements[i] = propagateFunctionWildcards(c)
		}
		return v
	case *If:
		v.Next = propagateFunctionWildcards(v.Next)
		v.Body = propagateFunctionWildcards(v.Body).(*Body)
		return v
	case *ElIf:
		v.Next = propagateFunctionWildcards(v.Next)
		v.Body = propagateFunctionWildcards(v.Body).(*Body)
		return v
	case *Else:
		v.Body = propagateFunctionWildcards(v.Body).(*Body)
		return v
	case *While:
		v.Body = propagateFunctionWildcards(v.Body).(*Body)
		return v
	case *For:
		v.Body = propagateFunctionWildcards(v.Body).(*Body)
		return v
	default:
		return n
	}
}

func isWholeCallWildcardCompatible(f *Function) bool {
	if _, ok := f.Callee.(*Wildcard); !ok {
		return false
	}
	for _, a := range f.Args {
		if _, ok := a.(*Wildcard); !ok {
			return false
		}
	}
	return true
}
