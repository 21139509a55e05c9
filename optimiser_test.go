package mars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildcardUseCompressorDropsAdjacentWildcard(t *testing.T) {
	wc1 := NewWildcard(nil, EditOpDelete)
	wc1.Index = 1
	wc2 := NewWildcard(nil, EditOpDelete)
	wc2.Index = 2

	use1 := NewUse(nil, EditOpInsert)
	use1.Index = 1
	use2 := NewUse(nil, EditOpInsert)
	use2.Index = 2

	p := &Pattern{
		Original: NewBody(wc1, wc2),
		Modified: NewBody(use1, use2),
		Pairing:  NewPairing(),
	}

	optimised := WildcardUseCompressor{}.Optimise(p)

	body, ok := optimised.Original.(*Body)
	require.True(t, ok)
	require.Len(t, body.Statements, 1, "the second, redundant sibling wildcard should be dropped")
	wc, isWildcard := body.Statements[0].(*Wildcard)
	require.True(t, isWildcard)
	assert.Equal(t, 1, wc.Index)

	modBody, ok := optimised.Modified.(*Body)
	require.True(t, ok)
	require.Len(t, modBody.Statements, 1, "the Use linked to the dropped wildcard should be removed too")
	use, isUse := modBody.Statements[0].(*Use)
	require.True(t, isUse)
	assert.Equal(t, 1, use.Index)
}

func TestWildcardUseCompressorNoopWithoutAdjacentWildcards(t *testing.T) {
	p := &Pattern{
		Original: NewVariable("x"),
		Modified: NewVariable("y"),
		Pairing:  NewPairing(),
	}
	optimised := WildcardUseCompressor{}.Optimise(p)
	assert.Same(t, p, optimised)
}

func TestFunctionPropagatorCollapsesWholeWildcardCall(t *testing.T) {
	call := &Function{Callee: NewWildcard(nil, EditOpDelete), Args: []Node{NewWildcard(nil, EditOpDelete)}}
	p := &Pattern{Original: call, Modified: NewVariable("x"), Pairing: NewPairing()}

	optimised := FunctionPropagator{}.Optimise(p)
	_, ok := optimised.Original.(*Wildcard)
	assert.True(t, ok, "a call with wildcard callee and all-wildcard args should collapse to one Wildcard")
}

func TestFunctionPropagatorLeavesPartialCallAlone(t *testing.T) {
	call := &Function{Callee: NewWildcard(nil, EditOpDelete), Args: []Node{NewVariable("a")}}
	p := &Pattern{Original: call, Modified: NewVariable("x"), Pairing: NewPairing()}

	optimised := FunctionPropagator{}.Optimise(p)
	fn, ok := optimised.Original.(*Function)
	require.True(t, ok, "a call with a non-wildcard argument should not collapse")
	assert.Len(t, fn.Args, 1)
}

func TestNewOptimiserChainAppliesInOrder(t *testing.T) {
	var order []string
	first := optimiserFunc(func(p *Pattern) *Pattern {
		order = append(order, "first")
		return p
	})
	second := optimiserFunc(func(p *Pattern) *Pattern {
		order = append(order, "second")
		return p
	})

	chain := NewOptimiserChain(first, second)
	chain.Optimise(&Pattern{Original: NewVariable("x"), Modified: NewVariable("x"), Pairing: NewPairing()})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNewOptimiserChainEmptyIsPassthrough(t *testing.T) {
	p := &Pattern{Original: NewVariable("x"), Modified: NewVariable("x"), Pairing: NewPairing()}
	chain := NewOptimiserChain()
	assert.Same(t, p, chain.Optimise(p))
}
