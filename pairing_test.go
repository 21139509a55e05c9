package mars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingSetGetDelete(t *testing.T) {
	p := NewPairing()
	a, b := NewVariable("a"), NewVariable("b")
	_, ok := p.Get(a, b)
	require.False(t, ok)

	p.Set(a, b, 0.75)
	v, ok := p.Get(a, b)
	require.True(t, ok)
	assert.Equal(t, 0.75, v)
	assert.Equal(t, 1, p.Len())

	p.Delete(a, b)
	_, ok = p.Get(a, b)
	assert.False(t, ok)
	assert.Equal(t, 0, p.Len())
}

func TestPairingDedupGreedyOneToOne(t *testing.T) {
	p := NewPairing()
	a1, a2 := NewVariable("a1"), NewVariable("a2")
	b1, b2 := NewVariable("b1"), NewVariable("b2")

	p.Set(a1, b1, 0.9)
	p.Set(a1, b2, 0.8)
	p.Set(a2, b1, 0.95)

	p.Dedup()

	entries := p.Entries()
	require.Len(t, entries, 2)
	assert.Same(t, a1, entries[0].Original)
	assert.Same(t, b2, entries[0].Modified)
	assert.Same(t, a2, entries[1].Original)
	assert.Same(t, b1, entries[1].Modified)
}

func TestArithmeticMean(t *testing.T) {
	assert.Equal(t, 0.0, arithmeticMean())
	assert.InDelta(t, 0.5, arithmeticMean(0, 1), 1e-9)
	assert.InDelta(t, 2.0/3.0, arithmeticMean(1, 1, 0), 1e-9)
}

func TestPairedSimilarityMemoizes(t *testing.T) {
	p := NewPairing()
	a, b := NewVariable("same"), NewVariable("same")
	first := pairedSimilarity(p, a, b)
	p.Set(a, b, 0.42)
	second := pairedSimilarity(p, a, b)
	assert.Equal(t, 1.0, first)
	assert.Equal(t, 0.42, second, "a cached score should be returned instead of recomputed")
}

func TestPairedSimilarityNilPairingDisablesCache(t *testing.T) {
	a, b := NewVariable("x"), NewVariable("y")
	assert.Equal(t, a.Similarity(b, nil), pairedSimilarity(nil, a, b))
}
