package mars

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignPair(varName, fromLiteral, toLiteral, name string) *Pattern {
	pc := NewPatternCreator()
	original := NewAssign(NewVariable(varName), "=", NewConstant(ConstantNumber, fromLiteral))
	modified := NewAssign(NewVariable(varName), "=", NewConstant(ConstantNumber, toLiteral))
	p := pc.Create(original, modified)
	p.Name = name
	return p
}

func TestRefinerNearestPairPicksSmallestCombinedEditScript(t *testing.T) {
	r := NewRefiner(nil, nil)
	p1 := assignPair("x", "1", "2", "p1")
	p2 := assignPair("y", "1", "3", "p2")
	p3 := assignPair("z", "1", "99999", "p3")

	i, j, dist, ok := r.nearestPair([]*Pattern{p1, p2, p3})
	require.True(t, ok)
	assert.NotEqual(t, i, j)
	assert.GreaterOrEqual(t, dist, 0.0)
}

func TestRefinerNearestPairNeedsAtLeastTwo(t *testing.T) {
	r := NewRefiner(nil, nil)
	_, _, _, ok := r.nearestPair([]*Pattern{assignPair("x", "1", "2", "p1")})
	assert.False(t, ok)
}

func TestRefinerFuseLinksWildcardAndUse(t *testing.T) {
	r := NewRefiner(nil, nil)
	p1 := assignPair("x", "100", "101", "p1")
	p2 := assignPair("x", "999", "998", "p2")

	fused := r.fuse(p1, p2)
	assert.Equal(t, "fuse(p1, p2)", fused.Name)

	var wildcards, uses int
	for _, n := range Walk(fused.Original, PreOrder) {
		if w, ok := n.(*Wildcard); ok && w.Index != 0 {
			wildcards++
		}
	}
	for _, n := range Walk(fused.Modified, PreOrder) {
		if u, ok := n.(*Use); ok && u.Index != 0 {
			uses++
		}
	}
	assert.Greater(t, wildcards, 0, "the differing literal should have been wildcarded")
	assert.Equal(t, wildcards, uses)
}

func TestRefinerRefineShrinksToMinPatterns(t *testing.T) {
	r := NewRefiner(nil, nil, WithMinPatterns(1))
	patterns := []*Pattern{
		assignPair("x", "1", "2", "p1"),
		assignPair("y", "1", "3", "p2"),
	}

	out := r.Refine(patterns)
	require.Len(t, out, 1)
	assert.Len(t, patterns, 2, "Refine must not mutate its input slice")
}

func TestRefinerRefineStopsAtMaxPatternDistance(t *testing.T) {
	r := NewRefiner(nil, nil, WithMinPatterns(1), WithMaxPatternDistance(-1))
	patterns := []*Pattern{
		assignPair("x", "1", "2", "p1"),
		assignPair("y", "1", "3", "p2"),
	}

	out := r.Refine(patterns)
	assert.Len(t, out, 2, "a negative max distance should reject every candidate pair immediately")
}

func TestRefinerCheckLinkageWarnsOnMismatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRefiner(nil, logger)

	wc := NewWildcard(nil, EditOpDelete)
	wc.Index = 1
	use := NewUse(nil, EditOpInsert)
	use.Index = 2

	r.checkLinkage(NewBody(wc), NewBody(use))

	assert.True(t, strings.Contains(buf.String(), "mismatched wildcard/use linkage"))
}

func TestRefinerCheckLinkageSilentOnMatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRefiner(nil, logger)

	wc := NewWildcard(nil, EditOpDelete)
	wc.Index = 1
	use := NewUse(nil, EditOpInsert)
	use.Index = 1

	r.checkLinkage(NewBody(wc), NewBody(use))

	assert.Empty(t, buf.String())
}
