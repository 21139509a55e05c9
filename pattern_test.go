package mars

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	trees map[string]Node
	fail  map[string]error
}

func (s *stubParser) Parse(_ context.Context, path string) (Node, error) {
	if err, ok := s.fail[path]; ok {
		return nil, err
	}
	return s.trees[path], nil
}

func TestPatternEditScriptDerivesFromPairing(t *testing.T) {
	original := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "1"))
	modified := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "2"))
	pc := NewPatternCreator()
	p := pc.Create(original, modified)

	es := p.EditScript(0.5)
	got := es.Apply(p.Original)
	assert.True(t, got.Equals(p.Modified))
}

func TestPatternCreatorCreateConnectsTrees(t *testing.T) {
	original := NewVariable("x")
	modified := NewVariable("y")
	pc := NewPatternCreator()
	p := pc.Create(original, modified)

	require.Same(t, original, p.Original)
	require.Same(t, modified, p.Modified)
	_, ok := p.Pairing.Get(original, modified)
	assert.True(t, ok, "Create should have connected the two roots")
}

func TestPatternCreatorCreateFromSourcesSucceeds(t *testing.T) {
	original := NewVariable("x")
	modified := NewVariable("y")
	parser := &stubParser{trees: map[string]Node{"a.src": original, "b.src": modified}}
	pc := NewPatternCreator()

	p, err := pc.CreateFromSources(context.Background(), parser, "a.src", "b.src")
	require.NoError(t, err)
	assert.Same(t, original, p.Original)
	assert.Same(t, modified, p.Modified)
}

func TestPatternCreatorCreateFromSourcesWrapsOriginalParseFailure(t *testing.T) {
	boom := errors.New("boom")
	parser := &stubParser{fail: map[string]error{"a.src": boom}}
	pc := NewPatternCreator()

	_, err := pc.CreateFromSources(context.Background(), parser, "a.src", "b.src")
	require.Error(t, err)

	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "a.src", pf.Path)
	assert.ErrorIs(t, err, boom)
}

func TestPatternCreatorCreateFromSourcesWrapsModifiedParseFailure(t *testing.T) {
	boom := errors.New("boom")
	parser := &stubParser{
		trees: map[string]Node{"a.src": NewVariable("x")},
		fail:  map[string]error{"b.src": boom},
	}
	pc := NewPatternCreator()

	_, err := pc.CreateFromSources(context.Background(), parser, "a.src", "b.src")
	require.Error(t, err)

	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "b.src", pf.Path)
}

func TestWithEditScriptThresholdOverridesDefault(t *testing.T) {
	pc := NewPatternCreator(WithEditScriptThreshold(0.9))
	assert.InDelta(t, 0.9, pc.cfg.editScriptThreshold, 1e-9)
}

func TestWithDifferOptionsForwardsToInternalDifferencer(t *testing.T) {
	pc := NewPatternCreator(WithDifferOptions(WithMaxIterations(7)))
	assert.Len(t, pc.cfg.differOpts, 1)
	assert.Equal(t, 7, pc.differ.cfg.maxIterations)
}
