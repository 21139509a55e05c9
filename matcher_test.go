package mars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignPattern() *Pattern {
	original := NewAssign(NewVariable("x"), "=", NewWildcard(nil, EditOpDelete))
	modified := NewAssign(NewVariable("x"), "+=", NewUse(nil, EditOpInsert))
	wc := original.Value.(*Wildcard)
	use := modified.Value.(*Use)
	wc.Index, use.Index = 1, 1
	return &Pattern{Original: original, Modified: modified, Pairing: NewPairing(), Name: "increment-style"}
}

func TestPatternFactoryListenerSpawnsOnMatchingFirstNode(t *testing.T) {
	p := assignPattern()
	f := NewPatternFactoryListener(p)
	host := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "5"))
	outcome := f.Step(host, 0)
	require.Equal(t, StepSpawn, outcome.Result)
	require.NotNil(t, outcome.Spawned)
}

func TestPatternFactoryListenerDoesNotSpawnOnShapeMismatch(t *testing.T) {
	p := assignPattern()
	f := NewPatternFactoryListener(p)
	host := NewVariable("x")
	outcome := f.Step(host, 0)
	assert.Equal(t, StepContinue, outcome.Result)
}

func TestRecommenderScanEmitsMatchWithBinding(t *testing.T) {
	p := assignPattern()
	r := NewRecommender([]*Pattern{p}, nil)

	host := NewBody(NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "5")))
	matches := r.Scan(host)
	require.Len(t, matches, 1)
	m := matches[0]
	bound, ok := m.Bindings[1]
	require.True(t, ok)
	assert.True(t, bound.Equals(NewConstant(ConstantNumber, "5")))
}

func TestMatchRenderSubstitutesUse(t *testing.T) {
	p := assignPattern()
	host := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "5"))

	r := NewRecommender([]*Pattern{p}, nil)
	matches := r.Scan(host)
	require.Len(t, matches, 1)
	rendered := matches[0].Render()
	assign, ok := rendered.(*Assign)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Op)
	assert.True(t, assign.Value.Equals(NewConstant(ConstantNumber, "5")))
}

func TestRecommenderPositionsAndNodesAgree(t *testing.T) {
	r := NewRecommender(nil, nil)
	host := sampleTree()
	var positions []int
	for p := range r.Positions(host) {
		positions = append(positions, p)
	}
	var nodes []Node
	for n := range r.Nodes(host) {
		nodes = append(nodes, n)
	}
	stream := Walk(host, PreOrder)
	require.Len(t, positions, len(stream))
	require.Len(t, nodes, len(stream))
	for i := range stream {
		assert.Equal(t, i, positions[i])
		assert.Same(t, stream[i], nodes[i])
	}
}
