package mars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditScriptOpsSortedAscendingByIndex(t *testing.T) {
	es := NewEditScript()
	es.Add(NewDelete(5))
	es.Add(NewInsert(1, NewVariable("a")))
	es.Add(NewUpdate(3, NewVariable("b")))

	ops := es.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, 1, ops[0].Index())
	assert.Equal(t, 3, ops[1].Index())
	assert.Equal(t, 5, ops[2].Index())
}

func TestEditScriptApplyInsertDeleteUpdate(t *testing.T) {
	original := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "1"))

	es := NewEditScript()
	es.Add(NewUpdate(2, NewConstant(ConstantNumber, "2")))
	got := es.Apply(original)

	assign, ok := got.(*Assign)
	require.True(t, ok)
	assert.True(t, assign.Value.Equals(NewConstant(ConstantNumber, "2")))
}

func TestGenerateRoundTripsToModified(t *testing.T) {
	original := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "1"))
	modified := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "2"))

	pairing := NewDifferencer().Connect(original, modified)
	es := Generate(original, modified, pairing, 0.5)
	got := es.Apply(original)

	assert.True(t, got.Equals(modified))
}

func TestGenerateOnIdenticalTreesProducesNothingMeaningful(t *testing.T) {
	tree := sampleTree()
	pairing := NewDifferencer().Connect(tree, tree)
	es := Generate(tree, tree, pairing, 0.5)
	got := es.Apply(tree)
	assert.True(t, got.Equals(tree))
}

func TestInsertionPointFallsBackToZeroWithNoMatchedPredecessor(t *testing.T) {
	modStream := []Node{NewVariable("a"), NewVariable("b")}
	at := insertionPoint(modStream, 1, map[Node]Node{}, map[Node]int{})
	assert.Equal(t, 0, at)
}
