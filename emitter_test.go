package mars

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incrementMatch() *Match {
	pattern := assignPattern()
	use := pattern.Modified.(*Assign).Value.(*Use)
	return &Match{
		Pattern:  pattern,
		Bindings: map[int]Node{use.Index: NewConstant(ConstantNumber, "5")},
		Start:    3,
		End:      3,
	}
}

func TestCounterCountsEmits(t *testing.T) {
	c := &Counter{}
	assert.Equal(t, 0, c.Count())
	c.Emit(incrementMatch())
	c.Emit(incrementMatch())
	assert.Equal(t, 2, c.Count())
}

func TestXMLEmitAccumulatesChanges(t *testing.T) {
	x := NewXML()
	x.Emit(incrementMatch())
	x.Emit(incrementMatch())

	out := string(x.Bytes())
	assert.Equal(t, 2, strings.Count(out, "</change>"))
	assert.Contains(t, out, `<start line="3">`)
	assert.Contains(t, out, "change_code=")
}

func TestReadableMergePreservesIndentAndOtherLines(t *testing.T) {
	source := "def f():\n    x = 1\n    return x"
	r := NewReadable(source)

	m := incrementMatch()
	m.Start, m.End = 1, 1
	r.Emit(m)

	merged := r.Merged()
	lines := strings.Split(merged, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "def f():", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "    "), "replacement should keep the original line's indentation")
	assert.Equal(t, "    return x", lines[2])
}

func TestCollectingAccumulatesEveryMatch(t *testing.T) {
	c := &Collecting{}
	c.Emit(incrementMatch())
	c.Emit(incrementMatch())

	require.Len(t, c.Matches, 2)
	assert.Equal(t, "increment-style", c.Matches[0].Pattern)
	assert.NotEmpty(t, c.Matches[0].Rendered)
}

func TestRenderAssignAndFunctionShapes(t *testing.T) {
	assign := NewAssign(NewVariable("x"), "=", NewConstant(ConstantNumber, "1"))
	assert.Equal(t, "x = 1", render(assign))

	call := &Function{Callee: &FunctionName{Name: "f"}, Args: []Node{NewVariable("a"), NewVariable("b")}}
	assert.Equal(t, "f(a, b)", render(call))
}

func TestRenderWildcardAndUsePlaceholders(t *testing.T) {
	wc := NewWildcard(nil, EditOpDelete)
	assert.Equal(t, "<*>", render(wc))

	use := NewUse(nil, EditOpInsert)
	use.Index = 3
	assert.Equal(t, "<use 3>", render(use))
}
