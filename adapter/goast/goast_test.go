package goast

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mars "github.com/TvrtkoSternak/MARS"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	src := "package sample\n\nfunc f() {\n" + body + "\n}\n"
	path := filepath.Join(t.TempDir(), "sample.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestParseAssignStatement(t *testing.T) {
	path := writeSource(t, "x = 1")
	p := New(nil)
	root, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	body, ok := root.(*mars.Body)
	require.True(t, ok)
	require.Len(t, body.Statements, 1)

	assign, ok := body.Statements[0].(*mars.Assign)
	require.True(t, ok)
	assert.Equal(t, "=", assign.Op)
	assert.True(t, assign.Target.Equals(mars.NewVariable("x")))
	assert.True(t, assign.Value.Equals(mars.NewConstant(mars.ConstantNumber, "1")))
}

func TestParseIfElseChain(t *testing.T) {
	path := writeSource(t, "if x > 1 {\n\ty = 2\n} else if x < 0 {\n\ty = 3\n} else {\n\ty = 4\n}")
	p := New(nil)
	root, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	body := root.(*mars.Body)
	require.Len(t, body.Statements, 1)

	ifNode, ok := body.Statements[0].(*mars.If)
	require.True(t, ok)
	_, isCompare := ifNode.Cond.Inner.(*mars.Compare)
	assert.True(t, isCompare)

	elif, ok := ifNode.Next.(*mars.ElIf)
	require.True(t, ok)
	_, isElse := elif.Next.(*mars.Else)
	assert.True(t, isElse)
}

func TestParseWhileLoop(t *testing.T) {
	path := writeSource(t, "for x > 0 {\n\tx = x\n}")
	p := New(nil)
	root, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	body := root.(*mars.Body)
	_, ok := body.Statements[0].(*mars.While)
	assert.True(t, ok)
}

func TestParseFunctionCall(t *testing.T) {
	path := writeSource(t, "f(x, y)")
	p := New(nil)
	root, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	body := root.(*mars.Body)
	call, ok := body.Statements[0].(*mars.Function)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	fn, ok := call.Callee.(*mars.FunctionName)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Name)
}

func TestParseUnrecognisedStatementWrapsOpaque(t *testing.T) {
	path := writeSource(t, "return")
	p := New(nil)
	root, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	body := root.(*mars.Body)
	_, ok := body.Statements[0].(*mars.Constant)
	assert.True(t, ok, "a return statement has no Node Model counterpart and should wrap opaque")
}
