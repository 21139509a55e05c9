// Package goast implements mars.Parser over Go's own go/parser and go/ast:
// the natural off-the-shelf parser for the hosting language, the same role
// Python's stdlib ast module plays in the system mars was distilled from.
// Host-AST kinds with no Node Model counterpart (arithmetic binary
// expressions, return/defer/go statements, composite literals, ...) are
// wrapped as an opaque leaf rather than rejected; see wrapUnrecognised.
package goast

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io"
	"log/slog"
	"os"

	mars "github.com/TvrtkoSternak/MARS"
)

// Parser parses a Go source file into a mars.Node tree, rooted at a Body
// holding every top-level function's statements concatenated in source
// order. It satisfies mars.Parser.
type Parser struct {
	fset   *token.FileSet
	logger *slog.Logger
}

// New returns a Parser. A nil logger discards unrecognised-node diagnostics.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{fset: token.NewFileSet(), logger: logger}
}

// Parse reads and parses the Go source file at path, returning its statements
// as a single mars.Body.
func (p *Parser) Parse(_ context.Context, path string) (mars.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("goast: read %s: %w", path, err)
	}
	file, err := parser.ParseFile(p.fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("goast: parse %s: %w", path, err)
	}

	var stmts []ast.Stmt
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Body != nil {
			stmts = append(stmts, fn.Body.List...)
		}
	}
	return p.visitStmts(stmts), nil
}

func (p *Parser) visitStmts(stmts []ast.Stmt) *mars.Body {
	out := make([]mars.Node, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, p.visitStmt(s))
	}
	return mars.NewBody(out...)
}

func (p *Parser) visitStmt(s ast.Stmt) mars.Node {
	switch v := s.(type) {
	case *ast.AssignStmt:
		if len(v.Lhs) != 1 || len(v.Rhs) != 1 {
			return p.wrapUnrecognised(v)
		}
		return mars.NewAssign(p.visitExpr(v.Lhs[0]), v.Tok.String(), p.visitExpr(v.Rhs[0]))
	case *ast.ExprStmt:
		return p.visitExpr(v.X)
	case *ast.IfStmt:
		return p.visitIf(v)
	case *ast.ForStmt:
		return p.visitFor(v)
	case *ast.RangeStmt:
		return p.visitRange(v)
	case *ast.BlockStmt:
		return p.visitStmts(v.List)
	default:
		return p.wrapUnrecognised(v)
	}
}

func (p *Parser) visitIf(v *ast.IfStmt) mars.Node {
	cond := mars.NewCondition(p.visitExpr(v.Cond))
	body := p.visitStmts(v.Body.List)
	next := p.visitElse(v.Else)
	return mars.NewIf(cond, body, next)
}

// visitElse turns an *ast.IfStmt's Else field into the Next chain link an If/
// ElIf expects: nil becomes Empty, a nested if becomes ElIf, a block becomes
// Else.
func (p *Parser) visitElse(e ast.Stmt) mars.Node {
	switch v := e.(type) {
	case nil:
		return mars.NewEmpty()
	case *ast.IfStmt:
		cond := mars.NewCondition(p.visitExpr(v.Cond))
		body := p.visitStmts(v.Body.List)
		next := p.visitElse(v.Else)
		return mars.NewElIf(cond, body, next)
	case *ast.BlockStmt:
		return mars.NewElse(p.visitStmts(v.List))
	default:
		return p.wrapUnrecognised(v)
	}
}

// visitFor maps a condition-only for loop ("for cond { ... }") onto While,
// since that is the only shape a host-AST for-loop and mars's While node
// agree on; a for loop with an init or post clause has no Node Model
// counterpart and is wrapped opaque instead.
func (p *Parser) visitFor(v *ast.ForStmt) mars.Node {
	if v.Init != nil || v.Post != nil || v.Cond == nil {
		return p.wrapUnrecognised(v)
	}
	return mars.NewWhile(p.visitExpr(v.Cond), p.visitStmts(v.Body.List))
}

func (p *Parser) visitRange(v *ast.RangeStmt) mars.Node {
	target := v.Value
	if target == nil {
		target = v.Key
	}
	if target == nil {
		return p.wrapUnrecognised(v)
	}
	return mars.NewFor(p.visitExpr(target), p.visitExpr(v.X), p.visitStmts(v.Body.List))
}

func (p *Parser) visitExpr(e ast.Expr) mars.Node {
	switch v := e.(type) {
	case *ast.Ident:
		return mars.NewVariable(v.Name)
	case *ast.BasicLit:
		return mars.NewConstant(basicLitKind(v.Kind), v.Value)
	case *ast.BinaryExpr:
		return p.visitBinary(v)
	case *ast.UnaryExpr:
		op := mars.NewConstant(mars.ConstantUnaryOp, v.Op.String())
		return mars.NewUnaryOperation(op, p.visitExpr(v.X))
	case *ast.ParenExpr:
		return p.visitExpr(v.X)
	case *ast.CallExpr:
		return p.visitCall(v)
	default:
		return p.wrapUnrecognised(v)
	}
}

func basicLitKind(tok token.Token) mars.ConstantKind {
	if tok == token.STRING || tok == token.CHAR {
		return mars.ConstantString
	}
	return mars.ConstantNumber
}

// visitBinary splits go/ast's single BinaryExpr between Compare (comparison
// operators) and BoolOperation (logical operators); arithmetic operators
// have no Node Model counterpart and fall through to an opaque leaf.
func (p *Parser) visitBinary(v *ast.BinaryExpr) mars.Node {
	switch v.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		op := mars.NewConstant(mars.ConstantCompareOp, v.Op.String())
		return mars.NewCompare(op, p.visitExpr(v.X), p.visitExpr(v.Y))
	case token.LAND, token.LOR:
		op := mars.NewConstant(mars.ConstantBoolOp, v.Op.String())
		return mars.NewBoolOperation(op, p.visitExpr(v.X), p.visitExpr(v.Y))
	default:
		return p.wrapUnrecognised(v)
	}
}

func (p *Parser) visitCall(v *ast.CallExpr) mars.Node {
	callee := mars.NewFunctionName(calleeName(v.Fun))
	args := make([]mars.Node, 0, len(v.Args))
	for _, a := range v.Args {
		args = append(args, p.visitExpr(a))
	}
	return mars.NewFunction(callee, args...)
}

func calleeName(fun ast.Expr) string {
	switch v := fun.(type) {
	case *ast.Ident:
		return v.Name
	case *ast.SelectorExpr:
		return calleeName(v.X) + "." + v.Sel.Name
	default:
		return "<call>"
	}
}

// wrapUnrecognised represents a host-AST kind with no Node Model visitor as
// an opaque leaf carrying the node's rendered source text, logging a
// non-fatal *mars.UnrecognisedNode diagnostic rather than failing the parse.
func (p *Parser) wrapUnrecognised(n ast.Node) mars.Node {
	kind := fmt.Sprintf("%T", n)
	p.logger.Warn("unrecognised host-AST node", slog.Any("err", &mars.UnrecognisedNode{Kind: kind}))
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, p.fset, n); err != nil {
		return mars.NewConstant(mars.ConstantOther, kind)
	}
	return mars.NewConstant(mars.ConstantOther, buf.String())
}
