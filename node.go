// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

// Order selects the traversal direction used by Walk.
type Order uint8

const (
	// PreOrder visits a node before its children. It is the canonical order used
	// everywhere a node needs a stable, position-addressable index: edit scripts,
	// the matcher's host stream, and pattern serialisation all index into a
	// pre-order linearisation.
	PreOrder Order = iota
	// PostOrder visits a node after its children. It is only used internally by
	// the differencer's bottom-up pass, which needs children fully paired before
	// their parent can be scored.
	PostOrder
)

// Node is the tagged union at the center of the wrapped AST model. Every source
// construct the differencer, edit script, pattern store, and matcher operate on
// implements Node; there is no escape hatch to the host AST once wrapping is done.
//
// Implementations live in this package only: the interface's traversal methods are
// unexported on purpose, so external packages (adapter/goast and friends) build
// trees by instantiating the exported variant structs rather than by satisfying
// this interface themselves.
type Node interface {
	// walk appends this node (and, for internal nodes, its descendants) to out in
	// the requested order.
	walk(order Order, out *[]Node)
	// rebuild consumes zero or more leading elements of stream to reconstitute this
	// node's children, returning the rebuilt node and whatever remains of stream.
	rebuild(stream []Node) (Node, []Node)
	// Equals reports structural equality, with Wildcard/Use nodes on either side
	// acting as universal matches. See isPlaceholder and childrenEqual for the
	// exact rule.
	Equals(other Node) bool
	// Similarity scores how alike this node is to other in [0,1]. Internal nodes
	// need the in-progress Pairing to score their children; leaves ignore it.
	Similarity(other Node, pairing *Pairing) float64
	// NumChildren returns the count of this node's transitive descendants,
	// including Start/End sentinels where present. It equals len(Walk(n,
	// PreOrder))-1.
	NumChildren() int
	// IsLeaf reports whether this node has no children at all.
	IsLeaf() bool
	// IsMutableAgainst reports whether this node may be replaced by other during
	// edit-script generation. Two nodes of incompatible shape (e.g. a Variable and
	// a For) are never mutable against one another; the differencer instead
	// deletes and inserts.
	IsMutableAgainst(other Node) bool
	// Children returns this node's immediate children in the order they are
	// walked, omitting Start/End sentinels. Leaves return nil.
	Children() []Node
}

// Walk linearises n in the given order and returns the resulting stream. Pre-order
// streams are what edit scripts and the matcher index into; post-order is used by
// the differencer's bottom-up pass.
func Walk(n Node, order Order) []Node {
	out := make([]Node, 0, n.NumChildren()+1)
	n.walk(order, &out)
	return out
}

// Reconstruct rebuilds a tree from a pre-order stream previously produced by Walk
// (and possibly mutated by an EditScript). It is the inverse of Walk(n, PreOrder):
// for any n, Reconstruct(Walk(n, PreOrder)) is structurally Equals to n.
func Reconstruct(stream []Node) Node {
	if len(stream) == 0 {
		return nil
	}
	n, _ := stream[0].rebuild(stream[1:])
	return n
}

// popAndRebuild pops the head of stream as a self node and rebuilds it against the
// remainder, returning the rebuilt node and whatever stream is left after it.
func popAndRebuild(stream []Node) (Node, []Node) {
	head := stream[0]
	return head.rebuild(stream[1:])
}

// leafWalk is shared by every leaf variant: a leaf contributes only itself to the
// stream, regardless of order.
func leafWalk(self Node, out *[]Node) {
	*out = append(*out, self)
}

// leafRebuild is shared by every leaf variant: leaves consume nothing further from
// the stream.
func leafRebuild(self Node, stream []Node) (Node, []Node) {
	return self, stream
}

func isPlaceholder(n Node) bool {
	switch n.(type) {
	case *Wildcard, *Use:
		return true
	default:
		return false
	}
}

// numChildrenOf counts the transitive descendants of n including sentinels, by
// walking it in pre-order. It is shared by every variant's NumChildren method; see
// the invariant documented on Node.NumChildren.
func numChildrenOf(n Node) int {
	var out []Node
	n.walk(PreOrder, &out)
	return len(out) - 1
}

// ===== Leaves =====

// Variable wraps an identifier reference. Two Variables are similar in proportion
// to the LCS ratio of their names (internal/simtext).
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable { return &Variable{Name: name} }

func (v *Variable) walk(_ Order, out *[]Node)      { leafWalk(v, out) }
func (v *Variable) rebuild(s []Node) (Node, []Node) { return leafRebuild(v, s) }
func (v *Variable) NumChildren() int                { return 0 }
func (v *Variable) IsLeaf() bool                    { return true }
func (v *Variable) Children() []Node                { return nil }
func (v *Variable) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Variable)
	return ok
}
func (v *Variable) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Variable)
	return ok && o.Name == v.Name
}
func (v *Variable) Similarity(other Node, _ *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Variable)
	if !ok {
		return 0
	}
	return leafTextSimilarity(v.Name, o.Name)
}

// ConstantKind distinguishes the literal/operator families the original wraps under
// a single Constant node (numbers, strings, comparison and boolean operators,
// unary operators, and bare keyword-like constants).
type ConstantKind uint8

const (
	ConstantNumber ConstantKind = iota
	ConstantString
	ConstantCompareOp
	ConstantBoolOp
	ConstantUnaryOp
	ConstantOperator
	ConstantOther
)

// Constant wraps a literal or an operator symbol. Operator constants (the Op
// fields of Compare/BoolOperation/UnaryOperation) compare equal only when both
// Kind and Literal match; this prevents e.g. "+" matching "==" just because the
// strings happen to overlap under LCS ratio.
type Constant struct {
	Kind    ConstantKind
	Literal string
}

func NewConstant(kind ConstantKind, literal string) *Constant {
	return &Constant{Kind: kind, Literal: literal}
}

func (c *Constant) walk(_ Order, out *[]Node)      { leafWalk(c, out) }
func (c *Constant) rebuild(s []Node) (Node, []Node) { return leafRebuild(c, s) }
func (c *Constant) NumChildren() int                { return 0 }
func (c *Constant) IsLeaf() bool                    { return true }
func (c *Constant) Children() []Node                { return nil }
func (c *Constant) IsMutableAgainst(other Node) bool {
	o, ok := other.(*Constant)
	return ok && o.Kind == c.Kind
}
func (c *Constant) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Constant)
	return ok && o.Kind == c.Kind && o.Literal == c.Literal
}
func (c *Constant) Similarity(other Node, _ *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Constant)
	if !ok || o.Kind != c.Kind {
		return 0
	}
	if isOperatorKind(c.Kind) {
		if c.Literal == o.Literal {
			return 1
		}
		return 0
	}
	return leafTextSimilarity(c.Literal, o.Literal)
}

func isOperatorKind(k ConstantKind) bool {
	return k == ConstantCompareOp || k == ConstantBoolOp || k == ConstantUnaryOp || k == ConstantOperator
}

// FunctionName wraps a call target's identifier, scored like Variable.
type FunctionName struct {
	Name string
}

func NewFunctionName(name string) *FunctionName { return &FunctionName{Name: name} }

func (f *FunctionName) walk(_ Order, out *[]Node)      { leafWalk(f, out) }
func (f *FunctionName) rebuild(s []Node) (Node, []Node) { return leafRebuild(f, s) }
func (f *FunctionName) NumChildren() int                { return 0 }
func (f *FunctionName) IsLeaf() bool                    { return true }
func (f *FunctionName) Children() []Node                { return nil }
func (f *FunctionName) IsMutableAgainst(other Node) bool {
	_, ok := other.(*FunctionName)
	return ok
}
func (f *FunctionName) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*FunctionName)
	return ok && o.Name == f.Name
}
func (f *FunctionName) Similarity(other Node, _ *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*FunctionName)
	if !ok {
		return 0
	}
	return leafTextSimilarity(f.Name, o.Name)
}

// Empty marks an absent optional child (an If with no else-branch, for instance).
// It is a leaf that matches only other Empty nodes (and placeholders).
type Empty struct{}

func NewEmpty() *Empty { return &Empty{} }

func (e *Empty) walk(_ Order, out *[]Node)      { leafWalk(e, out) }
func (e *Empty) rebuild(s []Node) (Node, []Node) { return leafRebuild(e, s) }
func (e *Empty) NumChildren() int                { return 0 }
func (e *Empty) IsLeaf() bool                    { return true }
func (e *Empty) Children() []Node                { return nil }
func (e *Empty) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Empty)
	return ok
}
func (e *Empty) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	_, ok := other.(*Empty)
	return ok
}
func (e *Empty) Similarity(other Node, _ *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	if _, ok := other.(*Empty); ok {
		return 1
	}
	return 0
}

// Start brackets the first element of a Body's or Function's variable-arity
// child run. It carries no payload; together with End it marks where that
// run begins and ends in the pre-order stream, so Reconstruct can tell how
// many children to rebuild.
type Start struct{}

func NewStart() *Start { return &Start{} }

func (s *Start) walk(_ Order, out *[]Node)       { leafWalk(s, out) }
func (s *Start) rebuild(st []Node) (Node, []Node) { return leafRebuild(s, st) }
func (s *Start) NumChildren() int                 { return 0 }
func (s *Start) IsLeaf() bool                     { return true }
func (s *Start) Children() []Node                 { return nil }
func (s *Start) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Start)
	return ok
}
func (s *Start) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	_, ok := other.(*Start)
	return ok
}
func (s *Start) Similarity(other Node, _ *Pairing) float64 {
	if _, ok := other.(*Start); ok {
		return 1
	}
	return 0
}

// End brackets the last element of a Body's or Function's variable-arity child
// run. See Start.
type End struct{}

func NewEnd() *End { return &End{} }

func (e *End) walk(_ Order, out *[]Node)      { leafWalk(e, out) }
func (e *End) rebuild(s []Node) (Node, []Node) { return leafRebuild(e, s) }
func (e *End) NumChildren() int                { return 0 }
func (e *End) IsLeaf() bool                    { return true }
func (e *End) Children() []Node                { return nil }
func (e *End) IsMutableAgainst(other Node) bool {
	_, ok := other.(*End)
	return ok
}
func (e *End) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	_, ok := other.(*End)
	return ok
}
func (e *End) Similarity(other Node, _ *Pairing) float64 {
	if _, ok := other.(*End); ok {
		return 1
	}
	return 0
}

// ===== Internal (non-leaf) nodes =====

// Assign represents a variable assignment: target op value, e.g. "x += 1".
type Assign struct {
	Target Node
	Op     string
	Value  Node
}

func NewAssign(target Node, op string, value Node) *Assign {
	return &Assign{Target: target, Op: op, Value: value}
}

func (a *Assign) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, a)
		a.Target.walk(order, out)
		a.Value.walk(order, out)
	case PostOrder:
		a.Target.walk(order, out)
		a.Value.walk(order, out)
		*out = append(*out, a)
	}
}
func (a *Assign) rebuild(stream []Node) (Node, []Node) {
	target, stream := popAndRebuild(stream)
	value, stream := popAndRebuild(stream)
	a.Target, a.Value = target, value
	return a, stream
}
func (a *Assign) NumChildren() int { return numChildrenOf(a) }
func (a *Assign) IsLeaf() bool     { return false }
func (a *Assign) Children() []Node { return []Node{a.Target, a.Value} }
func (a *Assign) IsMutableAgainst(other Node) bool {
	o, ok := other.(*Assign)
	return ok && a.Op == o.Op
}
func (a *Assign) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Assign)
	return ok && a.Op == o.Op && a.Target.Equals(o.Target) && a.Value.Equals(o.Value)
}
func (a *Assign) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Assign)
	if !ok || a.Op != o.Op {
		return 0
	}
	targetSim := pairedSimilarity(pairing, a.Target, o.Target)
	valueSim := pairedSimilarity(pairing, a.Value, o.Value)
	return weightedOperatorMean(1, targetSim, valueSim)
}

// Compare represents a binary comparison: left op right, e.g. "a == b". Op is
// always a Constant of kind ConstantCompareOp.
type Compare struct {
	Op    *Constant
	Left  Node
	Right Node
}

func NewCompare(op *Constant, left, right Node) *Compare {
	return &Compare{Op: op, Left: left, Right: right}
}

func (c *Compare) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, c)
		c.Left.walk(order, out)
		c.Op.walk(order, out)
		c.Right.walk(order, out)
	case PostOrder:
		c.Left.walk(order, out)
		c.Op.walk(order, out)
		c.Right.walk(order, out)
		*out = append(*out, c)
	}
}
func (c *Compare) rebuild(stream []Node) (Node, []Node) {
	left, stream := popAndRebuild(stream)
	op, stream := popAndRebuild(stream)
	right, stream := popAndRebuild(stream)
	c.Left, c.Right = left, right
	c.Op = op.(*Constant)
	return c, stream
}
func (c *Compare) NumChildren() int { return numChildrenOf(c) }
func (c *Compare) IsLeaf() bool     { return false }
func (c *Compare) Children() []Node { return []Node{c.Left, c.Op, c.Right} }
func (c *Compare) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Compare)
	return ok
}
func (c *Compare) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Compare)
	return ok && c.Op.Equals(o.Op) && c.Left.Equals(o.Left) && c.Right.Equals(o.Right)
}
func (c *Compare) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	switch o := other.(type) {
	case *Compare:
		return weightedOperatorMean(c.Op.Similarity(o.Op, pairing), pairedSimilarity(pairing, c.Left, o.Left), pairedSimilarity(pairing, c.Right, o.Right))
	case *BoolOperation:
		return crossOperatorSimilarity(c.Left, c.Right, o.Left, o.Right, pairing)
	default:
		return 0
	}
}

// BoolOperation represents a binary boolean connective: left op right, e.g.
// "a and b". Op is always a Constant of kind ConstantBoolOp.
type BoolOperation struct {
	Op    *Constant
	Left  Node
	Right Node
}

func NewBoolOperation(op *Constant, left, right Node) *BoolOperation {
	return &BoolOperation{Op: op, Left: left, Right: right}
}

func (b *BoolOperation) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, b)
		b.Left.walk(order, out)
		b.Op.walk(order, out)
		b.Right.walk(order, out)
	case PostOrder:
		b.Left.walk(order, out)
		b.Op.walk(order, out)
		b.Right.walk(order, out)
		*out = append(*out, b)
	}
}
func (b *BoolOperation) rebuild(stream []Node) (Node, []Node) {
	left, stream := popAndRebuild(stream)
	op, stream := popAndRebuild(stream)
	right, stream := popAndRebuild(stream)
	b.Left, b.Right = left, right
	b.Op = op.(*Constant)
	return b, stream
}
func (b *BoolOperation) NumChildren() int { return numChildrenOf(b) }
func (b *BoolOperation) IsLeaf() bool     { return false }
func (b *BoolOperation) Children() []Node { return []Node{b.Left, b.Op, b.Right} }
func (b *BoolOperation) IsMutableAgainst(other Node) bool {
	_, ok := other.(*BoolOperation)
	return ok
}
func (b *BoolOperation) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*BoolOperation)
	return ok && b.Op.Equals(o.Op) && b.Left.Equals(o.Left) && b.Right.Equals(o.Right)
}
func (b *BoolOperation) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	switch o := other.(type) {
	case *BoolOperation:
		return weightedOperatorMean(b.Op.Similarity(o.Op, pairing), pairedSimilarity(pairing, b.Left, o.Left), pairedSimilarity(pairing, b.Right, o.Right))
	case *Compare:
		return crossOperatorSimilarity(b.Left, b.Right, o.Left, o.Right, pairing)
	default:
		return 0
	}
}

// crossOperatorSimilarity scores a Compare against a BoolOperation: both are
// binary-operator-over-two-operands shapes, so they are allowed to partially
// match rather than scoring 0 outright, same family as the While/For floor.
func crossOperatorSimilarity(leftA, rightA, leftB, rightB Node, pairing *Pairing) float64 {
	operandSim := arithmeticMean(pairedSimilarity(pairing, leftA, leftB), pairedSimilarity(pairing, rightA, rightB))
	return operandSim * 0.3
}

// UnaryOperation represents a unary operator applied to a single operand, e.g.
// "not a" or "-x". Op is always a Constant of kind ConstantUnaryOp.
type UnaryOperation struct {
	Op      *Constant
	Operand Node
}

func NewUnaryOperation(op *Constant, operand Node) *UnaryOperation {
	return &UnaryOperation{Op: op, Operand: operand}
}

func (u *UnaryOperation) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, u)
		u.Op.walk(order, out)
		u.Operand.walk(order, out)
	case PostOrder:
		u.Op.walk(order, out)
		u.Operand.walk(order, out)
		*out = append(*out, u)
	}
}
func (u *UnaryOperation) rebuild(stream []Node) (Node, []Node) {
	op, stream := popAndRebuild(stream)
	operand, stream := popAndRebuild(stream)
	u.Op = op.(*Constant)
	u.Operand = operand
	return u, stream
}
func (u *UnaryOperation) NumChildren() int { return numChildrenOf(u) }
func (u *UnaryOperation) IsLeaf() bool     { return false }
func (u *UnaryOperation) Children() []Node { return []Node{u.Op, u.Operand} }
func (u *UnaryOperation) IsMutableAgainst(other Node) bool {
	_, ok := other.(*UnaryOperation)
	return ok
}
func (u *UnaryOperation) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*UnaryOperation)
	return ok && u.Op.Equals(o.Op) && u.Operand.Equals(o.Operand)
}
func (u *UnaryOperation) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*UnaryOperation)
	if !ok {
		return 0
	}
	return weightedUnaryMean(u.Op.Similarity(o.Op, pairing), pairedSimilarity(pairing, u.Operand, o.Operand))
}

// Condition wraps the test expression of an If/ElIf/While uniformly, so the
// differencer can score "the test changed" independently of "the branch is an
// If vs a While". Building code typically assigns a *Condition to If.Cond,
// ElIf.Cond, and While.Test.
type Condition struct {
	Inner Node
}

func NewCondition(inner Node) *Condition { return &Condition{Inner: inner} }

func (c *Condition) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, c)
		c.Inner.walk(order, out)
	case PostOrder:
		c.Inner.walk(order, out)
		*out = append(*out, c)
	}
}
func (c *Condition) rebuild(stream []Node) (Node, []Node) {
	inner, stream := popAndRebuild(stream)
	c.Inner = inner
	return c, stream
}
func (c *Condition) NumChildren() int { return numChildrenOf(c) }
func (c *Condition) IsLeaf() bool     { return false }
func (c *Condition) Children() []Node { return []Node{c.Inner} }
func (c *Condition) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Condition)
	return ok
}
func (c *Condition) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Condition)
	return ok && c.Inner.Equals(o.Inner)
}

// Similarity scores a Condition against another Condition by its wrapped
// expression. Against a bare Compare/BoolOperation/UnaryOperation (i.e. an
// unwrapped test, which can appear when building trees from host ASTs that
// don't distinguish "is a condition" from "is an expression") it floors at 0.3:
// both describe a test, so they are not unrelated, but an unwrapped test is
// never identical in shape to one the model wraps explicitly.
func (c *Condition) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	if o, ok := other.(*Condition); ok {
		return pairedSimilarity(pairing, c.Inner, o.Inner)
	}
	switch other.(type) {
	case *Compare, *BoolOperation, *UnaryOperation:
		return 0.3
	default:
		return 0
	}
}

// Body holds a variable-arity run of statements bracketed by Start/End
// sentinels in its walked stream.
type Body struct {
	Statements []Node
}

func NewBody(statements ...Node) *Body { return &Body{Statements: statements} }

func (b *Body) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, b)
		*out = append(*out, &Start{})
		for _, c := range b.Statements {
			c.walk(order, out)
		}
		*out = append(*out, &End{})
	case PostOrder:
		*out = append(*out, &Start{})
		for _, c := range b.Statements {
			c.walk(order, out)
		}
		*out = append(*out, &End{})
		*out = append(*out, b)
	}
}
func (b *Body) rebuild(stream []Node) (Node, []Node) {
	stream = stream[1:] // consume Start
	var children []Node
	for {
		if _, ok := stream[0].(*End); ok {
			stream = stream[1:]
			break
		}
		var child Node
		child, stream = popAndRebuild(stream)
		children = append(children, child)
	}
	b.Statements = children
	return b, stream
}
func (b *Body) NumChildren() int { return numChildrenOf(b) }
func (b *Body) IsLeaf() bool     { return len(b.Statements) == 0 }
func (b *Body) Children() []Node { return b.Statements }
func (b *Body) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Body)
	return ok
}
func (b *Body) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Body)
	if !ok {
		return false
	}
	return childrenEqual(b.Statements, o.Statements)
}
func (b *Body) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Body)
	if !ok {
		return 0
	}
	return pairedChildrenSimilarity(pairing, b.Statements, o.Statements)
}

// childrenEqual compares two variable-arity child slices. A Wildcard or Use
// appearing anywhere in either slice lets the slices be declared equal
// regardless of length; otherwise lengths must match and every pair must be
// Equals.
func childrenEqual(a, b []Node) bool {
	if sliceHasPlaceholder(a) || sliceHasPlaceholder(b) {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func sliceHasPlaceholder(nodes []Node) bool {
	for _, n := range nodes {
		if isPlaceholder(n) {
			return true
		}
	}
	return false
}

// pairedChildrenSimilarity averages the paired similarity of a variable-arity
// child run against another, aligning positionally over the shorter slice; it
// is a pragmatic approximation for sequences that may differ in count.
func pairedChildrenSimilarity(pairing *Pairing, a, b []Node) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += pairedSimilarity(pairing, a[i], b[i])
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return sum / float64(longest)
}

// If represents an if/elif/else chain's head. Next holds the following
// ElIf/Else in the chain, or an Empty if there is none.
type If struct {
	Cond *Condition
	Body *Body
	Next Node
}

func NewIf(cond *Condition, body *Body, next Node) *If {
	if next == nil {
		next = &Empty{}
	}
	return &If{Cond: cond, Body: body, Next: next}
}

func (n *If) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, n)
		n.Cond.walk(order, out)
		n.Body.walk(order, out)
		n.Next.walk(order, out)
	case PostOrder:
		n.Cond.walk(order, out)
		n.Body.walk(order, out)
		n.Next.walk(order, out)
		*out = append(*out, n)
	}
}
func (n *If) rebuild(stream []Node) (Node, []Node) {
	cond, stream := popAndRebuild(stream)
	body, stream := popAndRebuild(stream)
	next, stream := popAndRebuild(stream)
	n.Cond = cond.(*Condition)
	n.Body = body.(*Body)
	n.Next = next
	return n, stream
}
func (n *If) NumChildren() int { return numChildrenOf(n) }
func (n *If) IsLeaf() bool     { return false }
func (n *If) Children() []Node { return []Node{n.Cond, n.Body, n.Next} }
func (n *If) IsMutableAgainst(other Node) bool {
	_, ok := other.(*If)
	return ok
}
func (n *If) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*If)
	return ok && n.Cond.Equals(o.Cond) && n.Body.Equals(o.Body) && n.Next.Equals(o.Next)
}
func (n *If) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*If)
	if !ok {
		return 0
	}
	return weightedOperatorMean(pairedSimilarity(pairing, n.Cond, o.Cond), pairedSimilarity(pairing, n.Body, o.Body), pairedSimilarity(pairing, n.Next, o.Next))
}

// ElIf is an else-if link in an If chain; same shape as If.
type ElIf struct {
	Cond *Condition
	Body *Body
	Next Node
}

func NewElIf(cond *Condition, body *Body, next Node) *ElIf {
	if next == nil {
		next = &Empty{}
	}
	return &ElIf{Cond: cond, Body: body, Next: next}
}

func (n *ElIf) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, n)
		n.Cond.walk(order, out)
		n.Body.walk(order, out)
		n.Next.walk(order, out)
	case PostOrder:
		n.Cond.walk(order, out)
		n.Body.walk(order, out)
		n.Next.walk(order, out)
		*out = append(*out, n)
	}
}
func (n *ElIf) rebuild(stream []Node) (Node, []Node) {
	cond, stream := popAndRebuild(stream)
	body, stream := popAndRebuild(stream)
	next, stream := popAndRebuild(stream)
	n.Cond = cond.(*Condition)
	n.Body = body.(*Body)
	n.Next = next
	return n, stream
}
func (n *ElIf) NumChildren() int { return numChildrenOf(n) }
func (n *ElIf) IsLeaf() bool     { return false }
func (n *ElIf) Children() []Node { return []Node{n.Cond, n.Body, n.Next} }
func (n *ElIf) IsMutableAgainst(other Node) bool {
	_, ok := other.(*ElIf)
	return ok
}
func (n *ElIf) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*ElIf)
	return ok && n.Cond.Equals(o.Cond) && n.Body.Equals(o.Body) && n.Next.Equals(o.Next)
}
func (n *ElIf) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*ElIf)
	if !ok {
		return 0
	}
	return weightedOperatorMean(pairedSimilarity(pairing, n.Cond, o.Cond), pairedSimilarity(pairing, n.Body, o.Body), pairedSimilarity(pairing, n.Next, o.Next))
}

// Else terminates an If chain.
type Else struct {
	Body *Body
}

func NewElse(body *Body) *Else { return &Else{Body: body} }

func (n *Else) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, n)
		n.Body.walk(order, out)
	case PostOrder:
		n.Body.walk(order, out)
		*out = append(*out, n)
	}
}
func (n *Else) rebuild(stream []Node) (Node, []Node) {
	body, stream := popAndRebuild(stream)
	n.Body = body.(*Body)
	return n, stream
}
func (n *Else) NumChildren() int { return numChildrenOf(n) }
func (n *Else) IsLeaf() bool     { return false }
func (n *Else) Children() []Node { return []Node{n.Body} }
func (n *Else) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Else)
	return ok
}
func (n *Else) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Else)
	return ok && n.Body.Equals(o.Body)
}
func (n *Else) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Else)
	if !ok {
		return 0
	}
	return pairedSimilarity(pairing, n.Body, o.Body)
}

// While represents a while loop. Test typically holds a *Condition (see the doc
// comment on Condition), but is typed as Node since nothing below the loop head
// cares about the wrapper.
type While struct {
	Test Node
	Body *Body
}

func NewWhile(test Node, body *Body) *While { return &While{Test: test, Body: body} }

func (n *While) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, n)
		n.Test.walk(order, out)
		n.Body.walk(order, out)
	case PostOrder:
		n.Test.walk(order, out)
		n.Body.walk(order, out)
		*out = append(*out, n)
	}
}
func (n *While) rebuild(stream []Node) (Node, []Node) {
	test, stream := popAndRebuild(stream)
	body, stream := popAndRebuild(stream)
	n.Test = test
	n.Body = body.(*Body)
	return n, stream
}
func (n *While) NumChildren() int { return numChildrenOf(n) }
func (n *While) IsLeaf() bool     { return false }
func (n *While) Children() []Node { return []Node{n.Test, n.Body} }
func (n *While) IsMutableAgainst(other Node) bool {
	_, ok := other.(*While)
	return ok
}
func (n *While) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*While)
	return ok && n.Test.Equals(o.Test) && n.Body.Equals(o.Body)
}

// Similarity scores a While against another While normally. Against a For it
// floors at (bodySim+0.5)/2: both are loop shapes worth connecting across
// iteration-style changes (e.g. "while" rewritten as "for"), but they are
// never a perfect match since a For carries target/iterable structure a While
// doesn't have.
func (n *While) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	switch o := other.(type) {
	case *While:
		return arithmeticMean(pairedSimilarity(pairing, n.Test, o.Test), pairedSimilarity(pairing, n.Body, o.Body))
	case *For:
		return (pairedSimilarity(pairing, n.Body, o.Body) + 0.5) / 2
	default:
		return 0
	}
}

// For represents a for-each loop over Iter, binding Target on each iteration.
type For struct {
	Target Node
	Iter   Node
	Body   *Body
}

func NewFor(target, iter Node, body *Body) *For {
	return &For{Target: target, Iter: iter, Body: body}
}

func (n *For) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, n)
		n.Target.walk(order, out)
		n.Iter.walk(order, out)
		n.Body.walk(order, out)
	case PostOrder:
		n.Target.walk(order, out)
		n.Iter.walk(order, out)
		n.Body.walk(order, out)
		*out = append(*out, n)
	}
}
func (n *For) rebuild(stream []Node) (Node, []Node) {
	target, stream := popAndRebuild(stream)
	iter, stream := popAndRebuild(stream)
	body, stream := popAndRebuild(stream)
	n.Target, n.Iter = target, iter
	n.Body = body.(*Body)
	return n, stream
}
func (n *For) NumChildren() int { return numChildrenOf(n) }
func (n *For) IsLeaf() bool     { return false }
func (n *For) Children() []Node { return []Node{n.Target, n.Iter, n.Body} }
func (n *For) IsMutableAgainst(other Node) bool {
	_, ok := other.(*For)
	return ok
}
func (n *For) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*For)
	return ok && n.Target.Equals(o.Target) && n.Iter.Equals(o.Iter) && n.Body.Equals(o.Body)
}
func (n *For) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	switch o := other.(type) {
	case *For:
		return arithmeticMean(pairedSimilarity(pairing, n.Target, o.Target), pairedSimilarity(pairing, n.Iter, o.Iter), pairedSimilarity(pairing, n.Body, o.Body))
	case *While:
		return (pairedSimilarity(pairing, n.Body, o.Body) + 0.5) / 2
	default:
		return 0
	}
}

// Function represents a call: callee(args...). Args is variable-arity and is
// bracketed by Start/End in the walked stream, same as Body.
// Callee is typed as Node, not *FunctionName, even though construction
// always supplies a *FunctionName: the refiner's FunctionPropagator may
// later lift a whole call to a Wildcard rooted one level up, at which point
// an enclosing Function that still needs its Callee slot populated during
// reconstruction must be able to hold either.
type Function struct {
	Callee Node
	Args   []Node
}

func NewFunction(callee *FunctionName, args ...Node) *Function {
	return &Function{Callee: callee, Args: args}
}

func (f *Function) walk(order Order, out *[]Node) {
	switch order {
	case PreOrder:
		*out = append(*out, f)
		*out = append(*out, &Start{})
		f.Callee.walk(order, out)
		for _, a := range f.Args {
			a.walk(order, out)
		}
		*out = append(*out, &End{})
	case PostOrder:
		*out = append(*out, &Start{})
		f.Callee.walk(order, out)
		for _, a := range f.Args {
			a.walk(order, out)
		}
		*out = append(*out, &End{})
		*out = append(*out, f)
	}
}
func (f *Function) rebuild(stream []Node) (Node, []Node) {
	stream = stream[1:] // consume Start
	callee, stream := popAndRebuild(stream)
	f.Callee = callee
	var args []Node
	for {
		if _, ok := stream[0].(*End); ok {
			stream = stream[1:]
			break
		}
		var arg Node
		arg, stream = popAndRebuild(stream)
		args = append(args, arg)
	}
	f.Args = args
	return f, stream
}
func (f *Function) NumChildren() int { return numChildrenOf(f) }
func (f *Function) IsLeaf() bool     { return false }
func (f *Function) Children() []Node {
	return append([]Node{f.Callee}, f.Args...)
}
func (f *Function) IsMutableAgainst(other Node) bool {
	_, ok := other.(*Function)
	return ok
}
func (f *Function) Equals(other Node) bool {
	if isPlaceholder(other) {
		return true
	}
	o, ok := other.(*Function)
	if !ok {
		return false
	}
	return f.Callee.Equals(o.Callee) && childrenEqual(f.Args, o.Args)
}
func (f *Function) Similarity(other Node, pairing *Pairing) float64 {
	if isPlaceholder(other) {
		return 1
	}
	o, ok := other.(*Function)
	if !ok {
		return 0
	}
	return arithmeticMean(pairedSimilarity(pairing, f.Callee, o.Callee), pairedChildrenSimilarity(pairing, f.Args, o.Args))
}

// ===== Wildcard / Use placeholders =====

// EditOpKind identifies which edit-script operation a Wildcard or Use
// originated from, for documentation and debugging; the matcher and
// optimisers key off Index, not this field.
type EditOpKind uint8

const (
	EditOpInsert EditOpKind = iota
	EditOpDelete
	EditOpUpdate
)

// Wildcard stands in for an unconnected or discarded edit in a refined
// pattern's original-side tree; Use stands in for the corresponding
// replacement in the modified-side tree. A matching Index (non-zero) links a
// Wildcard to its Use: whatever subtree the matcher absorbs at the Wildcard's
// position is substituted back in at the linked Use's position when a match
// is reported. Index 0 means unconnected; the refiner leaves such
// placeholders in the fused pattern rather than removing them.
type Wildcard struct {
	Wrapped Node
	Source  EditOpKind
	Index   int
}

func NewWildcard(wrapped Node, source EditOpKind) *Wildcard {
	return &Wildcard{Wrapped: wrapped, Source: source}
}

func (w *Wildcard) walk(_ Order, out *[]Node)       { leafWalk(w, out) }
func (w *Wildcard) rebuild(s []Node) (Node, []Node)  { return leafRebuild(w, s) }
func (w *Wildcard) NumChildren() int                 { return 0 }
func (w *Wildcard) IsLeaf() bool                     { return true }
func (w *Wildcard) Children() []Node                 { return nil }
func (w *Wildcard) IsMutableAgainst(Node) bool       { return true }
func (w *Wildcard) Equals(Node) bool                 { return true }
func (w *Wildcard) Similarity(Node, *Pairing) float64 { return 1 }

// Use is the modified-side counterpart of Wildcard; see its doc comment.
type Use struct {
	Wrapped Node
	Source  EditOpKind
	Index   int
}

func NewUse(wrapped Node, source EditOpKind) *Use {
	return &Use{Wrapped: wrapped, Source: source}
}

func (u *Use) walk(_ Order, out *[]Node)       { leafWalk(u, out) }
func (u *Use) rebuild(s []Node) (Node, []Node)  { return leafRebuild(u, s) }
func (u *Use) NumChildren() int                 { return 0 }
func (u *Use) IsLeaf() bool                     { return true }
func (u *Use) Children() []Node                 { return nil }
func (u *Use) IsMutableAgainst(Node) bool       { return true }
func (u *Use) Equals(Node) bool                 { return true }
func (u *Use) Similarity(Node, *Pairing) float64 { return 1 }
