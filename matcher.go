// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

// StepResult is what a Listener reports after considering one host-stream
// node. The Recommender's scan loop drives every active listener forward one
// node at a time and reacts to this value; there are no callbacks.
type StepResult uint8

const (
	// StepContinue means the listener is still alive and wants the next node.
	StepContinue StepResult = iota
	// StepSpawn means a PatternFactoryListener recognized the start of its
	// pattern at this node and is handing back a new PatternListener to track
	// it, while the factory itself stays alive to spawn further matches.
	StepSpawn
	// StepEmit means a PatternListener completed its pattern at this node and
	// is handing back a Match.
	StepEmit
	// StepDone means the listener failed to match and should be dropped.
	StepDone
)

// StepOutcome is the result of a single Listener.Step call.
type StepOutcome struct {
	Result  StepResult
	Spawned *PatternListener
	Match   *Match
}

// Listener is a state machine advanced one host-stream node at a time.
type Listener interface {
	Step(node Node, pos int) StepOutcome
}

// PatternFactoryListener watches the host stream for the first node of a
// single Pattern's original tree and spawns a PatternListener each time it
// sees one, so the same pattern can be matched starting at multiple host
// positions concurrently.
type PatternFactoryListener struct {
	pattern *Pattern
}

// NewPatternFactoryListener returns a factory listener for p.
func NewPatternFactoryListener(p *Pattern) *PatternFactoryListener {
	return &PatternFactoryListener{pattern: p}
}

func (f *PatternFactoryListener) Step(node Node, pos int) StepOutcome {
	stream := Walk(f.pattern.Original, PreOrder)
	if len(stream) == 0 {
		return StepOutcome{Result: StepContinue}
	}
	if !stream[0].IsMutableAgainst(node) {
		return StepOutcome{Result: StepContinue}
	}
	pl := newPatternListener(f.pattern, stream, node, pos)
	return StepOutcome{Result: StepSpawn, Spawned: pl}
}

// PatternListener tracks one in-progress attempt to match a Pattern against
// the host stream starting at a given position.
type PatternListener struct {
	pattern  *Pattern
	stream   []Node
	pos      int
	start    int
	bindings map[int]Node

	absorbing  bool
	skipRemain int
}

func newPatternListener(p *Pattern, stream []Node, first Node, hostPos int) *PatternListener {
	pl := &PatternListener{
		pattern:  p,
		stream:   stream,
		start:    hostPos,
		bindings: make(map[int]Node),
	}
	pl.advance(first)
	return pl
}

// advance consumes one pattern-stream position against node, the shared
// logic between construction (consuming the first position) and Step
// (consuming every subsequent one).
func (l *PatternListener) advance(node Node) StepOutcome {
	if l.absorbing {
		if l.skipRemain > 0 {
			l.skipRemain--
			if l.skipRemain == 0 {
				l.absorbing = false
			}
			return StepOutcome{Result: StepContinue}
		}
		l.absorbing = false
	}

	want := l.stream[l.pos]
	if wc, ok := want.(*Wildcard); ok {
		l.bindings[wc.Index] = node
		l.skipRemain = node.NumChildren()
		l.pos++
		if l.skipRemain > 0 {
			l.absorbing = true
		}
		if l.pos >= len(l.stream) {
			return l.emit()
		}
		return StepOutcome{Result: StepContinue}
	}

	if isSentinel(want) && !isSentinel(node) {
		// A pattern sentinel facing a non-sentinel host node carries no
		// matching obligation of its own; skip forward past it and retry
		// against the same node. Facing a host sentinel, it is matched below.
		l.pos++
		if l.pos >= len(l.stream) {
			return l.emit()
		}
		return l.advance(node)
	}

	if !want.IsMutableAgainst(node) {
		return StepOutcome{Result: StepDone}
	}
	l.pos++
	if l.pos >= len(l.stream) {
		return l.emit()
	}
	return StepOutcome{Result: StepContinue}
}

func (l *PatternListener) Step(node Node, _ int) StepOutcome {
	return l.advance(node)
}

func (l *PatternListener) emit() StepOutcome {
	return StepOutcome{Result: StepEmit, Match: &Match{
		Pattern:  l.pattern,
		Bindings: l.bindings,
		Start:    l.start,
		End:      l.pos,
	}}
}

// Match is a completed, bound occurrence of a Pattern in a host tree.
type Match struct {
	Pattern  *Pattern
	Bindings map[int]Node
	Start    int
	End      int
}

// Render substitutes this match's bindings into the pattern's modified tree,
// splicing each bound Wildcard's absorbed subtree in at its linked Use, and
// returns the resulting recommended replacement tree. A Use with no binding
// (index 0, or an index that was never absorbed) is left as-is.
func (m *Match) Render() Node {
	modStream := Walk(m.Pattern.Modified, PreOrder)
	out := make([]Node, 0, len(modStream))
	for _, n := range modStream {
		if use, ok := n.(*Use); ok && use.Index != 0 {
			if bound, ok := m.Bindings[use.Index]; ok {
				out = append(out, Walk(bound, PreOrder)...)
				continue
			}
		}
		out = append(out, n)
	}
	return Reconstruct(out)
}
