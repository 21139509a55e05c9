// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Emitter is the one-method sink a Recommender's matches are fed into.
// Implementations never fail: a match that can't be rendered meaningfully
// (e.g. an unbound Use) is still emitted in whatever partial form Render
// produces, per the matcher/differencer's own never-fail contract.
type Emitter interface {
	Emit(m *Match)
}

// Counter tallies how many matches it has seen. The zero value is ready to
// use.
type Counter struct {
	n int
}

func (c *Counter) Emit(*Match) { c.n++ }

// Count returns the number of matches emitted so far.
func (c *Counter) Count() int { return c.n }

// change is the XML shape one match renders to; xmlChange mirrors the
// original's ET.Element("change") with start/end line SubElements and a
// change_code attribute carrying the unparsed replacement.
type xmlChange struct {
	XMLName    xml.Name `xml:"change"`
	Start      xmlLine  `xml:"start"`
	End        xmlLine  `xml:"end"`
	ChangeCode string   `xml:"change_code,attr"`
}

type xmlLine struct {
	Line int `xml:"line,attr"`
}

// XML accumulates one <change> element per match.
type XML struct {
	written []byte
}

// NewXML returns an XML emitter that accumulates output in memory,
// retrievable via Bytes.
func NewXML() *XML { return &XML{} }

func (x *XML) Emit(m *Match) {
	change := xmlChange{
		Start:      xmlLine{Line: m.Start},
		End:        xmlLine{Line: m.End},
		ChangeCode: render(m.Render()),
	}
	data, err := xml.Marshal(change)
	if err != nil {
		// xml.Marshal only fails on unsupported types, never on the
		// xmlChange shape above; a failure here would be a bug in this
		// file, not a caller error, so there is nothing useful to return
		// to an Emit signature that the matcher's never-fail contract
		// keeps error-free.
		return
	}
	x.written = append(x.written, data...)
}

// Bytes returns every <change> element written so far, concatenated.
func (x *XML) Bytes() []byte { return x.written }

// Readable renders matches as indented pseudo-source, merged against the
// original host source by line so the replacement sits at the same
// indentation as the line it replaces. This reproduces the original
// implementation's line-merge behaviour in ReadablePatternParser/
// get_recommended_code.
type Readable struct {
	source []string
	lines  map[int]string
}

// NewReadable returns a Readable emitter that merges matches against
// hostSource, the original text the matched tree was parsed from, split on
// newlines.
func NewReadable(hostSource string) *Readable {
	return &Readable{
		source: strings.Split(hostSource, "\n"),
		lines:  make(map[int]string),
	}
}

func (r *Readable) Emit(m *Match) {
	indent := ""
	if m.Start >= 0 && m.Start < len(r.source) {
		line := r.source[m.Start]
		indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	rendered := render(m.Render())
	var b strings.Builder
	for i, ln := range strings.Split(rendered, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteString(ln)
	}
	r.lines[m.Start] = b.String()
}

// Merged returns the original source with every matched line range replaced
// by its rendered recommendation.
func (r *Readable) Merged() string {
	var b strings.Builder
	for i, line := range r.source {
		if replacement, ok := r.lines[i]; ok {
			b.WriteString(replacement)
		} else {
			b.WriteString(line)
		}
		if i < len(r.source)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// CollectedMatch is one entry recorded by Collecting.
type CollectedMatch struct {
	Pattern  string
	Start    int
	End      int
	Rendered string
}

// Collecting accumulates matches as structured values rather than writing
// them anywhere, for callers embedding mars as a library rather than driving
// it through the CLI. It generalises the original's
// StoreRecommendationsPatternParser, which only kept the last match's
// rendering; Collecting keeps every one.
type Collecting struct {
	Matches []CollectedMatch
}

func (c *Collecting) Emit(m *Match) {
	c.Matches = append(c.Matches, CollectedMatch{
		Pattern:  m.Pattern.Name,
		Start:    m.Start,
		End:      m.End,
		Rendered: render(m.Render()),
	})
}

// render linearises n into a compact, language-agnostic pseudo-source
// rendering. It exists so the emitters above have something to show a user
// without depending on any particular host-language unparser (that
// responsibility belongs to whichever adapter parsed the tree in the first
// place); it round-trips enough structure (operators, literals, identifiers)
// to be legible as a diff, not to be re-parsed.
func render(n Node) string {
	var b strings.Builder
	renderNode(&b, n, 0)
	return b.String()
}

func renderIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("    ")
	}
}

func renderNode(b *strings.Builder, n Node, depth int) {
	switch v := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Variable:
		b.WriteString(v.Name)
	case *Constant:
		b.WriteString(v.Literal)
	case *FunctionName:
		b.WriteString(v.Name)
	case *Empty:
	case *Assign:
		renderNode(b, v.Target, depth)
		fmt.Fprintf(b, " %s ", v.Op)
		renderNode(b, v.Value, depth)
	case *Compare:
		renderNode(b, v.Left, depth)
		fmt.Fprintf(b, " %s ", v.Op.Literal)
		renderNode(b, v.Right, depth)
	case *BoolOperation:
		renderNode(b, v.Left, depth)
		fmt.Fprintf(b, " %s ", v.Op.Literal)
		renderNode(b, v.Right, depth)
	case *UnaryOperation:
		b.WriteString(v.Op.Literal)
		renderNode(b, v.Operand, depth)
	case *Condition:
		renderNode(b, v.Inner, depth)
	case *Body:
		for i, s := range v.Statements {
			if i > 0 {
				b.WriteByte('\n')
			}
			renderIndent(b, depth)
			renderNode(b, s, depth)
		}
	case *If:
		b.WriteString("if ")
		renderNode(b, v.Cond, depth)
		b.WriteString(":\n")
		renderNode(b, v.Body, depth+1)
		renderChainNext(b, v.Next, depth)
	case *ElIf:
		b.WriteString("elif ")
		renderNode(b, v.Cond, depth)
		b.WriteString(":\n")
		renderNode(b, v.Body, depth+1)
		renderChainNext(b, v.Next, depth)
	case *Else:
		b.WriteString("\n")
		renderIndent(b, depth)
		b.WriteString("else:\n")
		renderNode(b, v.Body, depth+1)
	case *While:
		b.WriteString("while ")
		renderNode(b, v.Test, depth)
		b.WriteString(":\n")
		renderNode(b, v.Body, depth+1)
	case *For:
		b.WriteString("for ")
		renderNode(b, v.Target, depth)
		b.WriteString(" in ")
		renderNode(b, v.Iter, depth)
		b.WriteString(":\n")
		renderNode(b, v.Body, depth+1)
	case *Function:
		renderNode(b, v.Callee, depth)
		b.WriteByte('(')
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			renderNode(b, a, depth)
		}
		b.WriteByte(')')
	case *Wildcard:
		b.WriteString("<*>")
	case *Use:
		fmt.Fprintf(b, "<use %d>", v.Index)
	default:
		fmt.Fprintf(b, "<%T>", v)
	}
}

func renderChainNext(b *strings.Builder, next Node, depth int) {
	if _, ok := next.(*Empty); ok {
		return
	}
	b.WriteByte('\n')
	renderIndent(b, depth)
	renderNode(b, next, depth)
}
