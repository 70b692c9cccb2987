package outline

import (
	"errors"
	"strings"
)

var errNotInDocument = errors.New("outline: node is not part of the document")

// Document is an outline: free text before the first heading followed by a
// forest of heading nodes.
type Document struct {
	Preamble []string
	Roots    []*Node

	grammar         *Grammar
	trailingNewline bool
	changed         bool
}

// Span is a half-open line range [Start, End) into the rendered document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines covered.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether line falls inside s.
func (s Span) Contains(line int) bool { return line >= s.Start && line < s.End }

// Parse builds a document from text. A nil grammar uses DefaultKeywords.
func Parse(text string, g *Grammar) *Document {
	if g == nil {
		g = NewGrammar(nil)
	}
	d := &Document{grammar: g}
	if text == "" {
		return d
	}
	if strings.HasSuffix(text, "\n") {
		d.trailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}

	var stack []*Node
	for _, line := range strings.Split(text, "\n") {
		h, ok := g.ParseHeading(line)
		if !ok {
			if len(stack) == 0 {
				d.Preamble = append(d.Preamble, line)
			} else {
				top := stack[len(stack)-1]
				top.Body = append(top.Body, line)
			}
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].Heading.Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		var parent *Node
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		n := &Node{Line: line, Heading: h, parent: parent}
		n.Kind, n.Key = classify(h, parent)
		if parent == nil {
			d.Roots = append(d.Roots, n)
		} else {
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, n)
	}
	return d
}

// Grammar returns the grammar the document was parsed with.
func (d *Document) Grammar() *Grammar { return d.grammar }

// Changed reports whether the document was mutated since it was parsed or
// last marked clean.
func (d *Document) Changed() bool { return d.changed }

// MarkClean resets the change flag, typically after a save.
func (d *Document) MarkClean() { d.changed = false }

// Lines renders the whole document.
func (d *Document) Lines() []string {
	out := append([]string(nil), d.Preamble...)
	for _, n := range d.Roots {
		out = n.appendLines(out)
	}
	return out
}

// String renders the document. Unmodified documents round-trip byte for
// byte; modified ones always end with a newline.
func (d *Document) String() string {
	lines := d.Lines()
	if len(lines) == 0 {
		return ""
	}
	s := strings.Join(lines, "\n")
	if d.trailingNewline || d.changed {
		s += "\n"
	}
	return s
}

// NewNode builds a detached node from a heading at level with title.
func (d *Document) NewNode(level int, title string) *Node {
	line := strings.Repeat("*", level) + " " + title
	h, _ := d.grammar.ParseHeading(line)
	return &Node{Line: line, Heading: h}
}

// Children returns the child list of parent, or the top-level nodes when
// parent is nil.
func (d *Document) Children(parent *Node) []*Node {
	if parent == nil {
		return d.Roots
	}
	return parent.Children
}

// Insert places the detached node n as the index-th child of parent (nil for
// top level) and reclassifies its subtree for the new position.
func (d *Document) Insert(parent *Node, index int, n *Node) {
	siblings := d.Children(parent)
	if index < 0 || index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, nil)
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = n
	if parent == nil {
		d.Roots = siblings
	} else {
		parent.Children = siblings
	}
	n.parent = parent
	reclassify(n, parent)
	d.changed = true
}

// Append places n as the last child of parent.
func (d *Document) Append(parent *Node, n *Node) {
	d.Insert(parent, len(d.Children(parent)), n)
}

// Detach removes n and its subtree from the document.
func (d *Document) Detach(n *Node) error {
	siblings := d.Children(n.parent)
	for i, s := range siblings {
		if s != n {
			continue
		}
		siblings = append(siblings[:i], siblings[i+1:]...)
		if n.parent == nil {
			d.Roots = siblings
		} else {
			n.parent.Children = siblings
		}
		n.parent = nil
		d.changed = true
		return nil
	}
	return errNotInDocument
}

func reclassify(n, parent *Node) {
	n.Kind, n.Key = classify(n.Heading, parent)
	for _, c := range n.Children {
		reclassify(c, n)
	}
}

// Walk visits every node in document order until fn returns false.
func (d *Document) Walk(fn func(n *Node) bool) {
	var walk func(nodes []*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			if !fn(n) || !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(d.Roots)
}

// Days returns every day node in document order.
func (d *Document) Days() []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		if n.Kind == KindDay {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Span returns the line range covered by n's heading and subtree.
func (d *Document) Span(n *Node) (Span, bool) {
	var (
		found Span
		ok    bool
	)
	d.positions(func(cur *Node, s Span) bool {
		if cur == n {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}

// NodeAt returns the deepest node whose span contains line, or nil when line
// is in the preamble or out of range.
func (d *Document) NodeAt(line int) *Node {
	var best *Node
	d.positions(func(cur *Node, s Span) bool {
		if s.Contains(line) {
			best = cur
		}
		return true
	})
	return best
}

// positions walks nodes in document order reporting each one's span.
func (d *Document) positions(fn func(n *Node, s Span) bool) {
	pos := len(d.Preamble)
	var walk func(nodes []*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			start := pos
			s := Span{Start: start, End: start + n.lineCount()}
			if !fn(n, s) {
				return false
			}
			pos += 1 + len(n.Body)
			if !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(d.Roots)
}
