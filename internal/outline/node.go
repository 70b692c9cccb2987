package outline

import (
	"strings"

	"github.com/starford/daybook/internal/calendar"
)

// Node is one heading with its body and nested headings.
type Node struct {
	// Line is the raw heading line as it appears in the document.
	Line    string
	Heading Heading
	Kind    Kind
	// Key is set for year, month and day nodes.
	Key      calendar.Key
	Body     []string
	Children []*Node
	// Folded is presentation state; it is never rendered.
	Folded bool

	parent *Node
}

// Level returns the heading's star count.
func (n *Node) Level() int { return n.Heading.Level }

// Parent returns the enclosing node, or nil for a top-level node.
func (n *Node) Parent() *Node { return n.parent }

// IsCalendar reports whether n is a year, month or day node.
func (n *Node) IsCalendar() bool { return n.Kind.IsCalendar() }

// EnclosingDay returns the nearest day node at or above n, or nil.
func (n *Node) EnclosingDay() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Kind == KindDay {
			return cur
		}
	}
	return nil
}

// Lines renders n and its subtree.
func (n *Node) Lines() []string {
	out := make([]string, 0, n.lineCount())
	return n.appendLines(out)
}

// Text renders n and its subtree as newline-terminated text.
func (n *Node) Text() string {
	return strings.Join(n.Lines(), "\n") + "\n"
}

func (n *Node) appendLines(out []string) []string {
	out = append(out, n.Line)
	out = append(out, n.Body...)
	for _, c := range n.Children {
		out = c.appendLines(out)
	}
	return out
}

func (n *Node) lineCount() int {
	total := 1 + len(n.Body)
	for _, c := range n.Children {
		total += c.lineCount()
	}
	return total
}

// Clone returns a deep, detached copy of n's subtree.
func (n *Node) Clone() *Node {
	c := &Node{
		Line:    n.Line,
		Heading: n.Heading,
		Kind:    n.Kind,
		Key:     n.Key,
		Body:    append([]string(nil), n.Body...),
		Folded:  n.Folded,
	}
	c.Heading.Tags = append([]string(nil), n.Heading.Tags...)
	for _, child := range n.Children {
		cc := child.Clone()
		cc.parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}

// Relevel moves n's subtree so that n sits at level, shifting every
// descendant heading by the same amount. Levels never drop below 1.
func (n *Node) Relevel(level int) {
	n.shift(level - n.Heading.Level)
}

func (n *Node) shift(delta int) {
	if delta != 0 {
		newLevel := n.Heading.Level + delta
		if newLevel < 1 {
			newLevel = 1
		}
		n.Line = strings.Repeat("*", newLevel) + n.Line[n.Heading.Level:]
		n.Heading.Level = newLevel
	}
	for _, c := range n.Children {
		c.shift(delta)
	}
}

// Reveal unfolds n and every node beneath it.
func (n *Node) Reveal() {
	n.Folded = false
	for _, c := range n.Children {
		c.Reveal()
	}
}

// Fold folds n and every node beneath it.
func (n *Node) Fold() {
	n.Folded = true
	for _, c := range n.Children {
		c.Fold()
	}
}

// UnfoldAncestors unfolds every node above n.
func (n *Node) UnfoldAncestors() {
	for p := n.parent; p != nil; p = p.parent {
		p.Folded = false
	}
}
