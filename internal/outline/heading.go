// Package outline parses and renders star-headed outline documents and
// classifies their headings into the calendar levels of a date tree.
package outline

import (
	"regexp"
	"strings"

	"github.com/starford/daybook/internal/calendar"
)

// Kind is the typed variant of a heading.
type Kind int

// Heading kinds. Only the first three are calendar-governed.
const (
	KindContent Kind = iota
	KindYear
	KindMonth
	KindDay
)

func (k Kind) String() string {
	switch k {
	case KindYear:
		return "year"
	case KindMonth:
		return "month"
	case KindDay:
		return "day"
	default:
		return "content"
	}
}

// IsCalendar reports whether k is a year, month or day.
func (k Kind) IsCalendar() bool { return k != KindContent }

// DefaultKeywords are the leading keyword tokens recognised when none are
// configured.
var DefaultKeywords = []string{"TODO", "NEXT", "WAITING", "DONE", "CANCELLED"}

var (
	priorityRe = regexp.MustCompile(`^\[#[A-Za-z0-9]\]$`)
	tagsRe     = regexp.MustCompile(`(?:^|[ \t]+)(:[[:alnum:]_@#%:]+:)[ \t]*$`)
)

// Heading is the parsed form of a heading line.
type Heading struct {
	Level    int
	Keyword  string
	Priority string
	// Title is the text between the optional leading tokens and the trailing
	// tags, trimmed.
	Title string
	Tags  []string
}

// Grammar recognises heading lines. The zero value uses DefaultKeywords.
type Grammar struct {
	keywords map[string]struct{}
}

// NewGrammar returns a grammar with the given keyword set. An empty set falls
// back to DefaultKeywords.
func NewGrammar(keywords []string) *Grammar {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	g := &Grammar{keywords: make(map[string]struct{}, len(keywords))}
	for _, kw := range keywords {
		g.keywords[kw] = struct{}{}
	}
	return g
}

func (g *Grammar) isKeyword(tok string) bool {
	if g == nil || g.keywords == nil {
		for _, kw := range DefaultKeywords {
			if kw == tok {
				return true
			}
		}
		return false
	}
	_, ok := g.keywords[tok]
	return ok
}

// HeadingLevel returns the star count of a heading line, or 0 if line is not
// a heading. A heading is one or more '*' followed by a space or tab.
func HeadingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '*' {
		n++
	}
	if n == 0 || n == len(line) || (line[n] != ' ' && line[n] != '\t') {
		return 0
	}
	return n
}

// ParseHeading parses line. ok is false if line is not a heading.
func (g *Grammar) ParseHeading(line string) (h Heading, ok bool) {
	level := HeadingLevel(line)
	if level == 0 {
		return Heading{}, false
	}
	h.Level = level
	rest := strings.TrimSpace(line[level:])

	if m := tagsRe.FindStringSubmatchIndex(rest); m != nil {
		raw := rest[m[2]:m[3]]
		for _, t := range strings.Split(strings.Trim(raw, ":"), ":") {
			if t != "" {
				h.Tags = append(h.Tags, t)
			}
		}
		rest = strings.TrimSpace(rest[:m[0]])
	}

	if tok, tail := firstToken(rest); tok != "" && g.isKeyword(tok) {
		h.Keyword = tok
		rest = tail
	}
	if tok, tail := firstToken(rest); tok != "" && priorityRe.MatchString(tok) {
		h.Priority = tok[2:3]
		rest = tail
	}
	h.Title = rest
	return h, true
}

func firstToken(s string) (tok, tail string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

// classify decides the kind and key of a heading given its parent node
// (nil at the top level). Calendar kinds require the exact nesting
// year > month > day with keys that agree with the enclosing node.
func classify(h Heading, parent *Node) (Kind, calendar.Key) {
	switch h.Level {
	case 1:
		if parent != nil {
			return KindContent, calendar.Key{}
		}
		if k, err := calendar.ParseYear(h.Title); err == nil {
			return KindYear, k
		}
	case 2:
		if parent == nil || parent.Kind != KindYear {
			return KindContent, calendar.Key{}
		}
		if k, ok := datePrefix(h.Title, 7, calendar.ParseMonth); ok && k.Year == parent.Key.Year {
			return KindMonth, k
		}
	case 3:
		if parent == nil || parent.Kind != KindMonth {
			return KindContent, calendar.Key{}
		}
		if k, ok := datePrefix(h.Title, 10, calendar.Parse); ok && k.MonthKey() == parent.Key {
			return KindDay, k
		}
	}
	return KindContent, calendar.Key{}
}

// datePrefix parses the first n bytes of title when they are followed by the
// end of the title or whitespace.
func datePrefix(title string, n int, parse func(string) (calendar.Key, error)) (calendar.Key, bool) {
	if len(title) < n {
		return calendar.Key{}, false
	}
	if len(title) > n && title[n] != ' ' && title[n] != '\t' {
		return calendar.Key{}, false
	}
	k, err := parse(title[:n])
	if err != nil {
		return calendar.Key{}, false
	}
	return k, true
}
