// Package datetree maintains the year > month > day calendar index inside an
// outline document: it finds or creates calendar nodes in chronological
// order, computes view bounds over days, ranges and months, and refiles
// content subtrees under day nodes.
package datetree

import (
	"fmt"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/outline"
)

// LocateOrCreate returns the node for key, creating it and any missing
// ancestors. Repeated calls with the same key return the same node.
func LocateOrCreate(doc *outline.Document, key calendar.Key) (*outline.Node, error) {
	n, _, err := Locate(doc, key)
	return n, err
}

// Locate is LocateOrCreate that also reports whether the node for key itself
// had to be created.
func Locate(doc *outline.Document, key calendar.Key) (*outline.Node, bool, error) {
	if !key.Valid() {
		return nil, false, fmt.Errorf("datetree: locate %s: %w", key, apperr.ErrInvalidDateFormat)
	}
	n, created := locate(doc, key)
	return n, created, nil
}

func locate(doc *outline.Document, key calendar.Key) (*outline.Node, bool) {
	var parent *outline.Node
	switch key.Level() {
	case calendar.LevelMonth:
		parent, _ = locate(doc, key.YearKey())
	case calendar.LevelDay:
		parent, _ = locate(doc, key.MonthKey())
	}
	return findOrInsert(doc, parent, key)
}

// findOrInsert scans the calendar children of parent in document order. It
// returns the child with key, or inserts a new one before the first child
// with a later key, or at the end of the run when there is none. Content
// siblings are skipped but keep their place.
func findOrInsert(doc *outline.Document, parent *outline.Node, key calendar.Key) (*outline.Node, bool) {
	level := int(key.Level())
	siblings := doc.Children(parent)
	at := len(siblings)
	for i, s := range siblings {
		if !s.IsCalendar() || s.Level() != level {
			continue
		}
		c := s.Key.Compare(key)
		if c == 0 {
			return s, false
		}
		if c > 0 {
			at = i
			break
		}
	}
	n := doc.NewNode(level, headingTitle(key))
	doc.Insert(parent, at, n)
	return n, true
}

// headingTitle is the title written for a new calendar node: the key plus
// the English month or weekday name.
func headingTitle(key calendar.Key) string {
	switch key.Level() {
	case calendar.LevelYear:
		return key.String()
	case calendar.LevelMonth:
		return key.String() + " " + time.Month(key.Month).String()
	default:
		return key.String() + " " + key.Weekday().String()
	}
}

// Find returns the existing node for key without creating anything.
func Find(doc *outline.Document, key calendar.Key) *outline.Node {
	var parent *outline.Node
	switch key.Level() {
	case calendar.LevelMonth:
		if parent = Find(doc, key.YearKey()); parent == nil {
			return nil
		}
	case calendar.LevelDay:
		if parent = Find(doc, key.MonthKey()); parent == nil {
			return nil
		}
	}
	level := int(key.Level())
	for _, s := range doc.Children(parent) {
		if s.IsCalendar() && s.Level() == level && s.Key == key {
			return s
		}
	}
	return nil
}
