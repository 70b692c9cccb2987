package datetree

import (
	"fmt"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/outline"
)

// ViewKind says what a View was computed for.
type ViewKind string

// View kinds.
const (
	ViewDay   ViewKind = "day"
	ViewRange ViewKind = "range"
	ViewMonth ViewKind = "month"
)

// View is the region of a document exposed to a caller. It is a value: the
// document itself carries no visibility state besides node folding.
type View struct {
	outline.Span
	Kind ViewKind
	// From and To are the first and last day keys covered, or the month key
	// for a month view.
	From calendar.Key
	To   calendar.Key
}

// IsZero reports whether v is the empty view (the whole document).
func (v View) IsZero() bool { return v == View{} }

// FocusOnDay locates or creates the day node for key, reveals it and
// everything under it, and returns bounds covering exactly its subtree.
func FocusOnDay(doc *outline.Document, key calendar.Key) (View, error) {
	if key.Level() != calendar.LevelDay {
		return View{}, fmt.Errorf("datetree: focus %s: %w", key, apperr.ErrInvalidDateFormat)
	}
	day, err := LocateOrCreate(doc, key)
	if err != nil {
		return View{}, err
	}
	day.Reveal()
	day.UnfoldAncestors()
	span, _ := doc.Span(day)
	return View{Span: span, Kind: ViewDay, From: key, To: key}, nil
}

// IsFocusedOn reports whether v is the day view of key.
func IsFocusedOn(v View, key calendar.Key) bool {
	return v.Kind == ViewDay && v.From == key
}

// FocusedOnToday reports whether v is the day view of now's date.
func FocusedOnToday(v View, now time.Time) bool {
	return IsFocusedOn(v, calendar.Today(now))
}

// FocusedOnTomorrow reports whether v is the day view of the day after now.
func FocusedOnTomorrow(v View, now time.Time) bool {
	return IsFocusedOn(v, calendar.Tomorrow(now))
}

// ShowRange locates or creates every day from start to end and returns
// bounds from the first day's heading to the end of the last day's subtree.
// The range is validated before the document is touched.
func ShowRange(doc *outline.Document, start, end calendar.Key) (View, error) {
	if !start.Valid() || !end.Valid() || start.Level() != calendar.LevelDay || end.Level() != calendar.LevelDay {
		return View{}, fmt.Errorf("datetree: range %s..%s: %w", start, end, apperr.ErrInvalidDateFormat)
	}
	days, err := calendar.EnumerateInclusive(start, end)
	if err != nil {
		return View{}, err
	}
	var first, last *outline.Node
	for _, k := range days {
		n, err := LocateOrCreate(doc, k)
		if err != nil {
			return View{}, err
		}
		if first == nil {
			first = n
		}
		last = n
		n.Reveal()
		n.UnfoldAncestors()
	}
	fs, _ := doc.Span(first)
	ls, _ := doc.Span(last)
	return View{Span: outline.Span{Start: fs.Start, End: ls.End}, Kind: ViewRange, From: start, To: end}, nil
}

// ShowWeek shows the seven days starting on the most recent weekStart on or
// before now.
func ShowWeek(doc *outline.Document, now time.Time, weekStart time.Weekday) (View, error) {
	start := calendar.WeekStart(now, weekStart)
	return ShowRange(doc, start, calendar.AddDays(start, 6))
}

// ShowMonth locates or creates the month node of now and returns bounds over
// the whole month subtree. Individual days are not created.
func ShowMonth(doc *outline.Document, now time.Time) (View, error) {
	today := calendar.Today(now)
	return ShowMonthOf(doc, today.MonthKey())
}

// ShowMonthOf is ShowMonth for an explicit month key.
func ShowMonthOf(doc *outline.Document, month calendar.Key) (View, error) {
	if month.Level() != calendar.LevelMonth {
		return View{}, fmt.Errorf("datetree: month %s: %w", month, apperr.ErrInvalidDateFormat)
	}
	n, err := LocateOrCreate(doc, month)
	if err != nil {
		return View{}, err
	}
	n.Folded = false
	n.UnfoldAncestors()
	span, _ := doc.Span(n)
	return View{Span: span, Kind: ViewMonth, From: month, To: month}, nil
}

// Rebound recomputes the line bounds of v against the current document
// without creating nodes. ok is false when v is empty or its nodes are gone.
func Rebound(doc *outline.Document, v View) (View, bool) {
	if v.IsZero() {
		return v, false
	}
	first, last := Find(doc, v.From), Find(doc, v.To)
	if first == nil || last == nil {
		return v, false
	}
	fs, ok1 := doc.Span(first)
	ls, ok2 := doc.Span(last)
	if !ok1 || !ok2 {
		return v, false
	}
	v.Span = outline.Span{Start: fs.Start, End: ls.End}
	return v, true
}
