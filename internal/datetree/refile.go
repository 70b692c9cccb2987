package datetree

import (
	"fmt"
	"log/slog"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/outline"
)

var errNoEnd = fmt.Errorf("datetree: series needs an end date or a positive count: %w", apperr.ErrInvalidInput)

// Engine relocates content subtrees under day nodes.
type Engine struct {
	// BeforePlace runs before each placement, ahead of any deletion.
	BeforePlace Hooks
	// AfterPlace runs once per successful placement.
	AfterPlace Hooks

	logger *slog.Logger
}

// NewEngine creates a refile engine. A nil logger discards output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger}
}

// EndSpec bounds a refile series either by an inclusive last date or by a
// number of placements.
type EndSpec struct {
	Until calendar.Key
	Count int
}

// Until ends a series after the last generated date not later than k.
func Until(k calendar.Key) EndSpec { return EndSpec{Until: k} }

// Count ends a series after n placements.
func Count(n int) EndSpec { return EndSpec{Count: n} }

func (s EndSpec) byCount() bool { return s.Until.IsZero() }

// SeriesResult reports what a series refile did.
type SeriesResult struct {
	Placed  []calendar.Key
	Removed bool
}

// checkSource rejects a missing heading and calendar nodes.
func checkSource(source *outline.Node) error {
	if source == nil {
		return fmt.Errorf("datetree: no heading encloses the cursor: %w", apperr.ErrInvalidRefileSource)
	}
	if source.IsCalendar() {
		return fmt.Errorf("datetree: %s node %s cannot be refiled: %w", source.Kind, source.Key, apperr.ErrInvalidRefileSource)
	}
	return nil
}

func checkTarget(target calendar.Key) error {
	if target.Level() != calendar.LevelDay || !target.Valid() {
		return fmt.Errorf("datetree: refile target %s: %w", target, apperr.ErrInvalidDateFormat)
	}
	return nil
}

// RefileOne moves source under the day node of target, or copies it when
// keep is true. The subtree is appended after the day's existing children.
func (e *Engine) RefileOne(doc *outline.Document, source *outline.Node, target calendar.Key, keep bool) error {
	if err := checkSource(source); err != nil {
		return err
	}
	if err := checkTarget(target); err != nil {
		return err
	}

	e.BeforePlace.run(target)
	captured := source.Clone()
	if !keep {
		if err := doc.Detach(source); err != nil {
			return fmt.Errorf("datetree: refile: %w", err)
		}
	}
	return e.place(doc, captured, target)
}

// RefileSeries places copies of source on a sequence of days generated from
// start by repeatedly applying period, until end is reached. When start is
// the day that already holds source the sequence begins one period later.
// The original is removed once, after every copy is placed, unless keep is
// set and at least one copy was placed. Placements are not rolled back if a
// later one fails.
func (e *Engine) RefileSeries(doc *outline.Document, source *outline.Node, start calendar.Key, end EndSpec, period string, keep bool) (SeriesResult, error) {
	var res SeriesResult
	if err := checkSource(source); err != nil {
		return res, err
	}
	p, err := calendar.ParsePeriod(period)
	if err != nil {
		return res, err
	}
	if err := checkTarget(start); err != nil {
		return res, err
	}
	switch {
	case end.byCount() && end.Count <= 0:
		return res, errNoEnd
	case !end.byCount():
		if err := checkTarget(end.Until); err != nil {
			return res, err
		}
		if p.Amount <= 0 {
			return res, fmt.Errorf("datetree: period %s never reaches %s: %w", p, end.Until, apperr.ErrRangeOrder)
		}
	}

	if day := source.EnclosingDay(); day != nil && day.Key == start {
		start = p.Apply(start)
	}

	captured := source.Clone()
	for d, i := start, 0; ; d, i = p.Apply(d), i+1 {
		if end.byCount() && i >= end.Count {
			break
		}
		if !end.byCount() && d.After(end.Until) {
			break
		}
		e.BeforePlace.run(d)
		if err := e.place(doc, captured.Clone(), d); err != nil {
			return res, err
		}
		res.Placed = append(res.Placed, d)
	}

	// With nothing placed the original is the only copy left.
	if !keep && len(res.Placed) > 0 {
		if err := doc.Detach(source); err != nil {
			return res, fmt.Errorf("datetree: refile series: %w", err)
		}
		res.Removed = true
	}
	return res, nil
}

func (e *Engine) place(doc *outline.Document, subtree *outline.Node, target calendar.Key) error {
	day, err := LocateOrCreate(doc, target)
	if err != nil {
		return err
	}
	subtree.Relevel(day.Level() + 1)
	doc.Append(day, subtree)
	e.logger.Debug("datetree: placed subtree",
		slog.String("target", target.String()),
		slog.String("heading", subtree.Heading.Title))
	e.AfterPlace.run(target)
	return nil
}
