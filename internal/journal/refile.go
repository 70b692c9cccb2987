package journal

import (
	"context"
	"fmt"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/datetree"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/session"
)

// RefileRequest moves or copies the entry enclosing Line to Target. Setting Period turns it into a series bounded by Until or Count.
type RefileRequest struct {
	File string `json:"file"`
	// Line is a 1-based line inside the source entry.
	Line   int    `json:"line"`
	Target string `json:"target"`
	Keep   bool   `json:"keep"`
	Period string `json:"period,omitempty"`
	Until  string `json:"until,omitempty"`
	Count  int    `json:"count,omitempty"`
	// IfMatch, when set, must be the checksum of the stored document.
	IfMatch string `json:"if_match,omitempty"`
}

// RefileResult reports a refile.
type RefileResult struct {
	File     string   `json:"file"`
	Placed   []string `json:"placed"`
	Removed  bool     `json:"removed"`
	Created  []string `json:"created"`
	Checksum string   `json:"checksum"`
}

// MaxSeriesLength caps the placements one series refile may make.
const MaxSeriesLength = 1000

type refilePlan struct {
	target calendar.Key
	period string
	end    datetree.EndSpec
}

func (r RefileRequest) plan() (refilePlan, error) {
	var p refilePlan
	if r.Line < 1 {
		return p, fmt.Errorf("journal: refile: line %d: %w", r.Line, apperr.ErrInvalidRefileSource)
	}
	target, err := calendar.Parse(r.Target)
	if err != nil {
		return p, fmt.Errorf("journal: refile: %w", err)
	}
	p.target = target
	if r.Period == "" {
		if r.Until != "" || r.Count != 0 {
			return p, fmt.Errorf("journal: refile: until and count need a period: %w", apperr.ErrInvalidInput)
		}
		return p, nil
	}
	period, err := calendar.ParsePeriod(r.Period)
	if err != nil {
		return p, fmt.Errorf("journal: refile: %w", err)
	}
	p.period = r.Period
	switch {
	case r.Until != "" && r.Count != 0:
		return p, fmt.Errorf("journal: refile: until and count are exclusive: %w", apperr.ErrInvalidInput)
	case r.Until != "":
		until, err := calendar.Parse(r.Until)
		if err != nil {
			return p, fmt.Errorf("journal: refile: %w", err)
		}
		if n := seriesLength(target, until, period); n > MaxSeriesLength {
			return p, fmt.Errorf("journal: refile: series %s..%s exceeds %d placements: %w", target, until, MaxSeriesLength, apperr.ErrInvalidInput)
		}
		p.end = datetree.Until(until)
	case r.Count > MaxSeriesLength:
		return p, fmt.Errorf("journal: refile: count %d exceeds %d: %w", r.Count, MaxSeriesLength, apperr.ErrInvalidInput)
	case r.Count > 0:
		p.end = datetree.Count(r.Count)
	default:
		return p, fmt.Errorf("journal: refile: series needs until or a positive count: %w", apperr.ErrInvalidInput)
	}
	return p, nil
}

// seriesLength counts the dates from start to until, stopping one past
// MaxSeriesLength. Non-advancing periods are left to the engine to reject.
func seriesLength(start, until calendar.Key, p calendar.Period) int {
	if p.Amount <= 0 {
		return 0
	}
	n := 0
	for d := start; !d.After(until) && n <= MaxSeriesLength; d = p.Apply(d) {
		n++
	}
	return n
}

// Refile runs a single or series refile. Input is validated before the
// document is loaded.
func (s *Service) Refile(ctx context.Context, req RefileRequest) (*RefileResult, error) {
	p, err := req.plan()
	if err != nil {
		return nil, err
	}
	res := &RefileResult{Placed: []string{}}
	st, err := s.edit(ctx, req.File, req.IfMatch, func(sess *session.Session, st *opState) error {
		source, err := headingAt(st.doc, req.Line)
		if err != nil {
			return err
		}
		sess.SetCursor(source)
		return sess.Mutate(st.doc, func() error {
			if p.period == "" {
				if err := s.engine.RefileOne(st.doc, source, p.target, req.Keep); err != nil {
					return err
				}
				st.placed = append(st.placed, placement{key: p.target, title: source.Heading.Title})
				res.Removed = !req.Keep
				return nil
			}
			series, err := s.engine.RefileSeries(st.doc, source, p.target, p.end, p.period, req.Keep)
			for _, k := range series.Placed {
				st.placed = append(st.placed, placement{key: k, title: source.Heading.Title})
			}
			res.Removed = series.Removed
			return err
		})
	})
	if st != nil {
		res.File = st.path
		res.Checksum = st.checksum
		for _, pl := range st.placed {
			res.Placed = append(res.Placed, pl.key.String())
		}
		res.Created = make([]string, 0, len(st.created))
		for _, k := range st.created {
			res.Created = append(res.Created, k.String())
		}
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// RefileSeries is Refile with a mandatory period.
func (s *Service) RefileSeries(ctx context.Context, req RefileRequest) (*RefileResult, error) {
	if req.Period == "" {
		return nil, fmt.Errorf("journal: refile series: missing period: %w", apperr.ErrUnrecognizedPeriodUnit)
	}
	return s.Refile(ctx, req)
}

// headingAt returns the deepest entry enclosing the 1-based line, which may
// be the heading line itself or any line of its body.
func headingAt(doc *outline.Document, line int) (*outline.Node, error) {
	n := doc.NodeAt(line - 1)
	if n == nil {
		return nil, fmt.Errorf("journal: line %d is not inside a heading: %w", line, apperr.ErrInvalidRefileSource)
	}
	return n, nil
}
