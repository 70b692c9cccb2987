package journal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/datetree"
	"github.com/starford/daybook/internal/session"
)

// ViewResult is a computed view and the document text it bounds.
type ViewResult struct {
	File string `json:"file"`
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
	// Start and End are the 1-based first and last lines of the view.
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Content  string   `json:"content"`
	Created  []string `json:"created"`
	Checksum string   `json:"checksum"`
}

// FocusDay focuses the day node for date, creating the year, month and day
// nodes it needs.
func (s *Service) FocusDay(ctx context.Context, file, date string) (*ViewResult, error) {
	key, err := calendar.Parse(date)
	if err != nil {
		return nil, fmt.Errorf("journal: focus day: %w", err)
	}
	return s.view(ctx, file, func(sess *session.Session, st *opState) (datetree.View, error) {
		return sess.GotoDay(st.doc, key, nil)
	})
}

// MaxRangeDays caps the days one range view may expose.
const MaxRangeDays = 366

// ShowRange exposes every day from start to end inclusive.
func (s *Service) ShowRange(ctx context.Context, file, start, end string) (*ViewResult, error) {
	from, err := calendar.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("journal: show range: %w", err)
	}
	to, err := calendar.Parse(end)
	if err != nil {
		return nil, fmt.Errorf("journal: show range: %w", err)
	}
	if from.After(to) {
		return nil, fmt.Errorf("journal: show range %s..%s: %w", from, to, apperr.ErrRangeOrder)
	}
	if n := int(to.Time().Sub(from.Time()).Hours()/24) + 1; n > MaxRangeDays {
		return nil, fmt.Errorf("journal: show range %s..%s spans %d days, more than %d: %w", from, to, n, MaxRangeDays, apperr.ErrInvalidInput)
	}
	return s.view(ctx, file, func(_ *session.Session, st *opState) (datetree.View, error) {
		return datetree.ShowRange(st.doc, from, to)
	})
}

// ShowWeek exposes the seven days of the current week.
func (s *Service) ShowWeek(ctx context.Context, file string) (*ViewResult, error) {
	now := s.now()
	return s.view(ctx, file, func(_ *session.Session, st *opState) (datetree.View, error) {
		return datetree.ShowWeek(st.doc, now, s.weekStart)
	})
}

// ShowMonth exposes a month subtree. An empty month selects the current one;
// otherwise it is YYYY-MM.
func (s *Service) ShowMonth(ctx context.Context, file, month string) (*ViewResult, error) {
	key := calendar.FromTime(s.now()).MonthKey()
	if month != "" {
		var err error
		if key, err = calendar.ParseMonth(month); err != nil {
			return nil, fmt.Errorf("journal: show month: %w", err)
		}
	}
	return s.view(ctx, file, func(_ *session.Session, st *opState) (datetree.View, error) {
		return datetree.ShowMonthOf(st.doc, key)
	})
}

func (s *Service) view(ctx context.Context, file string, compute func(sess *session.Session, st *opState) (datetree.View, error)) (*ViewResult, error) {
	var v datetree.View
	st, err := s.edit(ctx, file, "", func(sess *session.Session, st *opState) error {
		return sess.Mutate(st.doc, func() error {
			var err error
			if v, err = compute(sess, st); err != nil {
				return err
			}
			sess.SetView(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return newViewResult(st, v), nil
}

func newViewResult(st *opState, v datetree.View) *ViewResult {
	lines := st.doc.Lines()
	start, end := v.Start, v.End
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	created := make([]string, 0, len(st.created))
	for _, k := range st.created {
		created = append(created, k.String())
	}
	res := &ViewResult{
		File:     st.path,
		Kind:     string(v.Kind),
		From:     v.From.String(),
		To:       v.To.String(),
		Start:    start + 1,
		End:      end,
		Content:  strings.Join(lines[start:end], "\n"),
		Created:  created,
		Checksum: st.checksum,
	}
	sort.Strings(res.Created)
	return res
}
