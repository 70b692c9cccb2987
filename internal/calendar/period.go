package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/daybook/internal/apperr"
)

// Unit is the granularity of a period shift.
type Unit int

// Period units.
const (
	UnitDay Unit = iota
	UnitWeek
	UnitMonth
	UnitYear
)

var (
	periodPattern = regexp.MustCompile(`^([+-]?\d+)([dwmy])$`)
	unitLetters   = map[string]Unit{
		"d": UnitDay,
		"w": UnitWeek,
		"m": UnitMonth,
		"y": UnitYear,
	}
)

// String returns the unit's period letter.
func (u Unit) String() string {
	switch u {
	case UnitDay:
		return "d"
	case UnitWeek:
		return "w"
	case UnitMonth:
		return "m"
	case UnitYear:
		return "y"
	default:
		return "?"
	}
}

// Period is a signed amount of units, e.g. "2w" or "-1m".
type Period struct {
	Amount int
	Unit   Unit
}

// String renders the period in the mini-language it was parsed from.
func (p Period) String() string {
	return strconv.Itoa(p.Amount) + p.Unit.String()
}

// Apply shifts k by the period.
func (p Period) Apply(k Key) Key {
	return Shift(k, p.Amount, p.Unit)
}

// ParsePeriod parses the period-shift mini-language [+-]N(d|w|m|y).
func ParsePeriod(text string) (Period, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Period{}, fmt.Errorf("calendar: parse period %q: %w", text, apperr.ErrUnrecognizedPeriodUnit)
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return Period{}, fmt.Errorf("calendar: parse period %q: %w", text, apperr.ErrUnrecognizedPeriodUnit)
	}
	return Period{Amount: amount, Unit: unitLetters[m[2]]}, nil
}

// Shift moves day key k by amount units. Weeks are seven days; months and
// years roll overflowing days forward (see the package doc). Shift does not
// clamp: a result outside years 0000-9999 fails Valid and must not be
// rendered or stored.
func Shift(k Key, amount int, unit Unit) Key {
	t := k.Time()
	switch unit {
	case UnitWeek:
		t = t.AddDate(0, 0, 7*amount)
	case UnitMonth:
		t = t.AddDate(0, amount, 0)
	case UnitYear:
		t = t.AddDate(amount, 0, 0)
	default:
		t = t.AddDate(0, 0, amount)
	}
	return FromTime(t)
}

// AddDays shifts day key k by n days.
func AddDays(k Key, n int) Key { return Shift(k, n, UnitDay) }

// EnumerateInclusive returns every day from start to end, both included, in
// ascending order. A start after end is rejected with apperr.ErrRangeOrder.
func EnumerateInclusive(start, end Key) ([]Key, error) {
	if start.After(end) {
		return nil, fmt.Errorf("calendar: enumerate %s..%s: %w", start, end, apperr.ErrRangeOrder)
	}
	var out []Key
	for d := start; !d.After(end); d = AddDays(d, 1) {
		out = append(out, d)
	}
	return out, nil
}

// WeekStart returns the most recent day on or before now that falls on first.
func WeekStart(now time.Time, first time.Weekday) Key {
	today := FromTime(now)
	back := (int(today.Weekday()) - int(first) + 7) % 7
	return AddDays(today, -back)
}

// Today returns the day key of now.
func Today(now time.Time) Key { return FromTime(now) }

// Tomorrow returns the day key after now.
func Tomorrow(now time.Time) Key { return AddDays(FromTime(now), 1) }

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses an English weekday name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return time.Sunday, fmt.Errorf("calendar: unknown weekday %q", s)
	}
	return wd, nil
}
