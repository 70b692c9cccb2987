// Package calendar converts between ISO date text, calendar keys and
// time.Time, and implements the date arithmetic the date tree relies on.
//
// Month and year shifts follow time.Time.AddDate: the calendar fields are
// added first and any day-of-month overflow rolls forward into the following
// month (2025-01-31 shifted by one month is 2025-03-03). Nothing is clamped.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/starford/daybook/internal/apperr"
)

// Level is the tree depth a key is indexed at.
type Level int

// Calendar levels. Anything deeper than LevelDay is free content.
const (
	LevelYear  Level = 1
	LevelMonth Level = 2
	LevelDay   Level = 3
)

// Key identifies a year, month or day node. A year key has Month and Day set
// to zero; a month key has Day set to zero.
type Key struct {
	Year  int
	Month int
	Day   int
}

// YearKey returns the key for year y.
func YearKey(y int) Key { return Key{Year: y} }

// MonthKey returns the key for month m of year y.
func MonthKey(y, m int) Key { return Key{Year: y, Month: m} }

// DayKey returns the key for the given date. It does not validate.
func DayKey(y, m, d int) Key { return Key{Year: y, Month: m, Day: d} }

// FromTime returns the day key of t in t's location.
func FromTime(t time.Time) Key {
	return DayKey(t.Year(), int(t.Month()), t.Day())
}

// Level reports whether k is a year, month or day key.
func (k Key) Level() Level {
	switch {
	case k.Month == 0:
		return LevelYear
	case k.Day == 0:
		return LevelMonth
	default:
		return LevelDay
	}
}

// Valid reports whether k is a well-formed year, month or day key within
// four-digit years.
func (k Key) Valid() bool {
	if k.Year < 0 || k.Year > 9999 {
		return false
	}
	switch k.Level() {
	case LevelYear:
		return k.Day == 0
	case LevelMonth:
		return k.Month >= 1 && k.Month <= 12
	default:
		return validDay(k.Year, k.Month, k.Day)
	}
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k == Key{} }

// YearKey returns the enclosing year key.
func (k Key) YearKey() Key { return YearKey(k.Year) }

// MonthKey returns the enclosing month key. It is only meaningful for month
// and day keys.
func (k Key) MonthKey() Key { return MonthKey(k.Year, k.Month) }

// Time returns midnight UTC of a day key.
func (k Key) Time() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of the week of a day key.
func (k Key) Weekday() time.Weekday { return k.Time().Weekday() }

// Compare orders keys chronologically, field by field. It returns -1, 0 or 1.
func (k Key) Compare(o Key) int {
	switch {
	case k.Year != o.Year:
		return cmpInt(k.Year, o.Year)
	case k.Month != o.Month:
		return cmpInt(k.Month, o.Month)
	default:
		return cmpInt(k.Day, o.Day)
	}
}

// Before reports whether k sorts before o.
func (k Key) Before(o Key) bool { return k.Compare(o) < 0 }

// After reports whether k sorts after o.
func (k Key) After(o Key) bool { return k.Compare(o) > 0 }

// String renders the key in its canonical storage form: YYYY, YYYY-MM or
// YYYY-MM-DD.
func (k Key) String() string {
	switch k.Level() {
	case LevelYear:
		return fmt.Sprintf("%04d", k.Year)
	case LevelMonth:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
	}
}

// Format is the inverse of Parse, ParseMonth and ParseYear.
func Format(k Key) string { return k.String() }

// Parse parses an exact YYYY-MM-DD string naming a real date.
func Parse(text string) (Key, error) {
	if len(text) != 10 || text[4] != '-' || text[7] != '-' {
		return Key{}, fmt.Errorf("calendar: parse %q: %w", text, apperr.ErrInvalidDateFormat)
	}
	y, okY := digits(text[0:4])
	m, okM := digits(text[5:7])
	d, okD := digits(text[8:10])
	if !okY || !okM || !okD || !validDay(y, m, d) {
		return Key{}, fmt.Errorf("calendar: parse %q: %w", text, apperr.ErrInvalidDateFormat)
	}
	return DayKey(y, m, d), nil
}

// ParseMonth parses an exact YYYY-MM string.
func ParseMonth(text string) (Key, error) {
	if len(text) != 7 || text[4] != '-' {
		return Key{}, fmt.Errorf("calendar: parse month %q: %w", text, apperr.ErrInvalidDateFormat)
	}
	y, okY := digits(text[0:4])
	m, okM := digits(text[5:7])
	if !okY || !okM || m < 1 || m > 12 {
		return Key{}, fmt.Errorf("calendar: parse month %q: %w", text, apperr.ErrInvalidDateFormat)
	}
	return MonthKey(y, m), nil
}

// ParseYear parses an exact four digit year.
func ParseYear(text string) (Key, error) {
	y, ok := digits(text)
	if len(text) != 4 || !ok {
		return Key{}, fmt.Errorf("calendar: parse year %q: %w", text, apperr.ErrInvalidDateFormat)
	}
	return YearKey(y), nil
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y, m int) int {
	return time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validDay(y, m, d int) bool {
	return m >= 1 && m <= 12 && d >= 1 && d <= DaysIn(y, m)
}

// digits parses s as an unsigned decimal made only of ASCII digits.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
