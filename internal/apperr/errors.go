// Package apperr holds the sentinel errors shared across daybook packages.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDateFormat is returned for date text that is not a real
	// YYYY-MM-DD (or YYYY-MM / YYYY for month and year keys) date.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrUnrecognizedPeriodUnit is returned for period text outside [+-]N[dwmy].
	ErrUnrecognizedPeriodUnit = errors.New("unrecognized period unit")
	// ErrInvalidRefileSource is returned when the refile source is a calendar
	// node or there is no heading enclosing the cursor.
	ErrInvalidRefileSource = errors.New("invalid refile source")
	// ErrRangeOrder is returned when a range starts after it ends.
	ErrRangeOrder = errors.New("range start after end")
)
