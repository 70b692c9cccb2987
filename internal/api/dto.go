package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
)

// RefileRequest is the request body for POST /api/refile.
type RefileRequest struct {
	File   string `json:"file,omitempty" example:"journal.org"`
	Line   int    `json:"line" example:"12" validate:"required"`
	Target string `json:"target" example:"2025-07-29" validate:"required"`
	Keep   bool   `json:"keep" example:"false"`
	Period string `json:"period,omitempty" example:"+1w"`
	Until  string `json:"until,omitempty" example:"2025-12-31"`
	Count  int    `json:"count,omitempty" example:"4"`
}

// Validate checks the request shape. Date and period grammar are checked by
// the journal service.
func (r *RefileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Line, validation.Required, validation.Min(1)),
		validation.Field(&r.Target, validation.Required),
		validation.Field(&r.Count, validation.Min(0), validation.Max(journal.MaxSeriesLength)),
		validation.Field(&r.Until, validation.When(r.Count > 0, validation.Empty)),
	)
}

func (r *RefileRequest) toJournal(ifMatch string) journal.RefileRequest {
	return journal.RefileRequest{
		File:    r.File,
		Line:    r.Line,
		Target:  r.Target,
		Keep:    r.Keep,
		Period:  r.Period,
		Until:   r.Until,
		Count:   r.Count,
		IfMatch: ifMatch,
	}
}

// ViewResponse is a computed day, range, week or month view.
type ViewResponse = journal.ViewResult

// RefileResponse reports a refile.
type RefileResponse = journal.RefileResult

// FilesResponse lists journal documents.
type FilesResponse = journal.FilesResult

// DayItem is one indexed day node.
type DayItem = index.DayRow

// DaysResponse wraps indexed days.
type DaysResponse struct {
	Days []DayItem `json:"days" validate:"required"`
}
