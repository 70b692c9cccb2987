package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/journal"
)

// Error codes returned alongside the message.
const (
	codeValidation    = "validation"
	codeInvalidDate   = "invalid_date"
	codeInvalidPeriod = "invalid_period"
	codeInvalidSource = "invalid_refile_source"
	codeRangeOrder    = "range_order"
	codeInvalidInput  = "invalid_input"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeUnauthorized  = "unauthorized"
	codeInternal      = "internal"
)

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg, Code: codeInvalidInput}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// badRequest lists the domain errors reported as 400, with their codes.
var badRequest = []struct {
	err  error
	code string
}{
	{apperr.ErrInvalidDateFormat, codeInvalidDate},
	{apperr.ErrUnrecognizedPeriodUnit, codeInvalidPeriod},
	{apperr.ErrInvalidRefileSource, codeInvalidSource},
	{apperr.ErrRangeOrder, codeRangeOrder},
	{apperr.ErrInvalidInput, codeInvalidInput},
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: verrs.Error(), Code: codeValidation})
		return
	}
	for _, b := range badRequest {
		if errors.Is(err, b.err) {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error(), Code: b.code})
			return
		}
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "not found", Code: codeNotFound})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errResponse{Error: "checksum mismatch", Code: codeConflict})
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error", Code: codeInternal})
	}
}

// writeView sends a view with the document checksum as its ETag.
// View GETs may create headings, so responses are never cached.
func writeView(w http.ResponseWriter, res *journal.ViewResult) {
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}
