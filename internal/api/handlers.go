package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/journal"
)

// Handler holds API route handlers.
type Handler struct {
	svc *journal.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service) *Handler {
	return &Handler{svc: svc}
}

// Files handles GET /api/files.
//
//	@Summary		List registered journal files and the active one
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FilesResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Files(r.Context())
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FocusDay handles GET /api/days/{date}.
//
//	@Summary		Focus a day, creating its year, month and day headings
//	@Description	Creates missing date headings and saves the file, so the GET is not
//	@Description	idempotent. Responses are sent with Cache-Control: no-store.
//	@Tags			views
//	@Produce		json
//	@Param			date	path		string	true	"Day (YYYY-MM-DD)"
//	@Param			file	query		string	false	"Registered name or path"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [get]
func (h *Handler) FocusDay(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FocusDay(r.Context(), r.URL.Query().Get("file"), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "focus day", err)
		return
	}
	writeView(w, res)
}

// ShowRange handles GET /api/range.
//
//	@Summary		Show every day of an inclusive range
//	@Description	Creates missing date headings and saves the file, so the GET is not
//	@Description	idempotent. Responses are sent with Cache-Control: no-store.
//	@Tags			views
//	@Produce		json
//	@Param			start	query		string	true	"First day (YYYY-MM-DD)"
//	@Param			end		query		string	true	"Last day (YYYY-MM-DD)"
//	@Param			file	query		string	false	"Registered name or path"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/range [get]
func (h *Handler) ShowRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'start' and 'end' are required"))
		return
	}
	res, err := h.svc.ShowRange(r.Context(), q.Get("file"), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, "show range", err)
		return
	}
	writeView(w, res)
}

// ShowWeek handles GET /api/week.
//
//	@Summary		Show the current week
//	@Description	Creates missing date headings and saves the file, so the GET is not
//	@Description	idempotent. Responses are sent with Cache-Control: no-store.
//	@Tags			views
//	@Produce		json
//	@Param			file	query		string	false	"Registered name or path"
//	@Success		200		{object}	ViewResponse
//	@Security		BearerAuth
//	@Router			/week [get]
func (h *Handler) ShowWeek(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ShowWeek(r.Context(), r.URL.Query().Get("file"))
	if err != nil {
		writeError(w, "show week", err)
		return
	}
	writeView(w, res)
}

// ShowMonth handles GET /api/month.
//
//	@Summary		Show a month subtree
//	@Description	Creates missing date headings and saves the file, so the GET is not
//	@Description	idempotent. Responses are sent with Cache-Control: no-store.
//	@Tags			views
//	@Produce		json
//	@Param			month	query		string	false	"Month (YYYY-MM), defaults to the current one"
//	@Param			file	query		string	false	"Registered name or path"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/month [get]
func (h *Handler) ShowMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.ShowMonth(r.Context(), q.Get("file"), q.Get("month"))
	if err != nil {
		writeError(w, "show month", err)
		return
	}
	writeView(w, res)
}

// Refile handles POST /api/refile.
//
//	@Summary		Move or copy a subtree to one or more days
//	@Tags			refile
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	RefileRequest	true	"Refile request"
//	@Success		200			{object}	RefileResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/refile [post]
func (h *Handler) Refile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RefileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "refile", err)
		return
	}

	res, err := h.svc.Refile(r.Context(), req.toJournal(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "refile", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeJSON(w, http.StatusOK, res)
}

// Reindex handles POST /api/reindex.
//
//	@Summary		Rebuild the day index from disk
//	@Tags			index
//	@Success		204	"Index rebuilt"
//	@Security		BearerAuth
//	@Router			/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reindex(r.Context()); err != nil {
		writeError(w, "reindex", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDays handles GET /api/days.
//
//	@Summary		List indexed day headings
//	@Tags			index
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Param			file	query		string	false	"Registered name or path"
//	@Success		200		{object}	DaysResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days [get]
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.svc.Days(r.Context(), journal.DaysQuery{
		File: q.Get("file"),
		From: q.Get("from"),
		To:   q.Get("to"),
	})
	if err != nil {
		writeError(w, "list days", err)
		return
	}
	writeJSON(w, http.StatusOK, DaysResponse{Days: days})
}
