package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *journal.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/files", h.Files)

	// Views.
	r.Get("/days/{date}", h.FocusDay)
	r.Get("/range", h.ShowRange)
	r.Get("/week", h.ShowWeek)
	r.Get("/month", h.ShowMonth)

	// Mutations.
	r.Post("/refile", h.Refile)
	r.Post("/reindex", h.Reindex)

	// Index.
	r.Get("/days", h.ListDays)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
