package http

import (
	"log/slog"
	"net/http"

	"github.com/fwojciec/structura"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all routes and middleware mounted.
func NewRouter(h *Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recover(logger))

	r.Post("/extract", h.Extract)
	r.Get("/health", h.Health)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{
			Success: false,
			Error:   &errBody{Code: structura.ENOTFOUND, Message: "Unknown route."},
		})
	})

	return r
}
