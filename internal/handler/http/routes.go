package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Get("/healthz", h.healthz)

	router.Route("/api/sync", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Post("/run", h.runSync)
		r.Get("/conflicts", h.getConflicts)
		r.Post("/conflicts/{conflictID}/resolution", h.resolveConflict)
	})

	router.Get("/api/audit", h.getAuditTrail)

	return router
}
