// Package http exposes the agent's local status surface: a small read-only
// API for dashboards plus the conflict-resolution endpoint. It binds to a
// loopback address; it is not the sync transport.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/service"
	"github.com/careloop-health/medsync/internal/store"
)

type Handler struct {
	engine    service.SyncEngine
	conflicts store.ConflictRepository
	audit     store.AuditLog
	logger    *logger.Logger
}

// NewHandler constructs the status handler.
func NewHandler(engine service.SyncEngine, conflicts store.ConflictRepository, audit store.AuditLog, log *logger.Logger) *Handler {
	return &Handler{engine: engine, conflicts: conflicts, audit: audit, logger: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}
