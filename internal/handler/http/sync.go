package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/service"
	"github.com/careloop-health/medsync/models"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// getStatus returns the engine's read-only snapshot. Producing it triggers
// no sync work.
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Status(r.Context())
	if err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("sync status")
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, http.StatusOK, snapshot)
}

// runSync requests a sync cycle. The engine coalesces the request if a
// cycle is already running, so this always returns quickly.
func (h *Handler) runSync(w http.ResponseWriter, r *http.Request) {
	// The cycle outlives the request; it must not inherit the request's
	// context.
	go func() {
		if err := h.engine.Sync(context.Background()); err != nil && !errors.Is(err, service.ErrOffline) {
			h.logger.Error().Err(err).Msg("requested sync failed")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) getConflicts(w http.ResponseWriter, r *http.Request) {
	unresolved, err := h.conflicts.ListUnresolved(r.Context())
	if err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("list conflicts")
		http.Error(w, "conflicts unavailable", http.StatusInternalServerError)
		return
	}
	if unresolved == nil {
		unresolved = []models.SyncConflict{}
	}

	h.writeJSON(w, r, http.StatusOK, unresolved)
}

type resolveRequest struct {
	Winner        models.Winner   `json:"winner"`
	MergedPayload json.RawMessage `json:"merged_payload,omitempty"`
	ResolvedBy    string          `json:"resolved_by"`
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	conflictID := chi.URLParam(r, "conflictID")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid resolution body", http.StatusBadRequest)
		return
	}

	resolution := models.Resolution{Winner: req.Winner, MergedPayload: req.MergedPayload}
	err := h.engine.ResolveConflict(r.Context(), conflictID, resolution, req.ResolvedBy)
	switch {
	case errors.Is(err, service.ErrConflictNotFound):
		http.Error(w, "conflict not found", http.StatusNotFound)
	case errors.Is(err, service.ErrManualResolutionRequired):
		http.Error(w, "manual resolution required", http.StatusConflict)
	case err != nil:
		logger.FromRequest(r).Error().Err(err).Str("conflict_id", conflictID).Msg("resolve conflict")
		http.Error(w, "resolution failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) getAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.audit.List(r.Context(), limit)
	if err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("list audit events")
		http.Error(w, "audit trail unavailable", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}

	h.writeJSON(w, r, http.StatusOK, events)
}
