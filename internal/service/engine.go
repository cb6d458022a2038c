// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careloop-health/medsync/internal/adapter"
	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/queue"
	"github.com/careloop-health/medsync/internal/resolver"
	"github.com/careloop-health/medsync/internal/store"
	"github.com/careloop-health/medsync/models"
)

const autoResolvedBy = "auto-resolver"

type syncEngine struct {
	store     store.SecureStore
	conflicts store.ConflictRepository
	audit     store.AuditLog
	queue     *queue.RetryQueue
	remote    adapter.RemoteEndpoint
	policy    resolver.Policy
	userID    string
	logger    *logger.Logger

	now func() time.Time

	mu          sync.Mutex
	syncing     bool
	rerun       bool
	online      bool
	quality     models.Quality
	lastSyncAt  *time.Time
	lastSyncErr string
}

// NewSyncEngine constructs the engine. It assumes connectivity until the
// network monitor reports otherwise; the first probe corrects the flag
// within one probe interval.
func NewSyncEngine(
	st store.SecureStore,
	conflicts store.ConflictRepository,
	audit store.AuditLog,
	q *queue.RetryQueue,
	remote adapter.RemoteEndpoint,
	policy resolver.Policy,
	userID string,
	log *logger.Logger,
) SyncEngine {
	return &syncEngine{
		store:     st,
		conflicts: conflicts,
		audit:     audit,
		queue:     q,
		remote:    remote,
		policy:    policy,
		userID:    userID,
		logger:    log,
		now:       time.Now,
		online:    true,
		quality:   models.QualityExcellent,
	}
}

// QueueOperation implements [SyncEngine].
func (e *syncEngine) QueueOperation(ctx context.Context, op models.Operation, record models.StoredRecord, opts Options) error {
	log := e.logger.With().Str("func", "QueueOperation").Str("record_id", record.ID).Logger()

	switch op {
	case models.OperationCreate, models.OperationUpdate:
		record.SyncStatus = models.SyncStatusPending
		if err := e.store.Put(ctx, record); err != nil {
			return fmt.Errorf("persist pending record: %w", err)
		}
	case models.OperationDelete:
		// A delete keeps a tombstone row until the remote side acknowledges
		// it. The pending mutation stays countable in Status and the queue
		// can be rebuilt from it after a restart; the row is removed only
		// once the remote delete lands.
		record.SyncStatus = models.SyncStatusPending
		record.Deleted = true
		if err := e.store.Put(ctx, record); err != nil {
			return fmt.Errorf("persist delete tombstone: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	e.queue.Enqueue(models.RetryQueueItem{
		ID: record.ID,
		Action: models.SyncAction{
			Operation:    op,
			ResourceType: record.ResourceType,
			RecordID:     record.ID,
			BaseVersion:  record.RemoteVersion,
		},
		Priority:  opts.Priority,
		Timestamp: e.now(),
	})

	log.Debug().Str("operation", string(op)).Msg("operation queued")
	return nil
}

// Sync implements [SyncEngine]. The in-flight guard coalesces overlapping
// requests: the second caller flags a re-run and returns immediately, and
// the running cycle picks the flag up when it finishes.
func (e *syncEngine) Sync(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.rerun = true
		e.mu.Unlock()
		return nil
	}
	if !e.online {
		e.mu.Unlock()
		return ErrOffline
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	for {
		outcome, err := e.runCycle(ctx)

		finished := e.now()
		e.mu.Lock()
		e.lastSyncAt = &finished
		if err != nil {
			e.lastSyncErr = err.Error()
		} else {
			e.lastSyncErr = ""
		}
		rerun := e.rerun
		e.rerun = false
		e.mu.Unlock()

		e.logger.Info().
			Str("func", "Sync").
			Str("outcome", outcome).
			Bool("rerun", rerun).
			Msg("sync cycle finished")

		if err != nil {
			return err
		}
		if !rerun {
			return nil
		}
	}
}

// runCycle drains ready retry-queue items once, in priority/FIFO order.
// Per-item failures feed back into the queue; the cycle itself only errors
// on context cancellation.
func (e *syncEngine) runCycle(ctx context.Context) (outcome string, err error) {
	items := e.queue.DequeueReady(e.now())

	e.mu.Lock()
	degraded := e.quality == models.QualityPoor
	e.mu.Unlock()

	outcome = "success"
	for _, item := range items {
		if ctx.Err() != nil {
			return "error", ctx.Err()
		}

		// On a poor connection low-priority work stays queued; its next
		// eligibility window is unchanged, so it goes out as soon as the
		// link recovers.
		if degraded && item.Priority == models.PriorityLow {
			continue
		}

		switch e.applyItem(ctx, item) {
		case itemConflict:
			outcome = "conflict"
		case itemFailed:
			if outcome == "success" {
				outcome = "error"
			}
		}
	}
	return outcome, nil
}

type itemOutcome int

const (
	itemSynced itemOutcome = iota
	itemConflict
	itemFailed
	itemDropped
)

func (e *syncEngine) applyItem(ctx context.Context, item models.RetryQueueItem) itemOutcome {
	log := e.logger.With().
		Str("func", "applyItem").
		Str("record_id", item.Action.RecordID).
		Str("operation", string(item.Action.Operation)).
		Logger()

	record, err := e.store.Get(ctx, item.Action.RecordID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Expired locally, or a delete whose tombstone is already gone.
		e.queue.Remove(item.ID)
		log.Debug().Msg("record gone locally, dropping queued operation")
		return itemDropped
	case err != nil:
		log.Error().Err(err).Msg("load record for sync")
		e.queue.ReportFailure(item.ID, e.now())
		return itemFailed
	}
	localFound := true

	baseVersion := item.Action.BaseVersion
	if localFound && record.RemoteVersion != "" {
		baseVersion = record.RemoteVersion
	}

	var (
		version string
		callErr error
	)
	switch item.Action.Operation {
	case models.OperationCreate:
		version, callErr = e.remote.Create(ctx, item.Action.ResourceType, item.Action.RecordID, record.Payload)
	case models.OperationUpdate:
		version, callErr = e.remote.Update(ctx, item.Action.ResourceType, item.Action.RecordID, record.Payload, baseVersion)
	case models.OperationDelete:
		callErr = e.remote.Delete(ctx, item.Action.ResourceType, item.Action.RecordID, baseVersion)
	default:
		e.queue.Remove(item.ID)
		log.Error().Msg("unknown operation in queue, dropping")
		return itemDropped
	}

	switch {
	case callErr == nil:
		e.queue.ReportSuccess(item.ID)
		if item.Action.Operation == models.OperationDelete {
			// Remote acknowledged the delete; the tombstone has served its
			// purpose.
			if err := e.store.Delete(ctx, item.Action.RecordID); err != nil {
				log.Error().Err(err).Msg("remove delete tombstone")
			}
		} else {
			if err := e.store.SetSyncState(ctx, item.Action.RecordID, models.SyncStatusSynced, version); err != nil {
				log.Error().Err(err).Msg("mark record synced")
			}
		}
		return itemSynced

	case errors.Is(callErr, adapter.ErrVersionConflict):
		e.queue.Remove(item.ID)
		e.recordConflict(ctx, item, record, localFound)
		return itemConflict

	case errors.Is(callErr, adapter.ErrTransientNetwork):
		if permanent := e.queue.ReportFailure(item.ID, e.now()); permanent {
			log.Warn().Err(callErr).Msg("retries exhausted, marking record failed")
			e.markFailed(ctx, item, record, localFound)
		} else {
			log.Debug().Err(callErr).Msg("transient failure, backing off")
		}
		return itemFailed

	default:
		// Structural rejection: identical on every retry, so backoff is
		// pointless.
		e.queue.Remove(item.ID)
		log.Warn().Err(callErr).Msg("permanent rejection, marking record failed")
		e.markFailed(ctx, item, record, localFound)
		return itemFailed
	}
}

func (e *syncEngine) markFailed(ctx context.Context, item models.RetryQueueItem, record models.StoredRecord, localFound bool) {
	if !localFound {
		return
	}
	if err := e.store.SetSyncState(ctx, item.Action.RecordID, models.SyncStatusFailed, record.RemoteVersion); err != nil {
		e.logger.Error().Err(err).Str("record_id", item.Action.RecordID).Msg("mark record failed")
	}
}

// recordConflict captures the divergence for later resolution: fetches the
// server's copy, persists a SyncConflict, and marks the local record
// conflicted. The operation leaves the retry queue: conflicts require
// resolution, not backoff.
func (e *syncEngine) recordConflict(ctx context.Context, item models.RetryQueueItem, record models.StoredRecord, localFound bool) {
	log := e.logger.With().Str("func", "recordConflict").Str("record_id", item.Action.RecordID).Logger()

	remoteCopy, err := e.remote.Fetch(ctx, item.Action.ResourceType, item.Action.RecordID)
	if err != nil {
		// The conflict is still recorded; the remote side can be fetched
		// again at resolution time.
		log.Warn().Err(err).Msg("fetch remote copy for conflict")
	}

	conflictType := models.ConflictTypeUpdate
	if item.Action.Operation == models.OperationDelete || remoteCopy.Deleted || !localFound {
		conflictType = models.ConflictTypeDelete
	}

	conflict := models.SyncConflict{
		ID:            uuid.NewString(),
		DataID:        item.Action.RecordID,
		ResourceType:  item.Action.ResourceType,
		LocalVersion:  record.LocalVersion,
		RemoteVersion: remoteCopy.Version,
		RemotePayload: remoteCopy.Payload,
		ConflictType:  conflictType,
		CreatedAt:     e.now(),
	}
	if err := e.conflicts.SaveConflict(ctx, conflict); err != nil {
		log.Error().Err(err).Msg("persist sync conflict")
		return
	}

	if localFound {
		if err := e.store.SetSyncState(ctx, item.Action.RecordID, models.SyncStatusConflict, record.RemoteVersion); err != nil {
			log.Error().Err(err).Msg("mark record conflicted")
		}
	}

	e.auditEvent(ctx, models.AuditConflictCreated, models.AuditSeverityWarning, map[string]string{
		"conflict_id":   conflict.ID,
		"data_id":       conflict.DataID,
		"conflict_type": string(conflictType),
	})

	log.Info().
		Str("conflict_id", conflict.ID).
		Str("conflict_type", string(conflictType)).
		Msg("sync conflict recorded")
}

// ResolveConflict implements [SyncEngine].
func (e *syncEngine) ResolveConflict(ctx context.Context, conflictID string, resolution models.Resolution, resolvedBy string) error {
	log := e.logger.With().Str("func", "ResolveConflict").Str("conflict_id", conflictID).Logger()

	conflict, err := e.conflicts.GetConflict(ctx, conflictID)
	if err != nil {
		if errors.Is(err, store.ErrConflictNotFound) {
			return fmt.Errorf("%w: %s", ErrConflictNotFound, conflictID)
		}
		return fmt.Errorf("load conflict: %w", err)
	}
	if conflict.Resolved {
		log.Debug().Msg("conflict already resolved, no-op")
		return nil
	}

	local, err := e.store.Get(ctx, conflict.DataID)
	localFound := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load local record: %w", err)
	}

	if resolution.Winner == "" {
		decision := resolver.Resolve(e.policy,
			resolver.LocalState{
				Version:        conflict.LocalVersion,
				Payload:        local.Payload,
				Classification: local.Classification,
				Deleted:        !localFound || local.Deleted,
			},
			resolver.RemoteState{
				Version: conflict.RemoteVersion,
				Payload: conflict.RemotePayload,
				Deleted: conflict.ConflictType == models.ConflictTypeDelete && localFound,
			},
		)
		if decision.Winner == models.WinnerManual {
			return fmt.Errorf("%w: conflict %s", ErrManualResolutionRequired, conflictID)
		}
		resolution = models.Resolution{Winner: decision.Winner, MergedPayload: decision.MergedPayload}
		if resolvedBy == "" {
			resolvedBy = autoResolvedBy
		}
	}
	if resolution.Winner == models.WinnerManual {
		return fmt.Errorf("%w: manual is not a committable winner", ErrManualResolutionRequired)
	}

	if err := e.applyResolution(ctx, conflict, resolution, local, localFound); err != nil {
		return err
	}
	if err := e.conflicts.MarkResolved(ctx, conflictID, resolution, resolvedBy, e.now()); err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}

	e.auditEvent(ctx, models.AuditConflictResolved, models.AuditSeverityInfo, map[string]string{
		"conflict_id": conflictID,
		"data_id":     conflict.DataID,
		"winner":      string(resolution.Winner),
		"resolved_by": resolvedBy,
	})

	log.Info().Str("winner", string(resolution.Winner)).Str("resolved_by", resolvedBy).Msg("conflict resolved")
	return nil
}

func (e *syncEngine) applyResolution(ctx context.Context, conflict models.SyncConflict, resolution models.Resolution, local models.StoredRecord, localFound bool) error {
	switch resolution.Winner {
	case models.WinnerRemote:
		if conflict.ConflictType == models.ConflictTypeDelete && localFound && !local.Deleted {
			// Remote deleted wins: drop the local copy.
			return e.store.Delete(ctx, conflict.DataID)
		}

		record := local
		if !localFound {
			record = models.StoredRecord{
				ID:           conflict.DataID,
				ResourceType: conflict.ResourceType,
				// The local copy is gone, so its classification is unknown;
				// store the restored payload at the most protective tier.
				Classification: models.ClassificationPHI,
			}
		}
		// A surviving remote copy also overrides a local delete tombstone.
		record.Deleted = false
		record.Payload = conflict.RemotePayload
		record.RemoteVersion = conflict.RemoteVersion
		record.SyncStatus = models.SyncStatusSynced
		if v, ok := resolver.ParseVersion(conflict.RemoteVersion); ok {
			record.LocalVersion = v
		} else {
			record.LocalVersion++
		}
		return e.store.Put(ctx, record)

	case models.WinnerLocal:
		if !localFound || local.Deleted {
			// Local delete wins: push the delete based on the server's
			// current version. The tombstone, when present, goes back to
			// pending so the mutation stays visible until it lands.
			if localFound {
				local.RemoteVersion = conflict.RemoteVersion
				local.SyncStatus = models.SyncStatusPending
				if err := e.store.Put(ctx, local); err != nil {
					return err
				}
			}
			e.queue.Enqueue(models.RetryQueueItem{
				ID: conflict.DataID,
				Action: models.SyncAction{
					Operation:    models.OperationDelete,
					ResourceType: conflict.ResourceType,
					RecordID:     conflict.DataID,
					BaseVersion:  conflict.RemoteVersion,
				},
				Priority:  models.PriorityHigh,
				Timestamp: e.now(),
			})
			return nil
		}

		local.RemoteVersion = conflict.RemoteVersion
		local.SyncStatus = models.SyncStatusPending
		if err := e.store.Put(ctx, local); err != nil {
			return err
		}
		e.queue.Enqueue(models.RetryQueueItem{
			ID: conflict.DataID,
			Action: models.SyncAction{
				Operation:    models.OperationUpdate,
				ResourceType: conflict.ResourceType,
				RecordID:     conflict.DataID,
				BaseVersion:  conflict.RemoteVersion,
			},
			Priority:  models.PriorityHigh,
			Timestamp: e.now(),
		})
		return nil

	case models.WinnerMerged:
		record := local
		if !localFound {
			record = models.StoredRecord{
				ID:             conflict.DataID,
				ResourceType:   conflict.ResourceType,
				Classification: models.ClassificationPHI,
			}
		}
		record.Deleted = false
		record.Payload = resolution.MergedPayload
		record.LocalVersion++
		record.RemoteVersion = conflict.RemoteVersion
		record.SyncStatus = models.SyncStatusPending
		if err := e.store.Put(ctx, record); err != nil {
			return err
		}
		e.queue.Enqueue(models.RetryQueueItem{
			ID: conflict.DataID,
			Action: models.SyncAction{
				Operation:    models.OperationUpdate,
				ResourceType: conflict.ResourceType,
				RecordID:     conflict.DataID,
				BaseVersion:  conflict.RemoteVersion,
			},
			Priority:  models.PriorityHigh,
			Timestamp: e.now(),
		})
		return nil

	default:
		return fmt.Errorf("%w: unknown winner %q", ErrManualResolutionRequired, resolution.Winner)
	}
}

// Status implements [SyncEngine].
func (e *syncEngine) Status(ctx context.Context) (models.SyncStatusSnapshot, error) {
	pending, err := e.store.ListByStatus(ctx, models.SyncStatusPending)
	if err != nil {
		return models.SyncStatusSnapshot{}, fmt.Errorf("list pending records: %w", err)
	}
	failed, err := e.store.ListByStatus(ctx, models.SyncStatusFailed)
	if err != nil {
		return models.SyncStatusSnapshot{}, fmt.Errorf("list failed records: %w", err)
	}
	unresolved, err := e.conflicts.ListUnresolved(ctx)
	if err != nil {
		return models.SyncStatusSnapshot{}, fmt.Errorf("list unresolved conflicts: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return models.SyncStatusSnapshot{
		Online:        e.online,
		Syncing:       e.syncing,
		PendingCount:  len(pending),
		FailedCount:   len(failed),
		ConflictCount: len(unresolved),
		LastSyncAt:    e.lastSyncAt,
		LastSyncError: e.lastSyncErr,
	}, nil
}

// Rebuild implements [SyncEngine]. Classification maps onto queue priority:
// phi records sync first after a restart.
func (e *syncEngine) Rebuild(ctx context.Context) error {
	records, err := e.store.ListByStatus(ctx, models.SyncStatusPending, models.SyncStatusFailed)
	if err != nil {
		return fmt.Errorf("list records for rebuild: %w", err)
	}

	for _, record := range records {
		op := models.OperationUpdate
		switch {
		case record.Deleted:
			op = models.OperationDelete
		case record.RemoteVersion == "":
			op = models.OperationCreate
		}
		e.queue.Enqueue(models.RetryQueueItem{
			ID: record.ID,
			Action: models.SyncAction{
				Operation:    op,
				ResourceType: record.ResourceType,
				RecordID:     record.ID,
				BaseVersion:  record.RemoteVersion,
			},
			Priority:  priorityFor(record.Classification),
			Timestamp: e.now(),
		})
	}

	e.logger.Info().Str("func", "Rebuild").Int("requeued", len(records)).Msg("retry queue rebuilt from store")
	return nil
}

// SetOnline implements [SyncEngine].
func (e *syncEngine) SetOnline(online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online = online
}

// SetQuality implements [SyncEngine].
func (e *syncEngine) SetQuality(quality models.Quality) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quality = quality
}

func (e *syncEngine) auditEvent(ctx context.Context, action models.AuditAction, severity models.AuditSeverity, metadata map[string]string) {
	event := models.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Action:    action,
		Severity:  severity,
		UserID:    e.userID,
		Metadata:  metadata,
	}
	if err := e.audit.Append(ctx, event); err != nil {
		e.logger.Error().Err(err).Str("action", string(action)).Msg("append audit event")
	}
}

func priorityFor(classification models.Classification) models.Priority {
	switch classification {
	case models.ClassificationPHI:
		return models.PriorityHigh
	case models.ClassificationSensitive:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}
