// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

// Package service contains the sync engine: the orchestrator tying local
// mutations, the remote endpoint, the retry queue, and conflict handling
// into one process.
//
// Each sync cycle walks the state machine idle → syncing → outcome → idle.
// Only one cycle runs at a time; a Sync call arriving mid-cycle is coalesced
// into a re-run after the current cycle completes rather than a parallel
// cycle.
package service

import (
	"context"

	"github.com/careloop-health/medsync/models"
)

// The engine mock lives in its own package: the service tests consume the
// store and adapter mocks from internal/mock, so generating this one there
// would make the mock package import service back.
//
//go:generate mockgen -source=interfaces.go -destination=../mock/servicemock/sync_engine_mock.go -package=servicemock

// Options tunes one queued operation.
type Options struct {
	// Priority orders the operation within the retry queue. The zero value
	// is PriorityHigh; callers queuing background work should set it
	// explicitly.
	Priority models.Priority
}

// SyncEngine orchestrates offline-first synchronization with the remote
// endpoint.
type SyncEngine interface {
	// QueueOperation records a pending local mutation: persists the record
	// with SyncStatus pending (or deletes it locally for a delete
	// operation) and enqueues the remote call into the retry queue.
	QueueOperation(ctx context.Context, op models.Operation, record models.StoredRecord, opts Options) error

	// Sync runs one sync cycle: drains ready retry-queue items and applies
	// each against the remote endpoint. On a version mismatch it records a
	// SyncConflict and marks the record conflicted instead of retrying.
	// Calling Sync while a cycle is running schedules a re-run and returns
	// immediately.
	Sync(ctx context.Context) error

	// ResolveConflict commits a resolution decision: updates the stored
	// record per the winner and marks the conflict resolved. Passing an
	// empty winner asks the resolver policy for an automatic decision.
	// Resolving an already-resolved conflict is a no-op.
	ResolveConflict(ctx context.Context, conflictID string, resolution models.Resolution, resolvedBy string) error

	// Status returns a read-only snapshot of sync state. Never triggers
	// side effects.
	Status(ctx context.Context) (models.SyncStatusSnapshot, error)

	// Rebuild reloads the retry queue from records whose sync status is
	// pending or failed. Called once at startup; queue contents do not
	// survive a crash.
	Rebuild(ctx context.Context) error

	// SetOnline feeds connectivity transitions from the network monitor.
	// While offline the engine skips remote calls entirely.
	SetOnline(online bool)

	// SetQuality feeds connection-quality transitions from the network
	// monitor. On a poor connection the engine defers low-priority items,
	// spending the degraded link on clinical data first.
	SetQuality(quality models.Quality)
}
