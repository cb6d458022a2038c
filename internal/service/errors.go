package service

import "errors"

var (
	// ErrOffline reports a Sync attempt while the network monitor says the
	// endpoint is unreachable. Queued work stays queued.
	ErrOffline = errors.New("sync skipped: offline")

	// ErrConflictNotFound reports a resolution against an unknown conflict
	// id.
	ErrConflictNotFound = errors.New("sync conflict not found")

	// ErrManualResolutionRequired reports that automatic resolution was
	// requested but the policy demands a human decision.
	ErrManualResolutionRequired = errors.New("conflict requires manual resolution")

	// ErrUnknownOperation reports a queued action whose operation kind the
	// engine does not recognise.
	ErrUnknownOperation = errors.New("unknown sync operation")
)
