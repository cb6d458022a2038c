package adapter

import "errors"

var (
	// ErrUnauthorized reports a rejected or expired bearer token.
	ErrUnauthorized = errors.New("remote unauthorized")

	// ErrVersionConflict reports that the server's copy moved past the
	// version the operation was based on. Backoff cannot fix it; the caller
	// must record a conflict instead of retrying.
	ErrVersionConflict = errors.New("version conflict")

	// ErrTransientNetwork reports a failure worth retrying with backoff:
	// connection errors, timeouts, and server-side 5xx responses.
	ErrTransientNetwork = errors.New("transient network failure")

	// ErrPermanentRejection reports a structural failure the server will
	// reject identically on every retry: malformed payloads, schema
	// violations, auth failures.
	ErrPermanentRejection = errors.New("permanent rejection")

	// ErrNotFound reports that the resource does not exist on the server.
	ErrNotFound = errors.New("remote resource not found")
)
