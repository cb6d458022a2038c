// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

// Package adapter provides transport-layer abstractions for pushing local
// mutations to the remote FHIR-style endpoint and pulling its copies back.
//
// The primary abstraction is [RemoteEndpoint], which decouples the sync
// engine from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPRemote]) and an in-memory fake ([NewFakeRemote])
// used for offline development and tests.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrVersionConflict] for 409/412,
// [ErrTransientNetwork] for 5xx and connection failures).
package adapter

import (
	"context"
	"encoding/json"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_endpoint_mock.go -package=mock

// RemoteRecord is the server's copy of a resource, fetched when a version
// divergence needs the remote side for resolution.
type RemoteRecord struct {
	Payload json.RawMessage
	Version string
	Deleted bool
}

// RemoteEndpoint defines transport-agnostic communication with the remote
// resource server. Implementations are responsible for serialisation,
// authentication header management, optimistic-locking preconditions, and
// mapping transport-level errors to the sentinel values defined in this
// package.
type RemoteEndpoint interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Create pushes a new resource with a client-assigned id and returns the
	// server-assigned version token. Returns [ErrVersionConflict] (wrapped)
	// if a resource with that id already exists on the server.
	Create(ctx context.Context, resourceType, id string, payload json.RawMessage) (version string, err error)

	// Update replaces the server's copy, conditional on baseVersion being
	// the server's current version. Returns the new version token on
	// success, or [ErrVersionConflict] (wrapped) when baseVersion is stale.
	Update(ctx context.Context, resourceType, id string, payload json.RawMessage, baseVersion string) (version string, err error)

	// Delete removes the server's copy, conditional on baseVersion.
	// Deleting an already-absent resource is not an error. Returns
	// [ErrVersionConflict] (wrapped) when baseVersion is stale.
	Delete(ctx context.Context, resourceType, id, baseVersion string) error

	// Fetch retrieves the server's current copy, including its version
	// token. A deleted resource is reported with Deleted set rather than an
	// error, so the caller can classify the divergence.
	Fetch(ctx context.Context, resourceType, id string) (RemoteRecord, error)

	// Ping measures round-trip time to the server. Used by the network
	// monitor to derive connection quality; never mutates server state.
	Ping(ctx context.Context) (time.Duration, error)
}
