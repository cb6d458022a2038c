package models

import (
	"encoding/json"
	"time"
)

// ConflictType classifies how local and remote copies diverged.
type ConflictType string

const (
	// ConflictTypeUpdate means both sides modified the record.
	ConflictTypeUpdate ConflictType = "update"

	// ConflictTypeDelete means one side deleted the record while the other
	// modified it. Delete conflicts default to manual resolution.
	ConflictTypeDelete ConflictType = "delete"
)

// Winner names the side a resolution committed.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
	WinnerMerged Winner = "merged"

	// WinnerManual means the resolver declined to decide automatically and
	// the conflict must be settled by a person.
	WinnerManual Winner = "manual"
)

// Resolution is the outcome committed for a conflict.
type Resolution struct {
	Winner Winner `json:"winner"`

	// MergedPayload carries the merged content when Winner is merged.
	MergedPayload json.RawMessage `json:"merged_payload,omitempty"`
}

// SyncConflict records a divergence between the local and remote copies of
// one record. It is created by the sync engine and destroyed (marked
// resolved) only by committing a resolution back to the secure store.
type SyncConflict struct {
	ID     string `json:"id"`
	DataID string `json:"data_id"`

	ResourceType  string `json:"resource_type"`
	LocalVersion  int64  `json:"local_version"`
	RemoteVersion string `json:"remote_version"`

	// RemotePayload is the server's copy at detection time, kept so a
	// "remote wins" resolution needs no extra round trip.
	RemotePayload json.RawMessage `json:"remote_payload,omitempty"`

	ConflictType ConflictType `json:"conflict_type"`

	Resolved   bool        `json:"resolved"`
	Resolution *Resolution `json:"resolution,omitempty"`
	ResolvedBy string      `json:"resolved_by,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
