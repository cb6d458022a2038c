package models

import (
	"encoding/json"
	"time"
)

// Classification is the sensitivity tier of a stored record. The tier
// selects the encryption key, the retention TTL, and the audit severity
// applied by the secure store.
type Classification string

const (
	// ClassificationPHI marks protected health information, the highest
	// sensitivity tier. PHI records get the shortest retention window and
	// their conflicts are never auto-merged.
	ClassificationPHI Classification = "phi"

	// ClassificationSensitive marks operationally sensitive data that is
	// not itself clinical (schedules, internal notes).
	ClassificationSensitive Classification = "sensitive"

	// ClassificationGeneral marks everything else.
	ClassificationGeneral Classification = "general"
)

// Valid reports whether c is one of the three known tiers.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationPHI, ClassificationSensitive, ClassificationGeneral:
		return true
	}
	return false
}

// SyncStatus describes where a locally stored record stands relative to the
// remote server.
type SyncStatus string

const (
	// SyncStatusSynced means the local and remote versions agree.
	SyncStatusSynced SyncStatus = "synced"

	// SyncStatusPending means a local mutation has not yet been pushed.
	SyncStatusPending SyncStatus = "pending"

	// SyncStatusConflict means local and remote versions diverged and the
	// record is waiting for an explicit resolution.
	SyncStatusConflict SyncStatus = "conflict"

	// SyncStatusFailed means the last push was rejected permanently.
	SyncStatusFailed SyncStatus = "failed"
)

// StoredRecord is one locally persisted FHIR-shaped resource. Payload is
// opaque to the sync core: it is encrypted at rest and compared only through
// versions and checksums, never inspected.
type StoredRecord struct {
	// ID is the stable resource id, unique within its ResourceType namespace.
	ID string `json:"id"`

	// ResourceType tags the domain entity kind ("Patient", "Observation", ...).
	ResourceType string `json:"resource_type"`

	// Payload is the full resource content as received from the caller.
	Payload json.RawMessage `json:"payload"`

	// Classification governs encryption key selection, retention and audit.
	Classification Classification `json:"classification"`

	// LocalVersion is bumped on every local mutation.
	LocalVersion int64 `json:"local_version"`

	// RemoteVersion is the last version token acknowledged by the server.
	// Empty means the record has never been synced.
	RemoteVersion string `json:"remote_version,omitempty"`

	// SyncStatus is the record's position in the sync lifecycle.
	SyncStatus SyncStatus `json:"sync_status"`

	// Deleted marks a delete tombstone: the local copy is logically gone
	// but the row is kept until the remote delete is acknowledged, so the
	// pending mutation stays countable and survives a restart.
	Deleted bool `json:"deleted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ExpiresAt is derived from the classification's TTL policy at Put time.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its retention window at now.
func (r StoredRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// RecordState is the version summary of a record, used when comparing local
// and remote sides without moving payloads around.
type RecordState struct {
	ID            string     `json:"id"`
	ResourceType  string     `json:"resource_type"`
	LocalVersion  int64      `json:"local_version"`
	RemoteVersion string     `json:"remote_version,omitempty"`
	Checksum      string     `json:"checksum,omitempty"`
	Deleted       bool       `json:"deleted"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
