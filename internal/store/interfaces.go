package store

import (
	"context"
	"time"

	"github.com/careloop-health/medsync/models"
)

// SecureStore is the durable, encrypted, classification-aware record store.
// It is the single source of truth for record state: the retry queue and the
// conflict index are rebuilt from it on restart.
type SecureStore interface {
	// Put encrypts the record's payload with its classification key,
	// computes a checksum, stamps ExpiresAt from the retention policy, and
	// upserts by id. Appends a DATA_ENCRYPTED audit entry.
	Put(ctx context.Context, record models.StoredRecord) error

	// Get decrypts on read and verifies the checksum. Returns ErrIntegrity
	// on checksum mismatch and ErrNotFound when the record is absent or
	// already expired. Appends a DATA_DECRYPTED audit entry and bumps the
	// last-accessed timestamp.
	Get(ctx context.Context, id string) (models.StoredRecord, error)

	// Delete removes the record and its access metadata. Idempotent.
	Delete(ctx context.Context, id string) error

	// PurgeExpired deletes all records past ExpiresAt, invoking the
	// classification's OnPurge hook before each removal. Returns the count
	// purged. Meant to run periodically, never inline with reads.
	PurgeExpired(ctx context.Context) (int, error)

	// ListStates returns the version summary of every live record.
	ListStates(ctx context.Context) ([]models.RecordState, error)

	// ListByStatus returns the ids of records in any of the given sync
	// statuses. Used to rebuild the retry queue after a restart.
	ListByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.StoredRecord, error)

	// SetSyncState updates a record's sync bookkeeping without touching
	// its payload.
	SetSyncState(ctx context.Context, id string, status models.SyncStatus, remoteVersion string) error

	// ExportAll snapshots the entire store contents (still encrypted) for
	// migration or backup.
	ExportAll(ctx context.Context) ([]EncryptedRecord, error)

	// ImportAll restores a snapshot. All-or-nothing: if any record fails
	// integrity verification the whole import is rolled back.
	ImportAll(ctx context.Context, records []EncryptedRecord) error
}

// ConflictRepository persists sync conflicts. The sync engine is the only
// creator; resolutions are committed through it as well.
type ConflictRepository interface {
	SaveConflict(ctx context.Context, conflict models.SyncConflict) error
	GetConflict(ctx context.Context, id string) (models.SyncConflict, error)
	ListUnresolved(ctx context.Context) ([]models.SyncConflict, error)
	MarkResolved(ctx context.Context, id string, resolution models.Resolution, resolvedBy string, at time.Time) error
}

// AuditLog is the append-only audit trail consumed by an external
// compliance collaborator.
type AuditLog interface {
	Append(ctx context.Context, event models.AuditEvent) error
	List(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// KeyRepository persists the wrapped key hierarchy: the KEK salt and one
// wrapped DEK per classification. Plaintext keys never touch it.
type KeyRepository interface {
	LoadSalt(ctx context.Context) ([]byte, error)
	SaveSalt(ctx context.Context, salt []byte) error
	LoadWrappedDEKs(ctx context.Context) (map[models.Classification][]byte, error)
	SaveWrappedDEKs(ctx context.Context, wrapped map[models.Classification][]byte) error
}

// EncryptedRecord is one store row as persisted: the payload is still
// ciphertext. It is the unit of ExportAll/ImportAll.
type EncryptedRecord struct {
	ID              string                `json:"id"`
	ResourceType    string                `json:"resource_type"`
	CipherPayload   string                `json:"cipher_payload"`
	Classification  models.Classification `json:"classification"`
	Checksum        string                `json:"checksum"`
	LocalVersion    int64                 `json:"local_version"`
	RemoteVersion   string                `json:"remote_version"`
	SyncStatus      models.SyncStatus     `json:"sync_status"`
	Deleted         bool                  `json:"deleted"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ExpiresAt       *time.Time            `json:"expires_at,omitempty"`
	LastAccessedAt  *time.Time            `json:"last_accessed_at,omitempty"`
}

// PurgeHook runs right before an expired record of its classification is
// removed. Hooks must be fast; they run inside the purge pass.
type PurgeHook func(record models.StoredRecord)

// RetentionRule is the TTL policy of one classification tier.
type RetentionRule struct {
	// TTL of zero means records of this tier never expire.
	TTL time.Duration

	// OnPurge, when non-nil, is invoked for each record before removal.
	OnPurge PurgeHook
}

// RetentionPolicy maps every classification to its retention rule.
type RetentionPolicy map[models.Classification]RetentionRule
