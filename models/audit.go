package models

import "time"

// AuditAction labels a security-relevant event in the audit trail.
type AuditAction string

const (
	AuditDataEncrypted    AuditAction = "DATA_ENCRYPTED"
	AuditDataDecrypted    AuditAction = "DATA_DECRYPTED"
	AuditDataPurged       AuditAction = "DATA_PURGED"
	AuditDataDeleted      AuditAction = "DATA_DELETED"
	AuditIntegrityFailure AuditAction = "INTEGRITY_FAILURE"
	AuditConflictCreated  AuditAction = "CONFLICT_CREATED"
	AuditConflictResolved AuditAction = "CONFLICT_RESOLVED"
	AuditStoreImported    AuditAction = "STORE_IMPORTED"
	AuditStoreExported    AuditAction = "STORE_EXPORTED"
)

// AuditSeverity grades an audit event for the compliance collaborator.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

// AuditEvent is one entry in the append-only audit trail. Events are
// consumed by an external compliance collaborator and never processed
// further here.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    AuditAction       `json:"action"`
	Severity  AuditSeverity     `json:"severity"`
	UserID    string            `json:"user_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
