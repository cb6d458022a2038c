package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/careloop-health/medsync/internal/crypto"
	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

// recordColumns is the column set shared by every records SELECT built with
// squirrel. Order must match scanRecordRow.
var recordColumns = []string{
	"id", "resource_type", "payload", "classification", "checksum",
	"local_version", "remote_version", "sync_status", "deleted",
	"created_at", "updated_at", "expires_at", "last_accessed_at",
}

type secureStore struct {
	db     *DB
	vault  crypto.Vault
	policy RetentionPolicy
	audit  AuditLog
	userID string
	logger *logger.Logger

	now func() time.Time
}

// NewSecureStore constructs the [SecureStore] backed by the given database
// and vault. userID is attached to every audit event this store emits.
func NewSecureStore(db *DB, vault crypto.Vault, policy RetentionPolicy, audit AuditLog, userID string, log *logger.Logger) SecureStore {
	return &secureStore{
		db:     db,
		vault:  vault,
		policy: policy,
		audit:  audit,
		userID: userID,
		logger: log,
		now:    time.Now,
	}
}

// Put implements [SecureStore].
func (s *secureStore) Put(ctx context.Context, record models.StoredRecord) error {
	log := logger.FromContext(ctx)

	if !record.Classification.Valid() {
		return fmt.Errorf("put %s: unknown classification %q", record.ID, record.Classification)
	}

	cipherPayload, err := s.vault.EncryptPayload(record.Payload, record.Classification)
	if err != nil {
		log.Err(err).
			Str("func", "secureStore.Put").
			Str("id", record.ID).
			Msg("failed to encrypt record payload")
		return fmt.Errorf("encrypt record %s: %w", record.ID, err)
	}
	checksum := s.vault.Checksum(record.Payload)

	now := s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	var expiresAt *time.Time
	if ttl := s.policy[record.Classification].TTL; ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	_, err = s.db.ExecContext(ctx, upsertRecord,
		record.ID,
		record.ResourceType,
		cipherPayload,
		string(record.Classification),
		checksum,
		record.LocalVersion,
		record.RemoteVersion,
		string(record.SyncStatus),
		record.Deleted,
		record.CreatedAt,
		record.UpdatedAt,
		expiresAt,
		nil,
	)
	if err != nil {
		log.Err(err).
			Str("func", "secureStore.Put").
			Str("id", record.ID).
			Msg("failed to execute upsert for record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	s.auditEvent(ctx, models.AuditDataEncrypted, severityFor(record.Classification), map[string]string{
		"record_id":      record.ID,
		"resource_type":  record.ResourceType,
		"classification": string(record.Classification),
	})

	return nil
}

// Get implements [SecureStore].
func (s *secureStore) Get(ctx context.Context, id string) (models.StoredRecord, error) {
	log := logger.FromContext(ctx)

	row := s.db.QueryRowContext(ctx, getRecord, id)
	enc, err := scanRecordRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StoredRecord{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		log.Err(err).Str("func", "secureStore.Get").Str("id", id).Msg("failed to scan record row")
		return models.StoredRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	// Expired records are invisible to readers even before the next purge
	// pass physically removes them.
	if enc.ExpiresAt != nil && s.now().After(*enc.ExpiresAt) {
		return models.StoredRecord{}, fmt.Errorf("get %s: expired: %w", id, ErrNotFound)
	}

	payload, err := s.vault.DecryptPayload(enc.CipherPayload, enc.Classification)
	if err != nil {
		if errors.Is(err, crypto.ErrKeyUnavailable) {
			return models.StoredRecord{}, fmt.Errorf("get %s: %w", id, err)
		}
		// A GCM auth failure on stored data means the row was corrupted.
		s.auditEvent(ctx, models.AuditIntegrityFailure, models.AuditSeverityCritical, map[string]string{
			"record_id": id,
			"reason":    "decrypt failure",
		})
		return models.StoredRecord{}, fmt.Errorf("get %s: %w", id, ErrIntegrity)
	}

	if s.vault.Checksum(payload) != enc.Checksum {
		s.auditEvent(ctx, models.AuditIntegrityFailure, models.AuditSeverityCritical, map[string]string{
			"record_id": id,
			"reason":    "checksum mismatch",
		})
		return models.StoredRecord{}, fmt.Errorf("get %s: %w", id, ErrIntegrity)
	}

	if _, err := s.db.ExecContext(ctx, touchRecord, s.now(), id); err != nil {
		// Last-accessed bookkeeping must not fail the read.
		log.Warn().Err(err).Str("id", id).Msg("failed to bump last-accessed timestamp")
	}

	s.auditEvent(ctx, models.AuditDataDecrypted, severityFor(enc.Classification), map[string]string{
		"record_id":      id,
		"classification": string(enc.Classification),
	})

	return decodeRecord(enc, payload), nil
}

// Delete implements [SecureStore]. No error when the record is absent.
func (s *secureStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	res, err := s.db.ExecContext(ctx, deleteRecord, id)
	if err != nil {
		log.Err(err).Str("func", "secureStore.Delete").Str("id", id).Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		s.auditEvent(ctx, models.AuditDataDeleted, models.AuditSeverityInfo, map[string]string{
			"record_id": id,
		})
	}

	return nil
}

// PurgeExpired implements [SecureStore].
func (s *secureStore) PurgeExpired(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	query, args, err := sq.Select(recordColumns...).
		From("records").
		Where(sq.NotEq{"expires_at": nil}).
		Where(sq.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var expired []EncryptedRecord
	for rows.Next() {
		enc, err := scanRecordRows(rows)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		expired = append(expired, enc)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	purged := 0
	for _, enc := range expired {
		if hook := s.policy[enc.Classification].OnPurge; hook != nil {
			// Hooks see the record with its ciphertext payload; decrypting
			// just to throw the data away would defeat the point of expiry.
			hook(decodeRecord(enc, nil))
		}

		if _, err := s.db.ExecContext(ctx, deleteRecord, enc.ID); err != nil {
			log.Err(err).Str("id", enc.ID).Msg("failed to purge expired record")
			return purged, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		purged++

		s.auditEvent(ctx, models.AuditDataPurged, severityFor(enc.Classification), map[string]string{
			"record_id":      enc.ID,
			"classification": string(enc.Classification),
		})
	}

	return purged, nil
}

// ListStates implements [SecureStore].
func (s *secureStore) ListStates(ctx context.Context) ([]models.RecordState, error) {
	rows, err := s.db.QueryContext(ctx, listRecordStates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var states []models.RecordState
	for rows.Next() {
		var st models.RecordState
		var updatedAt sql.NullTime
		if err := rows.Scan(&st.ID, &st.ResourceType, &st.LocalVersion, &st.RemoteVersion, &st.Checksum, &st.Deleted, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			st.UpdatedAt = &t
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return states, nil
}

// ListByStatus implements [SecureStore]. Payloads are left encrypted and
// omitted; callers needing content must Get individually.
func (s *secureStore) ListByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.StoredRecord, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}

	query, args, err := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"sync_status": values}).
		OrderBy("updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.StoredRecord
	for rows.Next() {
		enc, err := scanRecordRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, decodeRecord(enc, nil))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

// SetSyncState implements [SecureStore].
func (s *secureStore) SetSyncState(ctx context.Context, id string, status models.SyncStatus, remoteVersion string) error {
	res, err := s.db.ExecContext(ctx, setRecordSyncState, string(status), remoteVersion, s.now(), id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set sync state %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExportAll implements [SecureStore].
func (s *secureStore) ExportAll(ctx context.Context) ([]EncryptedRecord, error) {
	query, _, err := sq.Select(recordColumns...).From("records").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []EncryptedRecord
	for rows.Next() {
		enc, err := scanRecordRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	s.auditEvent(ctx, models.AuditStoreExported, models.AuditSeverityWarning, map[string]string{
		"record_count": fmt.Sprintf("%d", len(records)),
	})

	return records, nil
}

// ImportAll implements [SecureStore]. Every record is integrity-verified
// (decrypt + checksum) before any row is visible; one bad record rolls the
// whole import back.
func (s *secureStore) ImportAll(ctx context.Context, records []EncryptedRecord) error {
	for _, enc := range records {
		payload, err := s.vault.DecryptPayload(enc.CipherPayload, enc.Classification)
		if err != nil {
			return fmt.Errorf("%w: record %s: %w", ErrImportAborted, enc.ID, err)
		}
		if s.vault.Checksum(payload) != enc.Checksum {
			return fmt.Errorf("%w: record %s: checksum mismatch", ErrImportAborted, enc.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, enc := range records {
		_, err := tx.ExecContext(ctx, upsertRecord,
			enc.ID,
			enc.ResourceType,
			enc.CipherPayload,
			string(enc.Classification),
			enc.Checksum,
			enc.LocalVersion,
			enc.RemoteVersion,
			string(enc.SyncStatus),
			enc.Deleted,
			enc.CreatedAt,
			enc.UpdatedAt,
			enc.ExpiresAt,
			enc.LastAccessedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: record %s: %w", ErrExecutingStatement, enc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	s.auditEvent(ctx, models.AuditStoreImported, models.AuditSeverityWarning, map[string]string{
		"record_count": fmt.Sprintf("%d", len(records)),
	})

	return nil
}

func (s *secureStore) auditEvent(ctx context.Context, action models.AuditAction, severity models.AuditSeverity, metadata map[string]string) {
	event := models.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Action:    action,
		Severity:  severity,
		UserID:    s.userID,
		Metadata:  metadata,
	}
	if err := s.audit.Append(ctx, event); err != nil {
		// The audit trail is best effort at this layer; a failed append is
		// logged loudly but does not undo the data operation.
		s.logger.Error().Err(err).Str("action", string(action)).Msg("failed to append audit event")
	}
}

// severityFor grades routine crypto events by data sensitivity.
func severityFor(classification models.Classification) models.AuditSeverity {
	if classification == models.ClassificationPHI {
		return models.AuditSeverityWarning
	}
	return models.AuditSeverityInfo
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (EncryptedRecord, error) {
	var enc EncryptedRecord
	var classification, syncStatus string
	var expiresAt, lastAccessedAt sql.NullTime

	err := scanner.Scan(
		&enc.ID,
		&enc.ResourceType,
		&enc.CipherPayload,
		&classification,
		&enc.Checksum,
		&enc.LocalVersion,
		&enc.RemoteVersion,
		&syncStatus,
		&enc.Deleted,
		&enc.CreatedAt,
		&enc.UpdatedAt,
		&expiresAt,
		&lastAccessedAt,
	)
	if err != nil {
		return EncryptedRecord{}, err
	}

	enc.Classification = models.Classification(strings.TrimSpace(classification))
	enc.SyncStatus = models.SyncStatus(syncStatus)
	if expiresAt.Valid {
		t := expiresAt.Time
		enc.ExpiresAt = &t
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		enc.LastAccessedAt = &t
	}

	return enc, nil
}

func scanRecordRow(row *sql.Row) (EncryptedRecord, error)    { return scanRecord(row) }
func scanRecordRows(rows *sql.Rows) (EncryptedRecord, error) { return scanRecord(rows) }

// decodeRecord converts a persisted row back into the domain record. payload
// may be nil when the caller does not need (or must not see) the content.
func decodeRecord(enc EncryptedRecord, payload []byte) models.StoredRecord {
	record := models.StoredRecord{
		ID:             enc.ID,
		ResourceType:   enc.ResourceType,
		Payload:        payload,
		Classification: enc.Classification,
		LocalVersion:   enc.LocalVersion,
		RemoteVersion:  enc.RemoteVersion,
		SyncStatus:     enc.SyncStatus,
		Deleted:        enc.Deleted,
		CreatedAt:      enc.CreatedAt,
		UpdatedAt:      enc.UpdatedAt,
	}
	if enc.ExpiresAt != nil {
		record.ExpiresAt = *enc.ExpiresAt
	}
	return record
}
