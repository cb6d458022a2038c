package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop-health/medsync/internal/crypto"
	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/migrations"
	"github.com/careloop-health/medsync/models"
)

type storeFixture struct {
	store  *secureStore
	audit  AuditLog
	vault  crypto.Vault
	policy RetentionPolicy
}

func newStoreFixture(t *testing.T, policy RetentionPolicy) *storeFixture {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Migrate(conn))

	db := NewDBFromSQL(conn, logger.Nop())

	keychain := crypto.NewKeyChainService()
	vault := crypto.NewVault()
	for _, c := range []models.Classification{
		models.ClassificationPHI, models.ClassificationSensitive, models.ClassificationGeneral,
	} {
		dek, err := keychain.GenerateDEK()
		require.NoError(t, err)
		require.NoError(t, vault.InstallDEK(c, dek))
	}

	audit := NewAuditLog(db, logger.Nop())
	s := NewSecureStore(db, vault, policy, audit, "dr-lee", logger.Nop()).(*secureStore)

	return &storeFixture{store: s, audit: audit, vault: vault, policy: policy}
}

func phiRecord(id string) models.StoredRecord {
	return models.StoredRecord{
		ID:             id,
		ResourceType:   "Observation",
		Payload:        []byte(`{"resourceType":"Observation","id":"` + id + `","value":120}`),
		Classification: models.ClassificationPHI,
		LocalVersion:   1,
		SyncStatus:     models.SyncStatusPending,
	}
}

func TestSecureStore_PutGet_RoundTrip(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	record := phiRecord("obs-1")
	require.NoError(t, f.store.Put(ctx, record))

	got, err := f.store.Get(ctx, "obs-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(record.Payload), string(got.Payload))
	assert.Equal(t, models.ClassificationPHI, got.Classification)
	assert.Equal(t, int64(1), got.LocalVersion)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestSecureStore_PutGet_AuditTrail(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	_, err := f.store.Get(ctx, "obs-1")
	require.NoError(t, err)

	events, err := f.audit.List(ctx, 10)
	require.NoError(t, err)

	var encrypted, decrypted int
	for _, e := range events {
		switch e.Action {
		case models.AuditDataEncrypted:
			encrypted++
		case models.AuditDataDecrypted:
			decrypted++
		}
		assert.Equal(t, "dr-lee", e.UserID)
	}
	assert.Equal(t, 1, encrypted, "exactly one DATA_ENCRYPTED entry")
	assert.Equal(t, 1, decrypted, "exactly one DATA_DECRYPTED entry")
}

func TestSecureStore_Get_Absent(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})

	_, err := f.store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecureStore_Get_ExpiredBeforePurge(t *testing.T) {
	policy := RetentionPolicy{
		models.ClassificationPHI: {TTL: time.Hour},
	}
	f := newStoreFixture(t, policy)
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))

	// Jump past the TTL; the row is physically present until the next
	// purge pass but must already be invisible to readers.
	f.store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := f.store.Get(ctx, "obs-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecureStore_Get_ChecksumMismatch(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))

	// Corrupt the stored checksum directly.
	_, err := f.store.db.ExecContext(ctx, `UPDATE records SET checksum = 'deadbeef' WHERE id = 'obs-1'`)
	require.NoError(t, err)

	_, err = f.store.Get(ctx, "obs-1")
	require.ErrorIs(t, err, ErrIntegrity)

	events, err := f.audit.List(ctx, 10)
	require.NoError(t, err)
	var integrityFailures int
	for _, e := range events {
		if e.Action == models.AuditIntegrityFailure {
			integrityFailures++
			assert.Equal(t, models.AuditSeverityCritical, e.Severity)
		}
	}
	assert.Equal(t, 1, integrityFailures)
}

func TestSecureStore_Delete_Idempotent(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	require.NoError(t, f.store.Delete(ctx, "obs-1"))
	require.NoError(t, f.store.Delete(ctx, "obs-1"), "second delete must not error")

	_, err := f.store.Get(ctx, "obs-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecureStore_PurgeExpired(t *testing.T) {
	var purgedIDs []string
	policy := RetentionPolicy{
		models.ClassificationPHI: {
			TTL:     time.Hour,
			OnPurge: func(r models.StoredRecord) { purgedIDs = append(purgedIDs, r.ID) },
		},
		models.ClassificationGeneral: {TTL: 0}, // never expires
	}
	f := newStoreFixture(t, policy)
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	require.NoError(t, f.store.Put(ctx, phiRecord("obs-2")))

	general := phiRecord("note-1")
	general.Classification = models.ClassificationGeneral
	require.NoError(t, f.store.Put(ctx, general))

	f.store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	purged, err := f.store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)
	assert.ElementsMatch(t, []string{"obs-1", "obs-2"}, purgedIDs)

	// The general record survives.
	_, err = f.store.Get(ctx, "note-1")
	require.NoError(t, err)
}

func TestSecureStore_SetSyncState(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	require.NoError(t, f.store.SetSyncState(ctx, "obs-1", models.SyncStatusSynced, "W/\"3\""))

	got, err := f.store.Get(ctx, "obs-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
	assert.Equal(t, "W/\"3\"", got.RemoteVersion)

	err = f.store.SetSyncState(ctx, "absent", models.SyncStatusSynced, "1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecureStore_ListByStatus(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	pending := phiRecord("obs-1")
	require.NoError(t, f.store.Put(ctx, pending))

	synced := phiRecord("obs-2")
	synced.SyncStatus = models.SyncStatusSynced
	require.NoError(t, f.store.Put(ctx, synced))

	failed := phiRecord("obs-3")
	failed.SyncStatus = models.SyncStatusFailed
	require.NoError(t, f.store.Put(ctx, failed))

	got, err := f.store.ListByStatus(ctx, models.SyncStatusPending, models.SyncStatusFailed)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"obs-1", "obs-3"}, ids)
}

func TestSecureStore_DeleteTombstoneRoundTrip(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	tombstone := phiRecord("obs-1")
	tombstone.Deleted = true
	require.NoError(t, f.store.Put(ctx, tombstone))

	got, err := f.store.Get(ctx, "obs-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	// The tombstone stays listable as pending work until the remote delete
	// is acknowledged.
	listed, err := f.store.ListByStatus(ctx, models.SyncStatusPending)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Deleted)
}

func TestSecureStore_ExportImport_RoundTrip(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	require.NoError(t, f.store.Put(ctx, phiRecord("obs-2")))

	snapshot, err := f.store.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	// Restore into a second store sharing the same vault keys.
	g := newStoreFixture(t, RetentionPolicy{})
	g.store.vault = f.vault

	require.NoError(t, g.store.ImportAll(ctx, snapshot))

	got, err := g.store.Get(ctx, "obs-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(phiRecord("obs-1").Payload), string(got.Payload))
}

func TestSecureStore_ImportAll_AtomicOnCorruption(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	ctx := context.Background()

	require.NoError(t, f.store.Put(ctx, phiRecord("obs-1")))
	require.NoError(t, f.store.Put(ctx, phiRecord("obs-2")))

	snapshot, err := f.store.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	// Corrupt one record's checksum in the snapshot.
	snapshot[1].Checksum = "deadbeef"

	g := newStoreFixture(t, RetentionPolicy{})
	g.store.vault = f.vault

	err = g.store.ImportAll(ctx, snapshot)
	require.ErrorIs(t, err, ErrImportAborted)

	// Nothing must have been imported, not even the valid record.
	_, err = g.store.Get(ctx, "obs-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecureStore_Put_MissingKeyFailsClosed(t *testing.T) {
	f := newStoreFixture(t, RetentionPolicy{})
	f.store.vault = crypto.NewVault() // empty vault, no DEKs installed

	err := f.store.Put(context.Background(), phiRecord("obs-1"))
	require.ErrorIs(t, err, crypto.ErrKeyUnavailable)
}
