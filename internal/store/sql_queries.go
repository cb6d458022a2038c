package store

const (
	upsertRecord = `
		INSERT INTO records (
			id,
			resource_type,
			payload,
			classification,
			checksum,
			local_version,
			remote_version,
			sync_status,
			deleted,
			created_at,
			updated_at,
			expires_at,
			last_accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			resource_type    = excluded.resource_type,
			payload          = excluded.payload,
			classification   = excluded.classification,
			checksum         = excluded.checksum,
			local_version    = excluded.local_version,
			remote_version   = excluded.remote_version,
			sync_status      = excluded.sync_status,
			deleted          = excluded.deleted,
			updated_at       = excluded.updated_at,
			expires_at       = excluded.expires_at;`

	getRecord = `
		SELECT
			id,
			resource_type,
			payload,
			classification,
			checksum,
			local_version,
			remote_version,
			sync_status,
			deleted,
			created_at,
			updated_at,
			expires_at,
			last_accessed_at
		FROM records
		WHERE id = ?;`

	deleteRecord = `DELETE FROM records WHERE id = ?;`

	touchRecord = `UPDATE records SET last_accessed_at = ? WHERE id = ?;`

	setRecordSyncState = `
		UPDATE records SET
			sync_status    = ?,
			remote_version = ?,
			updated_at     = ?
		WHERE id = ?;`

	listRecordStates = `
		SELECT id, resource_type, local_version, remote_version, checksum, deleted, updated_at
		FROM records;`

	saveConflict = `
		INSERT INTO conflicts (
			id,
			data_id,
			resource_type,
			local_version,
			remote_version,
			remote_payload,
			conflict_type,
			resolved,
			winner,
			merged_payload,
			resolved_by,
			created_at,
			resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	getConflict = `
		SELECT
			id,
			data_id,
			resource_type,
			local_version,
			remote_version,
			remote_payload,
			conflict_type,
			resolved,
			winner,
			merged_payload,
			resolved_by,
			created_at,
			resolved_at
		FROM conflicts
		WHERE id = ?;`

	listUnresolvedConflicts = `
		SELECT
			id,
			data_id,
			resource_type,
			local_version,
			remote_version,
			remote_payload,
			conflict_type,
			resolved,
			winner,
			merged_payload,
			resolved_by,
			created_at,
			resolved_at
		FROM conflicts
		WHERE resolved = 0
		ORDER BY created_at;`

	markConflictResolved = `
		UPDATE conflicts SET
			resolved       = 1,
			winner         = ?,
			merged_payload = ?,
			resolved_by    = ?,
			resolved_at    = ?
		WHERE id = ?;`

	appendAuditEvent = `
		INSERT INTO audit_log (id, ts, action, severity, user_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?);`

	listAuditEvents = `
		SELECT id, ts, action, severity, user_id, metadata
		FROM audit_log
		ORDER BY ts DESC
		LIMIT ?;`

	loadVaultMeta = `SELECT value FROM vault_meta WHERE name = ?;`

	saveVaultMeta = `
		INSERT INTO vault_meta (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value;`

	loadWrappedDEKs = `SELECT classification, wrapped_dek FROM vault_keys;`

	saveWrappedDEK = `
		INSERT INTO vault_keys (classification, wrapped_dek) VALUES (?, ?)
		ON CONFLICT (classification) DO UPDATE SET wrapped_dek = excluded.wrapped_dek;`
)
