package store

import "errors"

// Sentinel errors returned by store methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when a requested record is absent or already
	// past its expiry. Recoverable; the caller decides the fallback.
	ErrNotFound = errors.New("record not found")

	// ErrIntegrity is returned when stored data fails checksum
	// verification after decryption. Never auto-repaired, always surfaced.
	ErrIntegrity = errors.New("record failed integrity verification")

	// ErrConflictNotFound is returned when a conflict lookup by id matches
	// nothing.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrKeysNotProvisioned is returned when the key repository holds no
	// salt or wrapped keys yet (first start).
	ErrKeysNotProvisioned = errors.New("vault keys not provisioned")

	// ErrImportAborted is returned when ImportAll rolled back because at
	// least one record failed integrity verification.
	ErrImportAborted = errors.New("import aborted: integrity verification failed")
)

// Low-level database operation errors. These are returned (or wrapped) by
// store methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan record row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan record rows")
)
