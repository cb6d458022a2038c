package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

const saltMetaName = "kek_salt"

type keyRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewKeyRepository constructs the SQLite-backed [KeyRepository]. Only
// wrapped key material passes through it; plaintext keys stay in memory.
func NewKeyRepository(db *DB, log *logger.Logger) KeyRepository {
	return &keyRepository{db: db, logger: log}
}

// LoadSalt implements [KeyRepository].
func (r *keyRepository) LoadSalt(ctx context.Context) ([]byte, error) {
	var encoded string
	err := r.db.QueryRowContext(ctx, loadVaultMeta, saltMetaName).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeysNotProvisioned
		}
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	salt, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	return salt, nil
}

// SaveSalt implements [KeyRepository].
func (r *keyRepository) SaveSalt(ctx context.Context, salt []byte) error {
	encoded := base64.StdEncoding.EncodeToString(salt)
	if _, err := r.db.ExecContext(ctx, saveVaultMeta, saltMetaName, encoded); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// LoadWrappedDEKs implements [KeyRepository].
func (r *keyRepository) LoadWrappedDEKs(ctx context.Context) (map[models.Classification][]byte, error) {
	rows, err := r.db.QueryContext(ctx, loadWrappedDEKs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	wrapped := make(map[models.Classification][]byte)
	for rows.Next() {
		var classification, encoded string
		if err := rows.Scan(&classification, &encoded); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		blob, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode wrapped dek for %s: %w", classification, err)
		}
		wrapped[models.Classification(classification)] = blob
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	if len(wrapped) == 0 {
		return nil, ErrKeysNotProvisioned
	}

	return wrapped, nil
}

// SaveWrappedDEKs implements [KeyRepository].
func (r *keyRepository) SaveWrappedDEKs(ctx context.Context, wrapped map[models.Classification][]byte) error {
	for classification, blob := range wrapped {
		encoded := base64.StdEncoding.EncodeToString(blob)
		if _, err := r.db.ExecContext(ctx, saveWrappedDEK, string(classification), encoded); err != nil {
			return fmt.Errorf("%w: save dek for %s: %w", ErrExecutingStatement, classification, err)
		}
	}
	return nil
}
