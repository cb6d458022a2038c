package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

type conflictRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewConflictRepository constructs the SQLite-backed [ConflictRepository].
func NewConflictRepository(db *DB, log *logger.Logger) ConflictRepository {
	return &conflictRepository{db: db, logger: log}
}

// SaveConflict implements [ConflictRepository].
func (r *conflictRepository) SaveConflict(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	var winner, mergedPayload, resolvedBy any
	var resolvedAt any
	if conflict.Resolution != nil {
		winner = string(conflict.Resolution.Winner)
		if conflict.Resolution.MergedPayload != nil {
			mergedPayload = string(conflict.Resolution.MergedPayload)
		}
	}
	if conflict.ResolvedBy != "" {
		resolvedBy = conflict.ResolvedBy
	}
	if conflict.ResolvedAt != nil {
		resolvedAt = *conflict.ResolvedAt
	}

	var remotePayload any
	if conflict.RemotePayload != nil {
		remotePayload = string(conflict.RemotePayload)
	}

	_, err := r.db.ExecContext(ctx, saveConflict,
		conflict.ID,
		conflict.DataID,
		conflict.ResourceType,
		conflict.LocalVersion,
		conflict.RemoteVersion,
		remotePayload,
		string(conflict.ConflictType),
		conflict.Resolved,
		winner,
		mergedPayload,
		resolvedBy,
		conflict.CreatedAt,
		resolvedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.SaveConflict").
			Str("conflict_id", conflict.ID).
			Str("data_id", conflict.DataID).
			Msg("failed to insert conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetConflict implements [ConflictRepository].
func (r *conflictRepository) GetConflict(ctx context.Context, id string) (models.SyncConflict, error) {
	row := r.db.QueryRowContext(ctx, getConflict, id)

	conflict, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncConflict{}, fmt.Errorf("get conflict %s: %w", id, ErrConflictNotFound)
		}
		return models.SyncConflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return conflict, nil
}

// ListUnresolved implements [ConflictRepository].
func (r *conflictRepository) ListUnresolved(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := r.db.QueryContext(ctx, listUnresolvedConflicts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict
	for rows.Next() {
		conflict, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return conflicts, nil
}

// MarkResolved implements [ConflictRepository].
func (r *conflictRepository) MarkResolved(ctx context.Context, id string, resolution models.Resolution, resolvedBy string, at time.Time) error {
	var mergedPayload any
	if resolution.MergedPayload != nil {
		mergedPayload = string(resolution.MergedPayload)
	}

	res, err := r.db.ExecContext(ctx, markConflictResolved,
		string(resolution.Winner),
		mergedPayload,
		resolvedBy,
		at,
		id,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("mark resolved %s: %w", id, ErrConflictNotFound)
	}

	return nil
}

func scanConflict(scanner rowScanner) (models.SyncConflict, error) {
	var conflict models.SyncConflict
	var conflictType string
	var remotePayload, winner, mergedPayload, resolvedBy sql.NullString
	var resolvedAt sql.NullTime

	err := scanner.Scan(
		&conflict.ID,
		&conflict.DataID,
		&conflict.ResourceType,
		&conflict.LocalVersion,
		&conflict.RemoteVersion,
		&remotePayload,
		&conflictType,
		&conflict.Resolved,
		&winner,
		&mergedPayload,
		&resolvedBy,
		&conflict.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return models.SyncConflict{}, err
	}

	conflict.ConflictType = models.ConflictType(conflictType)
	if remotePayload.Valid {
		conflict.RemotePayload = json.RawMessage(remotePayload.String)
	}
	if winner.Valid && winner.String != "" {
		resolution := &models.Resolution{Winner: models.Winner(winner.String)}
		if mergedPayload.Valid {
			resolution.MergedPayload = json.RawMessage(mergedPayload.String)
		}
		conflict.Resolution = resolution
	}
	if resolvedBy.Valid {
		conflict.ResolvedBy = resolvedBy.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		conflict.ResolvedAt = &t
	}

	return conflict, nil
}
