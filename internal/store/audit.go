package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

type auditLog struct {
	db     *DB
	logger *logger.Logger
}

// NewAuditLog constructs the SQLite-backed append-only [AuditLog].
func NewAuditLog(db *DB, log *logger.Logger) AuditLog {
	return &auditLog{db: db, logger: log}
}

// Append implements [AuditLog].
func (a *auditLog) Append(ctx context.Context, event models.AuditEvent) error {
	var metadata any
	if event.Metadata != nil {
		encoded, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = string(encoded)
	}

	var userID any
	if event.UserID != "" {
		userID = event.UserID
	}

	_, err := a.db.ExecContext(ctx, appendAuditEvent,
		event.ID,
		event.Timestamp,
		string(event.Action),
		string(event.Severity),
		userID,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// List implements [AuditLog]. Events come back newest first.
func (a *auditLog) List(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := a.db.QueryContext(ctx, listAuditEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var event models.AuditEvent
		var action, severity string
		var userID, metadata sql.NullString

		if err := rows.Scan(&event.ID, &event.Timestamp, &action, &severity, &userID, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		event.Action = models.AuditAction(action)
		event.Severity = models.AuditSeverity(severity)
		if userID.Valid {
			event.UserID = userID.String
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}

		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return events, nil
}
