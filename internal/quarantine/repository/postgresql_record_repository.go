// Package repository implements quarantine record persistence for PostgreSQL
// and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/fileguard/internal/database"
	apperrors "github.com/allisson/fileguard/internal/errors"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
)

// PostgreSQLRecordRepository implements quarantine record persistence for
// PostgreSQL databases.
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// Create inserts a new quarantine record into the PostgreSQL database.
func (p *PostgreSQLRecordRepository) Create(
	ctx context.Context,
	record *quarantineDomain.Record,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO quarantine_records
			  (id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.FileID,
		record.QuarantinePath,
		record.Reason,
		record.IsResolved,
		record.ResolvedAt,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create quarantine record")
	}
	return nil
}

// Get retrieves a quarantine record by its ID.
func (p *PostgreSQLRecordRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  WHERE id = $1`

	var record quarantineDomain.Record
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.FileID,
		&record.QuarantinePath,
		&record.Reason,
		&record.IsResolved,
		&record.ResolvedAt,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, quarantineDomain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get quarantine record")
	}

	return &record, nil
}

// List retrieves quarantine records ordered by creation time descending.
func (p *PostgreSQLRecordRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list quarantine records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanRecords(rows)
}

// MarkResolved flags a quarantine record as cleared.
func (p *PostgreSQLRecordRepository) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	resolvedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE quarantine_records
			  SET is_resolved = TRUE, resolved_at = $1
			  WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, resolvedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve quarantine record")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve quarantine record")
	}
	if rows == 0 {
		return quarantineDomain.ErrRecordNotFound
	}
	return nil
}

// ListResolvedOlderThan returns resolved records created strictly before the
// cutoff. Unresolved records are never returned.
func (p *PostgreSQLRecordRepository) ListResolvedOlderThan(
	ctx context.Context,
	cutoff time.Time,
) ([]*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  WHERE is_resolved = TRUE AND created_at < $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired quarantine records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanRecords(rows)
}

// Delete removes a quarantine record.
func (p *PostgreSQLRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM quarantine_records WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to delete quarantine record")
	}
	return nil
}

// scanRecords reads quarantine records from a result set.
func scanRecords(rows *sql.Rows) ([]*quarantineDomain.Record, error) {
	// Initialize empty slice to avoid returning nil for empty results
	records := make([]*quarantineDomain.Record, 0)
	for rows.Next() {
		var record quarantineDomain.Record
		if err := rows.Scan(
			&record.ID,
			&record.FileID,
			&record.QuarantinePath,
			&record.Reason,
			&record.IsResolved,
			&record.ResolvedAt,
			&record.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan quarantine record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate quarantine records")
	}
	return records, nil
}

// NewPostgreSQLRecordRepository creates a new PostgreSQL quarantine record repository instance.
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db}
}
