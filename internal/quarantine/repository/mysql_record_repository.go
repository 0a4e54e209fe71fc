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

// MySQLRecordRepository implements quarantine record persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLRecordRepository struct {
	db *sql.DB
}

// Create inserts a new quarantine record into the MySQL database.
func (m *MySQLRecordRepository) Create(
	ctx context.Context,
	record *quarantineDomain.Record,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quarantine record id")
	}
	fileID, err := record.FileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quarantine record file_id")
	}

	query := `INSERT INTO quarantine_records
			  (id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		fileID,
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
func (m *MySQLRecordRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal quarantine record id")
	}

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  WHERE id = ?`

	var record quarantineDomain.Record
	var recordIDBinary, fileIDBinary []byte
	err = querier.QueryRowContext(ctx, query, idBinary).Scan(
		&recordIDBinary,
		&fileIDBinary,
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

	if err := unmarshalRecordIDs(&record, recordIDBinary, fileIDBinary); err != nil {
		return nil, err
	}
	return &record, nil
}

// List retrieves quarantine records ordered by creation time descending.
func (m *MySQLRecordRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list quarantine records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanMySQLRecords(rows)
}

// MarkResolved flags a quarantine record as cleared.
func (m *MySQLRecordRepository) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	resolvedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quarantine record id")
	}

	query := `UPDATE quarantine_records
			  SET is_resolved = TRUE, resolved_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, resolvedAt, idBinary)
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
func (m *MySQLRecordRepository) ListResolvedOlderThan(
	ctx context.Context,
	cutoff time.Time,
) ([]*quarantineDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, file_id, quarantine_path, reason, is_resolved, resolved_at, created_at
			  FROM quarantine_records
			  WHERE is_resolved = TRUE AND created_at < ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired quarantine records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanMySQLRecords(rows)
}

// Delete removes a quarantine record.
func (m *MySQLRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quarantine record id")
	}

	query := `DELETE FROM quarantine_records WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, idBinary); err != nil {
		return apperrors.Wrap(err, "failed to delete quarantine record")
	}
	return nil
}

func scanMySQLRecords(rows *sql.Rows) ([]*quarantineDomain.Record, error) {
	// Initialize empty slice to avoid returning nil for empty results
	records := make([]*quarantineDomain.Record, 0)
	for rows.Next() {
		var record quarantineDomain.Record
		var recordIDBinary, fileIDBinary []byte
		if err := rows.Scan(
			&recordIDBinary,
			&fileIDBinary,
			&record.QuarantinePath,
			&record.Reason,
			&record.IsResolved,
			&record.ResolvedAt,
			&record.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan quarantine record")
		}
		if err := unmarshalRecordIDs(&record, recordIDBinary, fileIDBinary); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate quarantine records")
	}
	return records, nil
}

func unmarshalRecordIDs(record *quarantineDomain.Record, idBinary, fileIDBinary []byte) error {
	if err := record.ID.UnmarshalBinary(idBinary); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal quarantine record id")
	}
	if err := record.FileID.UnmarshalBinary(fileIDBinary); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal quarantine record file_id")
	}
	return nil
}

// NewMySQLRecordRepository creates a new MySQL quarantine record repository instance.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}
