package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/fileguard/internal/database"
	apperrors "github.com/allisson/fileguard/internal/errors"
	filesDomain "github.com/allisson/fileguard/internal/files/domain"
)

// MySQLFileRepository implements file metadata persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLFileRepository struct {
	db *sql.DB
}

// Create inserts a new file record into the MySQL database.
func (m *MySQLFileRepository) Create(ctx context.Context, file *filesDomain.File) error {
	querier := database.GetTx(ctx, m.db)

	id, err := file.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}

	query := `INSERT INTO files
			  (id, name, locator, thumbnail_locator, size, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		file.Name,
		file.Locator,
		file.ThumbnailLocator,
		file.Size,
		file.ExpiresAt,
		file.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create file")
	}
	return nil
}

// Get retrieves a file record by its ID.
func (m *MySQLFileRepository) Get(ctx context.Context, id uuid.UUID) (*filesDomain.File, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal file id")
	}

	query := `SELECT id, name, locator, thumbnail_locator, size, expires_at, created_at
			  FROM files
			  WHERE id = ?`

	var file filesDomain.File
	var fileIDBinary []byte
	err = querier.QueryRowContext(ctx, query, idBinary).Scan(
		&fileIDBinary,
		&file.Name,
		&file.Locator,
		&file.ThumbnailLocator,
		&file.Size,
		&file.ExpiresAt,
		&file.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, filesDomain.ErrFileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get file")
	}

	if err := file.ID.UnmarshalBinary(fileIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal file id")
	}
	return &file, nil
}

// Delete removes a file record.
func (m *MySQLFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}

	query := `DELETE FROM files WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, idBinary); err != nil {
		return apperrors.Wrap(err, "failed to delete file")
	}
	return nil
}

// ListExpired returns files whose expiry is strictly before now.
func (m *MySQLFileRepository) ListExpired(
	ctx context.Context,
	now time.Time,
) ([]*filesDomain.File, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, locator, thumbnail_locator, size, expires_at, created_at
			  FROM files
			  WHERE expires_at IS NOT NULL AND expires_at < ?
			  ORDER BY expires_at ASC`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired files")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	files := make([]*filesDomain.File, 0)
	for rows.Next() {
		var file filesDomain.File
		var fileIDBinary []byte
		if err := rows.Scan(
			&fileIDBinary,
			&file.Name,
			&file.Locator,
			&file.ThumbnailLocator,
			&file.Size,
			&file.ExpiresAt,
			&file.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan file")
		}
		if err := file.ID.UnmarshalBinary(fileIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal file id")
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate files")
	}

	return files, nil
}

// TotalSize sums the stored payload sizes.
func (m *MySQLFileRepository) TotalSize(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COALESCE(SUM(size), 0) FROM files`

	var total int64
	if err := querier.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to sum file sizes")
	}
	return total, nil
}

// NewMySQLFileRepository creates a new MySQL file repository instance.
func NewMySQLFileRepository(db *sql.DB) *MySQLFileRepository {
	return &MySQLFileRepository{db: db}
}

// MySQLShareRepository implements share persistence for MySQL.
type MySQLShareRepository struct {
	db *sql.DB
}

// Create inserts a new share into the MySQL database.
func (m *MySQLShareRepository) Create(ctx context.Context, share *filesDomain.Share) error {
	querier := database.GetTx(ctx, m.db)

	id, err := share.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal share id")
	}
	fileID, err := share.FileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal share file_id")
	}

	query := `INSERT INTO shares (id, file_id, expires_at, is_active, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		fileID,
		share.ExpiresAt,
		share.IsActive,
		share.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create share")
	}
	return nil
}

// DeactivateExpired soft-deactivates active shares whose expiry is strictly
// before now.
func (m *MySQLShareRepository) DeactivateExpired(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE shares
			  SET is_active = FALSE
			  WHERE is_active = TRUE AND expires_at < ?`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to deactivate expired shares")
	}
	return result.RowsAffected()
}

// NewMySQLShareRepository creates a new MySQL share repository instance.
func NewMySQLShareRepository(db *sql.DB) *MySQLShareRepository {
	return &MySQLShareRepository{db: db}
}
