// Package repository implements file and share persistence for PostgreSQL
// and MySQL.
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

// PostgreSQLFileRepository implements file metadata persistence for
// PostgreSQL databases.
type PostgreSQLFileRepository struct {
	db *sql.DB
}

// Create inserts a new file record into the PostgreSQL database.
func (p *PostgreSQLFileRepository) Create(ctx context.Context, file *filesDomain.File) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO files
			  (id, name, locator, thumbnail_locator, size, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		file.ID,
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
func (p *PostgreSQLFileRepository) Get(ctx context.Context, id uuid.UUID) (*filesDomain.File, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, locator, thumbnail_locator, size, expires_at, created_at
			  FROM files
			  WHERE id = $1`

	var file filesDomain.File
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&file.ID,
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

	return &file, nil
}

// Delete removes a file record.
func (p *PostgreSQLFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM files WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to delete file")
	}
	return nil
}

// ListExpired returns files whose expiry is strictly before now.
func (p *PostgreSQLFileRepository) ListExpired(
	ctx context.Context,
	now time.Time,
) ([]*filesDomain.File, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, locator, thumbnail_locator, size, expires_at, created_at
			  FROM files
			  WHERE expires_at IS NOT NULL AND expires_at < $1
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
		if err := rows.Scan(
			&file.ID,
			&file.Name,
			&file.Locator,
			&file.ThumbnailLocator,
			&file.Size,
			&file.ExpiresAt,
			&file.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan file")
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate files")
	}

	return files, nil
}

// TotalSize sums the stored payload sizes.
func (p *PostgreSQLFileRepository) TotalSize(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COALESCE(SUM(size), 0) FROM files`

	var total int64
	if err := querier.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to sum file sizes")
	}
	return total, nil
}

// NewPostgreSQLFileRepository creates a new PostgreSQL file repository instance.
func NewPostgreSQLFileRepository(db *sql.DB) *PostgreSQLFileRepository {
	return &PostgreSQLFileRepository{db: db}
}

// PostgreSQLShareRepository implements share persistence for PostgreSQL databases.
type PostgreSQLShareRepository struct {
	db *sql.DB
}

// Create inserts a new share into the PostgreSQL database.
func (p *PostgreSQLShareRepository) Create(ctx context.Context, share *filesDomain.Share) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO shares (id, file_id, expires_at, is_active, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		share.ID,
		share.FileID,
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
func (p *PostgreSQLShareRepository) DeactivateExpired(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE shares
			  SET is_active = FALSE
			  WHERE is_active = TRUE AND expires_at < $1`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to deactivate expired shares")
	}
	return result.RowsAffected()
}

// NewPostgreSQLShareRepository creates a new PostgreSQL share repository instance.
func NewPostgreSQLShareRepository(db *sql.DB) *PostgreSQLShareRepository {
	return &PostgreSQLShareRepository{db: db}
}
