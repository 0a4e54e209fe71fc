package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	filesDomain "github.com/allisson/fileguard/internal/files/domain"
)

func newPostgresFileRepoWithMock(t *testing.T) (*PostgreSQLFileRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgreSQLFileRepository(db), mock
}

func newPostgresShareRepoWithMock(t *testing.T) (*PostgreSQLShareRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgreSQLShareRepository(db), mock
}

func TestPostgreSQLFileRepository_Create(t *testing.T) {
	repo, mock := newPostgresFileRepoWithMock(t)

	file := &filesDomain.File{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      "report.pdf",
		Locator:   "files/abc",
		Size:      2048,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO files`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), file)
	assert.NoError(t, err)
}

func TestPostgreSQLFileRepository_Get(t *testing.T) {
	repo, mock := newPostgresFileRepoWithMock(t)
	id := uuid.Must(uuid.NewV7())

	t.Run("found", func(t *testing.T) {
		createdAt := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"id", "name", "locator", "thumbnail_locator", "size", "expires_at", "created_at",
		}).AddRow(id, "report.pdf", "files/abc", "", int64(2048), nil, createdAt)

		mock.ExpectQuery(`SELECT .+ FROM files`).WillReturnRows(rows)

		file, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, file.ID)
		assert.Equal(t, "report.pdf", file.Name)
		assert.Equal(t, int64(2048), file.Size)
		assert.Nil(t, file.ExpiresAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM files`).WillReturnError(sql.ErrNoRows)

		file, err := repo.Get(context.Background(), id)
		assert.Nil(t, file)
		assert.ErrorIs(t, err, filesDomain.ErrFileNotFound)
	})
}

func TestPostgreSQLFileRepository_ListExpired(t *testing.T) {
	repo, mock := newPostgresFileRepoWithMock(t)

	t.Run("returns expired files", func(t *testing.T) {
		expiredAt := time.Now().UTC().Add(-time.Hour)
		rows := sqlmock.NewRows([]string{
			"id", "name", "locator", "thumbnail_locator", "size", "expires_at", "created_at",
		}).AddRow(
			uuid.Must(uuid.NewV7()), "stale.txt", "files/stale", "",
			int64(10), expiredAt, time.Now().UTC().Add(-24*time.Hour),
		)

		mock.ExpectQuery(`SELECT .+ FROM files\s+WHERE expires_at IS NOT NULL`).WillReturnRows(rows)

		files, err := repo.ListExpired(context.Background(), time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "stale.txt", files[0].Name)
	})

	t.Run("empty result is a non-nil slice", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "locator", "thumbnail_locator", "size", "expires_at", "created_at",
		})
		mock.ExpectQuery(`SELECT .+ FROM files\s+WHERE expires_at IS NOT NULL`).WillReturnRows(rows)

		files, err := repo.ListExpired(context.Background(), time.Now().UTC())
		require.NoError(t, err)
		assert.NotNil(t, files)
		assert.Empty(t, files)
	})
}

func TestPostgreSQLFileRepository_TotalSize(t *testing.T) {
	repo, mock := newPostgresFileRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(4096))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(size\), 0\) FROM files`).WillReturnRows(rows)

	total, err := repo.TotalSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4096), total)
}

func TestPostgreSQLShareRepository_DeactivateExpired(t *testing.T) {
	repo, mock := newPostgresShareRepoWithMock(t)

	mock.ExpectExec(`UPDATE shares\s+SET is_active = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.DeactivateExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
