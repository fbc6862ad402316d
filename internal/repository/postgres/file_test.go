package postgres

import (
	"regexp"
	"testing"

	"assetlib/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileRowColumns = []string{
	"id", "name", "folder_id", "owner_id", "storage_key", "content_type", "size_bytes",
	"is_deleted", "deleted_at", "deleted_by", "created_at", "updated_at",
}

func TestFileRepository_ListByFolder(t *testing.T) {
	page := regexp.QuoteMeta("WHERE folder_id = $1 AND is_deleted = FALSE ORDER BY name, id LIMIT $2 OFFSET $3")

	t.Run("unbounded", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})

		mock.ExpectQuery(page).
			WithArgs("f1", nil, 0).
			WillReturnRows(sqlmock.NewRows(fileRowColumns).
				AddRow("a", "a.png", "f1", "alice", "A/a/a.png", "image/png", int64(12), false, nil, nil, testTime, testTime))

		files, err := repo.ListByFolder(ctx, "f1", 0, 0)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "A/a/a.png", files[0].StorageKey)
		assert.EqualValues(t, 12, files[0].SizeBytes)
	})

	t.Run("paged", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})

		mock.ExpectQuery(page).WithArgs("f1", 10, 20).WillReturnRows(sqlmock.NewRows(fileRowColumns))

		files, err := repo.ListByFolder(ctx, "f1", 10, 20)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestFileRepository_CountByFolders(t *testing.T) {
	ctx, mock := newMockTx(t)
	repo := NewFileRepository(&RepositoryConfig{})

	mock.ExpectQuery(regexp.QuoteMeta("WHERE folder_id = ANY($1::uuid[]) AND is_deleted = FALSE")).
		WithArgs([]string{"f1", "f2"}).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByFolders(ctx, []string{"f1", "f2"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountByFolders(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileRepository_ReassignFolder(t *testing.T) {
	reassign := regexp.QuoteMeta("UPDATE files SET folder_id = $1, storage_key = $2, updated_at = now() WHERE id = $3 AND is_deleted = FALSE")
	target := "f2"

	t.Run("moves file", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})
		mock.ExpectExec(reassign).
			WithArgs(target, "B/x/x.png", "x").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.ReassignFolder(ctx, "x", &target, "B/x/x.png"))
	})

	t.Run("deleted file is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})
		mock.ExpectExec(reassign).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.ReassignFolder(ctx, "x", &target, "B/x/x.png"), domain.ErrNotFound)
	})

	t.Run("missing target folder is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})
		mock.ExpectExec(reassign).WillReturnError(&pgconn.PgError{Code: "23503"})

		assert.ErrorIs(t, repo.ReassignFolder(ctx, "x", &target, "B/x/x.png"), domain.ErrNotFound)
	})
}

func TestFileRepository_UpdateStorageKeys(t *testing.T) {
	bulk := regexp.QuoteMeta("FROM unnest($1::uuid[], $2::text[]) AS v(id, key) WHERE f.id = v.id AND f.is_deleted = FALSE")

	t.Run("single statement for the batch", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})
		mock.ExpectExec(bulk).
			WithArgs([]string{"x"}, []string{"New/x/x.png"}).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStorageKeys(ctx, map[string]string{"x": "New/x/x.png"}))
	})

	t.Run("short update is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFileRepository(&RepositoryConfig{})
		mock.ExpectExec(bulk).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStorageKeys(ctx, map[string]string{"x": "New/x/x.png"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestFileRepository_SoftDeleteInFolders(t *testing.T) {
	ctx, mock := newMockTx(t)
	repo := NewFileRepository(&RepositoryConfig{})

	mock.ExpectExec(regexp.QuoteMeta("WHERE folder_id = ANY($1::uuid[]) AND is_deleted = FALSE")).
		WithArgs([]string{"f1"}, testTime, "alice").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.SoftDeleteInFolders(ctx, []string{"f1"}, "alice", testTime)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}
