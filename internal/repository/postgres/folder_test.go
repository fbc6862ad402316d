package postgres

import (
	"regexp"
	"testing"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

var folderRowColumns = []string{
	"id", "name", "parent_id", "owner_id", "storage_path", "folder_type", "color", "description",
	"is_locked", "is_deleted", "deleted_at", "deleted_by", "created_at", "updated_at",
}

func folderRows() *sqlmock.Rows {
	return sqlmock.NewRows(folderRowColumns)
}

func addFolder(rows *sqlmock.Rows, id, name string, parentID any, path string) *sqlmock.Rows {
	return rows.AddRow(id, name, parentID, "alice", path, "user", "", "", false, false, nil, nil, testTime, testTime)
}

func TestFolderRepository_Create(t *testing.T) {
	parent, owner := "p1", "alice"
	newFolder := func() *models.Folder {
		return &models.Folder{Name: "Q1", ParentID: &parent, OwnerID: &owner, StoragePath: "Campaigns/Q1"}
	}
	insert := regexp.QuoteMeta("INSERT INTO folders (id, name, parent_id, owner_id, storage_path, folder_type, color, description, is_locked)")

	t.Run("assigns id and timestamps", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})

		mock.ExpectQuery(insert).
			WithArgs(sqlmock.AnyArg(), "Q1", parent, owner, "Campaigns/Q1", models.FolderTypeUser, "", "", false).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testTime, testTime))

		f := newFolder()
		require.NoError(t, repo.Create(ctx, f))
		assert.NotEmpty(t, f.ID)
		assert.Equal(t, models.FolderTypeUser, f.FolderType)
		assert.Equal(t, testTime, f.CreatedAt)
	})

	t.Run("duplicate sibling is a conflict", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})

		mock.ExpectQuery(insert).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, newFolder())
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "folder", conflict.ResourceType)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("missing parent is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})

		mock.ExpectQuery(insert).WillReturnError(&pgconn.PgError{Code: "23503"})

		assert.ErrorIs(t, repo.Create(ctx, newFolder()), domain.ErrNotFound)
	})
}

func TestFolderRepository_GetByIDForUpdateLocksRow(t *testing.T) {
	ctx, mock := newMockTx(t)
	repo := NewFolderRepository(&RepositoryConfig{})

	mock.ExpectQuery(regexp.QuoteMeta("FROM folders WHERE id = $1 AND is_deleted = FALSE FOR UPDATE")).
		WithArgs("f1").
		WillReturnRows(addFolder(folderRows(), "f1", "Q1", "p1", "Campaigns/Q1"))

	f, err := repo.GetByIDForUpdate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Q1", f.Name)
	require.NotNil(t, f.ParentID)
	assert.Equal(t, "p1", *f.ParentID)
	assert.Equal(t, "Campaigns/Q1", f.StoragePath)
	assert.Nil(t, f.DeletedAt)
}

func TestFolderRepository_GetByIDNotFound(t *testing.T) {
	tests := []struct {
		name   string
		expect func(*sqlmock.ExpectedQuery)
	}{
		{name: "no rows", expect: func(q *sqlmock.ExpectedQuery) { q.WillReturnRows(folderRows()) }},
		{name: "malformed id", expect: func(q *sqlmock.ExpectedQuery) { q.WillReturnError(&pgconn.PgError{Code: "22P02"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, mock := newMockTx(t)
			repo := NewFolderRepository(&RepositoryConfig{})
			tt.expect(mock.ExpectQuery(regexp.QuoteMeta("FROM folders WHERE id = $1")).WithArgs("missing"))

			_, err := repo.GetByID(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestFolderRepository_FindSibling(t *testing.T) {
	lookup := regexp.QuoteMeta("WHERE parent_id IS NOT DISTINCT FROM $1::uuid AND owner_id IS NOT DISTINCT FROM $2::text AND name = $3")
	owner := "alice"

	t.Run("root level with no match", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})

		mock.ExpectQuery(lookup).WithArgs(nil, owner, "Campaigns").WillReturnRows(folderRows())

		f, err := repo.FindSibling(ctx, nil, &owner, "Campaigns")
		require.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("existing sibling", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		parent := "p1"

		mock.ExpectQuery(lookup).
			WithArgs(parent, owner, "Q1").
			WillReturnRows(addFolder(folderRows(), "f1", "Q1", parent, "Campaigns/Q1"))

		f, err := repo.FindSibling(ctx, &parent, &owner, "Q1")
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, "f1", f.ID)
	})
}

func TestFolderRepository_ListChildren(t *testing.T) {
	ctx, mock := newMockTx(t)
	repo := NewFolderRepository(&RepositoryConfig{})

	mock.ExpectQuery(regexp.QuoteMeta("WHERE parent_id IS NULL AND is_deleted = FALSE ORDER BY name, id")).
		WithArgs().
		WillReturnRows(addFolder(addFolder(folderRows(), "a", "Assets", nil, "Assets"), "c", "Campaigns", nil, "Campaigns"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE parent_id = ANY($1::uuid[]) AND is_deleted = FALSE")).
		WithArgs([]string{"a", "c"}).
		WillReturnRows(folderRows())

	roots, err := repo.ListChildren(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Nil(t, roots[0].ParentID)

	kids, err := repo.ListChildrenOf(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestFolderRepository_Update(t *testing.T) {
	update := regexp.QuoteMeta("UPDATE folders SET name = $1, parent_id = $2")
	folder := func() *models.Folder {
		return &models.Folder{ID: "f1", Name: "Q2", UpdatedAt: testTime}
	}

	t.Run("moves to root", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		mock.ExpectExec(update).
			WithArgs("Q2", nil, "", "", false, testTime, "f1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, folder()))
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		mock.ExpectExec(update).WillReturnError(&pgconn.PgError{Code: "23505"})

		assert.ErrorIs(t, repo.Update(ctx, folder()), domain.ErrConflict)
	})

	t.Run("deleted folder is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, folder()), domain.ErrNotFound)
	})
}

func TestFolderRepository_UpdatePaths(t *testing.T) {
	bulk := regexp.QuoteMeta("FROM unnest($1::uuid[], $2::text[]) AS v(id, path) WHERE f.id = v.id")

	t.Run("single statement for the batch", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		mock.ExpectExec(bulk).
			WithArgs([]string{"f1"}, []string{"Campaigns2024/Q1"}).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePaths(ctx, map[string]string{"f1": "Campaigns2024/Q1"}))
	})

	t.Run("short update is not found", func(t *testing.T) {
		ctx, mock := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		mock.ExpectExec(bulk).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePaths(ctx, map[string]string{"f1": "A", "f2": "A/B"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty batch skips the database", func(t *testing.T) {
		ctx, _ := newMockTx(t)
		repo := NewFolderRepository(&RepositoryConfig{})
		assert.NoError(t, repo.UpdatePaths(ctx, nil))
	})
}

func TestFolderRepository_SoftDelete(t *testing.T) {
	ctx, mock := newMockTx(t)
	repo := NewFolderRepository(&RepositoryConfig{})

	mock.ExpectExec(regexp.QuoteMeta("SET is_deleted = TRUE, deleted_at = $2, deleted_by = $3, updated_at = $2 WHERE id = ANY($1::uuid[])")).
		WithArgs([]string{"f1", "f2"}, testTime, "alice").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.SoftDelete(ctx, []string{"f1", "f2"}, "alice", testTime))
}
