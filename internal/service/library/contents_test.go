package library

import (
	"testing"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeIDs(nodes []*models.FolderTreeNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestGetTree_OwnerSeesNestedForest(t *testing.T) {
	env := newTestEnv(t)
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", a)
	c := env.folder(alice, "C", b)
	d := env.folder(alice, "D", nil)

	roots, err := env.svc.Folders.GetTree(env.ctx, alice, nil)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, d.ID}, nodeIDs(roots))
	require.Len(t, roots[0].Folders, 1)
	assert.Equal(t, b.ID, roots[0].Folders[0].ID)
	require.Len(t, roots[0].Folders[0].Folders, 1)
	assert.Equal(t, c.ID, roots[0].Folders[0].Folders[0].ID)
	assert.Empty(t, roots[1].Folders)
	assert.True(t, roots[0].Permissions.Has(models.PermissionDelete))
}

func TestGetTree_PrunesAndSurfacesVisibleDescendants(t *testing.T) {
	env := newTestEnv(t)
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", a)
	c := env.folder(alice, "C", b)
	env.folder(alice, "D", nil)

	env.share(alice, bob, models.FolderRef(a.ID), models.PermissionView)
	env.share(alice, bob, models.FolderRef(c.ID), models.PermissionView)

	roots, err := env.svc.Folders.GetTree(env.ctx, bob, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, nodeIDs(roots))
	assert.Empty(t, roots[0].Folders)
	assert.Equal(t, []models.Permission{models.PermissionView}, roots[1].Permissions.List())

	sub, err := env.svc.Folders.GetTree(env.ctx, bob, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, nodeIDs(sub))

	_, err = env.svc.Folders.GetTree(env.ctx, bob, &b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	none, err := env.svc.Folders.GetTree(env.ctx, carol, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetBreadcrumb_MarksInaccessibleAncestors(t *testing.T) {
	env := newTestEnv(t)
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", a)
	c := env.folder(alice, "C", b)
	env.share(alice, bob, models.FolderRef(a.ID), models.PermissionView)
	env.share(alice, bob, models.FolderRef(c.ID), models.PermissionView)

	crumbs, err := env.svc.Folders.GetBreadcrumb(env.ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.BreadcrumbItem{
		{ID: a.ID, Name: "A", Accessible: true},
		{ID: b.ID, Name: "B", Accessible: false},
		{ID: c.ID, Name: "C", Accessible: true},
	}, crumbs)

	_, err = env.svc.Folders.GetBreadcrumb(env.ctx, bob, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetContents_PagesFoldersThenFiles(t *testing.T) {
	env := newTestEnv(t)
	p := env.folder(alice, "P", nil)
	s1 := env.folder(alice, "s1", p)
	s2 := env.folder(alice, "s2", p)
	f1 := env.file(alice.UserID, p, "f1")
	f2 := env.file(alice.UserID, p, "f2")
	f3 := env.file(alice.UserID, p, "f3")

	page, err := env.svc.Folders.GetContents(env.ctx, alice, p.ID, models.Pagination{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, p.ID, page.Folder.ID)
	require.Len(t, page.Folders, 2)
	assert.Equal(t, s1.ID, page.Folders[0].ID)
	assert.Equal(t, s2.ID, page.Folders[1].ID)
	require.Len(t, page.Files, 1)
	assert.Equal(t, f1.ID, page.Files[0].ID)
	assert.True(t, page.Files[0].Permissions.Has(models.PermissionEdit))

	page, err = env.svc.Folders.GetContents(env.ctx, alice, p.ID, models.Pagination{Limit: 3, Offset: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Folders)
	require.Len(t, page.Files, 2)
	assert.Equal(t, f2.ID, page.Files[0].ID)
	assert.Equal(t, f3.ID, page.Files[1].ID)

	page, err = env.svc.Folders.GetContents(env.ctx, alice, p.ID, models.Pagination{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Folders, 1)
	assert.Equal(t, s2.ID, page.Folders[0].ID)
	assert.Empty(t, page.Files)
}

func TestGetContents_AnnotatesWithoutPruning(t *testing.T) {
	env := newTestEnv(t)
	p := env.folder(alice, "P", nil)
	hidden := env.folder(alice, "hidden", p)
	env.share(alice, bob, models.FolderRef(p.ID), models.PermissionView)

	page, err := env.svc.Folders.GetContents(env.ctx, bob, p.ID, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	require.Len(t, page.Folders, 1)
	assert.Equal(t, hidden.ID, page.Folders[0].ID)
	assert.Empty(t, page.Folders[0].Permissions)

	_, err = env.svc.Folders.GetContents(env.ctx, carol, p.ID, models.Pagination{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetContents_PageBounds(t *testing.T) {
	env := newTestEnv(t)
	p := env.folder(alice, "P", nil)

	page, err := env.svc.Folders.GetContents(env.ctx, alice, p.ID, models.Pagination{Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
	assert.Zero(t, page.Total)

	_, err = env.svc.Folders.GetContents(env.ctx, alice, p.ID, models.Pagination{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEnsureDateFolder_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	uploads := env.folder(alice, "Uploads", nil)
	march := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	first, err := env.svc.Folders.EnsureDateFolder(env.ctx, alice, &uploads.ID, march)
	require.NoError(t, err)
	assert.Equal(t, "Uploads/2024/03", first.StoragePath)
	assert.Equal(t, models.FolderTypeAuto, first.FolderType)

	again, err := env.svc.Folders.EnsureDateFolder(env.ctx, alice, &uploads.ID, march.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	nov, err := env.svc.Folders.EnsureDateFolder(env.ctx, alice, &uploads.ID, time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Uploads/2024/11", nov.StoragePath)
	assert.Equal(t, *first.ParentID, *nov.ParentID)

	atRoot, err := env.svc.Folders.EnsureDateFolder(env.ctx, alice, nil, march)
	require.NoError(t, err)
	assert.Equal(t, "2024/03", atRoot.StoragePath)
}

func TestEnsureDateFolder_ReusesPerOwner(t *testing.T) {
	env := newTestEnv(t)
	uploads := env.folder(alice, "Uploads", nil)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := env.svc.Folders.EnsureDateFolder(env.ctx, bob, &uploads.ID, march)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	mine, err := env.svc.Folders.EnsureDateFolder(env.ctx, alice, &uploads.ID, march)
	require.NoError(t, err)

	env.share(alice, bob, models.FolderRef(uploads.ID), models.PermissionEdit)
	bobs, err := env.svc.Folders.EnsureDateFolder(env.ctx, bob, &uploads.ID, march)
	require.NoError(t, err)
	assert.NotEqual(t, mine.ID, bobs.ID)
	assert.Equal(t, bob.UserID, *bobs.OwnerID)
	assert.Equal(t, mine.StoragePath, bobs.StoragePath)
}
