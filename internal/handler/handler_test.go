package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assetlib/internal/auth"
	"assetlib/internal/domain/models"
	"assetlib/internal/middleware"
	"assetlib/internal/objectstore"
	"assetlib/internal/repository/memory"
	"assetlib/internal/service/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	t        *testing.T
	handler  http.Handler
	verifier *auth.HMACVerifier
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := memory.NewStore()
	svc := library.SetupServices(library.Dependencies{
		Folders:   store.Folders(),
		Files:     store.Files(),
		Grants:    store.Grants(),
		Teams:     store.Teams(),
		Audit:     store.Audit(),
		TxManager: store.TransactionManager(),
		Objects:   objectstore.NewMemoryStore(),
		Logger:    logger,
	})

	verifier, err := auth.NewHMACVerifier("handler-test", logger)
	require.NoError(t, err)

	var h http.Handler = NewRouter(svc, logger)
	h = middleware.AuthMiddleware(verifier, logger)(h)
	return &apiEnv{t: t, handler: h, verifier: verifier}
}

// do sends a request as user (empty = anonymous) and decodes the JSON reply into out
func (e *apiEnv) do(user, method, path string, body any, out any) int {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		token, err := e.verifier.GenerateToken(user, "", time.Hour)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (e *apiEnv) createFolder(user, name string, parentID *string) models.Folder {
	e.t.Helper()
	var f models.Folder
	code := e.do(user, http.MethodPost, "/api/folders", map[string]any{"name": name, "parent_id": parentID}, &f)
	require.Equal(e.t, http.StatusCreated, code)
	return f
}

func TestHealthIsPublic(t *testing.T) {
	env := newAPIEnv(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, env.do("", http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])

	assert.Equal(t, http.StatusUnauthorized, env.do("", http.MethodGet, "/api/folders/tree", nil, nil))
}

func TestFolderLifecycle(t *testing.T) {
	env := newAPIEnv(t)

	campaigns := env.createFolder("alice", "Campaigns", nil)
	q1 := env.createFolder("alice", "Q1", &campaigns.ID)
	assert.Equal(t, "Campaigns/Q1", q1.StoragePath)

	// duplicate name reports the existing folder
	var problem map[string]any
	code := env.do("alice", http.MethodPost, "/api/folders", map[string]any{"name": "Campaigns"}, &problem)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, campaigns.ID, problem["resource_id"])

	var renamed models.Folder
	code = env.do("alice", http.MethodPatch, "/api/folders/"+campaigns.ID, map[string]any{"name": "Campaigns2024"}, &renamed)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Campaigns2024", renamed.StoragePath)

	var crumbs struct {
		Breadcrumb []models.BreadcrumbItem `json:"breadcrumb"`
	}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodGet, "/api/folders/"+q1.ID+"/breadcrumb", nil, &crumbs))
	require.Len(t, crumbs.Breadcrumb, 2)
	assert.Equal(t, "Campaigns2024", crumbs.Breadcrumb[0].Name)

	// parent_id null moves to the root level
	var moved models.Folder
	code = env.do("alice", http.MethodPatch, "/api/folders/"+q1.ID, map[string]any{"parent_id": nil}, &moved)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "Q1", moved.StoragePath)

	code = env.do("alice", http.MethodPatch, "/api/folders/"+q1.ID, map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var tree struct {
		Folders []*models.FolderTreeNode `json:"folders"`
	}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodGet, "/api/folders/tree", nil, &tree))
	assert.Len(t, tree.Folders, 2)
	assert.Equal(t, models.AllPermissions, tree.Folders[0].Permissions.List())
}

func TestMoveIntoDescendantIsUnprocessable(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createFolder("alice", "A", nil)
	b := env.createFolder("alice", "B", &a.ID)

	code := env.do("alice", http.MethodPatch, "/api/folders/"+a.ID, map[string]any{"parent_id": b.ID}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestDeleteFolder(t *testing.T) {
	env := newAPIEnv(t)
	x := env.createFolder("alice", "X", nil)
	env.createFolder("alice", "Y", &x.ID)

	assert.Equal(t, http.StatusConflict, env.do("alice", http.MethodDelete, "/api/folders/"+x.ID, nil, nil))
	assert.Equal(t, http.StatusForbidden, env.do("bob", http.MethodDelete, "/api/folders/"+x.ID+"?recursive=true", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do("alice", http.MethodDelete, "/api/folders/"+x.ID+"?recursive=maybe", nil, nil))

	var result struct {
		FolderIDs []string `json:"folder_ids"`
	}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodDelete, "/api/folders/"+x.ID+"?recursive=true", nil, &result))
	assert.Len(t, result.FolderIDs, 2)
}

func TestSharingFlow(t *testing.T) {
	env := newAPIEnv(t)
	deck := env.createFolder("alice", "Deck", nil)
	env.createFolder("alice", "Drafts", &deck.ID)

	contentsPath := "/api/folders/" + deck.ID + "/contents"
	assert.Equal(t, http.StatusForbidden, env.do("bob", http.MethodGet, contentsPath, nil, nil))

	share := map[string]any{
		"resource":    map[string]string{"type": "folder", "id": deck.ID},
		"grantee":     map[string]string{"type": "user", "id": "bob"},
		"permissions": []string{"view"},
	}
	var created struct {
		Grants []models.Grant `json:"grants"`
	}
	require.Equal(t, http.StatusCreated, env.do("alice", http.MethodPost, "/api/grants", share, &created))
	require.Len(t, created.Grants, 1)

	var page struct {
		Total   int `json:"total"`
		Limit   int `json:"limit"`
		Folders []struct {
			Name string `json:"name"`
		} `json:"folders"`
	}
	require.Equal(t, http.StatusOK, env.do("bob", http.MethodGet, contentsPath+"?limit=10", nil, &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Folders, 1)
	assert.Equal(t, "Drafts", page.Folders[0].Name)

	var listed struct {
		Grants []models.Grant `json:"grants"`
	}
	require.Equal(t, http.StatusOK, env.do("bob", http.MethodGet, "/api/grants?resource_type=folder&resource_id="+deck.ID, nil, &listed))
	assert.Len(t, listed.Grants, 1)
	assert.Equal(t, http.StatusBadRequest, env.do("bob", http.MethodGet, "/api/grants?resource_type=doc&resource_id=x", nil, nil))

	revoke := map[string]any{
		"resource":   map[string]string{"type": "folder", "id": deck.ID},
		"grantee":    map[string]string{"type": "user", "id": "bob"},
		"permission": "view",
	}
	assert.Equal(t, http.StatusForbidden, env.do("bob", http.MethodDelete, "/api/grants", revoke, nil))
	assert.Equal(t, http.StatusNoContent, env.do("alice", http.MethodDelete, "/api/grants", revoke, nil))
	assert.Equal(t, http.StatusNotFound, env.do("alice", http.MethodDelete, "/api/grants", revoke, nil))
	assert.Equal(t, http.StatusForbidden, env.do("bob", http.MethodGet, contentsPath, nil, nil))
}

func TestLockAndDateFolders(t *testing.T) {
	env := newAPIEnv(t)
	uploads := env.createFolder("alice", "Uploads", nil)

	var locked models.Folder
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodPost, "/api/folders/"+uploads.ID+"/lock", map[string]bool{"locked": true}, &locked))
	assert.True(t, locked.Locked)

	var month models.Folder
	body := map[string]any{"parent_id": uploads.ID, "date": "2024-03-15T12:00:00Z"}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodPost, "/api/folders/auto", body, &month))
	assert.Equal(t, "Uploads/2024/03", month.StoragePath)
	assert.Equal(t, models.FolderTypeAuto, month.FolderType)
}

func TestBatchMoveReportsItems(t *testing.T) {
	env := newAPIEnv(t)
	dst := env.createFolder("alice", "Sorted", nil)

	var out struct {
		Results []models.BatchItemResult `json:"results"`
	}
	body := map[string]any{"file_ids": []string{"ghost"}, "target_folder_id": dst.ID}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodPost, "/api/files/move", body, &out))
	require.Len(t, out.Results, 1)
	assert.False(t, out.Results[0].Success)
	assert.Equal(t, "access denied", out.Results[0].Error)

	body = map[string]any{"file_ids": []string{}, "target_folder_id": dst.ID}
	assert.Equal(t, http.StatusBadRequest, env.do("alice", http.MethodPost, "/api/files/copy", body, nil))
}

func TestTeamRoutes(t *testing.T) {
	env := newAPIEnv(t)

	var team models.Team
	require.Equal(t, http.StatusCreated, env.do("alice", http.MethodPost, "/api/teams", map[string]string{"name": "design"}, &team))

	membersPath := "/api/teams/" + team.ID + "/members"
	var member models.Membership
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodPut, membersPath+"/bob", map[string]string{"role": "member"}, &member))
	assert.Equal(t, models.TeamRoleMember, member.Role)

	assert.Equal(t, http.StatusForbidden, env.do("bob", http.MethodPut, membersPath+"/carol", map[string]string{"role": "member"}, nil))

	require.Equal(t, http.StatusOK, env.do("alice", http.MethodPatch, membersPath+"/bob", map[string]bool{"is_active": false}, &member))
	assert.False(t, member.IsActive)

	var members struct {
		Members []models.Membership `json:"members"`
	}
	require.Equal(t, http.StatusOK, env.do("alice", http.MethodGet, membersPath, nil, &members))
	assert.Len(t, members.Members, 2)

	assert.Equal(t, http.StatusNoContent, env.do("alice", http.MethodPatch, "/api/teams/"+team.ID, map[string]bool{"is_active": false}, nil))
}
