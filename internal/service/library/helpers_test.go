package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/objectstore"
	"assetlib/internal/policy"
	"assetlib/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Principal{UserID: "alice", Role: "user"}
	bob   = models.Principal{UserID: "bob", Role: "user"}
	carol = models.Principal{UserID: "carol", Role: "user"}
	admin = models.Principal{UserID: "root", Role: "admin"}
)

type testEnv struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	objects *objectstore.MemoryStore
	svc     *Services
	now     time.Time
}

type envOption func(*Dependencies)

func withAudit(repo repositories.AuditRepository) envOption {
	return func(d *Dependencies) { d.Audit = repo }
}

func withGrants(repo repositories.GrantRepository) envOption {
	return func(d *Dependencies) { d.Grants = repo }
}

func withObjects(store services.ObjectStore) envOption {
	return func(d *Dependencies) { d.Objects = store }
}

func withPolicy(p *policy.Policy) envOption {
	return func(d *Dependencies) { d.Policy = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		t:       t,
		ctx:     context.Background(),
		store:   memory.NewStore(),
		objects: objectstore.NewMemoryStore(),
		now:     time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	env.store.SetClock(env.clock)

	deps := Dependencies{
		Folders:   env.store.Folders(),
		Files:     env.store.Files(),
		Grants:    env.store.Grants(),
		Teams:     env.store.Teams(),
		Audit:     env.store.Audit(),
		TxManager: env.store.TransactionManager(),
		Objects:   env.objects,
		Policy:    policy.Default(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:     env.clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.svc = SetupServices(deps)
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *testEnv) folder(p models.Principal, name string, parent *models.Folder) *models.Folder {
	e.t.Helper()
	req := &services.CreateFolderRequest{Name: name}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	f, err := e.svc.Folders.Create(e.ctx, p, req)
	require.NoError(e.t, err)
	return f
}

// file inserts a file into folder (root when nil) and stores one object
// for it under its storage key.
func (e *testEnv) file(owner string, folder *models.Folder, name string) *models.File {
	e.t.Helper()
	f := &models.File{ID: uuid.NewString(), Name: name, OwnerID: &owner}
	path := ""
	if folder != nil {
		f.FolderID = &folder.ID
		path = folder.StoragePath
	}
	f.StorageKey = models.FileStorageKey(path, f.ID, name)
	require.NoError(e.t, e.store.Files().Create(e.ctx, f))
	e.objects.Put(f.StorageKey, []byte(name))
	return f
}

func (e *testEnv) share(owner, grantee models.Principal, res models.ResourceRef, perms ...models.Permission) {
	e.t.Helper()
	_, err := e.svc.Sharing.Share(e.ctx, owner, &services.ShareRequest{
		Resource:    res,
		Grantee:     models.UserGrantee(grantee.UserID),
		Permissions: perms,
	})
	require.NoError(e.t, err)
}

func (e *testEnv) getFolder(id string) *models.Folder {
	e.t.Helper()
	f, err := e.store.Folders().GetByID(e.ctx, id)
	require.NoError(e.t, err)
	return f
}

func (e *testEnv) getFile(id string) *models.File {
	e.t.Helper()
	f, err := e.store.Files().GetByID(e.ctx, id)
	require.NoError(e.t, err)
	return f
}

func (e *testEnv) auditActions(resourceType, resourceID string) []string {
	e.t.Helper()
	events, err := e.store.Audit().ListForResource(e.ctx, resourceType, resourceID)
	require.NoError(e.t, err)
	actions := make([]string, len(events))
	for i, ev := range events {
		actions[i] = ev.Action
	}
	return actions
}

var errInjected = errors.New("injected failure")

// failingAudit rejects every event so the surrounding transaction rolls back.
type failingAudit struct{ repositories.AuditRepository }

func (failingAudit) Record(ctx context.Context, event *models.AuditEvent) error {
	return errInjected
}

// failingGrants errors on every lookup.
type failingGrants struct{ repositories.GrantRepository }

func (failingGrants) ListForResource(ctx context.Context, res models.ResourceRef) ([]models.Grant, error) {
	return nil, errInjected
}

// txTracker records whether a transaction is open.
type txTracker struct {
	repositories.TransactionManager
	open bool
}

func (t *txTracker) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	outer := t.open
	t.open = true
	defer func() { t.open = outer }()
	return t.TransactionManager.ExecTx(ctx, fn)
}

// grantLookups notes, for every grant lookup, whether it ran inside a
// transaction.
type grantLookups struct {
	repositories.GrantRepository
	tx   *txTracker
	inTx []bool
}

func (g *grantLookups) ListForResource(ctx context.Context, res models.ResourceRef) ([]models.Grant, error) {
	g.inTx = append(g.inTx, g.tx.open)
	return g.GrantRepository.ListForResource(ctx, res)
}

// brokenObjects fails every object store call.
type brokenObjects struct{}

func (brokenObjects) Relocate(ctx context.Context, oldPrefix, newPrefix string) error { return errInjected }
func (brokenObjects) Copy(ctx context.Context, srcPrefix, dstPrefix string) error      { return errInjected }
func (brokenObjects) DeleteAll(ctx context.Context, prefix string) error               { return errInjected }

func strPtr(s string) *string { return &s }
