// Package memory is an in-process backend for the folder core. Folders
// live in a flat arena keyed by ID with a derived parent -> children
// index. Transactions are serialized and roll back by restoring a
// snapshot taken at ExecTx entry.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
)

const rootKey = ""

type state struct {
	folders  map[string]*models.Folder
	children map[string]map[string]struct{} // parent ID ("" = root) -> live child IDs
	files    map[string]*models.File
	grants   map[string]*models.Grant // keyed by models.GrantKey
	teams    map[string]*models.Team
	members  map[string]*models.Membership // teamID|userID
	audit    []models.AuditEvent
}

func newState() *state {
	return &state{
		folders:  make(map[string]*models.Folder),
		children: make(map[string]map[string]struct{}),
		files:    make(map[string]*models.File),
		grants:   make(map[string]*models.Grant),
		teams:    make(map[string]*models.Team),
		members:  make(map[string]*models.Membership),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, f := range s.folders {
		c.folders[id] = cloneFolder(f)
	}
	for parent, kids := range s.children {
		set := make(map[string]struct{}, len(kids))
		for id := range kids {
			set[id] = struct{}{}
		}
		c.children[parent] = set
	}
	for id, f := range s.files {
		c.files[id] = cloneFile(f)
	}
	for k, g := range s.grants {
		gc := *g
		c.grants[k] = &gc
	}
	for id, t := range s.teams {
		tc := *t
		c.teams[id] = &tc
	}
	for k, m := range s.members {
		mc := *m
		c.members[k] = &mc
	}
	c.audit = append([]models.AuditEvent(nil), s.audit...)
	return c
}

func (s *state) link(f *models.Folder) {
	key := parentKey(f.ParentID)
	kids, ok := s.children[key]
	if !ok {
		kids = make(map[string]struct{})
		s.children[key] = kids
	}
	kids[f.ID] = struct{}{}
}

func (s *state) unlink(f *models.Folder) {
	if kids, ok := s.children[parentKey(f.ParentID)]; ok {
		delete(kids, f.ID)
	}
}

// liveChildren returns copies of the live children of parent, sorted by name.
func (s *state) liveChildren(parent string) []models.Folder {
	kids := s.children[parent]
	out := make([]models.Folder, 0, len(kids))
	for id := range kids {
		if f, ok := s.folders[id]; ok && !f.IsDeleted {
			out = append(out, *cloneFolder(f))
		}
	}
	sortFolders(out)
	return out
}

// Store is the shared arena behind every memory repository.
type Store struct {
	txMu  sync.Mutex // serializes transactions
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Folders() repositories.FolderRepository { return &folderRepository{store: s} }
func (s *Store) Files() repositories.FileRepository     { return &fileRepository{store: s} }
func (s *Store) Grants() repositories.GrantRepository   { return &grantRepository{store: s} }
func (s *Store) Teams() repositories.TeamRepository     { return &teamRepository{store: s} }
func (s *Store) Audit() repositories.AuditRepository    { return &auditRepository{store: s} }

// TransactionManager returns the ExecTx implementation for this store.
func (s *Store) TransactionManager() repositories.TransactionManager { return s }

type txKey struct{}

// ExecTx runs fn with exclusive write access. A nested call joins the
// outer transaction. Any error or panic restores the entry snapshot.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(snapshot)
			panic(r)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

// RawFolder returns a folder by ID including soft-deleted ones.
func (s *Store) RawFolder(id string) (*models.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.folders[id]
	if !ok {
		return nil, false
	}
	return cloneFolder(f), true
}

// RawFile returns a file by ID including soft-deleted ones.
func (s *Store) RawFile(id string) (*models.File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.files[id]
	if !ok {
		return nil, false
	}
	return cloneFile(f), true
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.state = snapshot
	s.mu.Unlock()
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

func (s *Store) write(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func parentKey(parentID *string) string {
	if parentID == nil {
		return rootKey
	}
	return *parentID
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFolder(f *models.Folder) *models.Folder {
	c := *f
	c.ParentID = cloneString(f.ParentID)
	c.OwnerID = cloneString(f.OwnerID)
	c.DeletedBy = cloneString(f.DeletedBy)
	c.DeletedAt = cloneTime(f.DeletedAt)
	return &c
}

func cloneFile(f *models.File) *models.File {
	c := *f
	c.FolderID = cloneString(f.FolderID)
	c.OwnerID = cloneString(f.OwnerID)
	c.DeletedBy = cloneString(f.DeletedBy)
	c.DeletedAt = cloneTime(f.DeletedAt)
	return &c
}

func sortFolders(fs []models.Folder) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Name != fs[j].Name {
			return fs[i].Name < fs[j].Name
		}
		return fs[i].ID < fs[j].ID
	})
}
