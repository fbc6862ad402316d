package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
)

// TreeStore owns the folder hierarchy: creation, lookup, ancestry,
// rename/move with path cascade and bulk soft delete. It does not
// authorize; callers wrap mutations in a transaction.
type TreeStore struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	paths   *PathMaterializer
	now     func() time.Time
	logger  *slog.Logger
}

// NewTreeStore creates a tree store backed by the given repositories.
func NewTreeStore(folders repositories.FolderRepository, files repositories.FileRepository, now func() time.Time, logger *slog.Logger) *TreeStore {
	if now == nil {
		now = time.Now
	}
	t := &TreeStore{
		folders: folders,
		files:   files,
		now:     now,
		logger:  logger,
	}
	t.paths = NewPathMaterializer(t, folders, logger)
	return t
}

// Paths returns the materializer bound to this tree.
func (t *TreeStore) Paths() *PathMaterializer {
	return t.paths
}

// CreateFolder inserts a folder under parentID (root when nil). Sibling
// names are unique per owner.
func (t *TreeStore) CreateFolder(ctx context.Context, name string, parentID, ownerID *string, attrs models.FolderAttrs) (*models.Folder, error) {
	if err := validateFolderName(name); err != nil {
		return nil, err
	}

	parentPath := ""
	if parentID != nil {
		parent, err := t.folders.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("parent folder %s: %w", *parentID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("get parent folder: %w", err)
		}
		parentPath = parent.StoragePath
	}

	existing, err := t.folders.FindSibling(ctx, parentID, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	}

	folderType := attrs.FolderType
	if folderType == "" {
		folderType = models.FolderTypeUser
	}

	now := t.now()
	folder := &models.Folder{
		Name:        name,
		ParentID:    parentID,
		OwnerID:     ownerID,
		StoragePath: ChildPath(parentPath, name),
		FolderType:  folderType,
		Color:       attrs.Color,
		Description: attrs.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.folders.Create(ctx, folder); err != nil {
		return nil, err
	}

	return folder, nil
}

// GetFolder returns a live folder.
func (t *TreeStore) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return t.folders.GetByID(ctx, id)
}

// GetChildren lists live child folders ordered by name.
func (t *TreeStore) GetChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	return t.folders.ListChildren(ctx, parentID)
}

// GetAncestorChain returns the chain from the root down to id, inclusive.
// A missing parent or a revisited folder yields domain.ErrInvalidState.
func (t *TreeStore) GetAncestorChain(ctx context.Context, id string) ([]models.Folder, error) {
	folder, err := t.folders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := []models.Folder{*folder}
	seen := map[string]struct{}{folder.ID: {}}

	for current := folder; current.ParentID != nil; {
		parentID := *current.ParentID
		if _, loop := seen[parentID]; loop {
			return nil, fmt.Errorf("folder %s: ancestor loop at %s: %w", id, parentID, domain.ErrInvalidState)
		}
		parent, err := t.folders.GetByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("folder %s: orphaned at %s: %w", id, parentID, domain.ErrInvalidState)
			}
			return nil, fmt.Errorf("get ancestor: %w", err)
		}
		seen[parentID] = struct{}{}
		chain = append(chain, *parent)
		current = parent
	}

	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// GetDescendants returns every live folder below id, breadth first.
// Iterative: one query per level regardless of depth.
func (t *TreeStore) GetDescendants(ctx context.Context, id string) ([]models.Folder, error) {
	var out []models.Folder
	seen := map[string]struct{}{id: {}}
	frontier := []string{id}

	for len(frontier) > 0 {
		children, err := t.folders.ListChildrenOf(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("list descendants: %w", err)
		}
		frontier = frontier[:0]
		for _, c := range children {
			if _, loop := seen[c.ID]; loop {
				return nil, fmt.Errorf("folder %s: descendant loop at %s: %w", id, c.ID, domain.ErrInvalidState)
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
			frontier = append(frontier, c.ID)
		}
	}

	return out, nil
}

// RenameOrMove applies a new name and/or parent and cascades storage paths.
// newParent nil leaves the parent unchanged; a ParentRef with nil ID moves
// to the root. The folder and the destination ancestry are row-locked.
// changed reports whether the folder row was updated; changes may be empty
// even then when the new location materializes to the same path.
func (t *TreeStore) RenameOrMove(ctx context.Context, id string, newName *string, newParent *models.ParentRef) (folder *models.Folder, changes []models.PathChange, changed bool, err error) {
	folder, err = t.folders.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, nil, false, err
	}

	nameChanged := newName != nil && *newName != folder.Name
	parentChanged := newParent != nil && !models.EqualIDs(newParent.ID, folder.ParentID)
	if !nameChanged && !parentChanged {
		return folder, nil, false, nil
	}

	if nameChanged {
		if err := validateFolderName(*newName); err != nil {
			return nil, nil, false, err
		}
		folder.Name = *newName
	}

	if parentChanged {
		if newParent.ID != nil {
			if err := t.checkMoveTarget(ctx, id, *newParent.ID); err != nil {
				return nil, nil, false, err
			}
		}
		folder.ParentID = newParent.ID
	}

	existing, err := t.folders.FindSibling(ctx, folder.ParentID, folder.OwnerID, folder.Name)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if existing != nil && existing.ID != folder.ID {
		return nil, nil, false, &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	}

	folder.UpdatedAt = t.now()
	if err := t.folders.Update(ctx, folder); err != nil {
		return nil, nil, false, err
	}

	changes, err = t.paths.Cascade(ctx, id)
	if err != nil {
		return nil, nil, false, err
	}
	if len(changes) > 0 {
		folder.StoragePath = changes[0].NewPath
	}

	t.logger.Debug("folder relocated",
		"id", id,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"paths_changed", len(changes),
	)

	return folder, changes, true, nil
}

// checkMoveTarget rejects moving id under itself or a descendant and locks
// the destination's ancestor chain against concurrent moves.
func (t *TreeStore) checkMoveTarget(ctx context.Context, id, targetID string) error {
	if targetID == id {
		return fmt.Errorf("move %s under itself: %w", id, domain.ErrCyclicMove)
	}

	descendants, err := t.GetDescendants(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		if d.ID == targetID {
			return fmt.Errorf("move %s under descendant %s: %w", id, targetID, domain.ErrCyclicMove)
		}
	}

	seen := map[string]struct{}{}
	for cursor := &targetID; cursor != nil; {
		if _, loop := seen[*cursor]; loop {
			return fmt.Errorf("destination %s: ancestor loop: %w", targetID, domain.ErrInvalidState)
		}
		seen[*cursor] = struct{}{}
		ancestor, err := t.folders.GetByIDForUpdate(ctx, *cursor)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) && *cursor == targetID {
				return fmt.Errorf("parent folder %s: %w", targetID, domain.ErrNotFound)
			}
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("destination %s orphaned: %w", targetID, domain.ErrInvalidState)
			}
			return fmt.Errorf("lock destination ancestry: %w", err)
		}
		if ancestor.ID == id {
			return fmt.Errorf("move %s under descendant %s: %w", id, targetID, domain.ErrCyclicMove)
		}
		cursor = ancestor.ParentID
	}
	return nil
}

// SoftDelete marks a folder deleted. Non-recursive deletes fail with
// domain.ErrNotEmpty when the folder has live children or files; recursive
// deletes mark the whole subtree and its files in bulk.
func (t *TreeStore) SoftDelete(ctx context.Context, id, deletedBy string, recursive bool) (*services.DeleteResult, error) {
	folder, err := t.folders.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := []string{folder.ID}
	descendants, err := t.GetDescendants(ctx, id)
	if err != nil {
		return nil, err
	}

	if !recursive {
		fileCount, err := t.files.CountByFolders(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("count files: %w", err)
		}
		if len(descendants) > 0 || fileCount > 0 {
			return nil, fmt.Errorf("folder %s has %d subfolders and %d files: %w",
				id, len(descendants), fileCount, domain.ErrNotEmpty)
		}
	}

	foreign := 0
	for _, d := range descendants {
		ids = append(ids, d.ID)
		if !models.EqualIDs(d.OwnerID, folder.OwnerID) {
			foreign++
		}
	}

	files, err := t.files.ListInFolders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	prefixes := make([]string, 0, len(files))
	for _, f := range files {
		if !models.EqualIDs(f.OwnerID, folder.OwnerID) {
			foreign++
		}
		if f.StorageKey != "" {
			prefixes = append(prefixes, models.FileObjectPrefix(f.StorageKey))
		}
	}

	now := t.now()
	if err := t.folders.SoftDelete(ctx, ids, deletedBy, now); err != nil {
		return nil, fmt.Errorf("soft delete folders: %w", err)
	}
	fileCount, err := t.files.SoftDeleteInFolders(ctx, ids, deletedBy, now)
	if err != nil {
		return nil, fmt.Errorf("soft delete files: %w", err)
	}

	return &services.DeleteResult{
		FolderIDs:      ids,
		FileCount:      fileCount,
		ObjectPrefixes: prefixes,
		ForeignOwned:   foreign,
	}, nil
}

// ObjectMove is a pending object store relocation for one file.
type ObjectMove struct {
	FileID    string
	OldPrefix string
	NewPrefix string
}

// RekeyFiles rewrites the storage keys of files held by folders whose
// paths changed and returns the object moves to apply after commit.
func (t *TreeStore) RekeyFiles(ctx context.Context, changes []models.PathChange) ([]ObjectMove, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	newPaths := make(map[string]string, len(changes))
	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		newPaths[c.FolderID] = c.NewPath
		ids = append(ids, c.FolderID)
	}

	files, err := t.files.ListInFolders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list files to rekey: %w", err)
	}

	keys := make(map[string]string, len(files))
	var moves []ObjectMove
	for _, f := range files {
		newKey := models.FileStorageKey(newPaths[*f.FolderID], f.ID, f.Name)
		if newKey == f.StorageKey {
			continue
		}
		keys[f.ID] = newKey
		if f.StorageKey != "" {
			moves = append(moves, ObjectMove{
				FileID:    f.ID,
				OldPrefix: models.FileObjectPrefix(f.StorageKey),
				NewPrefix: models.FileObjectPrefix(newKey),
			})
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}
	if err := t.files.UpdateStorageKeys(ctx, keys); err != nil {
		return nil, fmt.Errorf("rekey files: %w", err)
	}
	return moves, nil
}
