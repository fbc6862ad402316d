package memory

import (
	"context"
	"fmt"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/google/uuid"
)

type folderRepository struct {
	store *Store
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	var err error
	r.store.write(func(st *state) {
		if existing := findSibling(st, folder.ParentID, folder.OwnerID, folder.Name, ""); existing != nil {
			err = siblingConflict(folder.Name, existing.ID)
			return
		}
		if folder.ID == "" {
			folder.ID = uuid.NewString()
		}
		if _, dup := st.folders[folder.ID]; dup {
			err = fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
			return
		}
		now := r.store.now()
		if folder.CreatedAt.IsZero() {
			folder.CreatedAt = now
		}
		folder.UpdatedAt = folder.CreatedAt
		if folder.FolderType == "" {
			folder.FolderType = models.FolderTypeUser
		}
		stored := cloneFolder(folder)
		st.folders[stored.ID] = stored
		st.link(stored)
	})
	return err
}

func (r *folderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	var out *models.Folder
	r.store.read(func(st *state) {
		if f, ok := st.folders[id]; ok && !f.IsDeleted {
			out = cloneFolder(f)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

// GetByIDForUpdate relies on ExecTx serialization instead of row locks.
func (r *folderRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Folder, error) {
	return r.GetByID(ctx, id)
}

func (r *folderRepository) FindSibling(ctx context.Context, parentID, ownerID *string, name string) (*models.Folder, error) {
	var out *models.Folder
	r.store.read(func(st *state) {
		if f := findSibling(st, parentID, ownerID, name, ""); f != nil {
			out = cloneFolder(f)
		}
	})
	return out, nil
}

func (r *folderRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	var out []models.Folder
	r.store.read(func(st *state) {
		out = st.liveChildren(parentKey(parentID))
	})
	return out, nil
}

func (r *folderRepository) ListChildrenOf(ctx context.Context, parentIDs []string) ([]models.Folder, error) {
	var out []models.Folder
	r.store.read(func(st *state) {
		for _, id := range parentIDs {
			out = append(out, st.liveChildren(id)...)
		}
	})
	return out, nil
}

func (r *folderRepository) ListAll(ctx context.Context) ([]models.Folder, error) {
	var out []models.Folder
	r.store.read(func(st *state) {
		for _, f := range st.folders {
			if !f.IsDeleted {
				out = append(out, *cloneFolder(f))
			}
		}
	})
	sortFolders(out)
	return out, nil
}

func (r *folderRepository) Update(ctx context.Context, folder *models.Folder) error {
	var err error
	r.store.write(func(st *state) {
		current, ok := st.folders[folder.ID]
		if !ok || current.IsDeleted {
			err = fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
			return
		}
		if existing := findSibling(st, folder.ParentID, folder.OwnerID, folder.Name, folder.ID); existing != nil {
			err = siblingConflict(folder.Name, existing.ID)
			return
		}
		st.unlink(current)
		current.Name = folder.Name
		current.ParentID = cloneString(folder.ParentID)
		current.Color = folder.Color
		current.Description = folder.Description
		current.Locked = folder.Locked
		current.UpdatedAt = folder.UpdatedAt
		st.link(current)
	})
	return err
}

func (r *folderRepository) UpdatePaths(ctx context.Context, paths map[string]string) error {
	var err error
	r.store.write(func(st *state) {
		for id := range paths {
			if _, ok := st.folders[id]; !ok {
				err = fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
				return
			}
		}
		now := r.store.now()
		for id, path := range paths {
			st.folders[id].StoragePath = path
			st.folders[id].UpdatedAt = now
		}
	})
	return err
}

func (r *folderRepository) SoftDelete(ctx context.Context, ids []string, deletedBy string, at time.Time) error {
	r.store.write(func(st *state) {
		for _, id := range ids {
			f, ok := st.folders[id]
			if !ok || f.IsDeleted {
				continue
			}
			st.unlink(f)
			f.IsDeleted = true
			f.DeletedAt = &at
			f.DeletedBy = &deletedBy
			f.UpdatedAt = at
		}
	})
	return nil
}

// findSibling mirrors the partial unique index on (parent, name, owner)
// over live folders. excludeID skips the folder being updated.
func findSibling(st *state, parentID, ownerID *string, name, excludeID string) *models.Folder {
	for id := range st.children[parentKey(parentID)] {
		f := st.folders[id]
		if f == nil || f.IsDeleted || f.ID == excludeID || f.Name != name {
			continue
		}
		if models.EqualIDs(f.OwnerID, ownerID) {
			return f
		}
	}
	return nil
}

func siblingConflict(name, existingID string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
		ResourceType: "folder",
		ResourceID:   existingID,
	}
}
