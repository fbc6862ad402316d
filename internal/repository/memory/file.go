package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/google/uuid"
)

type fileRepository struct {
	store *Store
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	var err error
	r.store.write(func(st *state) {
		if file.ID == "" {
			file.ID = uuid.NewString()
		}
		if _, dup := st.files[file.ID]; dup {
			err = fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
			return
		}
		if file.CreatedAt.IsZero() {
			file.CreatedAt = r.store.now()
		}
		file.UpdatedAt = file.CreatedAt
		st.files[file.ID] = cloneFile(file)
	})
	return err
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	var out *models.File
	r.store.read(func(st *state) {
		if f, ok := st.files[id]; ok && !f.IsDeleted {
			out = cloneFile(f)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func (r *fileRepository) ListByFolder(ctx context.Context, folderID string, limit, offset int) ([]models.File, error) {
	var all []models.File
	r.store.read(func(st *state) {
		for _, f := range st.files {
			if !f.IsDeleted && f.FolderID != nil && *f.FolderID == folderID {
				all = append(all, *cloneFile(f))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []models.File{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *fileRepository) CountByFolders(ctx context.Context, folderIDs []string) (int, error) {
	ids := toSet(folderIDs)
	n := 0
	r.store.read(func(st *state) {
		for _, f := range st.files {
			if !f.IsDeleted && f.FolderID != nil {
				if _, ok := ids[*f.FolderID]; ok {
					n++
				}
			}
		}
	})
	return n, nil
}

func (r *fileRepository) ListInFolders(ctx context.Context, folderIDs []string) ([]models.File, error) {
	ids := toSet(folderIDs)
	var out []models.File
	r.store.read(func(st *state) {
		for _, f := range st.files {
			if f.IsDeleted || f.FolderID == nil {
				continue
			}
			if _, ok := ids[*f.FolderID]; ok {
				out = append(out, *cloneFile(f))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fileRepository) Copy(ctx context.Context, src *models.File, folderID *string, ownerID, storageKey string) (*models.File, error) {
	dup := cloneFile(src)
	dup.ID = uuid.NewString()
	dup.FolderID = cloneString(folderID)
	dup.OwnerID = &ownerID
	dup.StorageKey = storageKey
	dup.CreatedAt = time.Time{}
	if err := r.Create(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *fileRepository) ReassignFolder(ctx context.Context, fileID string, folderID *string, storageKey string) error {
	var err error
	r.store.write(func(st *state) {
		f, ok := st.files[fileID]
		if !ok || f.IsDeleted {
			err = fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
			return
		}
		f.FolderID = cloneString(folderID)
		f.StorageKey = storageKey
		f.UpdatedAt = r.store.now()
	})
	return err
}

func (r *fileRepository) UpdateStorageKeys(ctx context.Context, keys map[string]string) error {
	var err error
	r.store.write(func(st *state) {
		for id := range keys {
			if f, ok := st.files[id]; !ok || f.IsDeleted {
				err = fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
				return
			}
		}
		now := r.store.now()
		for id, key := range keys {
			st.files[id].StorageKey = key
			st.files[id].UpdatedAt = now
		}
	})
	return err
}

func (r *fileRepository) SoftDeleteInFolders(ctx context.Context, folderIDs []string, deletedBy string, at time.Time) (int64, error) {
	ids := toSet(folderIDs)
	var n int64
	r.store.write(func(st *state) {
		for _, f := range st.files {
			if f.IsDeleted || f.FolderID == nil {
				continue
			}
			if _, ok := ids[*f.FolderID]; ok {
				f.IsDeleted = true
				f.DeletedAt = &at
				f.DeletedBy = &deletedBy
				f.UpdatedAt = at
				n++
			}
		}
	})
	return n, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
