package repositories

import (
	"context"
	"time"

	"assetlib/internal/domain/models"
)

// FileRepository is the data access surface the folder core needs for files.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves a live file by ID
	GetByID(ctx context.Context, id string) (*models.File, error)

	// ListByFolder lists files in a folder ordered by name
	ListByFolder(ctx context.Context, folderID string, limit, offset int) ([]models.File, error)

	// CountByFolders counts live files in any of the given folders
	CountByFolders(ctx context.Context, folderIDs []string) (int, error)

	// ReassignFolder moves a file to another folder and storage key
	ReassignFolder(ctx context.Context, fileID string, folderID *string, storageKey string) error

	// ListInFolders lists every live file in any of the given folders
	ListInFolders(ctx context.Context, folderIDs []string) ([]models.File, error)

	// UpdateStorageKeys rewrites storage keys in bulk (file ID -> key)
	UpdateStorageKeys(ctx context.Context, keys map[string]string) error

	// SoftDeleteInFolders marks every file in the folders deleted
	SoftDeleteInFolders(ctx context.Context, folderIDs []string, deletedBy string, at time.Time) (int64, error)

	// Copy inserts a duplicate of src with a new ID, folder, owner and key
	Copy(ctx context.Context, src *models.File, folderID *string, ownerID, storageKey string) (*models.File, error)
}
