package repositories

import (
	"context"
	"time"

	"assetlib/internal/domain/models"
)

// FolderRepository defines data access operations for folders.
// Reads never return soft-deleted rows.
type FolderRepository interface {
	// Create inserts a folder and fills in ID and timestamps
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetByIDForUpdate retrieves a folder and row-locks it for the
	// surrounding transaction
	GetByIDForUpdate(ctx context.Context, id string) (*models.Folder, error)

	// FindSibling returns the folder named name under parentID owned by
	// ownerID, or nil if there is none
	FindSibling(ctx context.Context, parentID, ownerID *string, name string) (*models.Folder, error)

	// ListChildren lists immediate child folders ordered by name
	ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error)

	// ListChildrenOf lists the immediate children of every given parent
	ListChildrenOf(ctx context.Context, parentIDs []string) ([]models.Folder, error)

	// ListAll returns every live folder (flat list)
	ListAll(ctx context.Context) ([]models.Folder, error)

	// Update persists name, parent, attributes and lock state
	Update(ctx context.Context, folder *models.Folder) error

	// UpdatePaths rewrites storage paths in bulk (folder ID -> path)
	UpdatePaths(ctx context.Context, paths map[string]string) error

	// SoftDelete marks the given folders deleted in a single statement
	SoftDelete(ctx context.Context, ids []string, deletedBy string, at time.Time) error
}
