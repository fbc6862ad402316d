package services

import (
	"context"
	"time"

	"assetlib/internal/domain/models"
)

// FolderService is the outward face of the folder core. Every operation
// authorizes the principal first and reports nonexistent resources as
// domain.ErrForbidden.
type FolderService interface {
	Create(ctx context.Context, p models.Principal, req *CreateFolderRequest) (*models.Folder, error)
	Rename(ctx context.Context, p models.Principal, folderID, newName string) (*models.Folder, error)
	// Move relocates a folder; a nil newParentID moves it to the root level
	Move(ctx context.Context, p models.Principal, folderID string, newParentID *string) (*models.Folder, error)
	Delete(ctx context.Context, p models.Principal, folderID string, recursive bool) (*DeleteResult, error)

	// GetTree returns the forest under rootID (whole library when nil),
	// pruned to folders the principal can view
	GetTree(ctx context.Context, p models.Principal, rootID *string) ([]*models.FolderTreeNode, error)
	GetBreadcrumb(ctx context.Context, p models.Principal, folderID string) ([]models.BreadcrumbItem, error)
	GetContents(ctx context.Context, p models.Principal, folderID string, page models.Pagination) (*FolderContents, error)

	SetLocked(ctx context.Context, p models.Principal, folderID string, locked bool) (*models.Folder, error)
	// EnsureDateFolder finds or creates the YYYY/MM auto folders for date
	EnsureDateFolder(ctx context.Context, p models.Principal, parentID *string, date time.Time) (*models.Folder, error)
}

// FileBatchService moves and copies files between folders.
type FileBatchService interface {
	MoveFiles(ctx context.Context, p models.Principal, fileIDs []string, targetFolderID string) ([]models.BatchItemResult, error)
	CopyFiles(ctx context.Context, p models.Principal, fileIDs []string, targetFolderID string) ([]models.BatchItemResult, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name        string            `json:"name"`
	ParentID    *string           `json:"parent_id,omitempty"` // null for root folders
	FolderType  models.FolderType `json:"folder_type,omitempty"`
	Color       string            `json:"color,omitempty"`
	Description string            `json:"description,omitempty"`
}

// DeleteResult summarizes a soft delete.
type DeleteResult struct {
	FolderIDs []string `json:"folder_ids"`
	FileCount int64    `json:"file_count"`
	// ObjectPrefixes lists the object store prefixes of the deleted files
	ObjectPrefixes []string `json:"-"`
	// ForeignOwned counts deleted files and folders owned by someone other
	// than the deleted folder's owner
	ForeignOwned int `json:"foreign_owned"`
}

// FolderContents is one page of a folder listing: folders first, then files.
type FolderContents struct {
	Folder  *models.Folder      `json:"folder"`
	Folders []models.FolderItem `json:"folders"`
	Files   []models.FileItem   `json:"files"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}
