package models

import "time"

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ParentID    *string           `json:"parent_id"`
	StoragePath string            `json:"storage_path"`
	FolderType  FolderType        `json:"folder_type"`
	Locked      bool              `json:"locked"`
	Permissions PermissionSet     `json:"permissions"`
	CreatedAt   time.Time         `json:"created_at"`
	Folders     []*FolderTreeNode `json:"folders"` // Pointers for proper nesting
}

// BreadcrumbItem is one ancestor on the way to a folder.
type BreadcrumbItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Accessible is informational; the chain is returned either way.
	Accessible bool `json:"accessible"`
}

// Pagination bounds a listing.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FolderItem is a child folder annotated with the caller's permissions.
type FolderItem struct {
	Folder
	Permissions PermissionSet `json:"permissions"`
}

// FileItem is a file annotated with the caller's permissions.
type FileItem struct {
	File
	Permissions PermissionSet `json:"permissions"`
}

// BatchItemResult reports the outcome of one item in a batch operation.
type BatchItemResult struct {
	FileID    string `json:"file_id"`
	Success   bool   `json:"success"`
	NewFileID string `json:"new_file_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
