package models

import (
	"strings"
	"time"
)

// File is a stored asset. Its storage key lives under the containing
// folder's storage path.
type File struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	FolderID    *string    `json:"folder_id"` // NULL = root level
	OwnerID     *string    `json:"owner_id"`
	StorageKey  string     `json:"storage_key"`
	ContentType string     `json:"content_type,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   *string    `json:"deleted_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOwnedBy reports whether userID is the file's owner.
func (f *File) IsOwnedBy(userID string) bool {
	return f.OwnerID != nil && userID != "" && *f.OwnerID == userID
}

// FileStorageKey builds the object key for a file placed under folderPath.
// Root-level files use an empty folderPath.
func FileStorageKey(folderPath, fileID, name string) string {
	if folderPath == "" {
		return fileID + "/" + name
	}
	return folderPath + "/" + fileID + "/" + name
}

// FileObjectPrefix returns the prefix that holds every object of a file.
func FileObjectPrefix(storageKey string) string {
	if i := strings.LastIndex(storageKey, "/"); i >= 0 {
		return storageKey[:i+1]
	}
	return storageKey
}

// FolderObjectPrefix returns the object prefix for a folder path.
func FolderObjectPrefix(storagePath string) string {
	return storagePath + "/"
}
