package models

import (
	"time"
)

// FolderType distinguishes user-created folders from system-managed ones.
type FolderType string

const (
	FolderTypeUser FolderType = "user"
	FolderTypeAuto FolderType = "auto" // date-based folders created by the system
)

// Valid reports whether t is a known folder type.
func (t FolderType) Valid() bool {
	return t == FolderTypeUser || t == FolderTypeAuto
}

type Folder struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	ParentID    *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	OwnerID     *string    `json:"owner_id" db:"owner_id"`   // NULL = system-owned
	StoragePath string     `json:"storage_path" db:"storage_path"`
	FolderType  FolderType `json:"folder_type" db:"folder_type"`
	Color       string     `json:"color,omitempty" db:"color"`
	Description string     `json:"description,omitempty" db:"description"`
	Locked      bool       `json:"locked" db:"is_locked"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedBy   *string    `json:"deleted_by,omitempty" db:"deleted_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder sits at the top of the tree.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// IsOwnedBy reports whether userID is the folder's owner.
func (f *Folder) IsOwnedBy(userID string) bool {
	return f.OwnerID != nil && userID != "" && *f.OwnerID == userID
}

// FolderAttrs carries the optional attributes set at creation time.
type FolderAttrs struct {
	FolderType  FolderType
	Color       string
	Description string
}

// ParentRef expresses a move target. A nil ID means the root level.
type ParentRef struct {
	ID *string
}

// PathChange records one storage path rewritten by a cascade.
type PathChange struct {
	FolderID string `json:"folder_id"`
	OldPath  string `json:"old_path"`
	NewPath  string `json:"new_path"`
}

// EqualIDs reports whether two nullable IDs are equal (both nil counts as equal).
func EqualIDs(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
