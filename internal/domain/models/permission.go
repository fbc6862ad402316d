package models

import (
	"encoding/json"
	"fmt"
)

// Permission is a single capability on a resource. Permissions are flat:
// edit does not imply view.
type Permission string

const (
	PermissionView     Permission = "view"
	PermissionDownload Permission = "download"
	PermissionEdit     Permission = "edit"
	PermissionDelete   Permission = "delete"
)

// AllPermissions lists every permission in canonical order.
var AllPermissions = []Permission{
	PermissionView,
	PermissionDownload,
	PermissionEdit,
	PermissionDelete,
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	switch p {
	case PermissionView, PermissionDownload, PermissionEdit, PermissionDelete:
		return true
	}
	return false
}

// ParsePermission converts a string into a Permission.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// PermissionSet is an unordered set of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Add(p Permission) {
	s[p] = struct{}{}
}

// List returns the permissions in canonical order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// MarshalJSON encodes the set as an ordered array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes an array of permission names. Unknown names are
// rejected.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	if perms == nil {
		*s = nil
		return nil
	}
	set := make(PermissionSet, len(perms))
	for _, raw := range perms {
		p, err := ParsePermission(raw)
		if err != nil {
			return err
		}
		set.Add(p)
	}
	*s = set
	return nil
}
