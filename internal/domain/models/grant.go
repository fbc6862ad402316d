package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResourceKind names the type of a grantable resource.
type ResourceKind string

const (
	ResourceKindFile   ResourceKind = "file"
	ResourceKindFolder ResourceKind = "folder"
)

// ResourceRef identifies a file or a folder. Construct with FileRef,
// FolderRef or ParseResourceRef so the kind is always valid.
type ResourceRef struct {
	kind ResourceKind
	id   string
}

func FileRef(id string) ResourceRef   { return ResourceRef{kind: ResourceKindFile, id: id} }
func FolderRef(id string) ResourceRef { return ResourceRef{kind: ResourceKindFolder, id: id} }

// ParseResourceRef builds a reference from its wire form.
func ParseResourceRef(kind, id string) (ResourceRef, error) {
	if id == "" {
		return ResourceRef{}, fmt.Errorf("resource id is required")
	}
	switch ResourceKind(kind) {
	case ResourceKindFile:
		return FileRef(id), nil
	case ResourceKindFolder:
		return FolderRef(id), nil
	}
	return ResourceRef{}, fmt.Errorf("unknown resource type %q", kind)
}

func (r ResourceRef) Kind() ResourceKind { return r.kind }
func (r ResourceRef) ID() string         { return r.id }
func (r ResourceRef) IsFolder() bool     { return r.kind == ResourceKindFolder }
func (r ResourceRef) IsFile() bool       { return r.kind == ResourceKindFile }
func (r ResourceRef) IsZero() bool       { return r.kind == "" }
func (r ResourceRef) String() string     { return string(r.kind) + ":" + r.id }

type resourceRefJSON struct {
	Type ResourceKind `json:"type"`
	ID   string       `json:"id"`
}

func (r ResourceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(resourceRefJSON{Type: r.kind, ID: r.id})
}

func (r *ResourceRef) UnmarshalJSON(data []byte) error {
	var raw resourceRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseResourceRef(string(raw.Type), raw.ID)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// GranteeKind names who a grant is issued to.
type GranteeKind string

const (
	GranteeKindUser GranteeKind = "user"
	GranteeKindTeam GranteeKind = "team"
)

// Grantee is either a single user or a team.
type Grantee struct {
	kind GranteeKind
	id   string
}

func UserGrantee(userID string) Grantee { return Grantee{kind: GranteeKindUser, id: userID} }
func TeamGrantee(teamID string) Grantee { return Grantee{kind: GranteeKindTeam, id: teamID} }

// ParseGrantee builds a grantee from its wire form.
func ParseGrantee(kind, id string) (Grantee, error) {
	if id == "" {
		return Grantee{}, fmt.Errorf("grantee id is required")
	}
	switch GranteeKind(kind) {
	case GranteeKindUser:
		return UserGrantee(id), nil
	case GranteeKindTeam:
		return TeamGrantee(id), nil
	}
	return Grantee{}, fmt.Errorf("unknown grantee type %q", kind)
}

func (g Grantee) Kind() GranteeKind { return g.kind }
func (g Grantee) ID() string        { return g.id }
func (g Grantee) IsUser() bool      { return g.kind == GranteeKindUser }
func (g Grantee) IsTeam() bool      { return g.kind == GranteeKindTeam }
func (g Grantee) String() string    { return string(g.kind) + ":" + g.id }

type granteeJSON struct {
	Type GranteeKind `json:"type"`
	ID   string      `json:"id"`
}

func (g Grantee) MarshalJSON() ([]byte, error) {
	return json.Marshal(granteeJSON{Type: g.kind, ID: g.id})
}

func (g *Grantee) UnmarshalJSON(data []byte) error {
	var raw granteeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseGrantee(string(raw.Type), raw.ID)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Grant gives a grantee one permission on one resource.
// (resource, grantee, permission) is unique.
type Grant struct {
	ID         string      `json:"id"`
	Resource   ResourceRef `json:"resource"`
	Grantee    Grantee     `json:"grantee"`
	Permission Permission  `json:"permission"`
	GrantedBy  *string     `json:"granted_by,omitempty"`
	GrantedAt  time.Time   `json:"granted_at"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
}

// IsActive reports whether the grant is unexpired at now.
func (g *Grant) IsActive(now time.Time) bool {
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// GrantKey is the natural key of a grant.
func GrantKey(resource ResourceRef, grantee Grantee, perm Permission) string {
	return resource.String() + "|" + grantee.String() + "|" + string(perm)
}
