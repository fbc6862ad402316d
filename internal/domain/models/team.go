package models

import "time"

// TeamRole is a member's role inside a team.
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleLead   TeamRole = "lead"
	TeamRoleMember TeamRole = "member"
	TeamRoleGuest  TeamRole = "guest"
)

// Valid reports whether r is a known team role.
func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleOwner, TeamRoleLead, TeamRoleMember, TeamRoleGuest:
		return true
	}
	return false
}

// CanManage reports whether the role may change team membership.
func (r TeamRole) CanManage() bool {
	return r == TeamRoleOwner || r == TeamRoleLead
}

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership ties a user to a team. Inactive members gain nothing from
// team grants.
type Membership struct {
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	Role      TeamRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
