package services

import (
	"context"
	"time"

	"assetlib/internal/domain/models"
)

// SharingService manages permission grants.
type SharingService interface {
	Share(ctx context.Context, p models.Principal, req *ShareRequest) ([]models.Grant, error)
	Revoke(ctx context.Context, p models.Principal, req *RevokeRequest) error
	ListGrants(ctx context.Context, p models.Principal, res models.ResourceRef) ([]models.Grant, error)
}

// ShareRequest grants each listed permission to the grantee.
type ShareRequest struct {
	Resource    models.ResourceRef  `json:"resource"`
	Grantee     models.Grantee      `json:"grantee"`
	Permissions []models.Permission `json:"permissions"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
}

// RevokeRequest removes one grant.
type RevokeRequest struct {
	Resource   models.ResourceRef `json:"resource"`
	Grantee    models.Grantee     `json:"grantee"`
	Permission models.Permission  `json:"permission"`
}

// TeamService manages teams and their members.
type TeamService interface {
	CreateTeam(ctx context.Context, p models.Principal, name string) (*models.Team, error)
	SetMember(ctx context.Context, p models.Principal, teamID, userID string, role models.TeamRole) (*models.Membership, error)
	SetMemberActive(ctx context.Context, p models.Principal, teamID, userID string, active bool) (*models.Membership, error)
	SetTeamActive(ctx context.Context, p models.Principal, teamID string, active bool) error
	ListMembers(ctx context.Context, p models.Principal, teamID string) ([]models.Membership, error)
}
