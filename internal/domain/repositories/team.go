package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// TeamRepository stores teams and memberships.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	SetTeamActive(ctx context.Context, id string, active bool) error

	// UpsertMember inserts or replaces a membership
	UpsertMember(ctx context.Context, m *models.Membership) error
	GetMember(ctx context.Context, teamID, userID string) (*models.Membership, error)
	ListMembers(ctx context.Context, teamID string) ([]models.Membership, error)

	// ActiveTeamIDsForUser returns the teams where both the team and the
	// user's membership are active
	ActiveTeamIDsForUser(ctx context.Context, userID string) ([]string, error)
}
