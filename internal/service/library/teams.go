package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/policy"
)

type teamService struct {
	teams     repositories.TeamRepository
	txManager repositories.TransactionManager
	policy    *policy.Policy
	audit     *auditor
	now       func() time.Time
	logger    *slog.Logger
}

// NewTeamService creates the team management service
func NewTeamService(deps Dependencies, audit *auditor) services.TeamService {
	return &teamService{
		teams:     deps.Teams,
		txManager: deps.TxManager,
		policy:    deps.Policy,
		audit:     audit,
		now:       deps.Clock,
		logger:    deps.Logger,
	}
}

// CreateTeam creates an active team owned by the principal, who also
// becomes its first member with the owner role.
func (s *teamService) CreateTeam(ctx context.Context, p models.Principal, name string) (*models.Team, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validateTeamName(name); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:     strings.TrimSpace(name),
		OwnerID:  p.UserID,
		IsActive: true,
	}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.teams.CreateTeam(ctx, team); err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		if err := s.teams.UpsertMember(ctx, &models.Membership{
			TeamID:   team.ID,
			UserID:   p.UserID,
			Role:     models.TeamRoleOwner,
			IsActive: true,
		}); err != nil {
			return fmt.Errorf("add team owner: %w", err)
		}
		return s.audit.record(ctx, p, models.AuditTeamCreate, models.AuditResourceTeam, team.ID, map[string]any{
			"name": team.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team created", "id", team.ID, "name", team.Name, "owner_id", team.OwnerID)
	return team, nil
}

// SetMember adds a user to a team or changes their role. New and
// updated memberships are active.
func (s *teamService) SetMember(ctx context.Context, p models.Principal, teamID, userID string, role models.TeamRole) (*models.Membership, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown team role %q", domain.ErrValidation, role)
	}

	m := &models.Membership{TeamID: teamID, UserID: userID, Role: role, IsActive: true}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.requireManager(ctx, p, teamID); err != nil {
			return err
		}
		if err := s.teams.UpsertMember(ctx, m); err != nil {
			return fmt.Errorf("set member: %w", err)
		}
		return s.audit.record(ctx, p, models.AuditTeamMemberSet, models.AuditResourceTeam, teamID, map[string]any{
			"user_id": userID,
			"role":    string(role),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member set", "team_id", teamID, "user_id", userID, "role", role)
	return m, nil
}

// SetMemberActive activates or deactivates an existing membership.
func (s *teamService) SetMemberActive(ctx context.Context, p models.Principal, teamID, userID string, active bool) (*models.Membership, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	var m *models.Membership
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.requireManager(ctx, p, teamID); err != nil {
			return err
		}
		var err error
		m, err = s.teams.GetMember(ctx, teamID, userID)
		if err != nil {
			return err
		}
		if m.IsActive == active {
			return nil
		}
		m.IsActive = active
		if err := s.teams.UpsertMember(ctx, m); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		return s.audit.record(ctx, p, models.AuditTeamMemberEdit, models.AuditResourceTeam, teamID, map[string]any{
			"user_id":   userID,
			"is_active": active,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member activity changed", "team_id", teamID, "user_id", userID, "active", active)
	return m, nil
}

// SetTeamActive activates or deactivates a whole team. Grants to an
// inactive team confer nothing.
func (s *teamService) SetTeamActive(ctx context.Context, p models.Principal, teamID string, active bool) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.requireManager(ctx, p, teamID); err != nil {
			return err
		}
		if err := s.teams.SetTeamActive(ctx, teamID, active); err != nil {
			return err
		}
		return s.audit.record(ctx, p, models.AuditTeamMemberEdit, models.AuditResourceTeam, teamID, map[string]any{
			"team_active": active,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("team activity changed", "team_id", teamID, "active", active)
	return nil
}

// ListMembers lists a team's members. Any member of the team, active or
// not, may list it.
func (s *teamService) ListMembers(ctx context.Context, p models.Principal, teamID string) ([]models.Membership, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, hideMissing(err)
	}
	if team.OwnerID != p.UserID && !s.policy.IsAdminRole(p.Role) {
		if _, err := s.teams.GetMember(ctx, teamID, p.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, denied("list members of team", teamID)
			}
			return nil, fmt.Errorf("get member: %w", err)
		}
	}

	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []models.Membership{}
	}
	return members, nil
}

// requireManager allows the team owner, admins and active members whose
// role can manage the team. Missing teams are reported as forbidden.
func (s *teamService) requireManager(ctx context.Context, p models.Principal, teamID string) error {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return hideMissing(err)
	}
	if team.OwnerID == p.UserID || s.policy.IsAdminRole(p.Role) {
		return nil
	}
	m, err := s.teams.GetMember(ctx, teamID, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return denied("manage team", teamID)
		}
		return fmt.Errorf("get member: %w", err)
	}
	if !m.IsActive || !m.Role.CanManage() {
		return denied("manage team", teamID)
	}
	return nil
}
