package postgres

import (
	"context"
	"fmt"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTeamRepository implements the TeamRepository interface
type PostgresTeamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(config *RepositoryConfig) repositories.TeamRepository {
	return &PostgresTeamRepository{pool: config.Pool}
}

func (r *PostgresTeamRepository) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}

	query := `
		INSERT INTO teams (id, name, owner_id, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, team.ID, team.Name, team.OwnerID, team.IsActive).
		Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (r *PostgresTeamRepository) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, name, owner_id, is_active, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.OwnerID,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &team, nil
}

func (r *PostgresTeamRepository) SetTeamActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE teams SET is_active = $1, updated_at = now() WHERE id = $2`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, active, id)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("set team active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpsertMember inserts or replaces a membership; created_at survives a
// replace
func (r *PostgresTeamRepository) UpsertMember(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, is_active = EXCLUDED.is_active, updated_at = now()
		RETURNING created_at, updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, m.TeamID, m.UserID, string(m.Role), m.IsActive).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidTextError(err) {
			return fmt.Errorf("team %s: %w", m.TeamID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert team member: %w", err)
	}
	return nil
}

func (r *PostgresTeamRepository) GetMember(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	query := `
		SELECT team_id, user_id, role, is_active, created_at, updated_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	var m models.Membership
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, teamID, userID).Scan(
		&m.TeamID, &m.UserID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("member %s of team %s: %w", userID, teamID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get team member: %w", err)
	}
	return &m, nil
}

func (r *PostgresTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.Membership, error) {
	query := `
		SELECT team_id, user_id, role, is_active, created_at, updated_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY user_id
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// ActiveTeamIDsForUser returns teams where both the team and the user's
// membership are active
func (r *PostgresTeamRepository) ActiveTeamIDsForUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT t.id
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = $1 AND m.is_active AND t.is_active
		ORDER BY t.id
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
