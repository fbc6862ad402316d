package postgres

import (
	"context"
	"fmt"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGrantRepository implements the GrantRepository interface
type PostgresGrantRepository struct {
	pool *pgxpool.Pool
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(config *RepositoryConfig) repositories.GrantRepository {
	return &PostgresGrantRepository{pool: config.Pool}
}

// Upsert inserts a grant or refreshes the one with the same natural key,
// keeping its ID
func (r *PostgresGrantRepository) Upsert(ctx context.Context, grant *models.Grant) error {
	query := `
		INSERT INTO permission_grants
			(resource_type, resource_id, grantee_type, grantee_id, permission, granted_by, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (resource_type, resource_id, grantee_type, grantee_id, permission)
		DO UPDATE SET granted_by = EXCLUDED.granted_by,
		              granted_at = EXCLUDED.granted_at,
		              expires_at = EXCLUDED.expires_at
		RETURNING id
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		string(grant.Resource.Kind()),
		grant.Resource.ID(),
		string(grant.Grantee.Kind()),
		grant.Grantee.ID(),
		string(grant.Permission),
		grant.GrantedBy,
		grant.GrantedAt,
		grant.ExpiresAt,
	).Scan(&grant.ID)
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

// Delete removes a grant and reports whether one existed
func (r *PostgresGrantRepository) Delete(ctx context.Context, resource models.ResourceRef, grantee models.Grantee, perm models.Permission) (bool, error) {
	query := `
		DELETE FROM permission_grants
		WHERE resource_type = $1 AND resource_id = $2
		  AND grantee_type = $3 AND grantee_id = $4
		  AND permission = $5
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		string(resource.Kind()), resource.ID(),
		string(grantee.Kind()), grantee.ID(),
		string(perm),
	)
	if err != nil {
		return false, fmt.Errorf("delete grant: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListForResource returns every grant on a resource, expired ones included
func (r *PostgresGrantRepository) ListForResource(ctx context.Context, resource models.ResourceRef) ([]models.Grant, error) {
	query := `
		SELECT id, resource_type, resource_id, grantee_type, grantee_id, permission, granted_by, granted_at, expires_at
		FROM permission_grants
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY granted_at, id
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, string(resource.Kind()), resource.ID())
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	grants := []models.Grant{}
	for rows.Next() {
		var (
			g                      models.Grant
			resType, resID         string
			granteeType, granteeID string
			perm                   string
		)
		if err := rows.Scan(&g.ID, &resType, &resID, &granteeType, &granteeID, &perm, &g.GrantedBy, &g.GrantedAt, &g.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		if g.Resource, err = models.ParseResourceRef(resType, resID); err != nil {
			return nil, fmt.Errorf("grant %s: %w", g.ID, err)
		}
		if g.Grantee, err = models.ParseGrantee(granteeType, granteeID); err != nil {
			return nil, fmt.Errorf("grant %s: %w", g.ID, err)
		}
		g.Permission = models.Permission(perm)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}
