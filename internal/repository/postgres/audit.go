package postgres

import (
	"context"
	"fmt"
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuditRepository appends audit events; detail is stored as JSONB
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(config *RepositoryConfig) repositories.AuditRepository {
	return &PostgresAuditRepository{pool: config.Pool}
}

func (r *PostgresAuditRepository) Record(ctx context.Context, event *models.AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (actor, action, resource_type, resource_id, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		event.Actor,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.Timestamp,
		event.Detail,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) ListForResource(ctx context.Context, resourceType, resourceID string) ([]models.AuditEvent, error) {
	query := `
		SELECT id, actor, action, resource_type, resource_id, occurred_at, detail
		FROM audit_events
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY occurred_at, id
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &e.Timestamp, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
