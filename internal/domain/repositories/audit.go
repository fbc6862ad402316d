package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// AuditRepository appends audit events. Events are never updated.
type AuditRepository interface {
	Record(ctx context.Context, event *models.AuditEvent) error
	ListForResource(ctx context.Context, resourceType, resourceID string) ([]models.AuditEvent, error)
}
