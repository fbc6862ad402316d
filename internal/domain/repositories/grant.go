package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// GrantRepository stores permission grants.
type GrantRepository interface {
	// Upsert inserts a grant or refreshes the existing one with the same
	// (resource, grantee, permission)
	Upsert(ctx context.Context, grant *models.Grant) error

	// Delete removes a grant; reports whether a row existed
	Delete(ctx context.Context, resource models.ResourceRef, grantee models.Grantee, perm models.Permission) (bool, error)

	// ListForResource returns every grant on a resource, expired ones included
	ListForResource(ctx context.Context, resource models.ResourceRef) ([]models.Grant, error)
}
