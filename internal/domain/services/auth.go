package services

import (
	"context"

	"assetlib/internal/domain/models"
)

// AccessResolver decides what a principal may do to a resource. It fails
// closed: any lookup error resolves to "no access".
type AccessResolver interface {
	CanAccess(ctx context.Context, p models.Principal, res models.ResourceRef, perm models.Permission) bool
	EffectivePermissions(ctx context.Context, p models.Principal, res models.ResourceRef) models.PermissionSet
	// IsOwnerOrAdmin reports whether p owns res or holds an admin role
	IsOwnerOrAdmin(ctx context.Context, p models.Principal, res models.ResourceRef) bool
}
