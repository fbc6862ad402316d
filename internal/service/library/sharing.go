package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
)

type sharingService struct {
	access    services.AccessResolver
	grants    repositories.GrantRepository
	teams     repositories.TeamRepository
	txManager repositories.TransactionManager
	audit     *auditor
	now       func() time.Time
	logger    *slog.Logger
}

// NewSharingService creates the grant management service
func NewSharingService(access services.AccessResolver, deps Dependencies, audit *auditor) services.SharingService {
	return &sharingService{
		access:    access,
		grants:    deps.Grants,
		teams:     deps.Teams,
		txManager: deps.TxManager,
		audit:     audit,
		now:       deps.Clock,
		logger:    deps.Logger,
	}
}

// Share upserts one grant per requested permission. Only the resource
// owner or an admin may share.
func (s *sharingService) Share(ctx context.Context, p models.Principal, req *services.ShareRequest) ([]models.Grant, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validateShareRequest(req); err != nil {
		return nil, err
	}
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", domain.ErrValidation)
	}
	if !s.access.IsOwnerOrAdmin(ctx, p, req.Resource) {
		return nil, denied("share", req.Resource.String())
	}

	if req.Grantee.IsTeam() {
		if _, err := s.teams.GetTeam(ctx, req.Grantee.ID()); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: team %s does not exist", domain.ErrValidation, req.Grantee.ID())
			}
			return nil, fmt.Errorf("get team: %w", err)
		}
	}

	grantedBy := p.UserID
	grants := make([]models.Grant, 0, len(req.Permissions))
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		grants = grants[:0]
		for _, perm := range req.Permissions {
			g := &models.Grant{
				Resource:   req.Resource,
				Grantee:    req.Grantee,
				Permission: perm,
				GrantedBy:  &grantedBy,
				GrantedAt:  now,
				ExpiresAt:  req.ExpiresAt,
			}
			if err := s.grants.Upsert(ctx, g); err != nil {
				return fmt.Errorf("upsert grant: %w", err)
			}
			if err := s.audit.record(ctx, p, models.AuditGrantCreate, string(req.Resource.Kind()), req.Resource.ID(), map[string]any{
				"grantee":    req.Grantee.String(),
				"permission": string(perm),
				"expires_at": req.ExpiresAt,
			}); err != nil {
				return err
			}
			grants = append(grants, *g)
		}
		return nil
	})
	if err != nil {
		return nil, hideMissing(err)
	}

	s.logger.Info("resource shared",
		"resource", req.Resource.String(),
		"grantee", req.Grantee.String(),
		"permissions", len(grants),
		"granted_by", grantedBy,
	)
	return grants, nil
}

// Revoke removes one grant. Revoking a grant that does not exist is
// reported as not found.
func (s *sharingService) Revoke(ctx context.Context, p models.Principal, req *services.RevokeRequest) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if req.Resource.IsZero() || req.Grantee.ID() == "" || !req.Permission.Valid() {
		return fmt.Errorf("%w: resource, grantee and a valid permission are required", domain.ErrValidation)
	}
	if !s.access.IsOwnerOrAdmin(ctx, p, req.Resource) {
		return denied("revoke on", req.Resource.String())
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		existed, err := s.grants.Delete(ctx, req.Resource, req.Grantee, req.Permission)
		if err != nil {
			return fmt.Errorf("delete grant: %w", err)
		}
		if !existed {
			return fmt.Errorf("grant %s: %w", models.GrantKey(req.Resource, req.Grantee, req.Permission), domain.ErrNotFound)
		}
		return s.audit.record(ctx, p, models.AuditGrantRevoke, string(req.Resource.Kind()), req.Resource.ID(), map[string]any{
			"grantee":    req.Grantee.String(),
			"permission": string(req.Permission),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("grant revoked",
		"resource", req.Resource.String(),
		"grantee", req.Grantee.String(),
		"permission", req.Permission,
	)
	return nil
}

// ListGrants returns every grant on a resource the principal can view.
func (s *sharingService) ListGrants(ctx context.Context, p models.Principal, res models.ResourceRef) ([]models.Grant, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if res.IsZero() {
		return nil, fmt.Errorf("%w: resource is required", domain.ErrValidation)
	}
	if !s.access.CanAccess(ctx, p, res, models.PermissionView) {
		return nil, denied("list grants on", res.String())
	}

	grants, err := s.grants.ListForResource(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	if grants == nil {
		grants = []models.Grant{}
	}
	return grants, nil
}
