package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/policy"
)

// AccessResolver evaluates, in order: ownership, admin role, direct user
// grant, team grant, deny. Ownership is not inherited from ancestors.
// A locked folder (and any file inside it) narrows everyone except the
// folder's owner and admins to the policy's lock permissions.
type AccessResolver struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	grants  repositories.GrantRepository
	teams   repositories.TeamRepository
	policy  *policy.Policy
	now     func() time.Time
	logger  *slog.Logger
}

// NewAccessResolver creates a resolver over the given repositories.
func NewAccessResolver(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	grants repositories.GrantRepository,
	teams repositories.TeamRepository,
	pol *policy.Policy,
	now func() time.Time,
	logger *slog.Logger,
) *AccessResolver {
	if now == nil {
		now = time.Now
	}
	return &AccessResolver{
		folders: folders,
		files:   files,
		grants:  grants,
		teams:   teams,
		policy:  pol,
		now:     now,
		logger:  logger,
	}
}

// accessSubject is what the resolver needs to know about a resource.
type accessSubject struct {
	owner     *string
	locked    bool
	lockOwner *string // owner of the folder that carries the lock
}

func (a *AccessResolver) loadSubject(ctx context.Context, res models.ResourceRef) (*accessSubject, error) {
	switch {
	case res.IsFolder():
		f, err := a.folders.GetByID(ctx, res.ID())
		if err != nil {
			return nil, err
		}
		return &accessSubject{owner: f.OwnerID, locked: f.Locked, lockOwner: f.OwnerID}, nil

	case res.IsFile():
		file, err := a.files.GetByID(ctx, res.ID())
		if err != nil {
			return nil, err
		}
		subj := &accessSubject{owner: file.OwnerID}
		if file.FolderID != nil {
			folder, err := a.folders.GetByID(ctx, *file.FolderID)
			if err != nil {
				return nil, fmt.Errorf("containing folder: %w", err)
			}
			subj.locked = folder.Locked
			subj.lockOwner = folder.OwnerID
		}
		return subj, nil
	}
	return nil, fmt.Errorf("unknown resource %s", res)
}

// CanAccess reports whether p holds perm on res.
func (a *AccessResolver) CanAccess(ctx context.Context, p models.Principal, res models.ResourceRef, perm models.Permission) bool {
	if !perm.Valid() {
		return false
	}
	return a.EffectivePermissions(ctx, p, res).Has(perm)
}

// EffectivePermissions returns every permission p holds on res. Lookup
// failures yield the empty set.
func (a *AccessResolver) EffectivePermissions(ctx context.Context, p models.Principal, res models.ResourceRef) models.PermissionSet {
	perms := models.NewPermissionSet()
	if p.UserID == "" || res.IsZero() {
		return perms
	}

	subj, err := a.loadSubject(ctx, res)
	if err != nil {
		a.logger.Debug("access denied: resource lookup failed",
			"user_id", p.UserID,
			"resource", res.String(),
			"error", err,
		)
		return perms
	}

	isAdmin := a.policy.IsAdminRole(p.Role)

	switch {
	case isOwner(subj.owner, p.UserID), isAdmin:
		for _, perm := range models.AllPermissions {
			perms.Add(perm)
		}
	default:
		if err := a.collectGrants(ctx, p, res, perms); err != nil {
			a.logger.Warn("access denied: grant lookup failed",
				"user_id", p.UserID,
				"resource", res.String(),
				"error", err,
			)
			return models.NewPermissionSet()
		}
	}

	if a.narrowedByLock(p, subj, isAdmin) {
		for perm := range perms {
			if !a.policy.LockAllows(perm) {
				delete(perms, perm)
			}
		}
	}

	return perms
}

// IsOwnerOrAdmin reports whether p owns res or holds an admin role.
func (a *AccessResolver) IsOwnerOrAdmin(ctx context.Context, p models.Principal, res models.ResourceRef) bool {
	if p.UserID == "" {
		return false
	}
	subj, err := a.loadSubject(ctx, res)
	if err != nil {
		return false
	}
	return isOwner(subj.owner, p.UserID) || a.policy.IsAdminRole(p.Role)
}

// collectGrants adds permissions from active user grants, then team grants.
func (a *AccessResolver) collectGrants(ctx context.Context, p models.Principal, res models.ResourceRef, perms models.PermissionSet) error {
	grants, err := a.grants.ListForResource(ctx, res)
	if err != nil {
		return err
	}

	now := a.now()
	var teamGrants []models.Grant
	for _, g := range grants {
		if !g.IsActive(now) {
			continue
		}
		switch {
		case g.Grantee.IsUser() && g.Grantee.ID() == p.UserID:
			perms.Add(g.Permission)
		case g.Grantee.IsTeam():
			teamGrants = append(teamGrants, g)
		}
	}

	if len(teamGrants) == 0 {
		return nil
	}

	teamIDs, err := a.teams.ActiveTeamIDsForUser(ctx, p.UserID)
	if err != nil {
		return err
	}
	member := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		member[id] = struct{}{}
	}
	for _, g := range teamGrants {
		if _, ok := member[g.Grantee.ID()]; ok {
			perms.Add(g.Permission)
		}
	}
	return nil
}

func (a *AccessResolver) narrowedByLock(p models.Principal, subj *accessSubject, isAdmin bool) bool {
	if !subj.locked || isAdmin || !a.policy.LockEnabled() {
		return false
	}
	return !isOwner(subj.lockOwner, p.UserID)
}

func isOwner(owner *string, userID string) bool {
	return owner != nil && userID != "" && *owner == userID
}
