package library

import (
	"context"
	"log/slog"
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/policy"
)

// Dependencies holds everything the library services are built from.
type Dependencies struct {
	Folders   repositories.FolderRepository
	Files     repositories.FileRepository
	Grants    repositories.GrantRepository
	Teams     repositories.TeamRepository
	Audit     repositories.AuditRepository
	TxManager repositories.TransactionManager
	Objects   services.ObjectStore
	Policy    *policy.Policy
	Logger    *slog.Logger
	Clock     func() time.Time // defaults to time.Now
}

// Services groups the library's service implementations.
type Services struct {
	Tree    *TreeStore
	Access  *AccessResolver
	Folders services.FolderService
	Files   services.FileBatchService
	Sharing services.SharingService
	Teams   services.TeamService
}

// SetupServices wires the tree store, resolver and services together.
func SetupServices(deps Dependencies) *Services {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}

	tree := NewTreeStore(deps.Folders, deps.Files, deps.Clock, deps.Logger)
	access := NewAccessResolver(deps.Folders, deps.Files, deps.Grants, deps.Teams, deps.Policy, deps.Clock, deps.Logger)
	audit := &auditor{repo: deps.Audit, now: deps.Clock}

	return &Services{
		Tree:    tree,
		Access:  access,
		Folders: NewFolderService(tree, access, deps, audit),
		Files:   NewFileBatchService(tree, access, deps, audit),
		Sharing: NewSharingService(access, deps, audit),
		Teams:   NewTeamService(deps, audit),
	}
}

// auditor appends audit events inside the caller's transaction.
type auditor struct {
	repo repositories.AuditRepository
	now  func() time.Time
}

func (a *auditor) record(ctx context.Context, p models.Principal, action, resourceType, resourceID string, detail map[string]any) error {
	return a.repo.Record(ctx, &models.AuditEvent{
		Actor:        p.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    a.now(),
		Detail:       detail,
	})
}
