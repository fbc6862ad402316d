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
	"assetlib/internal/policy"
)

type folderService struct {
	tree      *TreeStore
	access    services.AccessResolver
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	txManager repositories.TransactionManager
	objects   services.ObjectStore
	policy    *policy.Policy
	audit     *auditor
	now       func() time.Time
	logger    *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(tree *TreeStore, access services.AccessResolver, deps Dependencies, audit *auditor) services.FolderService {
	return &folderService{
		tree:      tree,
		access:    access,
		folders:   deps.Folders,
		files:     deps.Files,
		txManager: deps.TxManager,
		objects:   deps.Objects,
		policy:    deps.Policy,
		audit:     audit,
		now:       deps.Clock,
		logger:    deps.Logger,
	}
}

// Create creates a folder owned by the principal. Creating inside a parent
// requires edit on the parent.
func (s *folderService) Create(ctx context.Context, p models.Principal, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if !s.access.CanAccess(ctx, p, models.FolderRef(*req.ParentID), models.PermissionEdit) {
			return nil, denied("create folder in", *req.ParentID)
		}
	}

	ownerID := p.UserID
	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		folder, err = s.tree.CreateFolder(ctx, req.Name, req.ParentID, &ownerID, models.FolderAttrs{
			FolderType:  req.FolderType,
			Color:       req.Color,
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		return s.audit.record(ctx, p, models.AuditFolderCreate, models.AuditResourceFolder, folder.ID, map[string]any{
			"name":      folder.Name,
			"parent_id": folder.ParentID,
			"path":      folder.StoragePath,
		})
	})
	if err != nil {
		return nil, hideMissing(err)
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"owner_id", ownerID,
		"path", folder.StoragePath,
	)

	return folder, nil
}

// Rename changes a folder's name and cascades paths to its subtree.
func (s *folderService) Rename(ctx context.Context, p models.Principal, folderID, newName string) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validateFolderName(newName); err != nil {
		return nil, err
	}
	authorize := func(ctx context.Context) error {
		if !s.access.CanAccess(ctx, p, models.FolderRef(folderID), models.PermissionEdit) {
			return denied("rename folder", folderID)
		}
		return nil
	}

	folder, changes, err := s.relocate(ctx, p, folderID, &newName, nil, models.AuditFolderRename, authorize)
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed",
		"id", folder.ID,
		"name", folder.Name,
		"path", folder.StoragePath,
		"paths_changed", len(changes),
	)
	return folder, nil
}

// Move re-parents a folder. Requires edit on the folder and on the
// destination; a nil destination is the root level.
func (s *folderService) Move(ctx context.Context, p models.Principal, folderID string, newParentID *string) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}
	authorize := func(ctx context.Context) error {
		if !s.access.CanAccess(ctx, p, models.FolderRef(folderID), models.PermissionEdit) {
			return denied("move folder", folderID)
		}
		if newParentID != nil && *newParentID != folderID {
			if !s.access.CanAccess(ctx, p, models.FolderRef(*newParentID), models.PermissionEdit) {
				return denied("move folder into", *newParentID)
			}
		}
		return nil
	}

	folder, changes, err := s.relocate(ctx, p, folderID, nil, &models.ParentRef{ID: newParentID}, models.AuditFolderMove, authorize)
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder moved",
		"id", folder.ID,
		"parent_id", folder.ParentID,
		"path", folder.StoragePath,
		"paths_changed", len(changes),
	)
	return folder, nil
}

// relocate runs authorize and a rename or move in one transaction, then
// realigns the object store. Object store failures are logged, not
// returned: the database is already committed.
func (s *folderService) relocate(ctx context.Context, p models.Principal, folderID string, newName *string, newParent *models.ParentRef, action string, authorize func(context.Context) error) (*models.Folder, []models.PathChange, error) {
	var (
		folder  *models.Folder
		changes []models.PathChange
		moves   []ObjectMove
	)
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := authorize(ctx); err != nil {
			return err
		}
		var (
			changed bool
			err     error
		)
		folder, changes, changed, err = s.tree.RenameOrMove(ctx, folderID, newName, newParent)
		if err != nil || !changed {
			return err
		}
		oldPath, newPath := folder.StoragePath, folder.StoragePath
		if len(changes) > 0 {
			oldPath, newPath = changes[0].OldPath, changes[0].NewPath
			moves, err = s.tree.RekeyFiles(ctx, changes)
			if err != nil {
				return err
			}
		}
		return s.audit.record(ctx, p, action, models.AuditResourceFolder, folderID, map[string]any{
			"name":      folder.Name,
			"parent_id": folder.ParentID,
			"old_path":  oldPath,
			"new_path":  newPath,
			"cascaded":  len(changes),
		})
	})
	if err != nil {
		return nil, nil, hideMissing(err)
	}

	applyObjectMoves(ctx, s.objects, s.logger, moves)
	return folder, changes, nil
}

// Delete soft-deletes a folder. Recursive deletes take the whole subtree
// and its files, including items owned by other users; the count of such
// items is reported and audited.
func (s *folderService) Delete(ctx context.Context, p models.Principal, folderID string, recursive bool) (*services.DeleteResult, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var result *services.DeleteResult
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if !s.access.CanAccess(ctx, p, models.FolderRef(folderID), models.PermissionDelete) {
			return denied("delete folder", folderID)
		}
		var err error
		result, err = s.tree.SoftDelete(ctx, folderID, p.UserID, recursive)
		if err != nil {
			return err
		}
		return s.audit.record(ctx, p, models.AuditFolderDelete, models.AuditResourceFolder, folderID, map[string]any{
			"recursive":     recursive,
			"folder_count":  len(result.FolderIDs),
			"file_count":    result.FileCount,
			"foreign_owned": result.ForeignOwned,
		})
	})
	if err != nil {
		return nil, hideMissing(err)
	}

	if result.ForeignOwned > 0 {
		s.logger.Warn("recursive delete removed items owned by other users",
			"folder_id", folderID,
			"user_id", p.UserID,
			"foreign_owned", result.ForeignOwned,
		)
	}

	if recursive && s.objects != nil && s.policy.PurgeOnDelete() {
		for _, prefix := range result.ObjectPrefixes {
			if err := s.objects.DeleteAll(ctx, prefix); err != nil {
				s.logger.Error("object purge failed after folder delete",
					"folder_id", folderID,
					"prefix", prefix,
					"error", err,
				)
			}
		}
	}

	s.logger.Info("folder deleted",
		"id", folderID,
		"recursive", recursive,
		"folders", len(result.FolderIDs),
		"files", result.FileCount,
	)

	return result, nil
}

// SetLocked locks or unlocks a folder. Only the owner or an admin may.
func (s *folderService) SetLocked(ctx context.Context, p models.Principal, folderID string, locked bool) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if !s.access.IsOwnerOrAdmin(ctx, p, models.FolderRef(folderID)) {
			return denied("change lock on folder", folderID)
		}
		var err error
		folder, err = s.folders.GetByIDForUpdate(ctx, folderID)
		if err != nil {
			return err
		}
		if folder.Locked == locked {
			return nil
		}
		folder.Locked = locked
		folder.UpdatedAt = s.now()
		if err := s.folders.Update(ctx, folder); err != nil {
			return err
		}
		action := models.AuditFolderUnlock
		if locked {
			action = models.AuditFolderLock
		}
		return s.audit.record(ctx, p, action, models.AuditResourceFolder, folderID, nil)
	})
	if err != nil {
		return nil, hideMissing(err)
	}

	s.logger.Info("folder lock changed", "id", folderID, "locked", locked)
	return folder, nil
}

// applyObjectMoves relocates objects after a committed transaction.
func applyObjectMoves(ctx context.Context, objects services.ObjectStore, logger *slog.Logger, moves []ObjectMove) {
	if objects == nil {
		return
	}
	for _, m := range moves {
		if err := objects.Relocate(ctx, m.OldPrefix, m.NewPrefix); err != nil {
			logger.Error("object relocation failed; object store is behind folder paths",
				"file_id", m.FileID,
				"old_prefix", m.OldPrefix,
				"new_prefix", m.NewPrefix,
				"error", err,
			)
		}
	}
}

func requirePrincipal(p models.Principal) error {
	if p.UserID == "" {
		return fmt.Errorf("missing principal: %w", domain.ErrUnauthorized)
	}
	return nil
}

func denied(action, id string) error {
	return fmt.Errorf("%s %s: %w", action, id, domain.ErrForbidden)
}

// hideMissing reports resources that vanished mid-operation as access
// denied so callers cannot probe for existence.
func hideMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("resource not accessible: %w", domain.ErrForbidden)
	}
	return err
}
