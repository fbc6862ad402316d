package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/policy"
)

type fileBatchService struct {
	tree      *TreeStore
	access    services.AccessResolver
	files     repositories.FileRepository
	txManager repositories.TransactionManager
	objects   services.ObjectStore
	policy    *policy.Policy
	audit     *auditor
	logger    *slog.Logger
}

// NewFileBatchService creates the batch move/copy service
func NewFileBatchService(tree *TreeStore, access services.AccessResolver, deps Dependencies, audit *auditor) services.FileBatchService {
	return &fileBatchService{
		tree:      tree,
		access:    access,
		files:     deps.Files,
		txManager: deps.TxManager,
		objects:   deps.Objects,
		policy:    deps.Policy,
		audit:     audit,
		logger:    deps.Logger,
	}
}

// objectOp is a post-commit object store action for one file.
type objectOp func(ctx context.Context) error

// MoveFiles moves each file into targetFolderID. Requires edit on the
// target and edit+delete where each file currently lives.
func (s *fileBatchService) MoveFiles(ctx context.Context, p models.Principal, fileIDs []string, targetFolderID string) ([]models.BatchItemResult, error) {
	target, err := s.prepareBatch(ctx, p, fileIDs, targetFolderID, "move files into")
	if err != nil {
		return nil, err
	}

	return s.run(ctx, fileIDs, "move", func(ctx context.Context, fileID string) (string, objectOp, error) {
		file, err := s.files.GetByID(ctx, fileID)
		if err != nil {
			return "", nil, err
		}
		if !s.canUseSource(ctx, p, file, models.PermissionEdit, models.PermissionDelete) {
			return "", nil, denied("move file", fileID)
		}
		if models.EqualIDs(file.FolderID, &target.ID) {
			return "", nil, nil
		}

		newKey := models.FileStorageKey(target.StoragePath, file.ID, file.Name)
		if err := s.files.ReassignFolder(ctx, file.ID, &target.ID, newKey); err != nil {
			return "", nil, err
		}
		if err := s.audit.record(ctx, p, models.AuditFileMove, models.AuditResourceFile, file.ID, map[string]any{
			"from_folder_id": file.FolderID,
			"to_folder_id":   target.ID,
			"storage_key":    newKey,
		}); err != nil {
			return "", nil, err
		}

		var op objectOp
		if file.StorageKey != "" && file.StorageKey != newKey {
			oldPrefix := models.FileObjectPrefix(file.StorageKey)
			newPrefix := models.FileObjectPrefix(newKey)
			op = func(ctx context.Context) error {
				return s.objects.Relocate(ctx, oldPrefix, newPrefix)
			}
		}
		return "", op, nil
	})
}

// CopyFiles duplicates each file into targetFolderID, owned by the
// principal. Requires edit on the target and view where each file lives.
func (s *fileBatchService) CopyFiles(ctx context.Context, p models.Principal, fileIDs []string, targetFolderID string) ([]models.BatchItemResult, error) {
	target, err := s.prepareBatch(ctx, p, fileIDs, targetFolderID, "copy files into")
	if err != nil {
		return nil, err
	}

	return s.run(ctx, fileIDs, "copy", func(ctx context.Context, fileID string) (string, objectOp, error) {
		file, err := s.files.GetByID(ctx, fileID)
		if err != nil {
			return "", nil, err
		}
		if !s.canUseSource(ctx, p, file, models.PermissionView) {
			return "", nil, denied("copy file", fileID)
		}

		dup, err := s.files.Copy(ctx, file, &target.ID, p.UserID, "")
		if err != nil {
			return "", nil, err
		}
		newKey := models.FileStorageKey(target.StoragePath, dup.ID, dup.Name)
		if err := s.files.UpdateStorageKeys(ctx, map[string]string{dup.ID: newKey}); err != nil {
			return "", nil, err
		}
		if err := s.audit.record(ctx, p, models.AuditFileCopy, models.AuditResourceFile, dup.ID, map[string]any{
			"source_file_id": file.ID,
			"to_folder_id":   target.ID,
			"storage_key":    newKey,
		}); err != nil {
			return "", nil, err
		}

		var op objectOp
		if file.StorageKey != "" {
			srcPrefix := models.FileObjectPrefix(file.StorageKey)
			dstPrefix := models.FileObjectPrefix(newKey)
			op = func(ctx context.Context) error {
				return s.objects.Copy(ctx, srcPrefix, dstPrefix)
			}
		}
		return dup.ID, op, nil
	})
}

// prepareBatch validates the batch and authorizes the target folder.
func (s *fileBatchService) prepareBatch(ctx context.Context, p models.Principal, fileIDs []string, targetFolderID, action string) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("%w: file_ids is required", domain.ErrValidation)
	}
	if limit := s.policy.MaxBatchItems(); len(fileIDs) > limit {
		return nil, fmt.Errorf("%w: at most %d files per batch, got %d", domain.ErrValidation, limit, len(fileIDs))
	}
	if targetFolderID == "" {
		return nil, fmt.Errorf("%w: target_folder_id is required", domain.ErrValidation)
	}
	if !s.access.CanAccess(ctx, p, models.FolderRef(targetFolderID), models.PermissionEdit) {
		return nil, denied(action, targetFolderID)
	}
	target, err := s.tree.GetFolder(ctx, targetFolderID)
	if err != nil {
		return nil, hideMissing(err)
	}
	return target, nil
}

// canUseSource checks perms on the file's folder, or on the file itself
// when it sits at the root level.
func (s *fileBatchService) canUseSource(ctx context.Context, p models.Principal, file *models.File, perms ...models.Permission) bool {
	res := models.FileRef(file.ID)
	if file.FolderID != nil {
		res = models.FolderRef(*file.FolderID)
	}
	for _, perm := range perms {
		if !s.access.CanAccess(ctx, p, res, perm) {
			return false
		}
	}
	return true
}

// run executes fn once per file, each in its own transaction, and applies
// the returned object op after that item commits.
func (s *fileBatchService) run(ctx context.Context, fileIDs []string, verb string, fn func(ctx context.Context, fileID string) (string, objectOp, error)) ([]models.BatchItemResult, error) {
	results := make([]models.BatchItemResult, 0, len(fileIDs))
	succeeded := 0

	for _, fileID := range fileIDs {
		var (
			newID string
			op    objectOp
		)
		err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			var err error
			newID, op, err = fn(ctx, fileID)
			return err
		})

		result := models.BatchItemResult{FileID: fileID, Success: err == nil, NewFileID: newID}
		if err != nil {
			err = hideMissing(err)
			result.Error = batchErrorMessage(err)
			s.logger.Warn("batch file item failed", "op", verb, "file_id", fileID, "error", err)
		} else {
			succeeded++
			if op != nil && s.objects != nil {
				if oerr := op(ctx); oerr != nil {
					s.logger.Error("object store update failed after file "+verb,
						"file_id", fileID,
						"error", oerr,
					)
				}
			}
		}
		results = append(results, result)

		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Info("batch file operation finished",
		"op", verb,
		"requested", len(fileIDs),
		"succeeded", succeeded,
	)
	return results, nil
}

// batchErrorMessage reduces an item error to a caller-safe message.
func batchErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrConflict):
		return err.Error()
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	default:
		return "internal error"
	}
}
