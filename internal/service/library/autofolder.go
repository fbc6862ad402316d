package library

import (
	"context"
	"fmt"
	"time"

	"assetlib/internal/domain/models"
)

// EnsureDateFolder resolves the YYYY/MM auto folders for date under
// parentID, creating whichever level is missing. Folders are reused by
// (parent, name, owner) so repeated calls return the same month folder.
func (s *folderService) EnsureDateFolder(ctx context.Context, p models.Principal, parentID *string, date time.Time) (*models.Folder, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if !s.access.CanAccess(ctx, p, models.FolderRef(*parentID), models.PermissionEdit) {
			return nil, denied("create folder in", *parentID)
		}
	}

	date = date.UTC()
	names := []string{
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
	}

	ownerID := p.UserID
	var (
		month   *models.Folder
		created []string
	)
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		created = created[:0]
		current := parentID
		for _, name := range names {
			folder, err := s.folders.FindSibling(ctx, current, &ownerID, name)
			if err != nil {
				return fmt.Errorf("find auto folder %q: %w", name, err)
			}
			if folder == nil {
				folder, err = s.tree.CreateFolder(ctx, name, current, &ownerID, models.FolderAttrs{
					FolderType: models.FolderTypeAuto,
				})
				if err != nil {
					return err
				}
				if err := s.audit.record(ctx, p, models.AuditFolderCreate, models.AuditResourceFolder, folder.ID, map[string]any{
					"name":      folder.Name,
					"parent_id": folder.ParentID,
					"path":      folder.StoragePath,
					"auto":      true,
				}); err != nil {
					return err
				}
				created = append(created, folder.ID)
			}
			current = &folder.ID
			month = folder
		}
		return nil
	})
	if err != nil {
		return nil, hideMissing(err)
	}

	if len(created) > 0 {
		s.logger.Info("date folders created",
			"parent_id", parentID,
			"owner_id", ownerID,
			"path", month.StoragePath,
			"created", len(created),
		)
	}
	return month, nil
}
