package library

import (
	"context"
	"fmt"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
)

// GetTree builds the nested folder tree under rootID, or the whole library
// when rootID is nil. Folders the principal cannot view are pruned; a
// viewable folder whose parent was pruned is surfaced as a top-level node.
func (s *folderService) GetTree(ctx context.Context, p models.Principal, rootID *string) ([]*models.FolderTreeNode, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	var folders []models.Folder
	if rootID != nil && *rootID != "" {
		if !s.access.CanAccess(ctx, p, models.FolderRef(*rootID), models.PermissionView) {
			return nil, denied("view folder", *rootID)
		}
		root, err := s.tree.GetFolder(ctx, *rootID)
		if err != nil {
			return nil, hideMissing(err)
		}
		descendants, err := s.tree.GetDescendants(ctx, *rootID)
		if err != nil {
			return nil, err
		}
		folders = append([]models.Folder{*root}, descendants...)
	} else {
		var err error
		folders, err = s.folders.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list folders: %w", err)
		}
	}

	// Pass 1: create a node for every folder the principal can view
	nodes := make(map[string]*models.FolderTreeNode, len(folders))
	for i := range folders {
		f := &folders[i]
		perms := s.access.EffectivePermissions(ctx, p, models.FolderRef(f.ID))
		if !perms.Has(models.PermissionView) {
			continue
		}
		nodes[f.ID] = &models.FolderTreeNode{
			ID:          f.ID,
			Name:        f.Name,
			ParentID:    f.ParentID,
			StoragePath: f.StoragePath,
			FolderType:  f.FolderType,
			Locked:      f.Locked,
			Permissions: perms,
			CreatedAt:   f.CreatedAt,
			Folders:     []*models.FolderTreeNode{},
		}
	}

	// Pass 2: attach to the direct parent when visible, otherwise surface
	// as a root. Input order is name order per level, so children stay sorted.
	roots := []*models.FolderTreeNode{}
	for i := range folders {
		node, ok := nodes[folders[i].ID]
		if !ok {
			continue
		}
		if rootID != nil && node.ID == *rootID {
			roots = append(roots, node)
			continue
		}
		var parent *models.FolderTreeNode
		if node.ParentID != nil {
			parent = nodes[*node.ParentID]
		}
		if parent != nil {
			parent.Folders = append(parent.Folders, node)
		} else {
			roots = append(roots, node)
		}
	}

	return roots, nil
}

// GetBreadcrumb returns the root-first ancestor chain of a folder. Each
// item carries whether the principal can view it; the chain is returned
// in full either way.
func (s *folderService) GetBreadcrumb(ctx context.Context, p models.Principal, folderID string) ([]models.BreadcrumbItem, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if !s.access.CanAccess(ctx, p, models.FolderRef(folderID), models.PermissionView) {
		return nil, denied("view folder", folderID)
	}

	chain, err := s.tree.GetAncestorChain(ctx, folderID)
	if err != nil {
		return nil, hideMissing(err)
	}

	items := make([]models.BreadcrumbItem, len(chain))
	for i, f := range chain {
		items[i] = models.BreadcrumbItem{
			ID:         f.ID,
			Name:       f.Name,
			Accessible: s.access.CanAccess(ctx, p, models.FolderRef(f.ID), models.PermissionView),
		}
	}
	return items, nil
}

// GetContents lists one page of a folder: child folders first, then files,
// each annotated with the principal's effective permissions.
func (s *folderService) GetContents(ctx context.Context, p models.Principal, folderID string, page models.Pagination) (*services.FolderContents, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccess(ctx, p, models.FolderRef(folderID), models.PermissionView) {
		return nil, denied("view folder", folderID)
	}

	folder, err := s.tree.GetFolder(ctx, folderID)
	if err != nil {
		return nil, hideMissing(err)
	}
	children, err := s.tree.GetChildren(ctx, &folderID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	fileCount, err := s.files.CountByFolders(ctx, []string{folderID})
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	contents := &services.FolderContents{
		Folder:  folder,
		Folders: []models.FolderItem{},
		Files:   []models.FileItem{},
		Total:   len(children) + fileCount,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}

	remaining := page.Limit
	if page.Offset < len(children) {
		end := min(page.Offset+page.Limit, len(children))
		for _, c := range children[page.Offset:end] {
			contents.Folders = append(contents.Folders, models.FolderItem{
				Folder:      c,
				Permissions: s.access.EffectivePermissions(ctx, p, models.FolderRef(c.ID)),
			})
		}
		remaining -= end - page.Offset
	}

	if remaining > 0 {
		fileOffset := max(page.Offset-len(children), 0)
		files, err := s.files.ListByFolder(ctx, folderID, remaining, fileOffset)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		for _, f := range files {
			contents.Files = append(contents.Files, models.FileItem{
				File:        f,
				Permissions: s.access.EffectivePermissions(ctx, p, models.FileRef(f.ID)),
			})
		}
	}

	return contents, nil
}
