package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
)

// ancestry is the slice of the tree store the materializer reads from.
type ancestry interface {
	GetAncestorChain(ctx context.Context, id string) ([]models.Folder, error)
	GetDescendants(ctx context.Context, id string) ([]models.Folder, error)
}

// PathMaterializer keeps each folder's stored storage_path equal to the
// "/"-joined names of its ancestor chain.
type PathMaterializer struct {
	tree    ancestry
	folders repositories.FolderRepository
	logger  *slog.Logger
}

// NewPathMaterializer creates a materializer over the given tree.
func NewPathMaterializer(tree ancestry, folders repositories.FolderRepository, logger *slog.Logger) *PathMaterializer {
	return &PathMaterializer{tree: tree, folders: folders, logger: logger}
}

// ComputePath joins the names of a root-first ancestor chain.
func ComputePath(chain []models.Folder) string {
	names := make([]string, len(chain))
	for i := range chain {
		names[i] = chain[i].Name
	}
	return strings.Join(names, "/")
}

// ChildPath is the path of a folder named name under parentPath.
func ChildPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "/" + name
}

// PathOf derives the path of a folder from its current ancestor chain.
func (m *PathMaterializer) PathOf(ctx context.Context, folderID string) (string, error) {
	chain, err := m.tree.GetAncestorChain(ctx, folderID)
	if err != nil {
		return "", err
	}
	return ComputePath(chain), nil
}

// Cascade recomputes the path of rootID and every descendant, persists the
// ones that changed in a single bulk update and returns them root first.
// Call it inside the transaction that renamed or moved rootID.
func (m *PathMaterializer) Cascade(ctx context.Context, rootID string) ([]models.PathChange, error) {
	chain, err := m.tree.GetAncestorChain(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("cascade paths: %w", err)
	}
	root := chain[len(chain)-1]

	descendants, err := m.tree.GetDescendants(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("cascade paths: %w", err)
	}

	newPaths := make(map[string]string, len(descendants)+1)
	newPaths[root.ID] = ComputePath(chain)

	var changes []models.PathChange
	if root.StoragePath != newPaths[root.ID] {
		changes = append(changes, models.PathChange{FolderID: root.ID, OldPath: root.StoragePath, NewPath: newPaths[root.ID]})
	}

	// descendants arrive breadth first, so a parent's path is always known
	for _, d := range descendants {
		parentPath, ok := newPaths[*d.ParentID]
		if !ok {
			return nil, fmt.Errorf("cascade paths: parent of %s not visited", d.ID)
		}
		newPaths[d.ID] = ChildPath(parentPath, d.Name)
		if d.StoragePath != newPaths[d.ID] {
			changes = append(changes, models.PathChange{FolderID: d.ID, OldPath: d.StoragePath, NewPath: newPaths[d.ID]})
		}
	}

	if len(changes) == 0 {
		return nil, nil
	}

	updates := make(map[string]string, len(changes))
	for _, c := range changes {
		updates[c.FolderID] = c.NewPath
	}
	if err := m.folders.UpdatePaths(ctx, updates); err != nil {
		return nil, fmt.Errorf("persist paths: %w", err)
	}

	m.logger.Debug("paths cascaded",
		"root_id", rootID,
		"changed", len(changes),
	)

	return changes, nil
}
