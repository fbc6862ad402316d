package postgres

import (
	"context"
	"fmt"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const folderColumns = `id, name, parent_id, owner_id, storage_path, folder_type, color, description,
	is_locked, is_deleted, deleted_at, deleted_by, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool *pgxpool.Pool
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{pool: config.Pool}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.FolderType == "" {
		folder.FolderType = models.FolderTypeUser
	}

	query := `
		INSERT INTO folders (id, name, parent_id, owner_id, storage_path, folder_type, color, description, is_locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.ID,
		folder.Name,
		folder.ParentID,
		folder.OwnerID,
		folder.StoragePath,
		folder.FolderType,
		folder.Color,
		folder.Description,
		folder.Locked,
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return siblingConflict(folder.Name)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a live folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	return r.get(ctx, id, "")
}

// GetByIDForUpdate retrieves a folder with a row lock held until the
// surrounding transaction ends
func (r *PostgresFolderRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Folder, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresFolderRepository) get(ctx context.Context, id, lock string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM folders
		WHERE id = $1 AND is_deleted = FALSE
		%s
	`, folderColumns, lock)

	executor := GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// FindSibling returns the live folder with the given name, parent and
// owner, or nil
func (r *PostgresFolderRepository) FindSibling(ctx context.Context, parentID, ownerID *string, name string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM folders
		WHERE parent_id IS NOT DISTINCT FROM $1::uuid
		  AND owner_id IS NOT DISTINCT FROM $2::text
		  AND name = $3
		  AND is_deleted = FALSE
		LIMIT 1
	`, folderColumns)

	executor := GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, parentID, ownerID, name))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find sibling folder: %w", err)
	}
	return folder, nil
}

// ListChildren lists the live folders directly under parentID (nil = root)
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	var (
		query string
		args  []any
	)
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM folders
			WHERE parent_id IS NULL AND is_deleted = FALSE
			ORDER BY name, id
		`, folderColumns)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM folders
			WHERE parent_id = $1 AND is_deleted = FALSE
			ORDER BY name, id
		`, folderColumns)
		args = append(args, *parentID)
	}
	return r.list(ctx, "list child folders", query, args...)
}

// ListChildrenOf lists the live children of every given parent
func (r *PostgresFolderRepository) ListChildrenOf(ctx context.Context, parentIDs []string) ([]models.Folder, error) {
	if len(parentIDs) == 0 {
		return []models.Folder{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM folders
		WHERE parent_id = ANY($1::uuid[]) AND is_deleted = FALSE
		ORDER BY name, id
	`, folderColumns)
	return r.list(ctx, "list child folders", query, parentIDs)
}

// ListAll returns every live folder
func (r *PostgresFolderRepository) ListAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM folders
		WHERE is_deleted = FALSE
		ORDER BY name, id
	`, folderColumns)
	return r.list(ctx, "list folders", query)
}

func (r *PostgresFolderRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Folder, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return folders, nil
}

// Update persists name, parent, attributes and lock state
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET name = $1, parent_id = $2, color = $3, description = $4, is_locked = $5, updated_at = $6
		WHERE id = $7 AND is_deleted = FALSE
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.Color,
		folder.Description,
		folder.Locked,
		folder.UpdatedAt,
		folder.ID,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return siblingConflict(folder.Name)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdatePaths rewrites storage paths in one statement
func (r *PostgresFolderRepository) UpdatePaths(ctx context.Context, paths map[string]string) error {
	if len(paths) == 0 {
		return nil
	}
	ids := make([]string, 0, len(paths))
	values := make([]string, 0, len(paths))
	for id, path := range paths {
		ids = append(ids, id)
		values = append(values, path)
	}

	query := `
		UPDATE folders AS f
		SET storage_path = v.path, updated_at = now()
		FROM unnest($1::uuid[], $2::text[]) AS v(id, path)
		WHERE f.id = v.id
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ids, values)
	if err != nil {
		return fmt.Errorf("update folder paths: %w", err)
	}
	if result.RowsAffected() != int64(len(paths)) {
		return fmt.Errorf("update folder paths: %d of %d folders: %w", result.RowsAffected(), len(paths), domain.ErrNotFound)
	}
	return nil
}

// SoftDelete marks the given folders deleted
func (r *PostgresFolderRepository) SoftDelete(ctx context.Context, ids []string, deletedBy string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE folders
		SET is_deleted = TRUE, deleted_at = $2, deleted_by = $3, updated_at = $2
		WHERE id = ANY($1::uuid[]) AND is_deleted = FALSE
	`

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, at, deletedBy); err != nil {
		return fmt.Errorf("soft delete folders: %w", err)
	}
	return nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.ParentID,
		&folder.OwnerID,
		&folder.StoragePath,
		&folder.FolderType,
		&folder.Color,
		&folder.Description,
		&folder.Locked,
		&folder.IsDeleted,
		&folder.DeletedAt,
		&folder.DeletedBy,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func siblingConflict(name string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
		ResourceType: "folder",
	}
}
