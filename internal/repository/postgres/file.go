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

const fileColumns = `id, name, folder_id, owner_id, storage_key, content_type, size_bytes,
	is_deleted, deleted_at, deleted_by, created_at, updated_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{pool: config.Pool}
}

// Create inserts a file row
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}

	query := `
		INSERT INTO files (id, name, folder_id, owner_id, storage_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.ID,
		file.Name,
		file.FolderID,
		file.OwnerID,
		file.StorageKey,
		file.ContentType,
		file.SizeBytes,
	).Scan(&file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder for file %s: %w", file.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// GetByID retrieves a live file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM files
		WHERE id = $1 AND is_deleted = FALSE
	`, fileColumns)

	executor := GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// ListByFolder lists one page of a folder's files ordered by name
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string, limit, offset int) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM files
		WHERE folder_id = $1 AND is_deleted = FALSE
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`, fileColumns)

	// LIMIT NULL means no limit
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return r.list(ctx, "list files", query, folderID, lim, offset)
}

// CountByFolders counts live files in any of the given folders
func (r *PostgresFileRepository) CountByFolders(ctx context.Context, folderIDs []string) (int, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	query := `
		SELECT count(*) FROM files
		WHERE folder_id = ANY($1::uuid[]) AND is_deleted = FALSE
	`

	var n int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, folderIDs).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// ListInFolders lists every live file in any of the given folders
func (r *PostgresFileRepository) ListInFolders(ctx context.Context, folderIDs []string) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return []models.File{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM files
		WHERE folder_id = ANY($1::uuid[]) AND is_deleted = FALSE
		ORDER BY id
	`, fileColumns)
	return r.list(ctx, "list files", query, folderIDs)
}

// ReassignFolder moves a file to another folder and storage key
func (r *PostgresFileRepository) ReassignFolder(ctx context.Context, fileID string, folderID *string, storageKey string) error {
	query := `
		UPDATE files
		SET folder_id = $1, storage_key = $2, updated_at = now()
		WHERE id = $3 AND is_deleted = FALSE
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, folderID, storageKey, fileID)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("reassign file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	return nil
}

// UpdateStorageKeys rewrites storage keys in one statement
func (r *PostgresFileRepository) UpdateStorageKeys(ctx context.Context, keys map[string]string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, 0, len(keys))
	values := make([]string, 0, len(keys))
	for id, key := range keys {
		ids = append(ids, id)
		values = append(values, key)
	}

	query := `
		UPDATE files AS f
		SET storage_key = v.key, updated_at = now()
		FROM unnest($1::uuid[], $2::text[]) AS v(id, key)
		WHERE f.id = v.id AND f.is_deleted = FALSE
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ids, values)
	if err != nil {
		return fmt.Errorf("update storage keys: %w", err)
	}
	if result.RowsAffected() != int64(len(keys)) {
		return fmt.Errorf("update storage keys: %d of %d files: %w", result.RowsAffected(), len(keys), domain.ErrNotFound)
	}
	return nil
}

// SoftDeleteInFolders marks every live file in the folders deleted
func (r *PostgresFileRepository) SoftDeleteInFolders(ctx context.Context, folderIDs []string, deletedBy string, at time.Time) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE files
		SET is_deleted = TRUE, deleted_at = $2, deleted_by = $3, updated_at = $2
		WHERE folder_id = ANY($1::uuid[]) AND is_deleted = FALSE
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, folderIDs, at, deletedBy)
	if err != nil {
		return 0, fmt.Errorf("soft delete files: %w", err)
	}
	return result.RowsAffected(), nil
}

// Copy inserts a duplicate of src under a new ID
func (r *PostgresFileRepository) Copy(ctx context.Context, src *models.File, folderID *string, ownerID, storageKey string) (*models.File, error) {
	dup := &models.File{
		Name:        src.Name,
		FolderID:    folderID,
		OwnerID:     &ownerID,
		StorageKey:  storageKey,
		ContentType: src.ContentType,
		SizeBytes:   src.SizeBytes,
	}
	if err := r.Create(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *PostgresFileRepository) list(ctx context.Context, op, query string, args ...any) ([]models.File, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return files, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.FolderID,
		&file.OwnerID,
		&file.StorageKey,
		&file.ContentType,
		&file.SizeBytes,
		&file.IsDeleted,
		&file.DeletedAt,
		&file.DeletedBy,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
