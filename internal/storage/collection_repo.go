// internal/storage/collection_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
)

const collectionColumns = `id, project_id, name, slug, description, icon, is_system, is_active, sort_order, created_at, updated_at`

func scanCollection(row interface{ Scan(...any) error }) (*domain.Collection, error) {
	var c domain.Collection
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Slug, &c.Description, &c.Icon,
		&c.IsSystem, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCollection stores c and sets its ID. A slug already used in the project yields ErrConflict.
func InsertCollection(ctx context.Context, q Querier, c *domain.Collection) error {
	sqlStatement := `INSERT INTO collections (project_id, name, slug, description, icon, is_system, is_active, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, sqlStatement, c.ProjectID, c.Name, c.Slug, c.Description, c.Icon,
		c.IsSystem, c.IsActive, c.SortOrder, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "collections.slug") {
			return fmt.Errorf("%w: slug '%s' is already used in this project", core.ErrConflict, c.Slug)
		}
		customLog.Warnf("Storage: Failed to insert collection '%s' for project %d: %v", c.Name, c.ProjectID, err)
		return fmt.Errorf("database error creating collection: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve collection ID after creation: %w", err)
	}
	c.ID = id
	return nil
}

// GetCollection loads one collection by id, without its fields.
func GetCollection(ctx context.Context, q Querier, id int64) (*domain.Collection, error) {
	row := q.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ? LIMIT 1`, id)
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: collection %d", core.ErrNotFound, id)
		}
		customLog.Warnf("Storage: Failed to load collection %d: %v", id, err)
		return nil, fmt.Errorf("database error loading collection: %w", err)
	}
	return c, nil
}

// ListCollections returns a project's collections ordered by sort_order, then id.
func ListCollections(ctx context.Context, q Querier, projectID int64, activeOnly bool) ([]domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE project_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		customLog.Warnf("Storage: Error listing collections for project %d: %v", projectID, err)
		return nil, fmt.Errorf("database error listing collections: %w", err)
	}
	defer rows.Close()

	collections := []domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing collection list: %w", err)
		}
		collections = append(collections, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating collection list: %w", err)
	}
	return collections, nil
}

// UpdateCollection writes the mutable attributes of c.
func UpdateCollection(ctx context.Context, q Querier, c *domain.Collection) error {
	sqlStatement := `UPDATE collections SET name = ?, slug = ?, description = ?, icon = ?, is_active = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`
	result, err := q.ExecContext(ctx, sqlStatement, c.Name, c.Slug, c.Description, c.Icon, c.IsActive, c.SortOrder, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err, "collections.slug") {
			return fmt.Errorf("%w: slug '%s' is already used in this project", core.ErrConflict, c.Slug)
		}
		customLog.Warnf("Storage: Failed to update collection %d: %v", c.ID, err)
		return fmt.Errorf("database error updating collection: %w", err)
	}
	return requireAffected(result, "collection", c.ID)
}

// DeleteCollection removes a collection; fields, records and values cascade.
func DeleteCollection(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete collection %d: %v", id, err)
		return fmt.Errorf("database error deleting collection: %w", err)
	}
	return requireAffected(result, "collection", id)
}

// SlugExists reports whether slug is taken in the project by a collection other than excludeID.
func SlugExists(ctx context.Context, q Querier, projectID int64, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM collections WHERE project_id = ? AND slug = ? AND id != ?)`,
		projectID, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking slug: %w", err)
	}
	return exists, nil
}

// NextCollectionSortOrder returns max(sort_order)+1 within the project.
func NextCollectionSortOrder(ctx context.Context, q Querier, projectID int64) (int, error) {
	var next int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM collections WHERE project_id = ?`, projectID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("database error computing sort order: %w", err)
	}
	return next, nil
}

func requireAffected(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", core.ErrNotFound, entity, id)
	}
	return nil
}
