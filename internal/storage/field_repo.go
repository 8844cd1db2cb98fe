// internal/storage/field_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
)

const fieldColumns = `id, collection_id, name, label, type, default_value, is_required, is_unique, is_searchable, is_active,
	validation_rules, field_options, related_collection_id, sort_order, created_at, updated_at`

func scanField(row interface{ Scan(...any) error }) (*domain.Field, error) {
	var (
		f        domain.Field
		defValue sql.NullString
		rules    sql.NullString
		options  sql.NullString
		related  sql.NullInt64
	)
	err := row.Scan(&f.ID, &f.CollectionID, &f.Name, &f.Label, &f.Type, &defValue,
		&f.Required, &f.Unique, &f.Searchable, &f.Active,
		&rules, &options, &related, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if defValue.Valid {
		f.DefaultValue = &defValue.String
	}
	if related.Valid {
		f.RelatedCollectionID = &related.Int64
	}
	if rules.Valid && rules.String != "" {
		f.ValidationRules = &domain.ValidationRules{}
		if err := json.Unmarshal([]byte(rules.String), f.ValidationRules); err != nil {
			return nil, fmt.Errorf("corrupt validation_rules on field %d: %w", f.ID, err)
		}
	}
	if options.Valid && options.String != "" {
		f.FieldOptions = &domain.FieldOptions{}
		if err := json.Unmarshal([]byte(options.String), f.FieldOptions); err != nil {
			return nil, fmt.Errorf("corrupt field_options on field %d: %w", f.ID, err)
		}
	}
	return &f, nil
}

func nullableJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func fieldArgs(f *domain.Field) (rules, options sql.NullString, err error) {
	if rules, err = nullableJSON(f.ValidationRules, f.ValidationRules == nil); err != nil {
		return rules, options, fmt.Errorf("failed to encode validation_rules: %w", err)
	}
	if options, err = nullableJSON(f.FieldOptions, f.FieldOptions == nil); err != nil {
		return rules, options, fmt.Errorf("failed to encode field_options: %w", err)
	}
	return rules, options, nil
}

// InsertField stores f and sets its ID. A name already present in the collection yields ErrConflict.
func InsertField(ctx context.Context, q Querier, f *domain.Field) error {
	rules, options, err := fieldArgs(f)
	if err != nil {
		return err
	}
	sqlStatement := `INSERT INTO fields (collection_id, name, label, type, default_value, is_required, is_unique, is_searchable, is_active,
		validation_rules, field_options, related_collection_id, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, sqlStatement, f.CollectionID, f.Name, f.Label, f.Type, f.DefaultValue,
		f.Required, f.Unique, f.Searchable, f.Active, rules, options, f.RelatedCollectionID,
		f.SortOrder, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "fields.name") {
			return fmt.Errorf("%w: field '%s' already exists in this collection", core.ErrConflict, f.Name)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: collection %d", core.ErrNotFound, f.CollectionID)
		}
		customLog.Warnf("Storage: Failed to insert field '%s' on collection %d: %v", f.Name, f.CollectionID, err)
		return fmt.Errorf("database error creating field: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve field ID after creation: %w", err)
	}
	f.ID = id
	return nil
}

// GetField loads one field by id.
func GetField(ctx context.Context, q Querier, id int64) (*domain.Field, error) {
	row := q.QueryRowContext(ctx, `SELECT `+fieldColumns+` FROM fields WHERE id = ? LIMIT 1`, id)
	f, err := scanField(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: field %d", core.ErrNotFound, id)
		}
		customLog.Warnf("Storage: Failed to load field %d: %v", id, err)
		return nil, fmt.Errorf("database error loading field: %w", err)
	}
	return f, nil
}

// ListFields returns the live field set of a collection ordered by sort_order, then id.
func ListFields(ctx context.Context, q Querier, collectionID int64, activeOnly bool) ([]domain.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE collection_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	rows, err := q.QueryContext(ctx, query, collectionID)
	if err != nil {
		customLog.Warnf("Storage: Error listing fields for collection %d: %v", collectionID, err)
		return nil, fmt.Errorf("database error listing fields: %w", err)
	}
	defer rows.Close()

	fields := []domain.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing field list: %w", err)
		}
		fields = append(fields, *f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating field list: %w", err)
	}
	return fields, nil
}

// UpdateField writes every mutable attribute of f. The name column is never updated.
func UpdateField(ctx context.Context, q Querier, f *domain.Field) error {
	rules, options, err := fieldArgs(f)
	if err != nil {
		return err
	}
	sqlStatement := `UPDATE fields SET label = ?, type = ?, default_value = ?, is_required = ?, is_unique = ?, is_searchable = ?,
		is_active = ?, validation_rules = ?, field_options = ?, related_collection_id = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`
	result, err := q.ExecContext(ctx, sqlStatement, f.Label, f.Type, f.DefaultValue, f.Required, f.Unique, f.Searchable,
		f.Active, rules, options, f.RelatedCollectionID, f.SortOrder, f.UpdatedAt, f.ID)
	if err != nil {
		customLog.Warnf("Storage: Failed to update field %d: %v", f.ID, err)
		return fmt.Errorf("database error updating field: %w", err)
	}
	return requireAffected(result, "field", f.ID)
}

// DeleteField removes a field; its record values cascade.
func DeleteField(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM fields WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete field %d: %v", id, err)
		return fmt.Errorf("database error deleting field: %w", err)
	}
	return requireAffected(result, "field", id)
}

// FieldNameExists checks the live field set, case-sensitively.
func FieldNameExists(ctx context.Context, q Querier, collectionID int64, name string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM fields WHERE collection_id = ? AND name = ?)`, collectionID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking field name: %w", err)
	}
	return exists, nil
}

// NextFieldSortOrder returns max(sort_order)+1 within the collection.
func NextFieldSortOrder(ctx context.Context, q Querier, collectionID int64) (int, error) {
	var next int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM fields WHERE collection_id = ?`, collectionID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("database error computing sort order: %w", err)
	}
	return next, nil
}

// SetFieldUniqueKeys back-fills (enable) or clears the unique_key of every stored
// value of a field. Back-filling over duplicate values yields ErrUniquenessViolation.
func SetFieldUniqueKeys(ctx context.Context, q Querier, fieldID int64, enable bool) error {
	sqlStatement := `UPDATE record_values SET unique_key = NULL WHERE field_id = ?`
	if enable {
		sqlStatement = `UPDATE record_values SET unique_key = CASE WHEN value = '' THEN NULL ELSE value END WHERE field_id = ?`
	}
	if _, err := q.ExecContext(ctx, sqlStatement, fieldID); err != nil {
		if isUniqueViolation(err, "record_values.unique_key") {
			return fmt.Errorf("%w: existing records share a value for field %d", core.ErrUniquenessViolation, fieldID)
		}
		customLog.Warnf("Storage: Failed to set unique keys for field %d: %v", fieldID, err)
		return fmt.Errorf("database error updating unique keys: %w", err)
	}
	return nil
}
