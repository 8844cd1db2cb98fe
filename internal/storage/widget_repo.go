// internal/storage/widget_repo.go
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

const widgetColumns = `id, page_id, type, config, sort_order, created_at, updated_at`

func scanWidget(row interface{ Scan(...any) error }) (*domain.WidgetInstance, error) {
	var (
		w   domain.WidgetInstance
		raw string
	)
	if err := row.Scan(&w.ID, &w.PageID, &w.Type, &raw, &w.SortOrder, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Config = map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &w.Config); err != nil {
			return nil, fmt.Errorf("corrupt config on widget %d: %w", w.ID, err)
		}
	}
	return &w, nil
}

func encodeConfig(config map[string]any) (string, error) {
	if config == nil {
		return "{}", nil
	}
	b, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode widget config: %w", err)
	}
	return string(b), nil
}

// InsertWidget stores w and sets its ID.
func InsertWidget(ctx context.Context, q Querier, w *domain.WidgetInstance) error {
	raw, err := encodeConfig(w.Config)
	if err != nil {
		return err
	}
	sqlStatement := `INSERT INTO widgets (page_id, type, config, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, sqlStatement, w.PageID, w.Type, raw, w.SortOrder, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert widget '%s' on page %d: %v", w.Type, w.PageID, err)
		return fmt.Errorf("database error creating widget: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve widget ID after creation: %w", err)
	}
	w.ID = id
	return nil
}

// GetWidget loads one widget instance.
func GetWidget(ctx context.Context, q Querier, id int64) (*domain.WidgetInstance, error) {
	row := q.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = ? LIMIT 1`, id)
	w, err := scanWidget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: widget %d", core.ErrNotFound, id)
		}
		customLog.Warnf("Storage: Failed to load widget %d: %v", id, err)
		return nil, fmt.Errorf("database error loading widget: %w", err)
	}
	return w, nil
}

// ListWidgets returns the widgets of a page in display order.
func ListWidgets(ctx context.Context, q Querier, pageID int64) ([]domain.WidgetInstance, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+widgetColumns+` FROM widgets WHERE page_id = ? ORDER BY sort_order ASC, id ASC`, pageID)
	if err != nil {
		customLog.Warnf("Storage: Error listing widgets for page %d: %v", pageID, err)
		return nil, fmt.Errorf("database error listing widgets: %w", err)
	}
	defer rows.Close()

	widgets := []domain.WidgetInstance{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing widget list: %w", err)
		}
		widgets = append(widgets, *w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating widget list: %w", err)
	}
	return widgets, nil
}

// UpdateWidget writes the type, config and sort order of w.
func UpdateWidget(ctx context.Context, q Querier, w *domain.WidgetInstance) error {
	raw, err := encodeConfig(w.Config)
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx,
		`UPDATE widgets SET type = ?, config = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		w.Type, raw, w.SortOrder, w.UpdatedAt, w.ID)
	if err != nil {
		customLog.Warnf("Storage: Failed to update widget %d: %v", w.ID, err)
		return fmt.Errorf("database error updating widget: %w", err)
	}
	return requireAffected(result, "widget", w.ID)
}

// DeleteWidget removes one widget instance.
func DeleteWidget(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete widget %d: %v", id, err)
		return fmt.Errorf("database error deleting widget: %w", err)
	}
	return requireAffected(result, "widget", id)
}

// NextWidgetSortOrder returns max(sort_order)+1 on the page.
func NextWidgetSortOrder(ctx context.Context, q Querier, pageID int64) (int, error) {
	var next int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM widgets WHERE page_id = ?`, pageID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("database error computing sort order: %w", err)
	}
	return next, nil
}
