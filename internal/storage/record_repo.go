// internal/storage/record_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
)

// Filter operators understood by QueryRecordHeaders.
const (
	FilterEquals   = "eq"
	FilterContains = "contains"
)

// ValueFilter restricts records by the stored value of one field.
type ValueFilter struct {
	FieldID int64
	Op      string
	Value   string
}

// RecordQuery is the store-level form of a record listing.
type RecordQuery struct {
	CollectionID int64
	CreatedBy    string
	Filters      []ValueFilter
	OrderBy      string // created_at, updated_at or id
	Desc         bool
	Limit        int
	Offset       int
}

var recordOrderColumns = map[string]string{
	"created_at": "r.created_at",
	"updated_at": "r.updated_at",
	"id":         "r.id",
}

const recordColumns = `r.id, r.uuid, r.collection_id, r.created_by, r.created_at, r.updated_at`

func scanRecordHeader(row interface{ Scan(...any) error }) (*domain.RecordHeader, error) {
	var h domain.RecordHeader
	if err := row.Scan(&h.ID, &h.UUID, &h.CollectionID, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// InsertRecord stores the envelope of a record and sets its ID.
func InsertRecord(ctx context.Context, q Querier, h *domain.RecordHeader) error {
	sqlStatement := `INSERT INTO records (uuid, collection_id, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, sqlStatement, h.UUID, h.CollectionID, h.CreatedBy, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: collection %d", core.ErrNotFound, h.CollectionID)
		}
		customLog.Warnf("Storage: Failed to insert record in collection %d: %v", h.CollectionID, err)
		return fmt.Errorf("database error creating record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve record ID after creation: %w", err)
	}
	h.ID = id
	return nil
}

// GetRecordHeader loads the envelope of one record.
func GetRecordHeader(ctx context.Context, q Querier, id int64) (*domain.RecordHeader, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records r WHERE r.id = ? LIMIT 1`, id)
	h, err := scanRecordHeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: record %d", core.ErrNotFound, id)
		}
		customLog.Warnf("Storage: Failed to load record %d: %v", id, err)
		return nil, fmt.Errorf("database error loading record: %w", err)
	}
	return h, nil
}

// TouchRecord bumps updated_at.
func TouchRecord(ctx context.Context, q Querier, id int64, at time.Time) error {
	result, err := q.ExecContext(ctx, `UPDATE records SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("database error updating record: %w", err)
	}
	return requireAffected(result, "record", id)
}

// DeleteRecord removes a record and, by cascade, its values.
func DeleteRecord(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete record %d: %v", id, err)
		return fmt.Errorf("database error deleting record: %w", err)
	}
	return requireAffected(result, "record", id)
}

// RecordExists reports whether a record with id lives in the collection.
func RecordExists(ctx context.Context, q Querier, collectionID, id int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM records WHERE id = ? AND collection_id = ?)`, id, collectionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking record: %w", err)
	}
	return exists, nil
}

// PutRecordValue inserts or replaces the stored value of one field on a record.
// A non-nil uniqueKey collides with equal keys of the same field as ErrUniquenessViolation.
func PutRecordValue(ctx context.Context, q Querier, recordID, fieldID int64, value string, uniqueKey *string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE record_values SET value = ?, unique_key = ? WHERE record_id = ? AND field_id = ?`,
		value, uniqueKey, recordID, fieldID)
	if err == nil {
		var n int64
		if n, err = result.RowsAffected(); err == nil && n == 0 {
			_, err = q.ExecContext(ctx,
				`INSERT INTO record_values (record_id, field_id, value, unique_key) VALUES (?, ?, ?, ?)`,
				recordID, fieldID, value, uniqueKey)
		}
	}
	if err != nil {
		if isUniqueViolation(err, "record_values.unique_key") {
			return fmt.Errorf("%w: field %d", core.ErrUniquenessViolation, fieldID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: field %d no longer exists", core.ErrUnknownField, fieldID)
		}
		customLog.Warnf("Storage: Failed to write value of field %d on record %d: %v", fieldID, recordID, err)
		return fmt.Errorf("database error writing record value: %w", err)
	}
	return nil
}

// DeleteRecordValue unsets one field on a record.
func DeleteRecordValue(ctx context.Context, q Querier, recordID, fieldID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM record_values WHERE record_id = ? AND field_id = ?`, recordID, fieldID); err != nil {
		return fmt.Errorf("database error clearing record value: %w", err)
	}
	return nil
}

// UniqueKeyTaken reports whether a record other than excludeRecordID already holds key for the field.
func UniqueKeyTaken(ctx context.Context, q Querier, fieldID int64, key string, excludeRecordID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM record_values WHERE field_id = ? AND unique_key = ? AND record_id != ?)`,
		fieldID, key, excludeRecordID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking unique value: %w", err)
	}
	return exists, nil
}

// ListRecordValues batch-loads the stored values of the given records, keyed by record id.
func ListRecordValues(ctx context.Context, q Querier, recordIDs []int64) (map[int64][]domain.RecordValue, error) {
	out := make(map[int64][]domain.RecordValue, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(recordIDs)), ",")
	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT record_id, field_id, value FROM record_values WHERE record_id IN (%s)`, placeholders)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		customLog.Warnf("Storage: Error loading record values: %v", err)
		return nil, fmt.Errorf("database error loading record values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.RecordValue
		if err := rows.Scan(&v.RecordID, &v.FieldID, &v.Value); err != nil {
			return nil, fmt.Errorf("failed processing record values: %w", err)
		}
		out[v.RecordID] = append(out[v.RecordID], v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating record values: %w", err)
	}
	return out, nil
}

// ListFieldValues loads every stored value of one field across all records.
func ListFieldValues(ctx context.Context, q Querier, fieldID int64) ([]domain.RecordValue, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT record_id, field_id, value FROM record_values WHERE field_id = ? ORDER BY record_id`, fieldID)
	if err != nil {
		customLog.Warnf("Storage: Error loading values of field %d: %v", fieldID, err)
		return nil, fmt.Errorf("database error loading field values: %w", err)
	}
	defer rows.Close()

	var out []domain.RecordValue
	for rows.Next() {
		var v domain.RecordValue
		if err := rows.Scan(&v.RecordID, &v.FieldID, &v.Value); err != nil {
			return nil, fmt.Errorf("failed processing field values: %w", err)
		}
		out = append(out, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating field values: %w", err)
	}
	return out, nil
}

// QueryRecordHeaders lists record envelopes matching rq and the total count before paging.
func QueryRecordHeaders(ctx context.Context, q Querier, rq RecordQuery) ([]domain.RecordHeader, int, error) {
	var (
		where strings.Builder
		args  []any
	)
	where.WriteString(` WHERE r.collection_id = ?`)
	args = append(args, rq.CollectionID)

	if rq.CreatedBy != "" {
		where.WriteString(` AND r.created_by = ?`)
		args = append(args, rq.CreatedBy)
	}
	for _, f := range rq.Filters {
		switch f.Op {
		case FilterEquals:
			where.WriteString(` AND EXISTS (SELECT 1 FROM record_values rv WHERE rv.record_id = r.id AND rv.field_id = ? AND rv.value = ?)`)
			args = append(args, f.FieldID, f.Value)
		case FilterContains:
			where.WriteString(` AND EXISTS (SELECT 1 FROM record_values rv WHERE rv.record_id = r.id AND rv.field_id = ? AND rv.value LIKE ? ESCAPE '\')`)
			args = append(args, f.FieldID, "%"+escapeLike(f.Value)+"%")
		default:
			return nil, 0, fmt.Errorf("unsupported filter operator '%s'", f.Op)
		}
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM records r`+where.String(), args...).Scan(&total); err != nil {
		customLog.Warnf("Storage: Error counting records for collection %d: %v", rq.CollectionID, err)
		return nil, 0, fmt.Errorf("database error counting records: %w", err)
	}

	orderCol, ok := recordOrderColumns[rq.OrderBy]
	if !ok {
		orderCol = recordOrderColumns["created_at"]
	}
	direction := "ASC"
	if rq.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM records r%s ORDER BY %s %s, r.id %s`, recordColumns, where.String(), orderCol, direction, direction)
	pageArgs := args
	if rq.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(append([]any{}, args...), rq.Limit, rq.Offset)
	}

	rows, err := q.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		customLog.Warnf("Storage: Error querying records for collection %d: %v", rq.CollectionID, err)
		return nil, 0, fmt.Errorf("database error querying records: %w", err)
	}
	defer rows.Close()

	headers := []domain.RecordHeader{}
	for rows.Next() {
		h, err := scanRecordHeader(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed processing record list: %w", err)
		}
		headers = append(headers, *h)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed iterating record list: %w", err)
	}
	return headers, total, nil
}

// SelectRecordID picks one record of a collection for data binding: "first" and
// "last" by creation time, "random" uniformly. An empty ownerID means any owner.
// It returns ErrNotFound when the collection has no eligible record.
func SelectRecordID(ctx context.Context, q Querier, collectionID int64, mode, ownerID string) (int64, error) {
	var order string
	switch mode {
	case domain.DisplayFirst:
		order = `created_at ASC, id ASC`
	case domain.DisplayLast:
		order = `created_at DESC, id DESC`
	case domain.DisplayRandom:
		order = `RANDOM()`
	default:
		return 0, fmt.Errorf("unsupported display mode '%s'", mode)
	}

	query := `SELECT id FROM records WHERE collection_id = ?`
	args := []any{collectionID}
	if ownerID != "" {
		query += ` AND created_by = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY ` + order + ` LIMIT 1`

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: no record in collection %d", core.ErrNotFound, collectionID)
		}
		return 0, fmt.Errorf("database error selecting record: %w", err)
	}
	return id, nil
}
