// Package records is the attribute/value record store. Values go in as loosely-typed
// literals, are validated in one batch against the live field set, and come back out
// cast through the field-type registry, keyed by field name.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/fieldtype"
	"github.com/Annany2002/nebula-studio/internal/logger"
	"github.com/Annany2002/nebula-studio/internal/metrics"
	"github.com/Annany2002/nebula-studio/internal/storage"
	"github.com/Annany2002/nebula-studio/internal/validation"
)

var (
	customLog = logger.NewLogger()
)

const validationSource = "record"

// Record is a record envelope plus its typed values.
type Record struct {
	domain.RecordHeader
	Values map[string]fieldtype.Value `json:"values"`

	types map[string]string // active field name -> type id
}

// FieldType reports the type of an active field of the record's collection.
func (r *Record) FieldType(name string) (string, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Filter restricts a query by one searchable field.
type Filter struct {
	Field string
	Op    string // storage.FilterEquals or storage.FilterContains
	Value string
}

// Query selects records of one collection.
type Query struct {
	CreatedBy string
	Filters   []Filter
	OrderBy   string
	Desc      bool
	Limit     int
	Offset    int
}

// Page is one window of a query and the total match count.
type Page struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// Store implements record CRUD over the studio database.
type Store struct {
	db        *sql.DB
	types     *fieldtype.Registry
	validator *validation.Validator
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewStore wires a Store. m may be nil.
func NewStore(db *sql.DB, types *fieldtype.Registry, m *metrics.Metrics) *Store {
	return &Store{
		db:        db,
		types:     types,
		validator: validation.NewRecordValidator(),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// fieldSet is the live schema of a collection as seen by one operation.
type fieldSet struct {
	active     []domain.Field
	byName     map[string]*domain.Field
	byID       map[int64]*domain.Field
	typeByName map[string]string
}

func (s *Store) loadFieldSet(ctx context.Context, q storage.Querier, collectionID int64) (*fieldSet, error) {
	if _, err := storage.GetCollection(ctx, q, collectionID); err != nil {
		return nil, err
	}
	active, err := storage.ListFields(ctx, q, collectionID, true)
	if err != nil {
		return nil, err
	}
	fs := &fieldSet{
		active:     active,
		byName:     make(map[string]*domain.Field, len(active)),
		byID:       make(map[int64]*domain.Field, len(active)),
		typeByName: make(map[string]string, len(active)),
	}
	for i := range active {
		f := &active[i]
		fs.byName[f.Name] = f
		fs.byID[f.ID] = f
		fs.typeByName[f.Name] = f.Type
	}
	return fs, nil
}

// unknownNames lists supplied names that are not active fields.
func (fs *fieldSet) unknownNames(values map[string]any) []string {
	var unknown []string
	for name := range values {
		if _, ok := fs.byName[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func (s *Store) typeCheck(f domain.Field) validation.Check {
	return func(value any) *core.FieldFailure {
		code, reason, ok := s.types.ValidateLiteral(f.Type, value, f.ValidationRules, f.FieldOptions)
		if ok {
			return nil
		}
		return &core.FieldFailure{Code: code, Message: reason}
	}
}

// validate checks values against the field set. On create every required field must
// be present; on update only the supplied ones are judged.
func (s *Store) validate(ctx context.Context, q storage.Querier, fs *fieldSet, values map[string]any, creating bool) []core.FieldFailure {
	schema := make(validation.Schema, 0, len(fs.active))
	for _, f := range fs.active {
		_, supplied := values[f.Name]
		schema = append(schema, validation.Property{
			Key:      f.Name,
			Required: f.Required && (creating || supplied),
			Checks:   []validation.Check{s.typeCheck(f)},
		})
	}
	failures := s.validator.Validate(values, schema)

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Field] = true
	}
	for _, f := range fs.active {
		value, ok := values[f.Name]
		if f.Type != fieldtype.RelationT || !ok || value == nil || failed[f.Name] {
			continue
		}
		if failure := s.checkRelation(ctx, q, f, value); failure != nil {
			failures = append(failures, *failure)
		}
	}
	return failures
}

func (s *Store) checkRelation(ctx context.Context, q storage.Querier, f domain.Field, value any) *core.FieldFailure {
	if f.RelatedCollectionID == nil {
		return &core.FieldFailure{Field: f.Name, Code: core.CodeRelation, Message: "the related collection no longer exists"}
	}
	id := s.types.Cast(f.Type, mustStringify(s.types, f.Type, value)).RelationID()
	exists, err := storage.RecordExists(ctx, q, *f.RelatedCollectionID, id)
	if err != nil {
		customLog.Warnf("Records: Relation check for field '%s' failed: %v", f.Name, err)
		return &core.FieldFailure{Field: f.Name, Code: core.CodeRelation, Message: "related record could not be checked"}
	}
	if !exists {
		return &core.FieldFailure{Field: f.Name, Code: core.CodeRelation, Message: fmt.Sprintf("record %d does not exist in the related collection", id)}
	}
	return nil
}

// mustStringify is only called on literals that already passed ValidateLiteral.
func mustStringify(types *fieldtype.Registry, typeID string, value any) string {
	stored, err := types.Stringify(typeID, value)
	if err != nil {
		return ""
	}
	return stored
}

func (s *Store) reject(op string, failures []core.FieldFailure) error {
	s.metrics.ObserveValidationFailures(validationSource, len(failures))
	s.metrics.ObserveRecordWrite(op, metrics.OutcomeRejected)
	return core.NewValidationError(failures)
}

// writeValues stores every supplied value; nil clears a value. Unique fields are
// checked first (fast path) and again by the store's unique index.
func (s *Store) writeValues(ctx context.Context, q storage.Querier, fs *fieldSet, recordID int64, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	stored := make(map[string]string, len(names))
	var collisions []string
	for _, name := range names {
		f := fs.byName[name]
		if values[name] == nil {
			continue
		}
		str, err := s.types.Stringify(f.Type, values[name])
		if err != nil {
			return err
		}
		stored[name] = str
		if f.Unique && str != "" {
			taken, err := storage.UniqueKeyTaken(ctx, q, f.ID, str, recordID)
			if err != nil {
				return err
			}
			if taken {
				collisions = append(collisions, name)
			}
		}
	}
	if len(collisions) > 0 {
		return &core.UniquenessError{Fields: collisions}
	}

	for _, name := range names {
		f := fs.byName[name]
		str, ok := stored[name]
		if !ok {
			if err := storage.DeleteRecordValue(ctx, q, recordID, f.ID); err != nil {
				return err
			}
			continue
		}
		var key *string
		if f.Unique && str != "" {
			key = &str
		}
		if err := storage.PutRecordValue(ctx, q, recordID, f.ID, str, key); err != nil {
			if errors.Is(err, core.ErrUniquenessViolation) {
				return &core.UniquenessError{Fields: []string{name}}
			}
			return err
		}
	}
	return nil
}

// CreateRecord validates values against the collection's live fields and stores a new
// record owned by ownerID. Unsupplied fields with a default get the default.
func (s *Store) CreateRecord(ctx context.Context, collectionID int64, ownerID string, values map[string]any) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fs, err := s.loadFieldSet(ctx, tx, collectionID)
	if err != nil {
		return nil, err
	}
	if unknown := fs.unknownNames(values); len(unknown) > 0 {
		s.metrics.ObserveRecordWrite("create", metrics.OutcomeRejected)
		return nil, core.NewUnknownFieldError(unknown)
	}

	merged := make(map[string]any, len(fs.active))
	for k, v := range values {
		merged[k] = v
	}
	for _, f := range fs.active {
		if v, ok := merged[f.Name]; (!ok || v == nil) && f.DefaultValue != nil {
			// defaults are kept in stored form
			merged[f.Name] = s.types.Cast(f.Type, *f.DefaultValue).Native()
		}
	}

	if failures := s.validate(ctx, tx, fs, merged, true); len(failures) > 0 {
		return nil, s.reject("create", failures)
	}

	now := s.now()
	header := &domain.RecordHeader{
		UUID:         uuid.New().String(),
		CollectionID: collectionID,
		CreatedBy:    ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := storage.InsertRecord(ctx, tx, header); err != nil {
		return nil, err
	}
	if err := s.writeValues(ctx, tx, fs, header.ID, merged); err != nil {
		s.metrics.ObserveRecordWrite("create", metrics.OutcomeRejected)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit record: %w", err)
	}

	s.metrics.ObserveRecordWrite("create", metrics.OutcomeOK)
	customLog.Debugf("Records: Created record %d in collection %d", header.ID, collectionID)
	return s.GetRecord(ctx, collectionID, header.ID)
}

// UpdateRecord applies a partial update. Supplied values are validated like on create;
// fields not supplied keep their values, and a nil value clears one.
func (s *Store) UpdateRecord(ctx context.Context, collectionID, recordID int64, values map[string]any) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.loadHeader(ctx, tx, collectionID, recordID); err != nil {
		return nil, err
	}
	fs, err := s.loadFieldSet(ctx, tx, collectionID)
	if err != nil {
		return nil, err
	}
	if unknown := fs.unknownNames(values); len(unknown) > 0 {
		s.metrics.ObserveRecordWrite("update", metrics.OutcomeRejected)
		return nil, core.NewUnknownFieldError(unknown)
	}
	if failures := s.validate(ctx, tx, fs, values, false); len(failures) > 0 {
		return nil, s.reject("update", failures)
	}
	if err := s.writeValues(ctx, tx, fs, recordID, values); err != nil {
		s.metrics.ObserveRecordWrite("update", metrics.OutcomeRejected)
		return nil, err
	}
	if err := storage.TouchRecord(ctx, tx, recordID, s.now()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit record update: %w", err)
	}

	s.metrics.ObserveRecordWrite("update", metrics.OutcomeOK)
	return s.GetRecord(ctx, collectionID, recordID)
}

// DeleteRecord removes a record of the stated collection.
func (s *Store) DeleteRecord(ctx context.Context, collectionID, recordID int64) error {
	if _, err := s.loadHeader(ctx, s.db, collectionID, recordID); err != nil {
		return err
	}
	if err := storage.DeleteRecord(ctx, s.db, recordID); err != nil {
		return err
	}
	s.metrics.ObserveRecordWrite("delete", metrics.OutcomeOK)
	return nil
}

func (s *Store) loadHeader(ctx context.Context, q storage.Querier, collectionID, recordID int64) (*domain.RecordHeader, error) {
	h, err := storage.GetRecordHeader(ctx, q, recordID)
	if err != nil {
		return nil, err
	}
	if h.CollectionID != collectionID {
		return nil, fmt.Errorf("%w: record %d is not part of collection %d", core.ErrMismatch, recordID, collectionID)
	}
	return h, nil
}

// ReadRecord loads any record by id with its cast values.
func (s *Store) ReadRecord(ctx context.Context, recordID int64) (*Record, error) {
	h, err := storage.GetRecordHeader(ctx, s.db, recordID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, h)
}

// GetRecord loads a record that must belong to the stated collection.
func (s *Store) GetRecord(ctx context.Context, collectionID, recordID int64) (*Record, error) {
	h, err := s.loadHeader(ctx, s.db, collectionID, recordID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, h)
}

func (s *Store) hydrateOne(ctx context.Context, h *domain.RecordHeader) (*Record, error) {
	fs, err := s.loadFieldSet(ctx, s.db, h.CollectionID)
	if err != nil {
		return nil, err
	}
	recs, err := s.hydrate(ctx, fs, []domain.RecordHeader{*h})
	if err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// hydrate attaches cast values to headers. Values of fields that are inactive or were
// removed meanwhile are left out.
func (s *Store) hydrate(ctx context.Context, fs *fieldSet, headers []domain.RecordHeader) ([]Record, error) {
	ids := make([]int64, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
	}
	stored, err := storage.ListRecordValues(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(headers))
	for i, h := range headers {
		rec := Record{RecordHeader: h, Values: make(map[string]fieldtype.Value), types: fs.typeByName}
		for _, v := range stored[h.ID] {
			f, ok := fs.byID[v.FieldID]
			if !ok {
				continue
			}
			rec.Values[f.Name] = s.types.Cast(f.Type, v.Value)
		}
		out[i] = rec
	}
	return out, nil
}

// QueryRecords lists records of a collection. Filters must name searchable active
// fields; equality filters compare against the canonical stored form.
func (s *Store) QueryRecords(ctx context.Context, collectionID int64, q Query) (*Page, error) {
	fs, err := s.loadFieldSet(ctx, s.db, collectionID)
	if err != nil {
		return nil, err
	}

	rq := storage.RecordQuery{
		CollectionID: collectionID,
		CreatedBy:    q.CreatedBy,
		OrderBy:      q.OrderBy,
		Desc:         q.Desc,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	var unknown []string
	var failures []core.FieldFailure
	for _, flt := range q.Filters {
		f, ok := fs.byName[flt.Field]
		if !ok {
			unknown = append(unknown, flt.Field)
			continue
		}
		if !f.Searchable {
			failures = append(failures, core.FieldFailure{
				Field: flt.Field, Code: core.CodeFilter, Message: "field is not searchable",
			})
			continue
		}
		value := flt.Value
		if flt.Op == storage.FilterEquals {
			if literal, err := s.types.ParseText(f.Type, flt.Value); err == nil {
				if canonical, err := s.types.Stringify(f.Type, literal); err == nil {
					value = canonical
				}
			}
		}
		rq.Filters = append(rq.Filters, storage.ValueFilter{FieldID: f.ID, Op: flt.Op, Value: value})
	}
	if len(unknown) > 0 {
		return nil, core.NewUnknownFieldError(unknown)
	}
	if len(failures) > 0 {
		return nil, core.NewValidationError(failures)
	}

	headers, total, err := storage.QueryRecordHeaders(ctx, s.db, rq)
	if err != nil {
		return nil, err
	}
	recs, err := s.hydrate(ctx, fs, headers)
	if err != nil {
		return nil, err
	}
	return &Page{Records: recs, Total: total}, nil
}

// FieldTypes maps the active field names of a collection to their type ids.
func (s *Store) FieldTypes(ctx context.Context, collectionID int64) (map[string]string, error) {
	fs, err := s.loadFieldSet(ctx, s.db, collectionID)
	if err != nil {
		return nil, err
	}
	return fs.typeByName, nil
}

// SelectRecord picks the record a data binding displays. "single" needs recordID;
// "first", "last" and "random" pick among the collection's records. A non-empty
// ownerID restricts the choice to records that user created. ErrNotFound means
// nothing could be resolved.
func (s *Store) SelectRecord(ctx context.Context, collectionID int64, mode string, recordID *int64, ownerID string) (*Record, error) {
	var id int64
	switch mode {
	case domain.DisplaySingle:
		if recordID == nil {
			return nil, fmt.Errorf("%w: display mode 'single' needs a record id", core.ErrNotFound)
		}
		h, err := s.loadHeader(ctx, s.db, collectionID, *recordID)
		if err != nil {
			return nil, err
		}
		if ownerID != "" && h.CreatedBy != ownerID {
			return nil, fmt.Errorf("%w: record %d", core.ErrNotFound, *recordID)
		}
		return s.hydrateOne(ctx, h)
	default:
		var err error
		if id, err = storage.SelectRecordID(ctx, s.db, collectionID, mode, ownerID); err != nil {
			return nil, err
		}
	}
	return s.GetRecord(ctx, collectionID, id)
}
