// Package schema manages collections and their field definitions.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/fieldtype"
	"github.com/Annany2002/nebula-studio/internal/logger"
	"github.com/Annany2002/nebula-studio/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// fallbackSlug is used when a name slugifies to nothing, e.g. "!!!".
const fallbackSlug = "collection"

// CollectionAttrs are the user-settable attributes of a new collection.
type CollectionAttrs struct {
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"max=128"`
	Description string `json:"description" validate:"max=1000"`
	Icon        string `json:"icon" validate:"max=64"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   *int   `json:"sort_order"`
	// IsSystem is only set by seeding code; the HTTP layer never exposes it.
	IsSystem bool `json:"-"`
}

// CollectionUpdate is a partial update; nil members are left unchanged.
type CollectionUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Slug        *string `json:"slug" validate:"omitempty,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Icon        *string `json:"icon" validate:"omitempty,max=64"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// FieldAttrs are the attributes of a new field.
type FieldAttrs struct {
	Name                string                  `json:"name" validate:"required,max=64"`
	Label               string                  `json:"label" validate:"max=128"`
	Type                string                  `json:"type" validate:"required"`
	DefaultValue        *string                 `json:"default_value"`
	Required            bool                    `json:"required"`
	Unique              bool                    `json:"unique"`
	Searchable          bool                    `json:"searchable"`
	Active              *bool                   `json:"active"`
	ValidationRules     *domain.ValidationRules `json:"validation_rules"`
	FieldOptions        *domain.FieldOptions    `json:"field_options"`
	RelatedCollectionID *int64                  `json:"related_collection_id"`
	SortOrder           *int                    `json:"sort_order"`
}

// FieldUpdate is a partial update. Name may be sent but must not change; a
// rename is a remove plus an add.
type FieldUpdate struct {
	Name                *string                 `json:"name"`
	Label               *string                 `json:"label" validate:"omitempty,max=128"`
	Type                *string                 `json:"type"`
	DefaultValue        *string                 `json:"default_value"` // "" clears the default
	Required            *bool                   `json:"required"`
	Unique              *bool                   `json:"unique"`
	Searchable          *bool                   `json:"searchable"`
	Active              *bool                   `json:"active"`
	ValidationRules     *domain.ValidationRules `json:"validation_rules"`
	FieldOptions        *domain.FieldOptions    `json:"field_options"`
	RelatedCollectionID *int64                  `json:"related_collection_id"`
	SortOrder           *int                    `json:"sort_order"`
}

// Service implements collection and field management over the studio database.
type Service struct {
	db    *sql.DB
	types *fieldtype.Registry
	now   func() time.Time
}

// NewService wires a Service to its store and field-type registry.
func NewService(db *sql.DB, types *fieldtype.Registry) *Service {
	return &Service{db: db, types: types, now: func() time.Time { return time.Now().UTC() }}
}

// Types exposes the field-type registry the service validates against.
func (s *Service) Types() *fieldtype.Registry { return s.types }

// --- Collections ---

// CreateCollection creates a collection in the project. Without an explicit slug one is
// derived from the name and suffixed (-2, -3, ...) until free; an explicit slug already
// in use is a Conflict.
func (s *Service) CreateCollection(ctx context.Context, projectID int64, attrs CollectionAttrs) (*domain.Collection, error) {
	if err := core.ValidateStruct(attrs); err != nil {
		return nil, err
	}
	if attrs.Slug != "" && !core.IsValidSlug(attrs.Slug) {
		return nil, core.NewValidationError([]core.FieldFailure{{
			Field: "slug", Code: core.CodePattern, Message: "slug may contain only lowercase letters, digits and single hyphens",
		}})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slug := attrs.Slug
	if slug == "" {
		if slug, err = s.freeSlug(ctx, tx, projectID, attrs.Name); err != nil {
			return nil, err
		}
	} else if taken, err := storage.SlugExists(ctx, tx, projectID, slug, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: slug '%s' is already used in this project", core.ErrConflict, slug)
	}

	sortOrder := 0
	if attrs.SortOrder != nil {
		sortOrder = *attrs.SortOrder
	} else if sortOrder, err = storage.NextCollectionSortOrder(ctx, tx, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &domain.Collection{
		ProjectID:   projectID,
		Name:        attrs.Name,
		Slug:        slug,
		Description: attrs.Description,
		Icon:        attrs.Icon,
		IsSystem:    attrs.IsSystem,
		IsActive:    attrs.IsActive == nil || *attrs.IsActive,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := storage.InsertCollection(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit collection: %w", err)
	}

	customLog.Printf("Schema: Created collection %d '%s' (slug '%s') in project %d", c.ID, c.Name, c.Slug, projectID)
	c.Fields = []domain.Field{}
	return c, nil
}

func (s *Service) freeSlug(ctx context.Context, q storage.Querier, projectID int64, name string) (string, error) {
	base := core.Slugify(name)
	if base == "" {
		base = fallbackSlug
	}
	candidate := base
	for n := 2; ; n++ {
		taken, err := storage.SlugExists(ctx, q, projectID, candidate, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// loadCollection fetches a collection and checks it belongs to projectID.
func (s *Service) loadCollection(ctx context.Context, q storage.Querier, projectID, id int64) (*domain.Collection, error) {
	c, err := storage.GetCollection(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if c.ProjectID != projectID {
		customLog.Warnf("Schema: Collection %d referenced from project %d but belongs to project %d", id, projectID, c.ProjectID)
		return nil, fmt.Errorf("%w: collection %d is not part of project %d", core.ErrMismatch, id, projectID)
	}
	return c, nil
}

// GetCollection returns the collection with its full ordered field set.
func (s *Service) GetCollection(ctx context.Context, projectID, id int64) (*domain.Collection, error) {
	c, err := s.loadCollection(ctx, s.db, projectID, id)
	if err != nil {
		return nil, err
	}
	if c.Fields, err = storage.ListFields(ctx, s.db, id, false); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollections lists a project's collections in sort order.
func (s *Service) ListCollections(ctx context.Context, projectID int64, activeOnly bool) ([]domain.Collection, error) {
	return storage.ListCollections(ctx, s.db, projectID, activeOnly)
}

// UpdateCollection applies a partial update. is_system cannot be changed here.
func (s *Service) UpdateCollection(ctx context.Context, projectID, id int64, upd CollectionUpdate) (*domain.Collection, error) {
	if err := core.ValidateStruct(upd); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := s.loadCollection(ctx, tx, projectID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Slug != nil && *upd.Slug != c.Slug {
		if !core.IsValidSlug(*upd.Slug) {
			return nil, core.NewValidationError([]core.FieldFailure{{
				Field: "slug", Code: core.CodePattern, Message: "slug may contain only lowercase letters, digits and single hyphens",
			}})
		}
		taken, err := storage.SlugExists(ctx, tx, projectID, *upd.Slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: slug '%s' is already used in this project", core.ErrConflict, *upd.Slug)
		}
		c.Slug = *upd.Slug
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}
	if upd.SortOrder != nil {
		c.SortOrder = *upd.SortOrder
	}
	c.UpdatedAt = s.now()

	if err := storage.UpdateCollection(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit collection update: %w", err)
	}
	return s.GetCollection(ctx, projectID, id)
}

// DeleteCollection removes a non-system collection with its fields and records.
func (s *Service) DeleteCollection(ctx context.Context, projectID, id int64) error {
	c, err := s.loadCollection(ctx, s.db, projectID, id)
	if err != nil {
		return err
	}
	if c.IsSystem {
		return fmt.Errorf("%w: collection '%s' is a system collection", core.ErrProtected, c.Name)
	}
	if err := storage.DeleteCollection(ctx, s.db, id); err != nil {
		return err
	}
	customLog.Printf("Schema: Deleted collection %d '%s' from project %d", id, c.Name, projectID)
	return nil
}

// --- Fields ---

// ListFields returns the ordered field set of a collection.
func (s *Service) ListFields(ctx context.Context, projectID, collectionID int64) ([]domain.Field, error) {
	if _, err := s.loadCollection(ctx, s.db, projectID, collectionID); err != nil {
		return nil, err
	}
	return storage.ListFields(ctx, s.db, collectionID, false)
}

// GetField returns one field, which must belong to the stated collection.
func (s *Service) GetField(ctx context.Context, projectID, collectionID, fieldID int64) (*domain.Field, error) {
	if _, err := s.loadCollection(ctx, s.db, projectID, collectionID); err != nil {
		return nil, err
	}
	return s.loadField(ctx, s.db, collectionID, fieldID)
}

func (s *Service) loadField(ctx context.Context, q storage.Querier, collectionID, fieldID int64) (*domain.Field, error) {
	f, err := storage.GetField(ctx, q, fieldID)
	if err != nil {
		return nil, err
	}
	if f.CollectionID != collectionID {
		customLog.Warnf("Schema: Field %d referenced through collection %d but belongs to collection %d", fieldID, collectionID, f.CollectionID)
		return nil, fmt.Errorf("%w: field %d is not part of collection %d", core.ErrMismatch, fieldID, collectionID)
	}
	return f, nil
}

// AddField adds a field. The name check runs inside the write transaction against the
// live field set, and the (collection_id, name) unique index backs it up.
func (s *Service) AddField(ctx context.Context, projectID, collectionID int64, attrs FieldAttrs) (*domain.Field, error) {
	if err := core.ValidateStruct(attrs); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.loadCollection(ctx, tx, projectID, collectionID); err != nil {
		return nil, err
	}

	now := s.now()
	f := &domain.Field{
		CollectionID:        collectionID,
		Name:                attrs.Name,
		Label:               attrs.Label,
		Type:                attrs.Type,
		DefaultValue:        attrs.DefaultValue,
		Required:            attrs.Required,
		Unique:              attrs.Unique,
		Searchable:          attrs.Searchable,
		Active:              attrs.Active == nil || *attrs.Active,
		ValidationRules:     attrs.ValidationRules,
		FieldOptions:        attrs.FieldOptions,
		RelatedCollectionID: attrs.RelatedCollectionID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if f.Label == "" {
		f.Label = f.Name
	}

	failures := validateFieldName(f.Name)
	failures = append(failures, s.validateFieldDefinition(f)...)
	if len(failures) > 0 {
		return nil, core.NewValidationError(failures)
	}
	if err := s.checkRelationTarget(ctx, tx, projectID, f); err != nil {
		return nil, err
	}

	exists, err := storage.FieldNameExists(ctx, tx, collectionID, f.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: field '%s' already exists in this collection", core.ErrConflict, f.Name)
	}

	if attrs.SortOrder != nil {
		f.SortOrder = *attrs.SortOrder
	} else if f.SortOrder, err = storage.NextFieldSortOrder(ctx, tx, collectionID); err != nil {
		return nil, err
	}

	if err := storage.InsertField(ctx, tx, f); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit field: %w", err)
	}

	customLog.Printf("Schema: Added field '%s' (%s) to collection %d", f.Name, f.Type, collectionID)
	return f, nil
}

// UpdateField applies a partial update to a field of the stated collection. A type
// change re-casts every stored value into the new type's canonical form. Turning
// unique on, or changing the type of a unique field, rebuilds the unique index and
// fails with UniquenessViolation when existing records then share a value.
func (s *Service) UpdateField(ctx context.Context, projectID, collectionID, fieldID int64, upd FieldUpdate) (*domain.Field, error) {
	if err := core.ValidateStruct(upd); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.loadCollection(ctx, tx, projectID, collectionID); err != nil {
		return nil, err
	}
	f, err := s.loadField(ctx, tx, collectionID, fieldID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil && *upd.Name != f.Name {
		return nil, core.NewValidationError([]core.FieldFailure{{
			Field:   "name",
			Code:    core.CodeImmutable,
			Message: "field names cannot change; remove the field and add a new one",
		}})
	}

	wasUnique := f.Unique
	oldType := f.Type
	if upd.Label != nil {
		f.Label = *upd.Label
	}
	if upd.Type != nil {
		f.Type = *upd.Type
	}
	if upd.DefaultValue != nil {
		if *upd.DefaultValue == "" {
			f.DefaultValue = nil
		} else {
			f.DefaultValue = upd.DefaultValue
		}
	}
	if upd.Required != nil {
		f.Required = *upd.Required
	}
	if upd.Unique != nil {
		f.Unique = *upd.Unique
	}
	if upd.Searchable != nil {
		f.Searchable = *upd.Searchable
	}
	if upd.Active != nil {
		f.Active = *upd.Active
	}
	if upd.ValidationRules != nil {
		f.ValidationRules = upd.ValidationRules
	}
	if upd.FieldOptions != nil {
		f.FieldOptions = upd.FieldOptions
	}
	if upd.RelatedCollectionID != nil {
		f.RelatedCollectionID = upd.RelatedCollectionID
	}
	if upd.SortOrder != nil {
		f.SortOrder = *upd.SortOrder
	}
	f.UpdatedAt = s.now()

	if failures := s.validateFieldDefinition(f); len(failures) > 0 {
		return nil, core.NewValidationError(failures)
	}
	if err := s.checkRelationTarget(ctx, tx, projectID, f); err != nil {
		return nil, err
	}

	if err := storage.UpdateField(ctx, tx, f); err != nil {
		return nil, err
	}
	typeChanged := f.Type != oldType
	if typeChanged {
		if err := s.recastValues(ctx, tx, f); err != nil {
			return nil, err
		}
	}
	// Unique keys mirror the stored values, so a type change rebuilds them too.
	if f.Unique != wasUnique || (f.Unique && typeChanged) {
		if err := storage.SetFieldUniqueKeys(ctx, tx, f.ID, f.Unique); err != nil {
			if errors.Is(err, core.ErrUniquenessViolation) {
				return nil, &core.UniquenessError{Fields: []string{f.Name}}
			}
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit field update: %w", err)
	}
	return f, nil
}

// recastValues rewrites every stored value of f into the canonical form of its
// (new) type. Values that cast to null are dropped. Unique keys are cleared here;
// the caller rebuilds them.
func (s *Service) recastValues(ctx context.Context, q storage.Querier, f *domain.Field) error {
	if err := storage.SetFieldUniqueKeys(ctx, q, f.ID, false); err != nil {
		return err
	}
	values, err := storage.ListFieldValues(ctx, q, f.ID)
	if err != nil {
		return err
	}
	for _, rv := range values {
		v := s.types.Cast(f.Type, rv.Value)
		if v.IsNull() {
			if err := storage.DeleteRecordValue(ctx, q, rv.RecordID, f.ID); err != nil {
				return err
			}
			continue
		}
		stored, err := s.types.Stringify(f.Type, v.Native())
		if err != nil {
			// string-shaped types cast as identity, so the raw value is what reads return
			stored = rv.Value
		}
		if stored == rv.Value {
			continue
		}
		if err := storage.PutRecordValue(ctx, q, rv.RecordID, f.ID, stored, nil); err != nil {
			return err
		}
	}
	customLog.Printf("Schema: Re-cast %d stored values of field '%s' to type '%s'", len(values), f.Name, f.Type)
	return nil
}

// DeleteField removes a field of the stated collection and every value stored for it.
func (s *Service) DeleteField(ctx context.Context, projectID, collectionID, fieldID int64) error {
	if _, err := s.loadCollection(ctx, s.db, projectID, collectionID); err != nil {
		return err
	}
	f, err := s.loadField(ctx, s.db, collectionID, fieldID)
	if err != nil {
		return err
	}
	if err := storage.DeleteField(ctx, s.db, fieldID); err != nil {
		return err
	}
	customLog.Printf("Schema: Deleted field '%s' from collection %d", f.Name, collectionID)
	return nil
}

// --- field definition checks ---

func validateFieldName(name string) []core.FieldFailure {
	if !core.IsValidIdentifier(name) {
		return []core.FieldFailure{{
			Field:   "name",
			Code:    core.CodePattern,
			Message: "must start with a letter or underscore and contain only letters, digits and underscores (max 64)",
		}}
	}
	if core.IsReservedFieldName(name) {
		return []core.FieldFailure{{
			Field:   "name",
			Code:    core.CodeReserved,
			Message: fmt.Sprintf("'%s' is reserved for record metadata", name),
		}}
	}
	return nil
}

// validateFieldDefinition checks type, rules, options and default of f and
// canonicalizes the default to its stored form.
func (s *Service) validateFieldDefinition(f *domain.Field) []core.FieldFailure {
	var failures []core.FieldFailure

	if _, err := s.types.Resolve(f.Type); err != nil {
		return append(failures, core.FieldFailure{
			Field: "type", Code: core.CodeType, Message: fmt.Sprintf("unknown field type '%s'", f.Type),
		})
	}

	if r := f.ValidationRules; r != nil {
		if r.Pattern != "" {
			if _, err := regexp.Compile(r.Pattern); err != nil {
				failures = append(failures, core.FieldFailure{
					Field: "validation_rules.pattern", Code: core.CodePattern, Message: fmt.Sprintf("invalid regular expression: %v", err),
				})
			}
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			failures = append(failures, core.FieldFailure{
				Field: "validation_rules.min", Code: core.CodeMin, Message: "min must not exceed max",
			})
		}
		if r.MinLength != nil && r.MaxLength != nil && *r.MinLength > *r.MaxLength {
			failures = append(failures, core.FieldFailure{
				Field: "validation_rules.min_length", Code: core.CodeMinLength, Message: "min_length must not exceed max_length",
			})
		}
		if len(r.JSONSchema) > 0 {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(r.JSONSchema)); err != nil {
				failures = append(failures, core.FieldFailure{
					Field: "validation_rules.json_schema", Code: core.CodeSchema, Message: fmt.Sprintf("invalid JSON schema: %v", err),
				})
			}
		}
	}

	if f.Type == fieldtype.RelationT {
		if f.RelatedCollectionID == nil {
			failures = append(failures, core.FieldFailure{
				Field: "related_collection_id", Code: core.CodeRequired, Message: "relation fields must name a related collection",
			})
		}
	} else {
		f.RelatedCollectionID = nil
	}

	if f.DefaultValue != nil && len(failures) == 0 {
		literal, err := s.types.ParseText(f.Type, *f.DefaultValue)
		if err != nil {
			failures = append(failures, core.FieldFailure{Field: "default_value", Code: core.CodeType, Message: "must be valid JSON"})
		} else if code, reason, ok := s.types.ValidateLiteral(f.Type, literal, f.ValidationRules, f.FieldOptions); !ok {
			failures = append(failures, core.FieldFailure{Field: "default_value", Code: code, Message: reason})
		} else if stored, err := s.types.Stringify(f.Type, literal); err == nil {
			f.DefaultValue = &stored
		}
	}
	return failures
}

// checkRelationTarget requires the related collection to exist in the same project.
func (s *Service) checkRelationTarget(ctx context.Context, q storage.Querier, projectID int64, f *domain.Field) error {
	if f.Type != fieldtype.RelationT || f.RelatedCollectionID == nil {
		return nil
	}
	target, err := storage.GetCollection(ctx, q, *f.RelatedCollectionID)
	if err != nil {
		return err
	}
	if target.ProjectID != projectID {
		return fmt.Errorf("%w: related collection %d is not part of project %d", core.ErrMismatch, target.ID, projectID)
	}
	return nil
}
