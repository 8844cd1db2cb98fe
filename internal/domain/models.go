// internal/domain/models.go
package domain

import (
	"encoding/json"
	"time"
)

// Collection is a user-defined, project-scoped entity type.
type Collection struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	IsSystem    bool      `json:"is_system"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Fields      []Field   `json:"fields,omitempty"`
}

// ValidationRules are constraints on a field's values beyond its type.
type ValidationRules struct {
	MaxLength  *int            `json:"max_length,omitempty"`
	MinLength  *int            `json:"min_length,omitempty"`
	Min        *float64        `json:"min,omitempty"`
	Max        *float64        `json:"max,omitempty"`
	Pattern    string          `json:"pattern,omitempty"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// FieldOptions is type-specific metadata, e.g. the choices of a select field.
type FieldOptions struct {
	Choices     []string `json:"choices,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Field is a typed attribute of exactly one Collection.
type Field struct {
	ID                  int64            `json:"id"`
	CollectionID        int64            `json:"collection_id"`
	Name                string           `json:"name"`
	Label               string           `json:"label"`
	Type                string           `json:"type"`
	DefaultValue        *string          `json:"default_value"`
	Required            bool             `json:"required"`
	Unique              bool             `json:"unique"`
	Searchable          bool             `json:"searchable"`
	Active              bool             `json:"active"`
	ValidationRules     *ValidationRules `json:"validation_rules,omitempty"`
	FieldOptions        *FieldOptions    `json:"field_options,omitempty"`
	RelatedCollectionID *int64           `json:"related_collection_id,omitempty"`
	SortOrder           int              `json:"sort_order"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// RecordValue is one stored attribute/value pair. The raw string never leaves the store layer.
type RecordValue struct {
	RecordID int64
	FieldID  int64
	Value    string
}

// RecordHeader is the envelope of a record without its values.
type RecordHeader struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	CollectionID int64     `json:"collection_id"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Display modes for a DataBinding.
const (
	DisplaySingle = "single"
	DisplayFirst  = "first"
	DisplayLast   = "last"
	DisplayRandom = "random"
)

// Fallback behaviours for a DataBinding that cannot be resolved.
const (
	FallbackDefault     = "default"
	FallbackHide        = "hide"
	FallbackPlaceholder = "placeholder"
)

// DataBinding maps a widget's configuration slots onto a collection's fields.
type DataBinding struct {
	CollectionID     int64             `json:"collectionId"`
	DisplayMode      string            `json:"displayMode"`
	RecordID         *int64            `json:"recordId,omitempty"`
	FallbackBehavior string            `json:"fallbackBehavior"`
	FieldMapping     map[string]string `json:"fieldMapping"`
	OwnerOnly        bool              `json:"ownerOnly,omitempty"`
}

// WidgetInstance is a placed, configured occurrence of a component on a page.
type WidgetInstance struct {
	ID        int64          `json:"id"`
	PageID    int64          `json:"page_id"`
	Type      string         `json:"type"`
	Config    map[string]any `json:"config"`
	SortOrder int            `json:"sort_order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
