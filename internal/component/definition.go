package component

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field kinds of a component's configuration properties.
const (
	KindText     = "text"
	KindTextarea = "textarea"
	KindNumber   = "number"
	KindBoolean  = "boolean"
	KindSelect   = "select"
	KindColor    = "color"
	KindIcon     = "icon"
	KindImage    = "image"
	KindArray    = "array"
)

// Definition is one catalog entry: metadata, editable properties and defaults of a widget type.
type Definition struct {
	ID            int               `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Type          string            `json:"type" yaml:"type"`
	Category      string            `json:"category" yaml:"category"`
	Description   string            `json:"description" yaml:"description"`
	Icon          string            `json:"icon" yaml:"icon"`
	DefaultConfig map[string]any    `json:"defaultConfig" yaml:"default_config"`
	Fields        []FieldDefinition `json:"fieldDefinitions" yaml:"fields"`
	Bindings      map[string]string `json:"bindings,omitempty" yaml:"bindings"`
	Dependencies  []string          `json:"dependencies,omitempty" yaml:"dependencies"`
	SortOrder     int               `json:"-" yaml:"sort_order"`
	Active        bool              `json:"-" yaml:"active"`
}

// FieldDefinition describes one settable property of a widget configuration.
type FieldDefinition struct {
	Key      string
	Label    string
	Required bool
	Default  any
	Spec     FieldSpec
}

// FieldSpec is the kind-specific part of a FieldDefinition. The set of
// implementations is closed; validation switches on the concrete type.
type FieldSpec interface {
	Kind() string
	fieldSpec()
}

type TextSpec struct{ MaxLength int }

type TextareaSpec struct{ MaxLength int }

type NumberSpec struct {
	Min  *float64
	Max  *float64
	Step float64
}

type BooleanSpec struct{}

type SelectSpec struct{ Options []string }

type ColorSpec struct{}

type IconSpec struct{}

type ImageSpec struct{}

type ArraySpec struct {
	ItemType string
	MaxItems int
}

func (TextSpec) Kind() string     { return KindText }
func (TextareaSpec) Kind() string { return KindTextarea }
func (NumberSpec) Kind() string   { return KindNumber }
func (BooleanSpec) Kind() string  { return KindBoolean }
func (SelectSpec) Kind() string   { return KindSelect }
func (ColorSpec) Kind() string    { return KindColor }
func (IconSpec) Kind() string     { return KindIcon }
func (ImageSpec) Kind() string    { return KindImage }
func (ArraySpec) Kind() string    { return KindArray }

func (TextSpec) fieldSpec()     {}
func (TextareaSpec) fieldSpec() {}
func (NumberSpec) fieldSpec()   {}
func (BooleanSpec) fieldSpec()  {}
func (SelectSpec) fieldSpec()   {}
func (ColorSpec) fieldSpec()    {}
func (IconSpec) fieldSpec()     {}
func (ImageSpec) fieldSpec()    {}
func (ArraySpec) fieldSpec()    {}

// fieldDoc is the flat shape of a field definition in the catalog file and in JSON.
type fieldDoc struct {
	Key       string   `json:"key" yaml:"key"`
	Label     string   `json:"label" yaml:"label"`
	Kind      string   `json:"type" yaml:"kind"`
	Required  bool     `json:"required" yaml:"required"`
	Default   any      `json:"default,omitempty" yaml:"default"`
	MaxLength int      `json:"maxLength,omitempty" yaml:"max_length"`
	Min       *float64 `json:"min,omitempty" yaml:"min"`
	Max       *float64 `json:"max,omitempty" yaml:"max"`
	Step      float64  `json:"step,omitempty" yaml:"step"`
	Options   []string `json:"options,omitempty" yaml:"options"`
	ItemType  string   `json:"itemType,omitempty" yaml:"item_type"`
	MaxItems  int      `json:"maxItems,omitempty" yaml:"max_items"`
}

// UnmarshalYAML builds the Spec variant named by the entry's kind.
func (fd *FieldDefinition) UnmarshalYAML(node *yaml.Node) error {
	var doc fieldDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	if doc.Key == "" {
		return fmt.Errorf("line %d: field definition without key", node.Line)
	}

	var spec FieldSpec
	switch doc.Kind {
	case KindText:
		spec = TextSpec{MaxLength: doc.MaxLength}
	case KindTextarea:
		spec = TextareaSpec{MaxLength: doc.MaxLength}
	case KindNumber:
		spec = NumberSpec{Min: doc.Min, Max: doc.Max, Step: doc.Step}
	case KindBoolean:
		spec = BooleanSpec{}
	case KindSelect:
		if len(doc.Options) == 0 {
			return fmt.Errorf("line %d: select field '%s' has no options", node.Line, doc.Key)
		}
		spec = SelectSpec{Options: doc.Options}
	case KindColor:
		spec = ColorSpec{}
	case KindIcon:
		spec = IconSpec{}
	case KindImage:
		spec = ImageSpec{}
	case KindArray:
		spec = ArraySpec{ItemType: doc.ItemType, MaxItems: doc.MaxItems}
	default:
		return fmt.Errorf("line %d: field '%s' has unknown kind '%s'", node.Line, doc.Key, doc.Kind)
	}

	*fd = FieldDefinition{
		Key:      doc.Key,
		Label:    doc.Label,
		Required: doc.Required,
		Default:  normalize(doc.Default),
		Spec:     spec,
	}
	return nil
}

// MarshalJSON flattens the Spec variant into the field object.
func (fd FieldDefinition) MarshalJSON() ([]byte, error) {
	doc := fieldDoc{
		Key:      fd.Key,
		Label:    fd.Label,
		Required: fd.Required,
		Default:  fd.Default,
	}
	if fd.Spec != nil {
		doc.Kind = fd.Spec.Kind()
	}
	switch s := fd.Spec.(type) {
	case TextSpec:
		doc.MaxLength = s.MaxLength
	case TextareaSpec:
		doc.MaxLength = s.MaxLength
	case NumberSpec:
		doc.Min, doc.Max, doc.Step = s.Min, s.Max, s.Step
	case SelectSpec:
		doc.Options = s.Options
	case ArraySpec:
		doc.ItemType, doc.MaxItems = s.ItemType, s.MaxItems
	}
	return json.Marshal(doc)
}

// normalize converts YAML-decoded values to the shapes encoding/json produces,
// so catalog defaults and instance configs compare and merge alike.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}

// deepCopy clones JSON-shaped values.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	}
	return v
}
