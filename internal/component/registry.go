// Package component is the catalog of widget types. Metadata, defaults and the
// editable properties of each type come from catalog.yaml; the config-to-tree
// transform of each type is a Go Renderer registered under the same type key.
package component

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/logger"
	"github.com/Annany2002/nebula-studio/internal/validation"
)

var (
	customLog = logger.NewLogger()
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Renderer maps a merged configuration to the data object of a render tree.
// Renderers are pure: same config in, same data out.
type Renderer func(cfg Config) map[string]any

type catalogDoc struct {
	Components []Definition `yaml:"components"`
}

// Registry holds the component catalog. It is filled at boot and read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]*Definition
	renderers map[string]Renderer
	validator *validation.Validator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:      make(map[string]*Definition),
		renderers: make(map[string]Renderer),
		validator: validation.NewConfigValidator(),
	}
}

// NewDefaultRegistry registers the built-in renderers and loads the embedded
// catalog, or the file at catalogPath when it is set.
func NewDefaultRegistry(catalogPath string) (*Registry, error) {
	r := NewRegistry()
	if err := registerBuiltins(r); err != nil {
		return nil, err
	}

	data := embeddedCatalog
	if catalogPath != "" {
		var err error
		if data, err = os.ReadFile(catalogPath); err != nil {
			return nil, fmt.Errorf("failed to read component catalog %s: %w", catalogPath, err)
		}
		customLog.Printf("Component: Loading catalog from %s", catalogPath)
	}
	if err := r.LoadCatalog(data); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds the renderer of a component type.
func (r *Registry) Register(typeKey string, fn Renderer) error {
	if typeKey == "" {
		return fmt.Errorf("component type cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("component '%s' has no renderer", typeKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[typeKey]; exists {
		return fmt.Errorf("renderer '%s' is already registered", typeKey)
	}
	r.renderers[typeKey] = fn
	return nil
}

// LoadCatalog parses catalog YAML and installs its definitions. Every entry
// needs a registered renderer and every renderer needs an entry.
func (r *Registry) LoadCatalog(data []byte) error {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse component catalog: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make(map[string]*Definition, len(doc.Components))
	for i := range doc.Components {
		def := doc.Components[i]
		if def.Type == "" {
			return fmt.Errorf("catalog entry %d has no type", i)
		}
		if _, dup := defs[def.Type]; dup {
			return fmt.Errorf("component '%s' is declared twice in the catalog", def.Type)
		}
		if _, ok := r.renderers[def.Type]; !ok {
			return fmt.Errorf("component '%s' has no registered renderer", def.Type)
		}
		if def.Name == "" {
			def.Name = def.Type
		}
		if cfg, ok := normalize(def.DefaultConfig).(map[string]any); ok {
			def.DefaultConfig = cfg
		} else {
			def.DefaultConfig = map[string]any{}
		}
		defs[def.Type] = &def
	}
	for typeKey := range r.renderers {
		if _, ok := defs[typeKey]; !ok {
			return fmt.Errorf("renderer '%s' has no catalog entry", typeKey)
		}
	}

	r.defs = defs
	customLog.Debugf("Component: Catalog loaded with %d components", len(defs))
	return nil
}

func (d *Definition) clone() Definition {
	out := *d
	out.DefaultConfig = deepCopy(d.DefaultConfig).(map[string]any)
	out.Fields = append([]FieldDefinition(nil), d.Fields...)
	for i := range out.Fields {
		out.Fields[i].Default = deepCopy(out.Fields[i].Default)
	}
	if d.Bindings != nil {
		out.Bindings = make(map[string]string, len(d.Bindings))
		for k, v := range d.Bindings {
			out.Bindings[k] = v
		}
	}
	out.Dependencies = append([]string(nil), d.Dependencies...)
	return out
}

func (r *Registry) lookup(typeKey string) (*Definition, error) {
	def, ok := r.defs[typeKey]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", core.ErrUnknownComponent, typeKey)
	}
	return def, nil
}

// ListActive returns active definitions ordered by sort order. Empty filters match everything.
func (r *Registry) ListActive(category, typeKey string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Definition{}
	for _, def := range r.defs {
		if !def.Active {
			continue
		}
		if category != "" && def.Category != category {
			continue
		}
		if typeKey != "" && def.Type != typeKey {
			continue
		}
		out = append(out, def.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Get returns a copy of one definition. Unknown type keys yield ErrUnknownComponent.
func (r *Registry) Get(typeKey string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, err := r.lookup(typeKey)
	if err != nil {
		return nil, err
	}
	out := def.clone()
	return &out, nil
}

// DefaultConfig returns a deep copy of a type's default configuration.
func (r *Registry) DefaultConfig(typeKey string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, err := r.lookup(typeKey)
	if err != nil {
		return nil, err
	}
	return deepCopy(def.DefaultConfig).(map[string]any), nil
}

// FieldDefinitions returns the editable properties of a type in catalog order.
func (r *Registry) FieldDefinitions(typeKey string) ([]FieldDefinition, error) {
	def, err := r.Get(typeKey)
	if err != nil {
		return nil, err
	}
	return def.Fields, nil
}

// Renderer returns the transform registered for a type.
func (r *Registry) Renderer(typeKey string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := r.lookup(typeKey); err != nil {
		return nil, err
	}
	return r.renderers[typeKey], nil
}

// Schema converts a type's field definitions into a validation schema. Only
// boolean, array and color properties carry a structural check.
func (r *Registry) Schema(typeKey string) (validation.Schema, error) {
	fields, err := r.FieldDefinitions(typeKey)
	if err != nil {
		return nil, err
	}
	schema := make(validation.Schema, 0, len(fields))
	for _, fd := range fields {
		schema = append(schema, validation.Property{
			Key:      fd.Key,
			Required: fd.Required,
			Checks:   structuralChecks(fd.Spec),
		})
	}
	return schema, nil
}

func structuralChecks(spec FieldSpec) []validation.Check {
	switch spec.(type) {
	case BooleanSpec:
		return []validation.Check{validation.IsBool()}
	case ArraySpec:
		return []validation.Check{validation.IsList()}
	case ColorSpec:
		return []validation.Check{validation.IsHexColor()}
	}
	return nil
}

// ValidateConfig checks a widget configuration against its type. Keys the type
// does not declare are accepted. The failures are nil when the config passes.
func (r *Registry) ValidateConfig(typeKey string, cfg map[string]any) ([]core.FieldFailure, error) {
	schema, err := r.Schema(typeKey)
	if err != nil {
		return nil, err
	}
	return r.validator.Validate(cfg, schema), nil
}
