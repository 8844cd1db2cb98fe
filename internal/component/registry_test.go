package component

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-studio/internal/core"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry("")
	require.NoError(t, err)
	return r
}

func TestDefaultCatalogCoversBuiltins(t *testing.T) {
	r := newTestRegistry(t)

	defs := r.ListActive("", "")
	require.Len(t, defs, len(builtins))
	for i := 1; i < len(defs); i++ {
		assert.LessOrEqual(t, defs[i-1].SortOrder, defs[i].SortOrder)
	}
	assert.Equal(t, "Text", defs[0].Type)
}

func TestListActiveFilters(t *testing.T) {
	r := newTestRegistry(t)

	forms := r.ListActive("form", "")
	require.NotEmpty(t, forms)
	for _, d := range forms {
		assert.Equal(t, "form", d.Category)
	}

	one := r.ListActive("", "Chart")
	require.Len(t, one, 1)
	assert.Equal(t, "Chart", one[0].Type)

	assert.Empty(t, r.ListActive("basic", "Chart"))
}

func TestGetUnknownComponent(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("Carousel")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownComponent))

	_, err = r.DefaultConfig("Carousel")
	assert.True(t, errors.Is(err, core.ErrUnknownComponent))
}

func TestDefaultConfigIsDeepCopy(t *testing.T) {
	r := newTestRegistry(t)

	cfg, err := r.DefaultConfig("List")
	require.NoError(t, err)
	cfg["ordered"] = true
	cfg["items"].([]any)[0] = "changed"

	fresh, err := r.DefaultConfig("List")
	require.NoError(t, err)
	assert.Equal(t, false, fresh["ordered"])
	assert.Equal(t, "First item", fresh["items"].([]any)[0])
}

func TestDefaultConfigNumbersAreJSONShaped(t *testing.T) {
	r := newTestRegistry(t)

	cfg, err := r.DefaultConfig("Button")
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg["borderRadius"])
}

func TestFieldDefinitionVariants(t *testing.T) {
	r := newTestRegistry(t)

	fields, err := r.FieldDefinitions("Button")
	require.NoError(t, err)

	byKey := map[string]FieldDefinition{}
	for _, f := range fields {
		byKey[f.Key] = f
	}
	assert.Equal(t, TextSpec{MaxLength: 60}, byKey["label"].Spec)
	assert.True(t, byKey["label"].Required)
	assert.IsType(t, ColorSpec{}, byKey["color"].Spec)
	assert.Equal(t, SelectSpec{Options: []string{"small", "medium", "large"}}, byKey["size"].Spec)
	assert.IsType(t, BooleanSpec{}, byKey["fullWidth"].Spec)

	n, ok := byKey["borderRadius"].Spec.(NumberSpec)
	require.True(t, ok)
	require.NotNil(t, n.Min)
	require.NotNil(t, n.Max)
	assert.Equal(t, 0.0, *n.Min)
	assert.Equal(t, 48.0, *n.Max)
	assert.Equal(t, 1.0, n.Step)
}

func TestDefinitionJSONShape(t *testing.T) {
	r := newTestRegistry(t)

	def, err := r.Get("Button")
	require.NoError(t, err)
	raw, err := json.Marshal(def)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"id", "name", "type", "category", "description", "icon", "defaultConfig", "fieldDefinitions"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "sortOrder")

	first := doc["fieldDefinitions"].([]any)[0].(map[string]any)
	assert.Equal(t, "label", first["key"])
	assert.Equal(t, "text", first["type"])
	assert.Equal(t, 60.0, first["maxLength"])
}

func TestValidateConfig(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name   string
		config map[string]any
		fields []string
	}{
		{
			name:   "valid",
			config: map[string]any{"label": "Go", "color": "#112233", "fullWidth": true},
		},
		{
			name:   "extra keys tolerated",
			config: map[string]any{"label": "Go", "legacyKey": 42},
		},
		{
			name:   "required empty string",
			config: map[string]any{"label": ""},
			fields: []string{"label"},
		},
		{
			name:   "required zero string counts as empty",
			config: map[string]any{"label": "0"},
			fields: []string{"label"},
		},
		{
			name:   "bad shapes batched",
			config: map[string]any{"label": "Go", "color": "blue", "fullWidth": "yes"},
			fields: []string{"color", "fullWidth"},
		},
		{
			name:   "missing required",
			config: map[string]any{},
			fields: []string{"label"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures, err := r.ValidateConfig("Button", tt.config)
			require.NoError(t, err)
			var got []string
			for _, f := range failures {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidateConfigArrayShape(t *testing.T) {
	r := newTestRegistry(t)

	failures, err := r.ValidateConfig("Chart", map[string]any{"values": "1,2,3"})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, core.CodeType, failures[0].Code)

	failures, err = r.ValidateConfig("Chart", map[string]any{"values": []any{}})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, core.CodeRequired, failures[0].Code)
}

func TestLoadCatalogRejectsMismatch(t *testing.T) {
	t.Run("entry without renderer", func(t *testing.T) {
		r := NewRegistry()
		err := r.LoadCatalog([]byte("components:\n  - {type: Ghost, active: true}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no registered renderer")
	})

	t.Run("renderer without entry", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("Spacer", renderSpacer))
		require.NoError(t, r.Register("Divider", renderDivider))
		err := r.LoadCatalog([]byte("components:\n  - {type: Spacer, active: true}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no catalog entry")
	})

	t.Run("unknown field kind", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("Spacer", renderSpacer))
		err := r.LoadCatalog([]byte("components:\n  - type: Spacer\n    fields:\n      - {key: size, kind: slider}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown kind")
	})
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Spacer", renderSpacer))
	assert.Error(t, r.Register("Spacer", renderSpacer))
	assert.Error(t, r.Register("", renderSpacer))
}

func TestInactiveComponentsAreHidden(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Spacer", renderSpacer))
	require.NoError(t, r.LoadCatalog([]byte("components:\n  - {type: Spacer, active: false}\n")))

	assert.Empty(t, r.ListActive("", ""))
	_, err := r.Get("Spacer")
	assert.NoError(t, err)
}
