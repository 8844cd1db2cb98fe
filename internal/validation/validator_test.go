package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-studio/internal/core"
)

func TestConfigValidatorRequiredUsesLooseEmptiness(t *testing.T) {
	v := NewConfigValidator()
	schema := Schema{{Key: "label", Required: true}}

	// A required key holding any of these is treated as missing.
	for _, value := range []any{nil, "", "0", 0, 0.0, false, []any{}, map[string]any{}} {
		failures := v.Validate(map[string]any{"label": value}, schema)
		require.Len(t, failures, 1, "value %#v", value)
		assert.Equal(t, core.CodeRequired, failures[0].Code)
	}

	assert.Empty(t, v.Validate(map[string]any{"label": "Go"}, schema))
	assert.Len(t, v.Validate(map[string]any{}, schema), 1)
}

func TestRecordValidatorRequiredUsesBlankness(t *testing.T) {
	v := NewRecordValidator()
	schema := Schema{{Key: "count", Required: true}}

	for _, value := range []any{0, 0.0, false, "0"} {
		assert.Empty(t, v.Validate(map[string]any{"count": value}, schema), "value %#v", value)
	}
	for _, value := range []any{nil, "", "   ", []any{}} {
		assert.Len(t, v.Validate(map[string]any{"count": value}, schema), 1, "value %#v", value)
	}
}

func TestValidateBatchesFailures(t *testing.T) {
	v := NewConfigValidator()
	schema := Schema{
		{Key: "label", Required: true},
		{Key: "disabled", Checks: []Check{IsBool()}},
		{Key: "items", Checks: []Check{IsList()}},
		{Key: "color", Checks: []Check{IsHexColor()}},
	}
	config := map[string]any{
		"disabled": "yes",
		"items":    "a,b",
		"color":    "blue",
		"extra":    struct{}{},
	}

	failures := v.Validate(config, schema)
	require.Len(t, failures, 4)
	assert.Equal(t, "label", failures[0].Field)
	assert.Equal(t, core.CodeRequired, failures[0].Code)
	assert.Equal(t, "disabled", failures[1].Field)
	assert.Equal(t, core.CodeType, failures[1].Code)
	assert.Equal(t, "items", failures[2].Field)
	assert.Equal(t, "color", failures[3].Field)
	assert.Equal(t, core.CodePattern, failures[3].Code)
}

func TestStructuralChecks(t *testing.T) {
	testCases := []struct {
		name  string
		check Check
		value any
		pass  bool
	}{
		{"bool true", IsBool(), true, true},
		{"bool string", IsBool(), "true", false},
		{"list any", IsList(), []any{"a"}, true},
		{"list strings", IsList(), []string{"a"}, true},
		{"list map", IsList(), map[string]any{}, false},
		{"color upper", IsHexColor(), "#3B82F6", true},
		{"color lower", IsHexColor(), "#3b82f6", true},
		{"color short", IsHexColor(), "#FFF", false},
		{"color named", IsHexColor(), "red", false},
		{"color alpha", IsHexColor(), "#3B82F6FF", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.pass, tc.check(tc.value) == nil)
		})
	}
}

func TestOptionalAbsentKeysAreNotChecked(t *testing.T) {
	v := NewRecordValidator()
	schema := Schema{{Key: "color", Checks: []Check{IsHexColor()}}}
	assert.Empty(t, v.Validate(map[string]any{}, schema))
	assert.Empty(t, v.Validate(map[string]any{"color": nil}, schema))
}
