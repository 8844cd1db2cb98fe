// Package validation checks loosely-typed maps against an ordered property schema.
// The same Validator drives both widget configuration and record values; only the
// emptiness policy differs between the two.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Annany2002/nebula-studio/internal/core"
)

// Check inspects one present value. It returns nil when the value passes; the
// Field of a returned failure is filled in by the Validator.
type Check func(value any) *core.FieldFailure

// Property is one validated key.
type Property struct {
	Key      string
	Required bool
	Checks   []Check
}

// Schema is an ordered list of properties. Keys absent from the schema are never judged.
type Schema []Property

// EmptyFunc decides whether a value counts as missing for a required check.
type EmptyFunc func(value any) bool

// Validator applies a Schema to a map and batches every failure.
type Validator struct {
	isEmpty EmptyFunc
}

// NewConfigValidator is used for widget configuration. Emptiness follows the loose
// scalar rules component configs were authored against: nil, "", "0", any numeric
// zero, false and empty lists or maps are all missing.
func NewConfigValidator() *Validator {
	return &Validator{isEmpty: IsLooseEmpty}
}

// NewRecordValidator is used for record values, where 0 and false are real answers.
// Only nil, blank strings and empty lists are missing.
func NewRecordValidator() *Validator {
	return &Validator{isEmpty: IsBlank}
}

// IsEmpty applies the validator's emptiness policy.
func (v *Validator) IsEmpty(value any) bool {
	return v.isEmpty(value)
}

// Validate runs every property of schema against values. It never stops at the
// first failure; the result is nil when everything passes.
func (v *Validator) Validate(values map[string]any, schema Schema) []core.FieldFailure {
	var failures []core.FieldFailure
	for _, prop := range schema {
		value, present := values[prop.Key]

		if prop.Required && (!present || v.isEmpty(value)) {
			failures = append(failures, core.FieldFailure{
				Field:   prop.Key,
				Code:    core.CodeRequired,
				Message: fmt.Sprintf("%s is required", prop.Key),
			})
			continue
		}
		if !present || value == nil {
			continue
		}

		for _, check := range prop.Checks {
			if f := check(value); f != nil {
				f.Field = prop.Key
				failures = append(failures, *f)
				break
			}
		}
	}
	return failures
}

// IsLooseEmpty reports nil, "", "0", numeric zero, false and empty collections.
func IsLooseEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == "" || v == "0"
	case bool:
		return !v
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// IsBlank reports nil, whitespace-only strings and empty lists.
func IsBlank(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsBool requires a JSON boolean.
func IsBool() Check {
	return func(value any) *core.FieldFailure {
		if _, ok := value.(bool); ok {
			return nil
		}
		return &core.FieldFailure{Code: core.CodeType, Message: "must be a boolean"}
	}
}

// IsList requires a JSON array.
func IsList() Check {
	return func(value any) *core.FieldFailure {
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Slice {
			return nil
		}
		return &core.FieldFailure{Code: core.CodeType, Message: "must be an array"}
	}
}

// IsHexColor requires a #RRGGBB string.
func IsHexColor() Check {
	return func(value any) *core.FieldFailure {
		if s, ok := value.(string); ok && hexColorRegex.MatchString(s) {
			return nil
		}
		return &core.FieldFailure{Code: core.CodePattern, Message: "must be a hex color like #1A2B3C"}
	}
}
