// Package fieldtype is the canonical list of field types a collection field can take,
// with the cast (stored string -> Value), literal validation and stringify for each.
// The registry is built once at boot and never mutated afterwards.
package fieldtype

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
)

// Built-in type ids.
const (
	Text      = "text"
	Textarea  = "textarea"
	NumberT   = "number"
	Boolean   = "boolean"
	DateT     = "date"
	Datetime  = "datetime"
	Email     = "email"
	URL       = "url"
	JSONT     = "json"
	RelationT = "relation"
	Select    = "select"
	Image     = "image"
)

// FieldType describes one primitive a collection field can be declared as.
type FieldType struct {
	ID string
	// Default builds the value a malformed stored string casts to. Each call
	// returns a fresh value, so callers may mutate what they get.
	Default func() Value
	// cast decodes a stored string; ok=false makes Cast fall back to Default.
	cast func(stored string) (Value, bool)
	// check validates a literal's shape and returns its canonical stored string.
	check func(literal any) (stored string, reason string)
}

// Registry resolves type ids to FieldTypes.
type Registry struct {
	types    map[string]*FieldType
	validate *validator.Validate
}

// dateLayouts are the ISO-ish formats accepted for date and datetime values.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// NewRegistry builds the registry with every built-in type.
func NewRegistry() *Registry {
	r := &Registry{
		types:    make(map[string]*FieldType),
		validate: validator.New(),
	}

	for _, id := range []string{Text, Textarea, Select, Image} {
		r.add(&FieldType{ID: id, Default: emptyString, cast: castString, check: checkString})
	}
	r.add(&FieldType{ID: Email, Default: emptyString, cast: castString, check: r.checkTagged("email")})
	r.add(&FieldType{ID: URL, Default: emptyString, cast: castString, check: r.checkTagged("url")})

	r.add(&FieldType{ID: NumberT, Default: zeroNumber, cast: castNumber, check: checkNumber})
	r.add(&FieldType{ID: Boolean, Default: falseBool, cast: castBoolean, check: checkBoolean})
	r.add(&FieldType{ID: DateT, Default: Null, cast: castDate, check: checkDate})
	r.add(&FieldType{ID: Datetime, Default: Null, cast: castDateTime, check: checkDateTime})
	r.add(&FieldType{ID: JSONT, Default: emptyObject, cast: castJSON, check: checkJSON})
	r.add(&FieldType{ID: RelationT, Default: Null, cast: castRelation, check: checkRelation})

	return r
}

func emptyString() Value { return String("") }
func zeroNumber() Value  { return Number(0) }
func falseBool() Value   { return Bool(false) }
func emptyObject() Value { return JSON(map[string]any{}) }

func (r *Registry) add(ft *FieldType) {
	r.types[ft.ID] = ft
}

// Resolve returns the FieldType registered under id.
func (r *Registry) Resolve(id string) (*FieldType, error) {
	ft, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: field type '%s'", core.ErrNotFound, id)
	}
	return ft, nil
}

// IDs lists every registered type id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cast decodes a stored string. It never fails: malformed input yields the
// type's default, and an unknown type id yields the raw string.
func (r *Registry) Cast(typeID, stored string) Value {
	ft, ok := r.types[typeID]
	if !ok {
		return String(stored)
	}
	if v, ok := ft.cast(stored); ok {
		return v
	}
	return ft.Default()
}

// ParseText turns the text form of a value, as found in a field's default_value or a
// query filter, into a literal for ValidateLiteral and Stringify. Only json differs:
// its text form is the JSON document itself.
func (r *Registry) ParseText(typeID, text string) (any, error) {
	if typeID != JSONT {
		return text, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: must be valid JSON", core.ErrValidationFailed)
	}
	return v, nil
}

// Stringify turns an accepted literal into its stored string.
func (r *Registry) Stringify(typeID string, literal any) (string, error) {
	ft, err := r.Resolve(typeID)
	if err != nil {
		return "", err
	}
	stored, reason := ft.check(literal)
	if reason != "" {
		return "", fmt.Errorf("%w: %s", core.ErrValidationFailed, reason)
	}
	return stored, nil
}

// ValidateLiteral checks a literal against its type and the field's own constraints.
// It returns the failure code and reason, or ok=true.
func (r *Registry) ValidateLiteral(typeID string, literal any, rules *domain.ValidationRules, opts *domain.FieldOptions) (code, reason string, ok bool) {
	ft, err := r.Resolve(typeID)
	if err != nil {
		return core.CodeType, err.Error(), false
	}
	if literal == nil {
		return "", "", true // presence is the required check's concern
	}

	stored, reason := ft.check(literal)
	if reason != "" {
		return core.CodeType, reason, false
	}

	if typeID == Select && opts != nil && len(opts.Choices) > 0 {
		if !contains(opts.Choices, stored) {
			return core.CodeEnum, fmt.Sprintf("must be one of: %s", strings.Join(opts.Choices, ", ")), false
		}
	}

	if rules == nil {
		return "", "", true
	}
	return checkRules(typeID, stored, rules)
}

func checkRules(typeID, stored string, rules *domain.ValidationRules) (string, string, bool) {
	switch typeID {
	case NumberT:
		n, _ := strconv.ParseFloat(stored, 64)
		if rules.Min != nil && n < *rules.Min {
			return core.CodeMin, fmt.Sprintf("must be >= %v", *rules.Min), false
		}
		if rules.Max != nil && n > *rules.Max {
			return core.CodeMax, fmt.Sprintf("must be <= %v", *rules.Max), false
		}
	case JSONT:
		if len(rules.JSONSchema) > 0 {
			result, err := gojsonschema.Validate(
				gojsonschema.NewBytesLoader(rules.JSONSchema),
				gojsonschema.NewStringLoader(stored),
			)
			if err != nil {
				return core.CodeSchema, fmt.Sprintf("json schema could not be applied: %v", err), false
			}
			if !result.Valid() {
				msgs := make([]string, 0, len(result.Errors()))
				for _, e := range result.Errors() {
					msgs = append(msgs, e.String())
				}
				return core.CodeSchema, strings.Join(msgs, "; "), false
			}
		}
	case Boolean, DateT, Datetime, RelationT:
		// no extra constraints apply
	default:
		length := utf8.RuneCountInString(stored)
		if rules.MinLength != nil && length < *rules.MinLength {
			return core.CodeMinLength, fmt.Sprintf("must be at least %d characters", *rules.MinLength), false
		}
		if rules.MaxLength != nil && length > *rules.MaxLength {
			return core.CodeMaxLength, fmt.Sprintf("must be at most %d characters", *rules.MaxLength), false
		}
		if rules.Pattern != "" {
			re, err := regexp.Compile(rules.Pattern)
			if err != nil {
				return core.CodePattern, fmt.Sprintf("invalid pattern rule: %v", err), false
			}
			if !re.MatchString(stored) {
				return core.CodePattern, fmt.Sprintf("must match pattern %s", rules.Pattern), false
			}
		}
	}
	return "", "", true
}

// --- casts ---

func castString(stored string) (Value, bool) { return String(stored), true }

func castNumber(stored string) (Value, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(stored), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Value{}, false
	}
	return Number(n), true
}

func castBoolean(stored string) (Value, bool) {
	switch stored {
	case "1", "true":
		return Bool(true), true
	case "0", "false":
		return Bool(false), true
	}
	return Value{}, false
}

func parseDate(stored string) (time.Time, bool) {
	s := strings.TrimSpace(stored)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func castDate(stored string) (Value, bool) {
	t, ok := parseDate(stored)
	if !ok {
		return Value{}, false
	}
	return Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), true
}

func castDateTime(stored string) (Value, bool) {
	t, ok := parseDate(stored)
	if !ok {
		return Value{}, false
	}
	return DateTime(t.UTC()), true
}

func castJSON(stored string) (Value, bool) {
	var v any
	if err := json.Unmarshal([]byte(stored), &v); err != nil {
		return Value{}, false
	}
	return JSON(v), true
}

func castRelation(stored string) (Value, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(stored), 10, 64)
	if err != nil || id <= 0 {
		return Value{}, false
	}
	return Relation(id), true
}

// --- literal checks ---

func checkString(literal any) (string, string) {
	s, ok := literal.(string)
	if !ok {
		return "", "must be a string"
	}
	return s, ""
}

func (r *Registry) checkTagged(tag string) func(any) (string, string) {
	return func(literal any) (string, string) {
		s, ok := literal.(string)
		if !ok {
			return "", "must be a string"
		}
		if s == "" {
			return s, ""
		}
		if err := r.validate.Var(s, tag); err != nil {
			return "", fmt.Sprintf("must be a valid %s", tag)
		}
		return s, ""
	}
}

func checkNumber(literal any) (string, string) {
	var n float64
	switch v := literal.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return "", "must be a number"
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return "", "must be a number"
		}
		n = f
	default:
		return "", "must be a number"
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", "must be a finite number"
	}
	return strconv.FormatFloat(n, 'f', -1, 64), ""
}

func checkBoolean(literal any) (string, string) {
	switch v := literal.(type) {
	case bool:
		if v {
			return "1", ""
		}
		return "0", ""
	case string:
		if _, ok := castBoolean(v); ok {
			if v == "1" || v == "true" {
				return "1", ""
			}
			return "0", ""
		}
	case float64:
		if v == 0 || v == 1 {
			return strconv.Itoa(int(v)), ""
		}
	case int:
		if v == 0 || v == 1 {
			return strconv.Itoa(v), ""
		}
	}
	return "", "must be a boolean"
}

func checkDate(literal any) (string, string) {
	switch v := literal.(type) {
	case time.Time:
		return v.Format(DateLayout), ""
	case string:
		t, ok := parseDate(v)
		if !ok {
			return "", "must be a date (YYYY-MM-DD)"
		}
		return t.Format(DateLayout), ""
	}
	return "", "must be a date (YYYY-MM-DD)"
}

func checkDateTime(literal any) (string, string) {
	switch v := literal.(type) {
	case time.Time:
		return v.UTC().Format(DateTimeLayout), ""
	case string:
		t, ok := parseDate(v)
		if !ok {
			return "", "must be a date-time (RFC 3339)"
		}
		return t.UTC().Format(DateTimeLayout), ""
	}
	return "", "must be a date-time (RFC 3339)"
}

// checkJSON stores any literal as its JSON encoding; a Go string stays a JSON string.
func checkJSON(literal any) (string, string) {
	b, err := json.Marshal(literal)
	if err != nil {
		return "", "must be JSON-serializable"
	}
	return string(b), ""
}

func checkRelation(literal any) (string, string) {
	var id int64
	switch v := literal.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return "", "must be a record id"
		}
		id = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return "", "must be a record id"
		}
		id = parsed
	default:
		return "", "must be a record id"
	}
	if id <= 0 {
		return "", "must be a positive record id"
	}
	return strconv.FormatInt(id, 10), ""
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
