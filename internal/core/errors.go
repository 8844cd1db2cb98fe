// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Engine-wide error taxonomy. Services wrap these with fmt.Errorf("%w: ...") so
// callers (the HTTP error middleware included) branch with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrMismatch            = errors.New("reference does not belong to the stated parent")
	ErrValidationFailed    = errors.New("validation failed")
	ErrUniquenessViolation = errors.New("uniqueness violation")
	ErrProtected           = errors.New("entity is protected")
	ErrUnknownComponent    = errors.New("unknown component")
	ErrUnknownField        = errors.New("unknown field")
)

// Failure codes used in FieldFailure.Code.
const (
	CodeRequired  = "required"
	CodeType      = "type"
	CodePattern   = "pattern"
	CodeMin       = "min"
	CodeMax       = "max"
	CodeMaxLength = "max_length"
	CodeMinLength = "min_length"
	CodeEnum      = "enum"
	CodeSchema    = "schema"
	CodeRelation  = "relation"
	CodeUnknown   = "unknown"
	CodeImmutable = "immutable"
	CodeFilter    = "filter"
)

// FieldFailure is one per-field reason, shaped for inline redisplay by a client.
type FieldFailure struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries every failing field of a batch.
// It matches ErrValidationFailed, or ErrUnknownField when built with NewUnknownFieldError.
type ValidationError struct {
	Failures []FieldFailure
	kind     error
}

// NewValidationError wraps failures as a ValidationFailed error.
func NewValidationError(failures []FieldFailure) *ValidationError {
	return &ValidationError{Failures: failures, kind: ErrValidationFailed}
}

// NewUnknownFieldError reports every name that does not resolve to a live field.
func NewUnknownFieldError(names []string) *ValidationError {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	failures := make([]FieldFailure, 0, len(sorted))
	for _, name := range sorted {
		failures = append(failures, FieldFailure{
			Field:   name,
			Code:    CodeUnknown,
			Message: fmt.Sprintf("field '%s' does not exist in this collection", name),
		})
	}
	return &ValidationError{Failures: failures, kind: ErrUnknownField}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%v: %s", e.kind, strings.Join(parts, "; "))
}

// Is lets errors.Is match the sentinel this batch stands for.
func (e *ValidationError) Is(target error) bool {
	return target == e.kind
}

// UniquenessError names the unique fields whose values already exist.
type UniquenessError struct {
	Fields []string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%v: value already used by another record for field(s) %s",
		ErrUniquenessViolation, strings.Join(e.Fields, ", "))
}

// Is matches ErrUniquenessViolation.
func (e *UniquenessError) Is(target error) bool {
	return target == ErrUniquenessViolation
}

// Failures extracts per-field failures from err, if it carries any.
func Failures(err error) []FieldFailure {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Failures
	}
	var uErr *UniquenessError
	if errors.As(err, &uErr) {
		out := make([]FieldFailure, 0, len(uErr.Fields))
		for _, f := range uErr.Fields {
			out = append(out, FieldFailure{Field: f, Code: "unique", Message: "value must be unique within the collection"})
		}
		return out
	}
	return nil
}
