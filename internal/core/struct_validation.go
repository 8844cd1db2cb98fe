// internal/core/struct_validation.go
package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CodeReserved marks a field name that collides with a record envelope column.
const CodeReserved = "reserved"

var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the json name clients actually send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs `validate:` tags on s and returns a *ValidationError batching
// every failing field, or nil.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if failures := StructFailures(err); len(failures) > 0 {
		return NewValidationError(failures)
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

// StructFailures converts validator errors (including those gin's binding returns)
// into per-field failures.
func StructFailures(err error) []FieldFailure {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	failures := make([]FieldFailure, 0, len(vErrs))
	for _, fe := range vErrs {
		failures = append(failures, FieldFailure{
			Field:   fe.Field(),
			Code:    tagCode(fe.Tag()),
			Message: tagMessage(fe),
		})
	}
	return failures
}

func tagCode(tag string) string {
	switch tag {
	case "required":
		return CodeRequired
	case "max":
		return CodeMaxLength
	case "min":
		return CodeMinLength
	case "oneof":
		return CodeEnum
	case "gte", "gt":
		return CodeMin
	case "lte", "lt":
		return CodeMax
	}
	return CodeType
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte", "lt":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed '%s' validation", fe.Field(), fe.Tag())
}
