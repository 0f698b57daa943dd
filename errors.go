package objectmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidTemplate is returned by RegisterModel for values that are not a
// model.Template (or one of its map forms) or that fail validation.
var ErrInvalidTemplate = errors.New("invalid template")

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError is a collection of field errors (implements error interface)
type MultiError []FieldError

func (m MultiError) Error() string {
	if len(m) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidationToMultiError converts go-playground/validator errors to MultiError
func ValidationToMultiError(err error) MultiError {
	var fieldErrors MultiError

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fieldErrors
	}

	for _, e := range validationErrs {
		fieldName := strings.ToLower(e.Namespace())

		var message string
		switch e.Tag() {
		case "required", "required_if", "required_unless":
			message = fmt.Sprintf("%s is required", e.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
		case "gte", "min":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "hostname_port":
			message = fmt.Sprintf("%s must be host:port", e.Field())
		case "required_without", "excluded_with":
			message = fmt.Sprintf("%s conflicts with %s", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldName,
			Message: message,
		})
	}

	return fieldErrors
}
