package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jinxlo/api-dashboard/internal/domain"
)

// Validator checks request structs and reports the first violated constraint
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new request validator.
// Field names in messages come from the `label` struct tag, falling back to the json name.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns a *domain.ValidationError for the first failing field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	return domain.NewValidationError(message(validationErrors[0]))
}

func message(e validator.FieldError) string {
	field := e.Field()
	isText := e.Kind() == reflect.String

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Valid email is required"
	case "min":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
