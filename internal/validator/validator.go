package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a single failed rule on a request field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all failed rules for one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts go-playground validator errors into our format
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var result ValidationErrors
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			result = append(result, ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return result
	}

	return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Validator wraps struct validation and the business rule validator
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

// New creates a validator with all custom rules registered
func New() *Validator {
	business := NewBusinessValidator()
	return &Validator{
		// Custom tags live on the business validator's instance; struct
		// validation must see the same registrations.
		validate: business.validate,
		business: business,
	}
}

// Validate validates struct tags and returns a single error value
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// GetBusinessValidator exposes the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
