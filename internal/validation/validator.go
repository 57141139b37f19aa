// Package validation wires go-playground/validator into echo so
// request bodies are bound into typed structs and checked once at the
// boundary, before any business logic runs.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kinotage/movie-reviews/internal/response"
)

// Validator implements echo.Validator. Failures are translated into
// a VALIDATION_ERROR with a field-to-message detail map so clients
// can highlight individual inputs.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return response.Validation("Validation failed", nil)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldName(fe)] = message(fe)
	}
	return response.Validation("Validation failed", details)
}

func fieldName(fe validator.FieldError) string {
	// Namespace looks like "createMovieRequest.Genres[0]"; drop the
	// struct prefix and lower-case the first letter to match the
	// JSON field names used on the wire.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return ns
	}
	return strings.ToLower(ns[:1]) + ns[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		return "expected YYYY-MM-DD"
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
