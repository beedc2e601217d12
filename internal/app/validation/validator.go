// Package validation wraps the go-playground validator behind the
// violation-list shape the service layer works with.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ecommerce-micro/products-service/internal/domain"
)

// Validator validates mutation requests against their struct tags.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator. Violations report fields by their JSON
// name so they line up with the request body the caller sent.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates a request struct and returns the list of field
// violations. An empty list means the request is valid. Pure: no I/O,
// deterministic for a given input.
func (val *Validator) Struct(s any) []domain.FieldViolation {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldViolation{{Message: err.Error()}}
	}

	violations := make([]domain.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, domain.FieldViolation{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return violations
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
