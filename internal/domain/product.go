package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNilRequest indicates the caller passed a nil mutation request.
	ErrNilRequest = errors.New("product request is nil")

	// ErrProductNotFound indicates the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// Product represents the product entity
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	QuantityInStock int             `json:"quantity_in_stock"`
}

// FieldViolation describes a single field-level validation failure.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of violations for a rejected
// mutation request. A non-empty list is terminal: no partial apply.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// PersistenceError indicates the storage engine rejected a write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PublishError indicates the broker rejected a change event. The
// preceding write has already committed at this point; there is no
// compensating action.
type PublishError struct {
	Event string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s event: %v", e.Event, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
