package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Field identifies a queryable product attribute.
type Field string

const (
	FieldID       Field = "product_id"
	FieldName     Field = "product_name"
	FieldCategory Field = "category"
)

// Operator is the comparison applied by a Condition.
type Operator int

const (
	// OpEquals matches when the field equals the value exactly.
	OpEquals Operator = iota
	// OpContains matches when the field contains the value as a
	// case-insensitive substring. Only valid for text fields.
	OpContains
)

// Condition is a boolean predicate over a single product field.
// Stores interpret it against their own query machinery: the
// in-memory store evaluates Matches, the Postgres store compiles it
// to a parameterized WHERE fragment.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

// ByID builds a condition selecting a product by its identifier.
func ByID(id uuid.UUID) Condition {
	return Condition{Field: FieldID, Op: OpEquals, Value: id}
}

// NameContains builds a case-insensitive substring condition on the
// product name.
func NameContains(s string) Condition {
	return Condition{Field: FieldName, Op: OpContains, Value: s}
}

// CategoryContains builds a case-insensitive substring condition on
// the product category.
func CategoryContains(s string) Condition {
	return Condition{Field: FieldCategory, Op: OpContains, Value: s}
}

// Matches evaluates the condition against a product.
func (c Condition) Matches(p *Product) bool {
	if p == nil {
		return false
	}

	if c.Field == FieldID {
		id, ok := c.Value.(uuid.UUID)
		return ok && c.Op == OpEquals && p.ID == id
	}

	var field string
	switch c.Field {
	case FieldName:
		field = p.Name
	case FieldCategory:
		field = p.Category
	default:
		return false
	}

	value, ok := c.Value.(string)
	if !ok {
		return false
	}

	switch c.Op {
	case OpEquals:
		return field == value
	case OpContains:
		return strings.Contains(strings.ToLower(field), strings.ToLower(value))
	default:
		return false
	}
}
