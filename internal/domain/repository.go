package domain

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the contract for product storage.
// Absence is never an error: lookups that match nothing return nil
// (or an empty slice) with a nil error, and deleting a missing id
// reports false. Write failures surface as *PersistenceError.
type ProductRepository interface {
	// GetProducts retrieves every stored product.
	GetProducts(ctx context.Context) ([]*Product, error)

	// GetProductsByCondition retrieves all products matching the
	// condition. Order is not guaranteed.
	GetProductsByCondition(ctx context.Context, cond Condition) ([]*Product, error)

	// GetProductByCondition retrieves the first product matching the
	// condition, or nil when none does.
	GetProductByCondition(ctx context.Context, cond Condition) (*Product, error)

	// AddProduct stores a new product and returns the stored value.
	AddProduct(ctx context.Context, product *Product) (*Product, error)

	// UpdateProduct overwrites the mutable fields of the product with
	// the same id and returns the post-write value, or nil when no
	// such product exists. The id is never altered.
	UpdateProduct(ctx context.Context, product *Product) (*Product, error)

	// DeleteProduct removes the product with the given id, reporting
	// whether a record existed.
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
}
