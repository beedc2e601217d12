// Package postgres implements the product repository on PostgreSQL
// via pgx. Conditions compile to parameterized WHERE fragments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ecommerce-micro/products-service/internal/domain"
)

const productColumns = "product_id, product_name, category, unit_price::text, quantity_in_stock"

// ProductRepository is a PostgreSQL implementation of domain.ProductRepository
type ProductRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(pool *pgxpool.Pool, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{pool: pool, logger: logger}
}

// GetProducts retrieves all products
func (r *ProductRepository) GetProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "GetProducts", Err: err}
	}
	defer rows.Close()

	return scanProducts(rows, "GetProducts")
}

// GetProductsByCondition retrieves all products matching the condition
func (r *ProductRepository) GetProductsByCondition(ctx context.Context, cond domain.Condition) ([]*domain.Product, error) {
	where, args, err := whereClause(cond)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "GetProductsByCondition", Err: err}
	}

	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products WHERE "+where, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "GetProductsByCondition", Err: err}
	}
	defer rows.Close()

	return scanProducts(rows, "GetProductsByCondition")
}

// GetProductByCondition retrieves the first product matching the
// condition, or nil when none does.
func (r *ProductRepository) GetProductByCondition(ctx context.Context, cond domain.Condition) (*domain.Product, error) {
	where, args, err := whereClause(cond)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "GetProductByCondition", Err: err}
	}

	row := r.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE "+where+" LIMIT 1", args...)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "GetProductByCondition", Err: err}
	}
	return product, nil
}

// AddProduct stores a new product
func (r *ProductRepository) AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (product_id, product_name, category, unit_price, quantity_in_stock)
		 VALUES ($1, $2, $3, $4::numeric, $5)
		 RETURNING `+productColumns,
		product.ID, product.Name, product.Category, product.UnitPrice.String(), product.QuantityInStock,
	)

	stored, err := scanProduct(row)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "AddProduct", Err: err}
	}

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", stored.ID.String()),
	)
	return stored, nil
}

// UpdateProduct overwrites the mutable fields of the stored product
// with the same id. Returns nil when no such product exists.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET product_name = $2, category = $3, unit_price = $4::numeric, quantity_in_stock = $5
		 WHERE product_id = $1
		 RETURNING `+productColumns,
		product.ID, product.Name, product.Category, product.UnitPrice.String(), product.QuantityInStock,
	)

	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "UpdateProduct", Err: err}
	}

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.String("product_id", updated.ID.String()),
	)
	return updated, nil
}

// DeleteProduct removes the product with the given id
func (r *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE product_id = $1", id)
	if err != nil {
		return false, &domain.PersistenceError{Op: "DeleteProduct", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// whereClause compiles a condition to a SQL fragment with its
// arguments. Contains uses ILIKE for case-insensitive matching.
func whereClause(cond domain.Condition) (string, []any, error) {
	column, err := columnFor(cond.Field)
	if err != nil {
		return "", nil, err
	}

	switch cond.Op {
	case domain.OpEquals:
		return column + " = $1", []any{cond.Value}, nil
	case domain.OpContains:
		value, ok := cond.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("contains condition on %s requires a string value", cond.Field)
		}
		return column + " ILIKE '%' || $1 || '%'", []any{value}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %d", cond.Op)
	}
}

func columnFor(field domain.Field) (string, error) {
	switch field {
	case domain.FieldID, domain.FieldName, domain.FieldCategory:
		return string(field), nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

func scanProducts(rows pgx.Rows, op string) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: op, Err: err}
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: op, Err: err}
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		product  domain.Product
		priceRaw string
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Category, &priceRaw, &product.QuantityInStock); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		return nil, fmt.Errorf("parse unit_price %q: %w", priceRaw, err)
	}
	product.UnitPrice = price
	return &product, nil
}
