// Package memory provides an in-memory implementation of the product
// repository, used for local runs and tests.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecommerce-micro/products-service/internal/domain"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository
type ProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// GetProducts retrieves all products
func (r *ProductRepository) GetProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProducts")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, clone(product))
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "products retrieved")
	return products, nil
}

// GetProductsByCondition retrieves all products matching the condition
func (r *ProductRepository) GetProductsByCondition(ctx context.Context, cond domain.Condition) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProductsByCondition")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []*domain.Product
	for _, product := range r.products {
		if cond.Matches(product) {
			products = append(products, clone(product))
		}
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "products retrieved")
	return products, nil
}

// GetProductByCondition retrieves the first product matching the
// condition, or nil when none does.
func (r *ProductRepository) GetProductByCondition(ctx context.Context, cond domain.Condition) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProductByCondition")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if cond.Matches(product) {
			span.SetStatus(codes.Ok, "product found")
			return clone(product), nil
		}
	}

	r.logger.DebugContext(ctx, "No product matched condition",
		slog.String("condition_field", string(cond.Field)),
	)
	span.SetStatus(codes.Ok, "no match")
	return nil, nil
}

// AddProduct stores a new product
func (r *ProductRepository) AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.AddProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(product)
	r.products[stored.ID] = stored

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", stored.ID.String()),
		slog.String("product_name", stored.Name),
	)

	span.SetStatus(codes.Ok, "product stored")
	return clone(stored), nil
}

// UpdateProduct overwrites the mutable fields of the stored product
// with the same id. Returns nil when no such product exists.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		span.SetStatus(codes.Ok, "no such product")
		return nil, nil
	}

	existing.Name = product.Name
	existing.Category = product.Category
	existing.UnitPrice = product.UnitPrice
	existing.QuantityInStock = product.QuantityInStock

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.String("product_id", existing.ID.String()),
	)

	span.SetStatus(codes.Ok, "product updated")
	return clone(existing), nil
}

// DeleteProduct removes the product with the given id
func (r *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		span.SetStatus(codes.Ok, "no such product")
		return false, nil
	}
	delete(r.products, id)

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "product deleted")
	return true, nil
}

// clone copies a product so callers never alias the stored value.
func clone(p *domain.Product) *domain.Product {
	c := *p
	return &c
}
