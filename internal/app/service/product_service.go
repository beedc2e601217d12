package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecommerce-micro/products-service/internal/app/dto"
	"github.com/ecommerce-micro/products-service/internal/app/validation"
	"github.com/ecommerce-micro/products-service/internal/domain"
)

// ProductService orchestrates the product workflows: it sequences
// validation, conditional lookup, persistence and event publication
// for mutations, and store-to-response piping for reads. It holds no
// cross-request state.
type ProductService struct {
	repo      domain.ProductRepository
	publisher domain.EventPublisher
	validator *validation.Validator
	tracer    trace.Tracer
	logger    *slog.Logger

	productOperations metric.Int64Counter
	eventsPublished   metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	publisher domain.EventPublisher,
	validator *validation.Validator,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	eventsPublished, _ := meter.Int64Counter(
		"products.events.published",
		metric.WithDescription("Total number of change events published"),
	)

	return &ProductService{
		repo:              repo,
		publisher:         publisher,
		validator:         validator,
		tracer:            tracer,
		logger:            logger,
		productOperations: productOperations,
		eventsPublished:   eventsPublished,
	}
}

// AddProduct validates and persists a new product. Add publishes no
// change event: consumers of the products exchange only track changes
// to entries they already know about.
func (s *ProductService) AddProduct(ctx context.Context, req *dto.ProductAddRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.AddProduct")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "nil request")
		s.recordOperation(ctx, "add", "invalid_argument")
		return nil, domain.ErrNilRequest
	}

	span.SetAttributes(attribute.String("product.name", req.Name))

	if violations := s.validator.Struct(req); len(violations) > 0 {
		err := &domain.ValidationError{Violations: violations}
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		s.logger.WarnContext(ctx, "Add request rejected by validation",
			slog.String("product_name", req.Name),
			slog.Int("violations", len(violations)),
		)
		s.recordOperation(ctx, "add", "validation_failure")
		return nil, err
	}

	product := dto.AddRequestToProduct(req)
	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	added, err := s.repo.AddProduct(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "add", "failure")
		return nil, err
	}

	s.logger.InfoContext(ctx, "Product created",
		slog.String("product_id", added.ID.String()),
		slog.String("product_name", added.Name),
	)
	s.recordOperation(ctx, "add", "success")

	span.SetStatus(codes.Ok, "product created")
	return dto.ToProductResponse(added), nil
}

// UpdateProduct overwrites an existing product and publishes a
// product.update event once the write has been applied. The event
// carries the request-mapped entity, not the stored copy.
func (s *ProductService) UpdateProduct(ctx context.Context, req *dto.ProductUpdateRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "nil request")
		s.recordOperation(ctx, "update", "invalid_argument")
		return nil, domain.ErrNilRequest
	}

	span.SetAttributes(attribute.String("product.id", req.ID.String()))

	existing, err := s.repo.GetProductByCondition(ctx, domain.ByID(req.ID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		s.recordOperation(ctx, "update", "failure")
		return nil, err
	}
	if existing == nil {
		span.SetStatus(codes.Error, "product not found")
		s.logger.WarnContext(ctx, "Update target not found",
			slog.String("product_id", req.ID.String()),
		)
		s.recordOperation(ctx, "update", "not_found")
		return nil, domain.ErrProductNotFound
	}

	if violations := s.validator.Struct(req); len(violations) > 0 {
		err := &domain.ValidationError{Violations: violations}
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		s.logger.WarnContext(ctx, "Update request rejected by validation",
			slog.String("product_id", req.ID.String()),
			slog.Int("violations", len(violations)),
		)
		s.recordOperation(ctx, "update", "validation_failure")
		return nil, err
	}

	product := dto.UpdateRequestToProduct(req)

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update product")
		s.logger.ErrorContext(ctx, "Failed to update product",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "update", "failure")
		return nil, err
	}
	if updated == nil {
		// The row vanished between the existence check and the write.
		// Nothing changed, so no event is published.
		span.SetStatus(codes.Error, "product deleted concurrently")
		s.recordOperation(ctx, "update", "not_found")
		return nil, domain.ErrProductNotFound
	}

	headers := domain.ChangeHeaders(domain.EventProductUpdate, 1)
	if err := s.publisher.Publish(ctx, headers, product); err != nil {
		pubErr := &domain.PublishError{Event: domain.EventProductUpdate, Err: err}
		span.RecordError(pubErr)
		span.SetStatus(codes.Error, "failed to publish update event")
		s.logger.ErrorContext(ctx, "Product updated but event publish failed",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "update", "publish_failure")
		return nil, pubErr
	}
	s.eventsPublished.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event", domain.EventProductUpdate)),
	)

	s.logger.InfoContext(ctx, "Product updated",
		slog.String("product_id", updated.ID.String()),
	)
	s.recordOperation(ctx, "update", "success")

	span.SetStatus(codes.Ok, "product updated")
	return dto.ToProductResponse(updated), nil
}

// DeleteProduct removes a product and publishes a product.delete
// event carrying the pre-deletion id and name. Deleting a nonexistent
// id reports false without error and publishes nothing.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	product, err := s.repo.GetProductByCondition(ctx, domain.ByID(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		s.recordOperation(ctx, "delete", "failure")
		return false, err
	}
	if product == nil {
		span.SetStatus(codes.Ok, "product already absent")
		s.recordOperation(ctx, "delete", "not_found")
		return false, nil
	}

	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete product")
		s.logger.ErrorContext(ctx, "Failed to delete product",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "delete", "failure")
		return false, err
	}

	if deleted {
		message := domain.ProductDeletionMessage{ID: product.ID, Name: product.Name}
		headers := domain.ChangeHeaders(domain.EventProductDelete, 1)
		if err := s.publisher.Publish(ctx, headers, message); err != nil {
			// The row is already gone; the caller sees the publish
			// failure and the inconsistency window stays open.
			pubErr := &domain.PublishError{Event: domain.EventProductDelete, Err: err}
			span.RecordError(pubErr)
			span.SetStatus(codes.Error, "failed to publish delete event")
			s.logger.ErrorContext(ctx, "Product deleted but event publish failed",
				slog.String("product_id", id.String()),
				slog.String("error", err.Error()),
			)
			s.recordOperation(ctx, "delete", "publish_failure")
			return false, pubErr
		}
		s.eventsPublished.Add(ctx, 1,
			metric.WithAttributes(attribute.String("event", domain.EventProductDelete)),
		)

		s.logger.InfoContext(ctx, "Product deleted",
			slog.String("product_id", id.String()),
			slog.String("product_name", product.Name),
		)
	}

	s.recordOperation(ctx, "delete", "success")
	span.SetStatus(codes.Ok, "delete processed")
	return deleted, nil
}

// GetProducts retrieves all products
func (s *ProductService) GetProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProducts")
	defer span.End()

	products, err := s.repo.GetProducts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to retrieve products")
		s.recordOperation(ctx, "list", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.recordOperation(ctx, "list", "success")

	span.SetStatus(codes.Ok, "products retrieved")
	return dto.ToProductResponseList(products), nil
}

// GetProductsByCondition retrieves all products matching the condition
func (s *ProductService) GetProductsByCondition(ctx context.Context, cond domain.Condition) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductsByCondition")
	defer span.End()

	span.SetAttributes(attribute.String("condition.field", string(cond.Field)))

	products, err := s.repo.GetProductsByCondition(ctx, cond)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to retrieve products")
		s.recordOperation(ctx, "search", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.recordOperation(ctx, "search", "success")

	span.SetStatus(codes.Ok, "products retrieved")
	return dto.ToProductResponseList(products), nil
}

// GetProductByCondition retrieves the first product matching the
// condition. A nil response with a nil error means no match.
func (s *ProductService) GetProductByCondition(ctx context.Context, cond domain.Condition) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByCondition")
	defer span.End()

	span.SetAttributes(attribute.String("condition.field", string(cond.Field)))

	product, err := s.repo.GetProductByCondition(ctx, cond)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to retrieve product")
		s.recordOperation(ctx, "get", "failure")
		return nil, err
	}

	s.recordOperation(ctx, "get", "success")
	span.SetStatus(codes.Ok, "lookup processed")
	return dto.ToProductResponse(product), nil
}

func (s *ProductService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
