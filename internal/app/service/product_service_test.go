package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-micro/products-service/internal/app/dto"
	"github.com/ecommerce-micro/products-service/internal/app/validation"
	"github.com/ecommerce-micro/products-service/internal/domain"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/repository/memory"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/telemetry"
)

type publishCall struct {
	headers map[string]any
	message any
}

// recordingPublisher captures publish calls and optionally fails them.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, headers map[string]any, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, publishCall{headers: headers, message: message})
	return nil
}

func (p *recordingPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *recordingPublisher) lastCall(t *testing.T) publishCall {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.calls)
	return p.calls[len(p.calls)-1]
}

func newTestService(repo domain.ProductRepository, pub domain.EventPublisher) *ProductService {
	telem := telemetry.NewTestTelemetry()
	return NewProductService(
		repo,
		pub,
		validation.New(),
		telem.TracerProvider.Tracer("test"),
		telem.MeterProvider.Meter("test"),
		telem.Logger,
	)
}

func newMemoryRepo() *memory.ProductRepository {
	telem := telemetry.NewTestTelemetry()
	return memory.NewProductRepository(telem.TracerProvider.Tracer("test"), telem.Logger)
}

func addProduct(t *testing.T, svc *ProductService, req *dto.ProductAddRequest) *dto.ProductResponse {
	t.Helper()
	resp, err := svc.AddProduct(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func TestAddProduct(t *testing.T) {
	t.Run("valid request stores product and returns matching response", func(t *testing.T) {
		repo := newMemoryRepo()
		pub := &recordingPublisher{}
		svc := newTestService(repo, pub)

		resp := addProduct(t, svc, &dto.ProductAddRequest{
			Name:            "Widget",
			Category:        "Tools",
			UnitPrice:       9.99,
			QuantityInStock: 100,
		})

		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, "Widget", resp.Name)
		assert.Equal(t, "Tools", resp.Category)
		assert.Equal(t, 9.99, resp.UnitPrice)
		assert.Equal(t, 100, resp.QuantityInStock)

		fetched, err := svc.GetProductByCondition(context.Background(), domain.ByID(resp.ID))
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, resp, fetched)
	})

	t.Run("add publishes no event", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 1, QuantityInStock: 1})

		assert.Zero(t, pub.callCount())
	})

	t.Run("nil request fails without touching the store", func(t *testing.T) {
		repo := newMemoryRepo()
		svc := newTestService(repo, &recordingPublisher{})

		_, err := svc.AddProduct(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrNilRequest)
	})

	t.Run("validation failure leaves store unmodified", func(t *testing.T) {
		repo := newMemoryRepo()
		pub := &recordingPublisher{}
		svc := newTestService(repo, pub)

		_, err := svc.AddProduct(context.Background(), &dto.ProductAddRequest{
			Name:            "",
			UnitPrice:       -5,
			QuantityInStock: -1,
		})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 3)

		products, err := svc.GetProducts(context.Background())
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.Zero(t, pub.callCount())
	})

	t.Run("persistence failure propagates and publishes nothing", func(t *testing.T) {
		persistErr := &domain.PersistenceError{Op: "AddProduct", Err: assert.AnError}
		repo := &stubRepo{
			ProductRepository: newMemoryRepo(),
			addFn: func(context.Context, *domain.Product) (*domain.Product, error) {
				return nil, persistErr
			},
		}
		pub := &recordingPublisher{}
		svc := newTestService(repo, pub)

		_, err := svc.AddProduct(context.Background(), &dto.ProductAddRequest{Name: "Widget", UnitPrice: 1})

		var perr *domain.PersistenceError
		assert.ErrorAs(t, err, &perr)
		assert.Zero(t, pub.callCount())
	})
}

func TestUpdateProduct(t *testing.T) {
	t.Run("nonexistent id fails with not found, store unmodified", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		_, err := svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:        uuid.New(),
			Name:      "Widget",
			UnitPrice: 1,
		})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Zero(t, pub.callCount())
	})

	t.Run("price change persists and publishes update event", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{
			Name:            "Widget",
			Category:        "Tools",
			UnitPrice:       9.99,
			QuantityInStock: 100,
		})

		resp, err := svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:              created.ID,
			Name:            "Widget",
			Category:        "Tools",
			UnitPrice:       12.99,
			QuantityInStock: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 12.99, resp.UnitPrice)
		assert.Equal(t, created.ID, resp.ID)

		require.Equal(t, 1, pub.callCount())
		call := pub.lastCall(t)
		assert.Equal(t, domain.EventProductUpdate, call.headers[domain.HeaderEvent])
		assert.Equal(t, int32(1), call.headers[domain.HeaderRowCount])

		payload, ok := call.message.(*domain.Product)
		require.True(t, ok)
		assert.Equal(t, created.ID, payload.ID)
		assert.Equal(t, 12.99, payload.UnitPrice.InexactFloat64())
	})

	t.Run("update with unchanged values still publishes exactly once", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{
			Name:            "Widget",
			Category:        "Tools",
			UnitPrice:       9.99,
			QuantityInStock: 100,
		})

		_, err := svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:              created.ID,
			Name:            "Widget",
			Category:        "Tools",
			UnitPrice:       9.99,
			QuantityInStock: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, pub.callCount())
	})

	t.Run("validation failure leaves store unmodified and publishes nothing", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 9.99})

		_, err := svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:        created.ID,
			Name:      "",
			UnitPrice: -1,
		})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, pub.callCount())

		fetched, err := svc.GetProductByCondition(context.Background(), domain.ByID(created.ID))
		require.NoError(t, err)
		assert.Equal(t, "Widget", fetched.Name)
		assert.Equal(t, 9.99, fetched.UnitPrice)
	})

	t.Run("row deleted between lookup and write fails with not found, no publish", func(t *testing.T) {
		base := newMemoryRepo()
		pub := &recordingPublisher{}
		repo := &stubRepo{
			ProductRepository: base,
			updateFn: func(context.Context, *domain.Product) (*domain.Product, error) {
				return nil, nil
			},
		}
		svc := newTestService(repo, pub)

		seeded, err := base.AddProduct(context.Background(), &domain.Product{ID: uuid.New(), Name: "Widget"})
		require.NoError(t, err)

		_, err = svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:        seeded.ID,
			Name:      "Widget",
			UnitPrice: 1,
		})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Zero(t, pub.callCount())
	})

	t.Run("publish failure surfaces even though persistence succeeded", func(t *testing.T) {
		pub := &recordingPublisher{err: assert.AnError}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 9.99})
		// the add above does not publish, so the failing publisher
		// only bites on update
		_, err := svc.UpdateProduct(context.Background(), &dto.ProductUpdateRequest{
			ID:        created.ID,
			Name:      "Widget",
			UnitPrice: 12.99,
		})

		var pubErr *domain.PublishError
		require.ErrorAs(t, err, &pubErr)
		assert.Equal(t, domain.EventProductUpdate, pubErr.Event)

		// the write itself went through
		fetched, err := svc.GetProductByCondition(context.Background(), domain.ByID(created.ID))
		require.NoError(t, err)
		assert.Equal(t, 12.99, fetched.UnitPrice)
	})
}

func TestDeleteProduct(t *testing.T) {
	t.Run("nonexistent id reports false and publishes nothing", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		deleted, err := svc.DeleteProduct(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Zero(t, pub.callCount())
	})

	t.Run("existing id deletes, publishes once with pre-deletion name", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 9.99})

		deleted, err := svc.DeleteProduct(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		require.Equal(t, 1, pub.callCount())
		call := pub.lastCall(t)
		assert.Equal(t, domain.EventProductDelete, call.headers[domain.HeaderEvent])
		assert.Equal(t, int32(1), call.headers[domain.HeaderRowCount])

		payload, ok := call.message.(domain.ProductDeletionMessage)
		require.True(t, ok)
		assert.Equal(t, created.ID, payload.ID)
		assert.Equal(t, "Widget", payload.Name)

		fetched, err := svc.GetProductByCondition(context.Background(), domain.ByID(created.ID))
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})

	t.Run("second delete of the same id is a no-op", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 9.99})

		deleted, err := svc.DeleteProduct(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = svc.DeleteProduct(context.Background(), created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, 1, pub.callCount())
	})

	t.Run("publish failure propagates after the row is gone", func(t *testing.T) {
		pub := &recordingPublisher{err: assert.AnError}
		svc := newTestService(newMemoryRepo(), pub)

		created := addProduct(t, svc, &dto.ProductAddRequest{Name: "Widget", UnitPrice: 9.99})

		_, err := svc.DeleteProduct(context.Background(), created.ID)
		var pubErr *domain.PublishError
		require.ErrorAs(t, err, &pubErr)
		assert.Equal(t, domain.EventProductDelete, pubErr.Event)

		// row already physically removed
		fetched, err := svc.GetProductByCondition(context.Background(), domain.ByID(created.ID))
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})
}

func TestReadWorkflows(t *testing.T) {
	t.Run("empty store lists no products", func(t *testing.T) {
		svc := newTestService(newMemoryRepo(), &recordingPublisher{})

		products, err := svc.GetProducts(context.Background())
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("category contains matches case-insensitively", func(t *testing.T) {
		svc := newTestService(newMemoryRepo(), &recordingPublisher{})

		addProduct(t, svc, &dto.ProductAddRequest{Name: "Hammer", Category: "Tools", UnitPrice: 1})
		addProduct(t, svc, &dto.ProductAddRequest{Name: "Kit", Category: "tool kits", UnitPrice: 1})
		addProduct(t, svc, &dto.ProductAddRequest{Name: "Bread", Category: "Food", UnitPrice: 1})

		products, err := svc.GetProductsByCondition(context.Background(), domain.CategoryContains("tool"))
		require.NoError(t, err)
		require.Len(t, products, 2)

		names := []string{products[0].Name, products[1].Name}
		assert.ElementsMatch(t, []string{"Hammer", "Kit"}, names)
	})

	t.Run("lookup miss yields nil response without error", func(t *testing.T) {
		svc := newTestService(newMemoryRepo(), &recordingPublisher{})

		product, err := svc.GetProductByCondition(context.Background(), domain.ByID(uuid.New()))
		require.NoError(t, err)
		assert.Nil(t, product)
	})
}

// stubRepo overrides individual repository operations on top of a
// working backing repository.
type stubRepo struct {
	domain.ProductRepository
	addFn    func(context.Context, *domain.Product) (*domain.Product, error)
	updateFn func(context.Context, *domain.Product) (*domain.Product, error)
}

func (s *stubRepo) AddProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if s.addFn != nil {
		return s.addFn(ctx, p)
	}
	return s.ProductRepository.AddProduct(ctx, p)
}

func (s *stubRepo) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, p)
	}
	return s.ProductRepository.UpdateProduct(ctx, p)
}
