package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-micro/products-service/internal/domain"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/telemetry"
)

func newRepo() *ProductRepository {
	telem := telemetry.NewTestTelemetry()
	return NewProductRepository(telem.TracerProvider.Tracer("test"), telem.Logger)
}

func seed(t *testing.T, repo *ProductRepository, name, category string) *domain.Product {
	t.Helper()
	stored, err := repo.AddProduct(context.Background(), &domain.Product{
		ID:              uuid.New(),
		Name:            name,
		Category:        category,
		UnitPrice:       decimal.NewFromFloat(9.99),
		QuantityInStock: 100,
	})
	require.NoError(t, err)
	return stored
}

func TestGetProducts(t *testing.T) {
	repo := newRepo()

	products, err := repo.GetProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)

	seed(t, repo, "Hammer", "Tools")
	seed(t, repo, "Bread", "Food")

	products, err = repo.GetProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestGetProductByCondition(t *testing.T) {
	repo := newRepo()
	stored := seed(t, repo, "Hammer", "Tools")

	t.Run("match by id", func(t *testing.T) {
		found, err := repo.GetProductByCondition(context.Background(), domain.ByID(stored.ID))
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, stored.Name, found.Name)
	})

	t.Run("no match is nil, not an error", func(t *testing.T) {
		found, err := repo.GetProductByCondition(context.Background(), domain.ByID(uuid.New()))
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGetProductsByCondition(t *testing.T) {
	repo := newRepo()
	seed(t, repo, "Hammer", "Tools")
	seed(t, repo, "Kit", "tool kits")
	seed(t, repo, "Bread", "Food")

	products, err := repo.GetProductsByCondition(context.Background(), domain.CategoryContains("tool"))
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestUpdateProduct(t *testing.T) {
	t.Run("absent id returns nil without error", func(t *testing.T) {
		repo := newRepo()

		updated, err := repo.UpdateProduct(context.Background(), &domain.Product{ID: uuid.New()})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("overwrites mutable fields, keeps identity", func(t *testing.T) {
		repo := newRepo()
		stored := seed(t, repo, "Hammer", "Tools")

		updated, err := repo.UpdateProduct(context.Background(), &domain.Product{
			ID:              stored.ID,
			Name:            "Sledgehammer",
			Category:        "Heavy Tools",
			UnitPrice:       decimal.NewFromFloat(19.99),
			QuantityInStock: 5,
		})
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, stored.ID, updated.ID)
		assert.Equal(t, "Sledgehammer", updated.Name)
		assert.Equal(t, "Heavy Tools", updated.Category)
		assert.True(t, decimal.NewFromFloat(19.99).Equal(updated.UnitPrice))
		assert.Equal(t, 5, updated.QuantityInStock)
	})
}

func TestDeleteProduct(t *testing.T) {
	repo := newRepo()
	stored := seed(t, repo, "Hammer", "Tools")

	deleted, err := repo.DeleteProduct(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	found, err := repo.GetProductByCondition(context.Background(), domain.ByID(stored.ID))
	require.NoError(t, err)
	assert.Nil(t, found)

	deleted, err = repo.DeleteProduct(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReturnedProductsDoNotAliasStore(t *testing.T) {
	repo := newRepo()
	stored := seed(t, repo, "Hammer", "Tools")

	// mutating a returned product must not leak into the store
	stored.Name = "Mangled"

	found, err := repo.GetProductByCondition(context.Background(), domain.ByID(stored.ID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Hammer", found.Name)

	found.Name = "Also Mangled"
	again, err := repo.GetProductByCondition(context.Background(), domain.ByID(stored.ID))
	require.NoError(t, err)
	assert.Equal(t, "Hammer", again.Name)
}
