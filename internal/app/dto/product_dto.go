package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecommerce-micro/products-service/internal/domain"
)

// ProductAddRequest represents the request to create a product
type ProductAddRequest struct {
	Name            string  `json:"name" validate:"required"`
	Category        string  `json:"category"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	QuantityInStock int     `json:"quantity_in_stock" validate:"gte=0"`
}

// ProductUpdateRequest represents the request to update a product
type ProductUpdateRequest struct {
	ID              uuid.UUID `json:"id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	Category        string    `json:"category"`
	UnitPrice       float64   `json:"unit_price" validate:"gte=0"`
	QuantityInStock int       `json:"quantity_in_stock" validate:"gte=0"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	UnitPrice       float64   `json:"unit_price"`
	QuantityInStock int       `json:"quantity_in_stock"`
}

// AddRequestToProduct converts an add request to a domain Product,
// minting a fresh identifier.
func AddRequestToProduct(req *ProductAddRequest) *domain.Product {
	return &domain.Product{
		ID:              uuid.New(),
		Name:            req.Name,
		Category:        req.Category,
		UnitPrice:       decimal.NewFromFloat(req.UnitPrice),
		QuantityInStock: req.QuantityInStock,
	}
}

// UpdateRequestToProduct converts an update request to a domain
// Product carrying the target identifier.
func UpdateRequestToProduct(req *ProductUpdateRequest) *domain.Product {
	return &domain.Product{
		ID:              req.ID,
		Name:            req.Name,
		Category:        req.Category,
		UnitPrice:       decimal.NewFromFloat(req.UnitPrice),
		QuantityInStock: req.QuantityInStock,
	}
}

// ToProductResponse converts a domain Product to ProductResponse.
// A nil product yields a nil response.
func ToProductResponse(p *domain.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		UnitPrice:       p.UnitPrice.InexactFloat64(),
		QuantityInStock: p.QuantityInStock,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
