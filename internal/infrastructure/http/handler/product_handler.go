package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecommerce-micro/products-service/internal/app/dto"
	"github.com/ecommerce-micro/products-service/internal/app/service"
	"github.com/ecommerce-micro/products-service/internal/domain"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/http/response"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.AddProduct(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/search/product-id/%s", product.ID))
	response.JSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid product id: %w", err))
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !deleted {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, true)
}

// GetProducts handles GET /api/products
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

// GetProductByID handles GET /api/products/search/product-id/{id}
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid product id: %w", err))
		return
	}

	product, err := h.service.GetProductByCondition(r.Context(), domain.ByID(id))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if product == nil {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// SearchProducts handles GET /api/products/search/{searchString}.
// Matches products whose name or category contains the search string,
// case-insensitive, deduplicated by id.
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	searchString := chi.URLParam(r, "searchString")

	byName, err := h.service.GetProductsByCondition(r.Context(), domain.NameContains(searchString))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	byCategory, err := h.service.GetProductsByCondition(r.Context(), domain.CategoryContains(searchString))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	seen := make(map[uuid.UUID]bool, len(byName))
	products := make([]*dto.ProductResponse, 0, len(byName)+len(byCategory))
	for _, p := range append(byName, byCategory...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		products = append(products, p)
	}

	response.JSON(w, http.StatusOK, products)
}

// writeServiceError maps domain failures to transport responses.
func (h *ProductHandler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationProblem(w, verr.Violations)
	case errors.Is(err, domain.ErrNilRequest):
		response.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
	default:
		response.Error(w, http.StatusInternalServerError, err)
	}
}
