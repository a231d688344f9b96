package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog *service.CatalogService
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(catalog *service.CatalogService, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, timeout: timeout, logger: logger}
}

// GET /api/v1/products?search=silk&category=dresses&category=accessories
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	products, err := h.catalog.Filter(ctx, q.Get("search"), q["category"])
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// GET /api/v1/products/featured
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Featured(ctx)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.Find(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
