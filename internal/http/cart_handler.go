package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/pricing"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	cart    *service.CartService
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(cart *service.CartService, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, timeout: timeout, logger: logger}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items  []domain.LineItem `json:"items"`
	Count  int               `json:"count"`
	Totals pricing.Display   `json:"totals"`
}

func newCartResponse(cart domain.CartSnapshot) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{
		Items:  items,
		Count:  cart.Count(),
		Totals: pricing.ComputeTotals(cart.Items, domain.ShippingStandard).Display(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.cart.List(ctx, sessionFromContext(r.Context()).UserID())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	setCartCount(w, cart.Count())
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	userID := sessionFromContext(r.Context()).UserID()
	if _, err := h.cart.AddProduct(ctx, userID, req.ProductID, req.Size); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.respondCart(ctx, w, userID, http.StatusCreated)
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	userID := sessionFromContext(r.Context()).UserID()
	if err := h.cart.UpdateQuantity(ctx, userID, chi.URLParam(r, "id"), req.Quantity); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.respondCart(ctx, w, userID, http.StatusOK)
}

// DELETE /api/v1/cart/items/{id}?confirm=true
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "confirmation_required", "removing an item must be confirmed with confirm=true")
		return
	}
	userID := sessionFromContext(r.Context()).UserID()
	if err := h.cart.Remove(ctx, userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.respondCart(ctx, w, userID, http.StatusOK)
}

// DELETE /api/v1/cart?confirm=true
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !confirmed(r) {
		respondError(w, http.StatusBadRequest, "confirmation_required", "emptying the cart must be confirmed with confirm=true")
		return
	}
	userID := sessionFromContext(r.Context()).UserID()
	if err := h.cart.Clear(ctx, userID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.respondCart(ctx, w, userID, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, userID string, status int) {
	cart, err := h.cart.Live(ctx, userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	setCartCount(w, cart.Count())
	respondJSON(w, status, newCartResponse(cart))
}

func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}
