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

type CheckoutHandler struct {
	checkout *service.CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout, logger: logger}
}

type BeginCheckoutRequestDTO struct {
	Email string `json:"email"`
}

type ShippingMethodRequestDTO struct {
	Method string `json:"method"`
}

type DetailsRequestDTO struct {
	Email           string                 `json:"email"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
}

type CheckoutResponseDTO struct {
	Checkout domain.CheckoutState `json:"checkout"`
	Totals   pricing.Totals       `json:"totals"`
	Display  pricing.Display      `json:"display"`
}

type PlaceOrderResponseDTO struct {
	Order       domain.Order    `json:"order"`
	Display     pricing.Display `json:"display"`
	CartCleared bool            `json:"cart_cleared"`
}

func newCheckoutResponse(state domain.CheckoutState) CheckoutResponseDTO {
	totals := pricing.ComputeTotals(state.Items, state.ShippingMethod)
	return CheckoutResponseDTO{Checkout: state, Totals: totals, Display: totals.Display()}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BeginCheckoutRequestDTO
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, h.logger, err)
			return
		}
	}
	sess := sessionFromContext(r.Context())
	if req.Email == "" {
		if user, ok := sess.User(); ok {
			req.Email = user.Email
		}
	}
	state, err := h.checkout.Begin(ctx, sess.UserID(), req.Email)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCheckoutResponse(state))
}

// GET /api/v1/checkout/{id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.checkout.Get(sessionFromContext(r.Context()).UserID(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(state))
}

// PUT /api/v1/checkout/{id}/shipping
func (h *CheckoutHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingMethodRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	method, err := domain.ParseShippingMethod(req.Method)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	state, err := h.checkout.SetShippingMethod(sessionFromContext(r.Context()).UserID(), chi.URLParam(r, "id"), method)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(state))
}

// PUT /api/v1/checkout/{id}/details
func (h *CheckoutHandler) SetDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	state, err := h.checkout.SetDetails(sessionFromContext(r.Context()).UserID(), chi.URLParam(r, "id"), req.Email, req.ShippingAddress)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(state))
}

// POST /api/v1/checkout/{id}/orders
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := sessionFromContext(r.Context()).UserID()
	result, err := h.checkout.PlaceOrder(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	order := result.Order
	display := pricing.Totals{
		Subtotal:     order.Subtotal,
		ShippingCost: order.ShippingCost,
		Tax:          order.Tax,
		Total:        order.Total,
	}.Display()

	if result.CartCleared {
		setCartCount(w, 0)
	}
	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{Order: order, Display: display, CartCleared: result.CartCleared})
}
