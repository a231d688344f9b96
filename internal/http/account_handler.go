package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	account *service.AccountService
	orders  *service.OrderService
	timeout time.Duration
	logger  *zap.Logger
}

func NewAccountHandler(account *service.AccountService, orders *service.OrderService, timeout time.Duration, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{account: account, orders: orders, timeout: timeout, logger: logger}
}

// GET /api/v1/account
func (h *AccountHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, _ := sessionFromContext(r.Context()).User()
	overview, err := h.account.Overview(ctx, user)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if overview.Orders == nil {
		overview.Orders = []domain.Order{}
	}
	if overview.Wishlist == nil {
		overview.Wishlist = []domain.WishlistItem{}
	}
	respondJSON(w, http.StatusOK, overview)
}

// GET /api/v1/orders
func (h *AccountHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.List(ctx, sessionFromContext(r.Context()).UserID())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}
