package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WishlistHandler struct {
	wishlist *service.WishlistService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewWishlistHandler(wishlist *service.WishlistService, timeout time.Duration, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, timeout: timeout, logger: logger}
}

type SaveItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type SaveItemResponseDTO struct {
	Item    domain.WishlistItem `json:"item"`
	Added   bool                `json:"added"`
	Message string              `json:"message"`
}

// GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.List(ctx, sessionFromContext(r.Context()).UserID())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// POST /api/v1/wishlist
func (h *WishlistHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SaveItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	res, err := h.wishlist.AddProduct(ctx, sessionFromContext(r.Context()).UserID(), req.ProductID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !res.Added {
		respondJSON(w, http.StatusOK, SaveItemResponseDTO{Item: res.Item, Added: false, Message: "already saved"})
		return
	}
	respondJSON(w, http.StatusCreated, SaveItemResponseDTO{Item: res.Item, Added: true, Message: "saved to wishlist"})
}

// DELETE /api/v1/wishlist/{id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.wishlist.Remove(ctx, sessionFromContext(r.Context()).UserID(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/wishlist/{id}/move-to-cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	line, err := h.wishlist.MoveToCart(ctx, sess.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	sess.Controller.RefreshCartCount(ctx)
	setCartCount(w, sess.Controller.CartCount())
	respondJSON(w, http.StatusOK, line)
}
