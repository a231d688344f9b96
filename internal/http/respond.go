package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/identity"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/fjod/thread-storefront/internal/session"
	"github.com/fjod/thread-storefront/pkg/circuitbreaker"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error    string       `json:"error"`
	Code     string       `json:"code,omitempty"`
	Field    string       `json:"field,omitempty"`
	Redirect session.View `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func respondRedirect(w http.ResponseWriter, status int, code, message string, target session.View) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code, Redirect: target})
}

// handleServiceError maps the domain error taxonomy onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validation *domain.ValidationError
		authErr    *domain.AuthRequiredError
		notFound   *domain.NotFoundError
		configErr  *domain.ConfigurationError
		remote     *domain.RemoteOperationError
	)

	switch {
	case service.IsRedirectToShop(err):
		respondRedirect(w, http.StatusConflict, "empty_cart", err.Error(), session.ViewShop)
	case errors.Is(err, domain.ErrCartChanged):
		respondError(w, http.StatusConflict, "cart_changed", "your cart changed since checkout started, please review it")
	case errors.Is(err, domain.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "checkout_not_found", err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, identity.ErrInvalidToken):
		respondRedirect(w, http.StatusUnauthorized, "invalid_token", "session expired, please sign in again", session.ViewLogin)
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validation.Error(), Code: "validation_error", Field: validation.Field})
	case errors.As(err, &authErr):
		respondRedirect(w, http.StatusUnauthorized, "auth_required", authErr.Error(), session.ViewLogin)
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &configErr):
		logger.Error("collaborator not configured", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "service is not available right now")
	case circuitbreaker.IsOpen(err):
		logger.Warn("store circuit open", zap.Error(err))
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", "storage is recovering, please try again shortly")
	case errors.As(err, &remote):
		logger.Error("remote operation failed", zap.String("op", remote.Op), zap.Error(remote.Err))
		respondError(w, http.StatusBadGateway, "remote_error", "something went wrong, please try again")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Message: "invalid JSON body"}
	}
	return nil
}
