package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/session"
	"go.uber.org/zap"
)

type AuthHandler struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewAuthHandler(timeout time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{timeout: timeout, logger: logger}
}

type SignUpRequestDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponseDTO struct {
	User     domain.User  `json:"user"`
	Token    string       `json:"token"`
	Redirect session.View `json:"redirect"`
}

// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if sess == nil || sess.Auth == nil {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "sign up is not available right now")
		return
	}

	var req SignUpRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	user, err := sess.Auth.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	setCartCount(w, sess.Controller.CartCount())
	respondJSON(w, http.StatusCreated, AuthResponseDTO{User: user, Token: sess.Auth.Token(), Redirect: session.ViewAccount})
}

// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if sess == nil || sess.Auth == nil {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "sign in is not available right now")
		return
	}

	var req SignInRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	user, err := sess.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	setCartCount(w, sess.Controller.CartCount())
	respondJSON(w, http.StatusOK, AuthResponseDTO{User: user, Token: sess.Auth.Token(), Redirect: session.ViewAccount})
}

// POST /api/v1/auth/signout
//
// Tokens are stateless; the client drops its token. The session still
// transitions to anonymous so the response carries a zero cart count.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess != nil && sess.Auth != nil {
		sess.Auth.SignOut()
	}
	setCartCount(w, 0)
	respondJSON(w, http.StatusOK, map[string]session.View{"redirect": session.ViewHome})
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionFromContext(r.Context()).User()
	if !ok {
		handleServiceError(w, h.logger, &domain.AuthRequiredError{Action: "view your profile"})
		return
	}
	respondJSON(w, http.StatusOK, user)
}
