package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/identity"
	"github.com/fjod/thread-storefront/internal/session"
	"github.com/fjod/thread-storefront/pkg/logger"
	"github.com/fjod/thread-storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	sessionKey   contextKey = "session"
	requestIDKey contextKey = "request_id"
)

// Session is the per-request auth client and access controller.
type Session struct {
	Auth       *identity.Client
	Controller *session.Controller
}

// UserID is empty for anonymous sessions.
func (s *Session) UserID() string {
	if s == nil || s.Controller == nil {
		return ""
	}
	user, ok := s.Controller.User()
	if !ok {
		return ""
	}
	return user.ID
}

func (s *Session) User() (domain.User, bool) {
	if s == nil || s.Controller == nil {
		return domain.User{}, false
	}
	return s.Controller.User()
}

func sessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok {
		return s
	}
	return nil
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// SessionMiddleware builds a Session for each request. A bearer token, when
// sent, is used for a one-time sign-in; without one the session stays
// anonymous. A nil identity service leaves the session degraded.
func SessionMiddleware(auth *identity.Service, counter session.CartCounter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctrl := session.NewController(counter, logger.WithContext(r.Context(), log))
			sess := &Session{Controller: ctrl}

			token := bearerToken(r)
			if auth != nil {
				sess.Auth = identity.NewClient(auth)
				ctrl.Start(r.Context(), sess.Auth, token)
			} else {
				ctrl.Start(r.Context(), nil, token)
			}
			defer ctrl.Stop()

			setCartCount(w, ctrl.CartCount())
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setCartCount overwrites the badge header. Handlers that change the cart or
// the signed-in user call it again before writing the body.
func setCartCount(w http.ResponseWriter, n int) {
	w.Header().Set("X-Cart-Count", strconv.Itoa(n))
}

// checkBootstrapToken verifies a configured bootstrap token once at startup.
// It is never applied to requests: clients opt in by sending it as their
// bearer token.
func checkBootstrapToken(auth *identity.Service, token string, log *zap.Logger) {
	if token == "" {
		return
	}
	if auth == nil {
		log.Warn("bootstrap token configured but identity provider is unavailable")
		return
	}
	user, err := auth.VerifyToken(token)
	if err != nil {
		log.Warn("bootstrap token rejected", zap.Error(err))
		return
	}
	log.Info("bootstrap token verified, send it as a bearer token to sign in",
		zap.String("user_id", user.ID))
}

// RequireView gates a route group on the session decision for view.
func RequireView(view session.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromContext(r.Context())
			if sess == nil {
				respondRedirect(w, http.StatusUnauthorized, "auth_required", "please sign in", session.ViewLogin)
				return
			}
			out := sess.Controller.Decide(view)
			switch out.Kind {
			case session.Render:
				next.ServeHTTP(w, r)
			case session.Redirect:
				respondRedirect(w, http.StatusUnauthorized, "auth_required", "please sign in", out.Target)
			default:
				respondError(w, http.StatusServiceUnavailable, "session_pending", "session is not ready yet")
			}
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context(), log).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())),
			)
		})
	}
}

// MetricsMiddleware records request counts and latency by route pattern.
func MetricsMiddleware(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}
