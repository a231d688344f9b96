package http

import (
	"net/http"

	"github.com/fjod/thread-storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ViewHandler struct {
	logger *zap.Logger
}

func NewViewHandler(logger *zap.Logger) *ViewHandler {
	return &ViewHandler{logger: logger}
}

type ViewResponseDTO struct {
	Outcome   string       `json:"outcome"`
	View      session.View `json:"view"`
	Target    session.View `json:"target,omitempty"`
	State     string       `json:"state"`
	Degraded  bool         `json:"degraded"`
	CartCount int          `json:"cart_count"`
}

// GET /api/v1/views/{page}
//
// Answers what the page should do for this session: render, redirect or wait.
func (h *ViewHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	view, err := session.ParseRoute(chi.URLParam(r, "page"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	sess := sessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "no session")
		return
	}
	ctrl := sess.Controller
	out := ctrl.Decide(view)
	respondJSON(w, http.StatusOK, ViewResponseDTO{
		Outcome:   out.Kind.String(),
		View:      out.View,
		Target:    out.Target,
		State:     ctrl.State().String(),
		Degraded:  ctrl.Degraded(),
		CartCount: ctrl.CartCount(),
	})
}
