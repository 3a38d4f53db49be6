package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credencia/internal/transport/shared"
)

// Overviewer is the service surface the handler needs.
type Overviewer interface {
	Overview(ctx context.Context) (*Stats, error)
}

type Handler struct {
	dashboard Overviewer
	logger    *slog.Logger
}

func NewHandler(dashboard Overviewer, logger *slog.Logger) *Handler {
	return &Handler{dashboard: dashboard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/dashboard/", h.handleOverview)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Overview(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard aggregation failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}
