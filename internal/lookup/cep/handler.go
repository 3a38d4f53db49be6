package cep

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credencia/internal/transport/shared"
)

// Lookuper is the client surface the handler needs.
type Lookuper interface {
	Lookup(ctx context.Context, code string) (*Address, error)
}

type Handler struct {
	cep    Lookuper
	logger *slog.Logger
}

func NewHandler(cep Lookuper, logger *slog.Logger) *Handler {
	return &Handler{cep: cep, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cep/{code}/", h.handleLookup)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	addr, err := h.cep.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, addr)
}
