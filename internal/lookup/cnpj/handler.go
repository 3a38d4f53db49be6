package cnpj

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credencia/internal/transport/shared"
	"credencia/pkg/domainerrors"
)

// Validator is the service surface the handler needs.
type Validator interface {
	Validate(ctx context.Context, cnpj string) (Result, error)
}

type Handler struct {
	cnpj   Validator
	logger *slog.Logger
}

func NewHandler(cnpj Validator, logger *slog.Logger) *Handler {
	return &Handler{cnpj: cnpj, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/validate-cnpj/", h.handleValidate)
}

// handleValidate answers the live form check. Invalid CNPJs are still a 200
// carrying valid=false; only a missing parameter is a client error.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("cnpj")
	if raw == "" {
		shared.WriteJSON(w, http.StatusBadRequest, Result{
			Valid:   false,
			Status:  StatusMissingParam,
			Message: "Informe o parâmetro cnpj.",
		})
		return
	}

	result, err := h.cnpj.Validate(ctx, raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "cnpj validation failed", "error", err.Error())
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInternal, "Erro interno na validação do CNPJ."))
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
