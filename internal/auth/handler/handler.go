package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credencia/internal/transport/shared"
	"credencia/pkg/domainerrors"
)

// Service is the auth service surface the handler needs.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/token/", h.handleToken)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access string `json:"access"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "corpo da requisição inválido"))
		return
	}

	token, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "login rejected", "username", req.Username)
		} else {
			h.logger.ErrorContext(ctx, "login failed", "error", err.Error())
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenResponse{Access: token})
}
