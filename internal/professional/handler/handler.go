package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"credencia/internal/audit"
	"credencia/internal/export"
	"credencia/internal/professional/models"
	"credencia/internal/professional/service"
	"credencia/internal/professional/store"
	"credencia/internal/transport/shared"
	"credencia/pkg/domainerrors"
	"credencia/pkg/registration"
)

// Service is the professional service surface the handler needs.
type Service interface {
	Register(ctx context.Context, draft *registration.Draft) (*models.Professional, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Professional, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Professional, error)
	Review(ctx context.Context, id uuid.UUID, upd service.ReviewUpdate) (*models.Professional, error)
	History(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
}

// Exporter generates the spreadsheet downloads.
type Exporter interface {
	ExportList(ctx context.Context, filter store.Filter) (*export.Artifact, error)
	ExportRecord(ctx context.Context, id uuid.UUID) (*export.Artifact, error)
}

type Handler struct {
	professionals Service
	exports       Exporter
	logger        *slog.Logger
}

func New(professionals Service, exports Exporter, logger *slog.Logger) *Handler {
	return &Handler{professionals: professionals, exports: exports, logger: logger}
}

// RegisterPublic mounts the registration endpoint, reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/professionals/", h.handleCreate)
}

// RegisterAdmin mounts the review endpoints that sit behind admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/professionals/", h.handleList)
	r.Get("/professionals/export_excel/", h.handleExportList)
	r.Get("/professionals/{id}/", h.handleGet)
	r.Patch("/professionals/{id}/", h.handleReview)
	r.Get("/professionals/{id}/history/", h.handleHistory)
	r.Get("/professionals/{id}/export_excel/", h.handleExportRecord)
}

// handleCreate accepts the flat JSON payload the registration form posts.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req shared.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "dados de cadastro inválidos"))
		return
	}

	p, err := h.professionals.Register(ctx, req.ToDraft())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			shared.WriteValidationError(w, verr.Fields)
			return
		}
		h.logger.WarnContext(ctx, "registration rejected", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out, err := h.professionals.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if out == nil {
		out = []*models.Professional{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	p, err := h.professionals.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	var upd service.ReviewUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "corpo da requisição inválido"))
		return
	}

	p, err := h.professionals.Review(ctx, id, upd)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	entries, err := h.professionals.History(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleExportList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	artifact, err := h.exports.ExportList(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func (h *Handler) handleExportRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	artifact, err := h.exports.ExportRecord(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func writeArtifact(w http.ResponseWriter, artifact *export.Artifact) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Content)
}

// filterFromQuery maps the list query parameters onto a store filter. The
// ordering parameter follows the established convention: a field name,
// prefixed with "-" for descending.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	filter := store.Filter{Search: strings.TrimSpace(q.Get("search"))}

	if raw := q.Get("status"); raw != "" {
		status := models.Status(strings.ToUpper(raw))
		if !status.Valid() {
			return store.Filter{}, domainerrors.Newf(domainerrors.CodeBadRequest, "status desconhecido: %s", raw)
		}
		filter.Status = status
	}

	switch ordering := q.Get("ordering"); ordering {
	case "", "-submission_date":
		// Newest first is the default.
	case "submission_date":
		filter.OrderBy = "submission_date"
		filter.Ascending = true
	case "name":
		filter.OrderBy = "name"
		filter.Ascending = true
	case "-name":
		filter.OrderBy = "name"
	default:
		return store.Filter{}, domainerrors.Newf(domainerrors.CodeBadRequest, "ordenação desconhecida: %s", ordering)
	}

	return filter, nil
}
