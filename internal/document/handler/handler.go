package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"credencia/internal/document/models"
	"credencia/internal/document/service"
	"credencia/internal/transport/shared"
	"credencia/pkg/domainerrors"
	"credencia/pkg/registration"
)

// Service is the document service surface the handler needs.
type Service interface {
	Upload(ctx context.Context, up service.UploadRequest) (*models.Document, error)
	Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*models.Document, error)
}

type Handler struct {
	documents Service
	logger    *slog.Logger
}

func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// RegisterPublic mounts the upload endpoint, reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/documents/", h.handleUpload)
}

// RegisterAdmin mounts the endpoints that sit behind admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/documents/{id}/download/", h.handleDownload)
	r.Get("/professionals/{id}/documents/", h.handleList)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// A little headroom over the payload limit so the limit error comes
	// from validation, not a truncated read.
	if err := r.ParseMultipartForm(registration.MaxFileSize + 1024*1024); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "requisição multipart inválida"))
		return
	}

	professionalID, err := uuid.Parse(r.FormValue("professional"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador de profissional inválido"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "arquivo ausente"))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(ctx, service.UploadRequest{
		ProfessionalID: professionalID,
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Description:    r.FormValue("description"),
		Size:           header.Size,
		Body:           file,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "document upload rejected", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	doc, body, err := h.documents.Open(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(ctx, "document download interrupted", "document_id", id, "error", err.Error())
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	professionalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "identificador inválido"))
		return
	}

	docs, err := h.documents.ListByProfessional(r.Context(), professionalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	shared.WriteJSON(w, http.StatusOK, docs)
}
