package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	professionalservice "credencia/internal/professional/service"
	"credencia/internal/registration/service"
	"credencia/internal/transport/shared"
	"credencia/pkg/domainerrors"
	"credencia/pkg/registration"
)

// maxSubmissionBytes bounds the whole multipart submission: form fields plus
// a handful of capped documents.
const maxSubmissionBytes = 64 * 1024 * 1024

// Service is the orchestrator surface the handler needs.
type Service interface {
	Submit(ctx context.Context, draft *registration.Draft, files []service.File) (*service.Outcome, error)
}

type Handler struct {
	submissions Service
	logger      *slog.Logger
}

func New(submissions Service, logger *slog.Logger) *Handler {
	return &Handler{submissions: submissions, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations/", h.handleSubmit)
}

// handleSubmit accepts one multipart request carrying the registration JSON
// in a "registration" part and any number of "documents" file parts.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "requisição multipart inválida"))
		return
	}

	var req shared.DraftRequest
	if err := json.Unmarshal([]byte(r.FormValue("registration")), &req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "dados de cadastro inválidos"))
		return
	}

	var files []service.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["documents"] {
			f, err := header.Open()
			if err != nil {
				shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeBadRequest, "falha ao ler documento"))
				return
			}
			defer f.Close()
			files = append(files, service.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        f,
			})
		}
	}

	outcome, err := h.submissions.Submit(ctx, req.ToDraft(), files)
	if err != nil {
		var verr *professionalservice.ValidationError
		if errors.As(err, &verr) {
			shared.WriteValidationError(w, verr.Fields)
			return
		}
		h.logger.WarnContext(ctx, "registration rejected", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, outcome)
}
