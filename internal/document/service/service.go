package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"credencia/internal/audit"
	"credencia/internal/document/blob"
	"credencia/internal/document/models"
	"credencia/internal/document/store"
	"credencia/internal/platform/metrics"
	professionalmodels "credencia/internal/professional/models"
	"credencia/pkg/domainerrors"
	"credencia/pkg/registration"
	"credencia/pkg/requestcontext"
	"credencia/pkg/sentinel"
)

// TargetModel is the audit target label for documents.
const TargetModel = "Document"

// allowedExtensions are the upload formats accepted for supporting documents.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ProfessionalFinder is the slice of the professional store the document
// service needs: uploads must reference an existing record.
type ProfessionalFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*professionalmodels.Professional, error)
}

// UploadRequest is the multipart payload after transport decoding.
type UploadRequest struct {
	ProfessionalID uuid.UUID
	FileName       string
	ContentType    string
	Description    string
	Size           int64
	Body           io.Reader
}

// Service stores document metadata and payloads and keeps the audit trail.
type Service struct {
	store         store.Store
	blobs         blob.Store
	professionals ProfessionalFinder
	audit         *audit.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type serviceConfig struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*serviceConfig)

func WithMetrics(m *metrics.Metrics) Option { return func(c *serviceConfig) { c.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(c *serviceConfig) { c.logger = l } }

func New(st store.Store, blobs blob.Store, professionals ProfessionalFinder, auditPub *audit.Publisher, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		store:         st,
		blobs:         blobs,
		professionals: professionals,
		audit:         auditPub,
		metrics:       cfg.metrics,
		logger:        cfg.logger,
	}
}

// Upload stores the payload under a fresh blob key, then the metadata row.
// When the row insert fails the blob is removed again so orphans do not
// accumulate.
func (s *Service) Upload(ctx context.Context, up UploadRequest) (*models.Document, error) {
	if err := s.check(up); err != nil {
		return nil, err
	}

	if _, err := s.professionals.FindByID(ctx, up.ProfessionalID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "profissional não encontrado")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check professional")
	}

	description := strings.TrimSpace(up.Description)
	if description == "" {
		description = registration.DefaultDocumentDescription
	}

	doc := &models.Document{
		ID:             uuid.New(),
		ProfessionalID: up.ProfessionalID,
		FileName:       filepath.Base(up.FileName),
		Description:    description,
		ContentType:    up.ContentType,
		Size:           up.Size,
		UploadedAt:     requestcontext.Now(ctx),
	}
	doc.BlobKey = doc.ID.String() + strings.ToLower(filepath.Ext(up.FileName))

	if err := s.blobs.Put(ctx, doc.BlobKey, up.Body); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store document payload")
	}
	if err := s.store.Create(ctx, doc); err != nil {
		if derr := s.blobs.Delete(ctx, doc.BlobKey); derr != nil {
			s.logger.Warn("orphaned document payload", "blob_key", doc.BlobKey, "error", derr)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store document")
	}

	if err := s.audit.Emit(ctx, audit.Entry{
		Action:      audit.ActionCreate,
		TargetModel: TargetModel,
		TargetID:    doc.ID.String(),
		Details:     fmt.Sprintf("Documento %q enviado para o profissional %s", doc.FileName, doc.ProfessionalID),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit append failed", "document_id", doc.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.DocumentsUploaded.Inc()
		s.metrics.DocumentBytes.Add(float64(doc.Size))
	}
	return doc, nil
}

// Discard removes a document's payload and, when the row still exists, its
// metadata. The one-shot submission path compensates with it after a
// rollback: the rows are already gone, but blobs live outside the
// transaction.
func (s *Service) Discard(ctx context.Context, doc *models.Document) error {
	if err := s.store.Delete(ctx, doc.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("delete document row: %w", err)
	}
	if err := s.blobs.Delete(ctx, doc.BlobKey); err != nil {
		return fmt.Errorf("delete document payload: %w", err)
	}
	return nil
}

// Open returns the metadata and an open reader on the payload. The caller
// owns closing the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, domainerrors.New(domainerrors.CodeNotFound, "documento não encontrado")
	}
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load document")
	}

	body, err := s.blobs.Open(ctx, doc.BlobKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, domainerrors.New(domainerrors.CodeNotFound, "documento não encontrado")
	}
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to open document payload")
	}

	if err := s.audit.Emit(ctx, audit.Entry{
		Action:      audit.ActionView,
		TargetModel: TargetModel,
		TargetID:    doc.ID.String(),
		Details:     fmt.Sprintf("Download do documento %q", doc.FileName),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit append failed", "document_id", doc.ID, "error", err)
	}
	return doc, body, nil
}

// ListByProfessional returns a professional's documents, oldest first.
func (s *Service) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*models.Document, error) {
	docs, err := s.store.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

func (s *Service) check(up UploadRequest) error {
	ext := strings.ToLower(filepath.Ext(up.FileName))
	if !allowedExtensions[ext] {
		return domainerrors.New(domainerrors.CodeBadRequest,
			"formato de arquivo não permitido, use PDF, JPG, JPEG ou PNG")
	}
	if up.Size > registration.MaxFileSize {
		return domainerrors.Newf(domainerrors.CodeBadRequest,
			"o arquivo %s excede o limite de 5MB", up.FileName)
	}
	if up.Size <= 0 {
		return domainerrors.New(domainerrors.CodeBadRequest, "arquivo vazio")
	}
	return nil
}
