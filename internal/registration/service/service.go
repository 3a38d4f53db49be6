// Package service orchestrates one-shot registrations: the professional
// record and its supporting documents land together or not at all.
package service

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	documentmodels "credencia/internal/document/models"
	documentservice "credencia/internal/document/service"
	"credencia/internal/lookup/cnpj"
	professionalmodels "credencia/internal/professional/models"
	"credencia/pkg/domainerrors"
	txpkg "credencia/pkg/platform/tx"
	"credencia/pkg/registration"
)

// Registrar creates the professional record.
type Registrar interface {
	Register(ctx context.Context, draft *registration.Draft) (*professionalmodels.Professional, error)
}

// Uploader stores one supporting document and can discard it again when a
// submission is compensated.
type Uploader interface {
	Upload(ctx context.Context, up documentservice.UploadRequest) (*documentmodels.Document, error)
	Discard(ctx context.Context, doc *documentmodels.Document) error
}

// RegistryChecker validates corporate tax IDs before anything is written.
type RegistryChecker interface {
	Validate(ctx context.Context, cnpj string) (cnpj.Result, error)
}

// File is one staged upload from the multipart request.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Outcome is the one-shot submission result.
type Outcome struct {
	Professional *professionalmodels.Professional `json:"professional"`
	Documents    []*documentmodels.Document       `json:"documents"`
}

// Service runs the whole submission inside one transaction boundary.
type Service struct {
	professionals Registrar
	documents     Uploader
	registry      RegistryChecker
	tx            txpkg.Runner
	logger        *slog.Logger
}

type serviceConfig struct {
	registry RegistryChecker
	tx       txpkg.Runner
	logger   *slog.Logger
}

type Option func(*serviceConfig)

func WithRegistryChecker(rc RegistryChecker) Option { return func(c *serviceConfig) { c.registry = rc } }
func WithTxRunner(r txpkg.Runner) Option            { return func(c *serviceConfig) { c.tx = r } }
func WithLogger(l *slog.Logger) Option              { return func(c *serviceConfig) { c.logger = l } }

func New(professionals Registrar, documents Uploader, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = txpkg.NoopRunner{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		professionals: professionals,
		documents:     documents,
		registry:      cfg.registry,
		tx:            cfg.tx,
		logger:        cfg.logger,
	}
}

// Submit validates preconditions, then creates the record and uploads every
// file inside one transaction. Any failure rolls the whole submission back,
// documents included.
func (s *Service) Submit(ctx context.Context, draft *registration.Draft, files []File) (*Outcome, error) {
	ctx, span := otel.Tracer("credencia/registration").Start(ctx, "registration.submit")
	defer span.End()
	span.SetAttributes(attribute.Int("registration.files", len(files)))

	stats := make([]registration.FileStat, len(files))
	for i, f := range files {
		stats[i] = registration.FileStat{Name: f.Name, Size: f.Size}
	}
	if err := registration.CheckFileStats(stats); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeBadRequest, err.Error())
	}

	if draft.IsCorporate() && s.registry != nil {
		result, err := s.registry.Validate(ctx, draft.Corporate.CNPJ)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "Erro ao consultar CNPJ. Tente novamente mais tarde.")
		}
		if !result.Valid {
			return nil, domainerrors.New(domainerrors.CodeBadRequest, result.Message)
		}
	}

	var outcome Outcome
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.professionals.Register(txCtx, draft)
		if err != nil {
			return err
		}
		outcome.Professional = p

		for _, f := range files {
			doc, err := s.documents.Upload(txCtx, documentservice.UploadRequest{
				ProfessionalID: p.ID,
				FileName:       f.Name,
				ContentType:    f.ContentType,
				Size:           f.Size,
				Body:           f.Body,
			})
			if err != nil {
				return err
			}
			outcome.Documents = append(outcome.Documents, doc)
		}
		return nil
	})
	if err != nil {
		// The rollback took the rows; payloads written by completed uploads
		// live outside the transaction and are removed here.
		for _, doc := range outcome.Documents {
			if derr := s.documents.Discard(ctx, doc); derr != nil {
				s.logger.WarnContext(ctx, "compensating document cleanup failed",
					"document_id", doc.ID, "blob_key", doc.BlobKey, "error", derr)
			}
		}
		return nil, err
	}
	return &outcome, nil
}
