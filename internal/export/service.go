package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"credencia/internal/platform/metrics"
	"credencia/internal/professional/models"
	"credencia/internal/professional/store"
	"credencia/pkg/domainerrors"
	"credencia/pkg/requestcontext"
	"credencia/pkg/sentinel"
)

// Lister is the slice of the professional store exports read from.
type Lister interface {
	List(ctx context.Context, filter store.Filter) ([]*models.Professional, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Professional, error)
}

// Artifact is one generated download.
type Artifact struct {
	Filename string
	Content  []byte
}

// Service generates spreadsheet downloads for the back office.
type Service struct {
	professionals Lister
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }

func New(professionals Lister, opts ...Option) *Service {
	s := &Service{professionals: professionals, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportList renders every registration matching filter, in the same order
// the admin list shows them.
func (s *Service) ExportList(ctx context.Context, filter store.Filter) (*Artifact, error) {
	professionals, err := s.professionals.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	content, err := render(professionals)
	if err != nil {
		return nil, err
	}
	s.count(ctx, len(professionals))
	return &Artifact{Filename: ListFilename, Content: content}, nil
}

// ExportRecord renders a single registration as a one-row workbook.
func (s *Service) ExportRecord(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	p, err := s.professionals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "registration not found")
		}
		return nil, fmt.Errorf("find professional: %w", err)
	}
	content, err := render([]*models.Professional{p})
	if err != nil {
		return nil, err
	}
	s.count(ctx, 1)
	return &Artifact{
		Filename: RecordFilename(p, requestcontext.Now(ctx)),
		Content:  content,
	}, nil
}

func render(professionals []*models.Professional) ([]byte, error) {
	f, err := buildWorkbook(professionals)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) count(ctx context.Context, rows int) {
	if s.metrics != nil {
		s.metrics.ExcelExports.Inc()
	}
	s.logger.InfoContext(ctx, "excel export generated", "rows", rows)
}
