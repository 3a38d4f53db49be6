package cnpj

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"credencia/internal/platform/metrics"
	str "credencia/pkg/platform/strings"
)

// Service fronts the registry provider with a format precheck and a result
// cache.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type serviceConfig struct {
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*serviceConfig)

func WithCache(c Cache, ttl time.Duration) Option {
	return func(cfg *serviceConfig) {
		cfg.cache = c
		cfg.ttl = ttl
	}
}
func WithMetrics(m *metrics.Metrics) Option { return func(cfg *serviceConfig) { cfg.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(cfg *serviceConfig) { cfg.logger = l } }

func NewService(provider Provider, opts ...Option) *Service {
	cfg := &serviceConfig{ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = NewMemoryCache()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		provider: provider,
		cache:    cfg.cache,
		ttl:      cfg.ttl,
		metrics:  cfg.metrics,
		logger:   cfg.logger,
	}
}

// Validate checks one CNPJ. Anything that does not clean to 14 digits is
// rejected locally; otherwise the cache is consulted before the provider,
// and definitive outcomes are cached for the configured TTL.
func (s *Service) Validate(ctx context.Context, cnpj string) (Result, error) {
	ctx, span := otel.Tracer("credencia/lookup/cnpj").Start(ctx, "cnpj.validate")
	defer span.End()

	clean := str.Digits(cnpj)
	if len(clean) != 14 {
		s.count(StatusInvalidFormat)
		return Result{
			Valid:   false,
			Status:  StatusInvalidFormat,
			Message: "CNPJ deve ter 14 dígitos.",
		}, nil
	}
	span.SetAttributes(attribute.String("cnpj.digits", clean))

	if cached, ok, err := s.cache.Get(ctx, clean); err != nil {
		s.logger.WarnContext(ctx, "cnpj cache read failed", "error", err)
	} else if ok {
		s.count("cache_hit")
		return cached, nil
	}

	result, err := s.provider.Validate(ctx, clean)
	if err != nil {
		s.count(StatusError)
		return Result{}, err
	}
	s.count(result.Status)

	if result.Definitive() {
		if err := s.cache.Set(ctx, clean, result, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "cnpj cache write failed", "error", err)
		}
	}
	return result, nil
}

func (s *Service) count(status string) {
	if s.metrics != nil {
		s.metrics.CNPJLookups.WithLabelValues(status).Inc()
	}
}
