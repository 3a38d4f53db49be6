package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"credencia/internal/audit"
	"credencia/internal/auth"
	"credencia/internal/platform/metrics"
	"credencia/pkg/domainerrors"
	"credencia/pkg/requestcontext"
	"credencia/pkg/sentinel"
)

// invalidCredentials is the only failure message login exposes. Unknown
// account, wrong password, and lockout all look alike to a caller.
const invalidCredentials = "Credenciais inválidas. Verifique usuário e senha."

// Claims are the back office token claims.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service authenticates admins and issues/validates bearer tokens.
type Service struct {
	store      auth.Store
	lockout    auth.Lockout
	signingKey []byte
	tokenTTL   time.Duration
	audit      *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type serviceConfig struct {
	lockout auth.Lockout
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*serviceConfig)

func WithLockout(l auth.Lockout) Option     { return func(c *serviceConfig) { c.lockout = l } }
func WithAudit(p *audit.Publisher) Option   { return func(c *serviceConfig) { c.audit = p } }
func WithMetrics(m *metrics.Metrics) Option { return func(c *serviceConfig) { c.metrics = m } }
func WithLogger(lg *slog.Logger) Option     { return func(c *serviceConfig) { c.logger = lg } }

func New(store auth.Store, signingKey string, tokenTTL time.Duration, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lockout == nil {
		cfg.lockout = auth.NewMemoryLockout()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		store:      store,
		lockout:    cfg.lockout,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		audit:      cfg.audit,
		metrics:    cfg.metrics,
		logger:     cfg.logger,
	}
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	locked, err := s.lockout.Locked(ctx, username)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check failed", "error", err)
	}
	if locked {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, invalidCredentials)
	}

	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", s.failed(ctx, username)
	}
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load account")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", s.failed(ctx, username)
	}

	if err := s.lockout.Clear(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "lockout clear failed", "error", err)
	}

	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Username,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to sign token")
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Entry{
			Actor:       user.Username,
			Action:      audit.ActionView,
			TargetModel: "AdminUser",
			TargetID:    user.Username,
			Details:     "Login no painel administrativo",
		}); err != nil {
			s.logger.WarnContext(ctx, "audit append failed", "error", err)
		}
	}
	return signed, nil
}

func (s *Service) failed(ctx context.Context, username string) error {
	if err := s.lockout.RecordFailure(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "lockout record failed", "error", err)
	}
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	return domainerrors.New(domainerrors.CodeUnauthorized, invalidCredentials)
}

// ValidateToken checks the signature and expiry and returns the admin
// username. Satisfies the auth middleware.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domainerrors.New(domainerrors.CodeUnauthorized, "token expirado")
		}
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "token inválido")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Username == "" {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "token inválido")
	}
	return claims.Username, nil
}

// SeedAdmin ensures the configured bootstrap account exists. A blank
// username or password leaves the store untouched.
func SeedAdmin(ctx context.Context, store auth.Store, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := store.FindByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.Upsert(ctx, &auth.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
}
