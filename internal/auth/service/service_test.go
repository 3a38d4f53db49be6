package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"credencia/internal/auth"
	"credencia/pkg/domainerrors"
	"credencia/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	store   *auth.MemoryStore
	lockout *auth.MemoryLockout
	service *Service
	now     time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.store = auth.NewMemoryStore()
	s.lockout = auth.NewMemoryLockout()
	s.now = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, "test-signing-key", time.Hour,
		WithLockout(s.lockout),
		WithLogger(logger),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Upsert(context.Background(), &auth.AdminUser{
		Username:     "admin",
		PasswordHash: string(hash),
		CreatedAt:    s.now,
	}))
}

func (s *AuthServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AuthServiceSuite) TestLogin() {
	s.Run("valid credentials issue a verifiable token", func() {
		token, err := s.service.Login(s.ctx(), "admin", "s3cret")
		s.Require().NoError(err)

		username, err := s.service.ValidateToken(token)
		s.Require().NoError(err)
		s.Equal("admin", username)
	})

	s.Run("wrong password is unauthorized with the generic message", func() {
		_, err := s.service.Login(s.ctx(), "admin", "nope")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
		s.Equal("Credenciais inválidas. Verifique usuário e senha.", domainerrors.MessageOf(err))
	})

	s.Run("unknown user reads exactly like a wrong password", func() {
		_, wrongUser := s.service.Login(s.ctx(), "ghost", "s3cret")
		_, wrongPass := s.service.Login(s.ctx(), "admin", "nope")
		s.Equal(domainerrors.MessageOf(wrongPass), domainerrors.MessageOf(wrongUser))
	})
}

func (s *AuthServiceSuite) TestLockout() {
	for i := 0; i < auth.LockoutThreshold; i++ {
		_, err := s.service.Login(s.ctx(), "admin", "nope")
		s.Require().Error(err)
	}

	s.Run("correct password is rejected while locked", func() {
		_, err := s.service.Login(s.ctx(), "admin", "s3cret")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	s.Run("lock expires with the window", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(auth.LockoutWindow+time.Minute))
		token, err := s.service.Login(later, "admin", "s3cret")
		s.Require().NoError(err)
		s.NotEmpty(token)
	})
}

func (s *AuthServiceSuite) TestValidateToken() {
	s.Run("garbage is rejected", func() {
		_, err := s.service.ValidateToken("not-a-token")
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	s.Run("expired token is rejected", func() {
		past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Hour))
		token, err := s.service.Login(past, "admin", "s3cret")
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(token)
		s.Require().Error(err)
		s.Equal("token expirado", domainerrors.MessageOf(err))
	})

	s.Run("token signed with another key is rejected", func() {
		other := New(s.store, "other-key", time.Hour, WithLockout(auth.NewMemoryLockout()))
		token, err := other.Login(s.ctx(), "admin", "s3cret")
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(token)
		s.Require().Error(err)
	})
}

func (s *AuthServiceSuite) TestSeedAdmin() {
	ctx := context.Background()

	s.Run("creates the bootstrap account once", func() {
		s.Require().NoError(SeedAdmin(ctx, s.store, "boot", "pass"))
		first, err := s.store.FindByUsername(ctx, "boot")
		s.Require().NoError(err)

		s.Require().NoError(SeedAdmin(ctx, s.store, "boot", "changed"))
		second, err := s.store.FindByUsername(ctx, "boot")
		s.Require().NoError(err)
		s.Equal(first.PasswordHash, second.PasswordHash)
	})

	s.Run("blank credentials are a no-op", func() {
		s.Require().NoError(SeedAdmin(ctx, s.store, "", ""))
		_, err := s.store.FindByUsername(ctx, "")
		s.Error(err)
	})
}
