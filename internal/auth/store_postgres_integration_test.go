//go:build integration

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credencia/internal/auth"
	"credencia/pkg/sentinel"
	"credencia/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auth.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = auth.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "admin_users")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestUpsertAndFind() {
	ctx := context.Background()
	user := &auth.AdminUser{
		Username:     "admin",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Upsert(ctx, user))

	got, err := s.store.FindByUsername(ctx, "admin")
	s.Require().NoError(err)
	s.Equal("admin", got.Username)
	s.Equal(user.PasswordHash, got.PasswordHash)
}

func (s *PostgresStoreSuite) TestUpsertReplacesPassword() {
	ctx := context.Background()
	user := &auth.AdminUser{
		Username:     "admin",
		PasswordHash: "hash-one",
		CreatedAt:    time.Now().UTC(),
	}
	s.Require().NoError(s.store.Upsert(ctx, user))

	user.PasswordHash = "hash-two"
	s.Require().NoError(s.store.Upsert(ctx, user))

	got, err := s.store.FindByUsername(ctx, "admin")
	s.Require().NoError(err)
	s.Equal("hash-two", got.PasswordHash)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByUsername(context.Background(), "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
