//go:build integration

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credencia/internal/auth"
	"credencia/pkg/testutil/containers"
)

type RedisLockoutSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	lockout *auth.RedisLockout
}

func TestRedisLockoutSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockoutSuite))
}

func (s *RedisLockoutSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.lockout = auth.NewRedisLockout(s.redis.Client)
}

func (s *RedisLockoutSuite) TearDownSuite() {
	s.redis.Terminate(context.Background())
}

func (s *RedisLockoutSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockoutSuite) TestLocksAfterThreshold() {
	ctx := context.Background()

	for i := 0; i < auth.LockoutThreshold-1; i++ {
		s.Require().NoError(s.lockout.RecordFailure(ctx, "ana"))
	}
	locked, err := s.lockout.Locked(ctx, "ana")
	s.Require().NoError(err)
	s.False(locked)

	s.Require().NoError(s.lockout.RecordFailure(ctx, "ana"))
	locked, err = s.lockout.Locked(ctx, "ana")
	s.Require().NoError(err)
	s.True(locked)
}

func (s *RedisLockoutSuite) TestAccountsAreIndependent() {
	ctx := context.Background()

	for i := 0; i < auth.LockoutThreshold; i++ {
		s.Require().NoError(s.lockout.RecordFailure(ctx, "ana"))
	}

	locked, err := s.lockout.Locked(ctx, "bruno")
	s.Require().NoError(err)
	s.False(locked)
}

func (s *RedisLockoutSuite) TestClearUnlocks() {
	ctx := context.Background()

	for i := 0; i < auth.LockoutThreshold; i++ {
		s.Require().NoError(s.lockout.RecordFailure(ctx, "ana"))
	}
	s.Require().NoError(s.lockout.Clear(ctx, "ana"))

	locked, err := s.lockout.Locked(ctx, "ana")
	s.Require().NoError(err)
	s.False(locked)
}

func (s *RedisLockoutSuite) TestCounterExpires() {
	ctx := context.Background()

	s.Require().NoError(s.lockout.RecordFailure(ctx, "ana"))

	ttl, err := s.redis.Client.TTL(ctx, "auth:lockout:ana").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, auth.LockoutWindow)
}
