package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/boltedex/internal/application/services"
	tmocks "github.com/avatarctic/boltedex/test/mocks"
)

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	count := 0
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
		require.Equal(t, "ratelimit:client", keyPrefix)
		require.Equal(t, 2*window, ttl)
		count++
		return count, time.Now().Truncate(window), nil
	}}
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{DefaultRequestsPerMinute: 2, BurstMultiplier: 1.5}, nil)

	allowed, remaining, limit, _, err := svc.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 2, remaining)
	require.Equal(t, 2, limit)

	_, _, _, _, _ = svc.Allow(context.Background(), "10.0.0.1")
	_, _, _, _, _ = svc.Allow(context.Background(), "10.0.0.1")
	allowed, remaining, _, _, err = svc.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
		return 0, time.Now(), errors.New("redis down")
	}}
	svc := impl.NewRateLimiterService(repo, nil, nil)
	allowed, _, limit, _, err := svc.Allow(context.Background(), "10.0.0.1")
	require.Error(t, err)
	require.True(t, allowed)
	require.Equal(t, 300, limit)
}
