package health_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/boltedex/internal/infrastructure/health"
	tmocks "github.com/avatarctic/boltedex/test/mocks"
)

func TestCacheHealthChecker(t *testing.T) {
	cache, mr := tmocks.NewRedisCache(t)
	hc := health.NewCacheHealthChecker(cache)
	require.Equal(t, "redis", hc.Name())
	require.NoError(t, hc.Check(context.Background()))
	require.True(t, mr.Exists("catalog:health:probe"))

	mr.Close()
	require.Error(t, hc.Check(context.Background()))
}
