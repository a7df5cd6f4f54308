package mocks

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"

	rcache "github.com/avatarctic/boltedex/internal/infrastructure/redis"
)

// NewRedisCache starts an in-process Redis and returns a namespaced cache on it.
func NewRedisCache(t *testing.T) (*rcache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rcache.NewRedisCache(client, "catalog"), mr
}
