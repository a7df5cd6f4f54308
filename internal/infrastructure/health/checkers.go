package health

import (
	"context"

	"github.com/avatarctic/boltedex/internal/core/ports"
)

// Prober is satisfied by cache backends that can round-trip a probe key.
type Prober interface {
	Ping(ctx context.Context) error
}

// cacheHealthChecker runs a write+read probe against the cache backend.
type cacheHealthChecker struct{ backend Prober }

func (c *cacheHealthChecker) Name() string                    { return "redis" }
func (c *cacheHealthChecker) Check(ctx context.Context) error { return c.backend.Ping(ctx) }

// NewCacheHealthChecker creates the probe shared by /health and the preload scheduler.
func NewCacheHealthChecker(backend Prober) ports.HealthChecker {
	return &cacheHealthChecker{backend: backend}
}
