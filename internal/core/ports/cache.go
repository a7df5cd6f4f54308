package ports

import (
	"context"
	"time"
)

// Cache defines a minimal key-value cache contract with native expiry.
// Implementations should degrade gracefully (returning an error without crashing callers).
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL (0 or negative means no expiration if supported).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is currently present.
	Exists(ctx context.Context, key string) (bool, error)
}

// SortedIndexStore is an ordered set of members that all share one score, so
// ranking is purely lexicographic.
type SortedIndexStore interface {
	// ReplaceSet atomically swaps the whole set for members and applies ttl.
	// An empty members slice leaves the key absent.
	ReplaceSet(ctx context.Context, key string, members []string, ttl time.Duration) error
	// Range returns members by rank, inclusive on both ends; -1 means the last member.
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	// Rank returns member's zero-based rank. ok=false if member is absent.
	Rank(ctx context.Context, key, member string) (int64, bool, error)
	// Size returns the member count; 0 for a missing key.
	Size(ctx context.Context, key string) (int64, error)
	// TTL returns the remaining lifetime. ok=false if the key is missing or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
}

// HealthChecker abstracts a dependency health probe.
// Implementations should return error if unhealthy. The cache backend checker is
// also what the preload scheduler polls before its startup warm.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
