package repositories

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

// NameIndex keeps every known entity name in one zero-weight sorted set.
type NameIndex struct {
	store    ports.SortedIndexStore
	upstream ports.UpstreamClient
	ttl      time.Duration
	logger   *logrus.Logger
	sf       singleflight.Group
}

func NewNameIndex(store ports.SortedIndexStore, upstream ports.UpstreamClient, ttl time.Duration, logger *logrus.Logger) *NameIndex {
	return &NameIndex{store: store, upstream: upstream, ttl: ttl, logger: logger}
}

// EnsureWarm populates the index only when it is empty or absent.
func (n *NameIndex) EnsureWarm(ctx context.Context) error {
	size, err := n.Size(ctx)
	if err != nil {
		return err
	}
	if size > 0 {
		return nil
	}
	_, err = n.Rebuild(ctx)
	return err
}

// Rebuild refetches the full name list and swaps it in atomically. On upstream
// failure the existing set is left as it was. Concurrent callers share one fetch.
func (n *NameIndex) Rebuild(ctx context.Context) (int, error) {
	v, err := doShared(ctx, &n.sf, namesKey, func(ctx context.Context) (any, error) {
		names, err := n.upstream.FetchAllNames(ctx)
		if err != nil {
			return 0, catalog.CacheError("failed to warm name index", err)
		}
		names = dedupe(names)
		if err := n.store.ReplaceSet(ctx, namesKey, names, n.ttl); err != nil {
			return 0, catalog.CacheError("failed to replace name index", err)
		}
		if n.logger != nil {
			n.logger.WithFields(logrus.Fields{"count": len(names), "ttl": n.ttl.String()}).Info("name index rebuilt")
		}
		return len(names), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (n *NameIndex) Page(ctx context.Context, cursor string, limit int) ([]string, error) {
	return pageOf(ctx, n.store, namesKey, cursor, limit)
}

func (n *NameIndex) All(ctx context.Context) ([]string, error) {
	names, err := n.store.Range(ctx, namesKey, 0, -1)
	if err != nil {
		return nil, catalog.CacheError("failed to read name index", err)
	}
	return names, nil
}

func (n *NameIndex) Size(ctx context.Context) (int64, error) {
	size, err := n.store.Size(ctx, namesKey)
	if err != nil {
		return 0, catalog.CacheError("failed to read name index size", err)
	}
	return size, nil
}

// RemainingTTL returns ok=false when the index is absent or has no expiry.
func (n *NameIndex) RemainingTTL(ctx context.Context) (time.Duration, bool, error) {
	ttl, ok, err := n.store.TTL(ctx, namesKey)
	if err != nil {
		return 0, false, catalog.CacheError("failed to read name index ttl", err)
	}
	return ttl, ok, nil
}

// pageOf returns up to limit members ranked strictly after cursor. An empty or
// unknown cursor starts from the first member.
func pageOf(ctx context.Context, store ports.SortedIndexStore, key, cursor string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	var start int64
	if cursor != "" {
		rank, ok, err := store.Rank(ctx, key, cursor)
		if err != nil {
			return nil, catalog.CacheError("failed to resolve cursor", err)
		}
		if ok {
			start = rank + 1
		}
	}
	names, err := store.Range(ctx, key, start, start+int64(limit)-1)
	if err != nil {
		return nil, catalog.CacheError("failed to read page", err)
	}
	return names, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
