package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

// SearchIndex derives one sorted set per normalized query from the NameIndex.
type SearchIndex struct {
	store  ports.SortedIndexStore
	names  ports.NameIndex
	ttl    time.Duration
	logger *logrus.Logger
	sf     singleflight.Group
}

func NewSearchIndex(store ports.SortedIndexStore, names ports.NameIndex, ttl time.Duration, logger *logrus.Logger) *SearchIndex {
	return &SearchIndex{store: store, names: names, ttl: ttl, logger: logger}
}

// ResultsFor pages over the derived set for query, building it first when it is
// absent. A blank query pages over the full NameIndex.
func (s *SearchIndex) ResultsFor(ctx context.Context, query, cursor string, limit int) ([]string, error) {
	q := catalog.NormalizeQuery(query)
	if q == "" {
		return s.names.Page(ctx, cursor, limit)
	}
	if err := s.ensure(ctx, q); err != nil {
		return nil, err
	}
	return pageOf(ctx, s.store, searchKey(q), cursor, limit)
}

// Size reports the derived set size as currently stored; 0 when absent.
func (s *SearchIndex) Size(ctx context.Context, query string) (int64, error) {
	q := catalog.NormalizeQuery(query)
	if q == "" {
		return s.names.Size(ctx)
	}
	size, err := s.store.Size(ctx, searchKey(q))
	if err != nil {
		return 0, catalog.CacheError("failed to read search index size", err)
	}
	return size, nil
}

func (s *SearchIndex) ensure(ctx context.Context, q string) error {
	key := searchKey(q)
	size, err := s.store.Size(ctx, key)
	if err != nil {
		return catalog.CacheError("failed to read search index size", err)
	}
	if size > 0 {
		return nil
	}
	_, err = doShared(ctx, &s.sf, key, func(ctx context.Context) (any, error) {
		all, err := s.names.All(ctx)
		if err != nil {
			return nil, err
		}
		matches := make([]string, 0)
		for _, name := range all {
			if strings.Contains(strings.ToLower(name), q) {
				matches = append(matches, name)
			}
		}
		// No matches leaves the key absent; the next lookup rescans.
		if err := s.store.ReplaceSet(ctx, key, matches, s.ttl); err != nil {
			return nil, catalog.CacheError("failed to store search index", err)
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"query": q, "count": len(matches)}).Debug("search index rebuilt")
		}
		return nil, nil
	})
	return err
}
