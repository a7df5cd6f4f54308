package repositories

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

const detailCacheName = "detail"

// DetailCache is a cache-aside store of normalized entities. Concurrent misses
// for the same name collapse into one upstream fetch.
type DetailCache struct {
	cache    ports.Cache
	upstream ports.UpstreamClient
	ttl      time.Duration
	metrics  ports.CatalogMetrics
	logger   *logrus.Logger
	sf       singleflight.Group
}

func NewDetailCache(cache ports.Cache, upstream ports.UpstreamClient, ttl time.Duration, metrics ports.CatalogMetrics, logger *logrus.Logger) *DetailCache {
	return &DetailCache{cache: cache, upstream: upstream, ttl: ttl, metrics: metrics, logger: logger}
}

func (d *DetailCache) Get(ctx context.Context, name string) (*catalog.Entity, bool, error) {
	return cacheGet[catalog.Entity](d.cache, ctx, detailKey(name))
}

func (d *DetailCache) Put(ctx context.Context, name string, e *catalog.Entity, ttl time.Duration) error {
	b, err := msgpack.Marshal(e)
	if err != nil {
		return catalog.MappingError("failed to encode "+name, err)
	}
	if err := d.cache.Set(ctx, detailKey(name), b, ttl); err != nil {
		return catalog.CacheError("failed to store "+name, err)
	}
	return nil
}

func (d *DetailCache) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := d.cache.Exists(ctx, detailKey(name))
	if err != nil {
		return false, catalog.CacheError("failed to check "+name, err)
	}
	return ok, nil
}

// Load fetches name from upstream and writes it through. A NotFound result is
// returned as is and never cached.
func (d *DetailCache) Load(ctx context.Context, name string) (*catalog.Entity, error) {
	v, err := doShared(ctx, &d.sf, name, func(ctx context.Context) (any, error) {
		e, err := d.upstream.FetchEntity(ctx, name)
		if err != nil {
			d.recordFailure(err)
			return nil, err
		}
		if err := d.Put(ctx, name, e, d.ttl); err != nil && d.logger != nil {
			d.logger.WithField("name", name).WithError(err).Warn("detail write-through failed")
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Entity), nil
}

func (d *DetailCache) GetOrFetch(ctx context.Context, name string) (*catalog.Entity, error) {
	e, ok, err := d.Get(ctx, name)
	if err != nil {
		d.recordFailure(err)
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.CacheLookup(detailCacheName, ok)
	}
	if ok {
		return e, nil
	}
	return d.Load(ctx, name)
}

func (d *DetailCache) Invalidate(ctx context.Context, name string) error {
	if err := d.cache.Delete(ctx, detailKey(name)); err != nil {
		return catalog.CacheError("failed to invalidate "+name, err)
	}
	return nil
}

func (d *DetailCache) recordFailure(err error) {
	if d.metrics == nil {
		return
	}
	switch catalog.KindOf(err) {
	case catalog.KindNotFound:
		d.metrics.DetailFailure("not_found")
	case catalog.KindUpstream:
		d.metrics.DetailFailure("upstream")
	case catalog.KindCache:
		d.metrics.DetailFailure("cache")
	default:
		d.metrics.DetailFailure("internal")
	}
}
