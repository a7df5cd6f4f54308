package repositories

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

// cacheSetSilently writes through and only logs on failure; the caller already
// holds the value and returns it either way.
func cacheSetSilently(c ports.Cache, ctx context.Context, logger *logrus.Logger, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := msgpack.Marshal(v)
	if err == nil {
		err = c.Set(ctx, key, b, ttl)
	}
	if err != nil && logger != nil {
		logger.WithField("key", key).WithError(err).Warn("cache write failed")
	}
}

// cacheGet decodes a cached value. Undecodable entries count as misses and are
// overwritten by the next fill.
func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, catalog.CacheError("failed to read "+key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var v T
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, false, nil
	}
	return &v, true, nil
}

// loadWithSingleflight is cache-aside for one key: concurrent misses share a
// single loader call, whose result is written through when store reports true.
func loadWithSingleflight[T any](sf *singleflight.Group, c ports.Cache, ctx context.Context, logger *logrus.Logger, key string, ttl time.Duration, loader func(context.Context) (T, error), store func(T) bool) (T, error) {
	if v, ok, err := cacheGet[T](c, ctx, key); err != nil {
		var zero T
		return zero, err
	} else if ok {
		return *v, nil
	}
	res, err := doShared(ctx, sf, key, func(ctx context.Context) (any, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if store == nil || store(v) {
			cacheSetSilently(c, ctx, logger, key, v, ttl)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// CachingAuxRepository serves species, evolution chain, encounter and ability
// lookups cache-aside, each under its own key prefix.
type CachingAuxRepository struct {
	cache    ports.Cache
	upstream ports.UpstreamClient
	ttl      time.Duration
	logger   *logrus.Logger
	sf       singleflight.Group
}

func NewCachingAuxRepository(cache ports.Cache, upstream ports.UpstreamClient, ttl time.Duration, logger *logrus.Logger) *CachingAuxRepository {
	return &CachingAuxRepository{cache: cache, upstream: upstream, ttl: ttl, logger: logger}
}

func (r *CachingAuxRepository) Species(ctx context.Context, name string) (*catalog.SpeciesMeta, error) {
	return loadWithSingleflight(&r.sf, r.cache, ctx, r.logger, speciesKeyPrefix+name, r.ttl,
		func(ctx context.Context) (*catalog.SpeciesMeta, error) { return r.upstream.FetchSpecies(ctx, name) }, nil)
}

func (r *CachingAuxRepository) EvolutionChain(ctx context.Context, chainID string) (*catalog.EvolutionNode, error) {
	return loadWithSingleflight(&r.sf, r.cache, ctx, r.logger, chainKeyPrefix+chainID, r.ttl,
		func(ctx context.Context) (*catalog.EvolutionNode, error) {
			return r.upstream.FetchEvolutionChain(ctx, chainID)
		}, nil)
}

func (r *CachingAuxRepository) Encounters(ctx context.Context, name string) ([]string, error) {
	areas, err := loadWithSingleflight(&r.sf, r.cache, ctx, r.logger, encountersKeyPrefix+name, r.ttl,
		func(ctx context.Context) ([]string, error) { return r.upstream.FetchEncounters(ctx, name) }, nil)
	if err != nil {
		return nil, err
	}
	if areas == nil {
		areas = []string{}
	}
	return areas, nil
}

// Abilities resolves every ability slot with its English description. Lists that
// are empty or whose first description is blank are not cached.
func (r *CachingAuxRepository) Abilities(ctx context.Context, name string) ([]catalog.Ability, error) {
	abilities, err := loadWithSingleflight(&r.sf, r.cache, ctx, r.logger, abilitiesKeyPrefix+name, r.ttl,
		func(ctx context.Context) ([]catalog.Ability, error) { return r.fetchAbilities(ctx, name) },
		func(v []catalog.Ability) bool { return len(v) > 0 && v[0].Description != "" })
	if err != nil {
		return nil, err
	}
	if abilities == nil {
		abilities = []catalog.Ability{}
	}
	return abilities, nil
}

func (r *CachingAuxRepository) fetchAbilities(ctx context.Context, name string) ([]catalog.Ability, error) {
	refs, err := r.upstream.FetchAbilityRefs(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Ability, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		out[i] = catalog.Ability{Name: ref.Name, Hidden: ref.Hidden}
		if ref.URL == "" {
			continue
		}
		g.Go(func() error {
			desc, err := r.upstream.FetchAbilityDescription(gctx, ref.URL)
			if err != nil {
				return err
			}
			out[i].Description = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
