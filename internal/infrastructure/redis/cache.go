package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache implements ports.Cache and ports.SortedIndexStore on one Redis client.
type RedisCache struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.r.Set(ctx, c.namespaced(key), value, ttl).Err()
}

// Delete implements Cache.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.r.Del(ctx, c.namespaced(key)).Err()
}

// Exists implements Cache.Exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.r.Exists(ctx, c.namespaced(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplaceSet implements SortedIndexStore.ReplaceSet. Delete, insert and expire
// run in one MULTI so readers never observe a half-built set.
func (c *RedisCache) ReplaceSet(ctx context.Context, key string, members []string, ttl time.Duration) error {
	ns := c.namespaced(key)
	pipe := c.r.TxPipeline()
	pipe.Del(ctx, ns)
	if len(members) > 0 {
		zs := make([]*redis.Z, 0, len(members))
		for _, m := range members {
			zs = append(zs, &redis.Z{Score: 0, Member: m})
		}
		pipe.ZAdd(ctx, ns, zs...)
		if ttl > 0 {
			pipe.Expire(ctx, ns, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Range implements SortedIndexStore.Range.
func (c *RedisCache) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.r.ZRange(ctx, c.namespaced(key), start, stop).Result()
}

// Rank implements SortedIndexStore.Rank.
func (c *RedisCache) Rank(ctx context.Context, key, member string) (int64, bool, error) {
	rank, err := c.r.ZRank(ctx, c.namespaced(key), member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

// Size implements SortedIndexStore.Size.
func (c *RedisCache) Size(ctx context.Context, key string) (int64, error) {
	return c.r.ZCard(ctx, c.namespaced(key)).Result()
}

// TTL implements SortedIndexStore.TTL. Redis reports -1 (no expiry) and -2
// (missing key) as negative durations.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := c.r.TTL(ctx, c.namespaced(key)).Result()
	if err != nil {
		return 0, false, err
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

// Ping round-trips a write and a read against a probe key.
func (c *RedisCache) Ping(ctx context.Context) error {
	const probe = "health:probe"
	if err := c.Set(ctx, probe, []byte("ok"), 10*time.Second); err != nil {
		return err
	}
	if _, ok, err := c.Get(ctx, probe); err != nil {
		return err
	} else if !ok {
		return errors.New("probe key vanished after write")
	}
	return nil
}
