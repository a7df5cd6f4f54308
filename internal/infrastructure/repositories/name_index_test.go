package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/infrastructure/repositories"
	tmocks "github.com/avatarctic/boltedex/test/mocks"
)

var catalogNames = []string{"pikachu", "bulbasaur", "charmander", "squirtle", "abra", "mew", "eevee", "zubat", "pidgey", "onix"}

func namesUpstream(names ...string) *tmocks.UpstreamClientMock {
	return &tmocks.UpstreamClientMock{FetchAllNamesFn: func(ctx context.Context) ([]string, error) {
		return append([]string(nil), names...), nil
	}}
}

func TestNameIndex_EnsureWarmIsIdempotent(t *testing.T) {
	cache, mr := tmocks.NewRedisCache(t)
	up := namesUpstream(catalogNames...)
	idx := repositories.NewNameIndex(cache, up, 24*time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, idx.EnsureWarm(ctx))
	require.NoError(t, idx.EnsureWarm(ctx))
	require.Equal(t, int64(1), up.AllNamesCalls.Load())

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(len(catalogNames)), size)
	require.True(t, mr.Exists("catalog:names:sorted"))

	ttl, ok, err := idx.RemainingTTL(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 24*time.Hour, ttl)
}

func TestNameIndex_PaginationIsContiguous(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	idx := repositories.NewNameIndex(cache, namesUpstream(catalogNames...), time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	all, err := idx.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"abra", "bulbasaur", "charmander", "eevee", "mew", "onix", "pidgey", "pikachu", "squirtle", "zubat"}, all)

	for n := 1; n <= len(all); n++ {
		for m := 1; m <= len(all); m++ {
			first, err := idx.Page(ctx, "", n)
			require.NoError(t, err)
			require.Equal(t, all[:n], first)

			second, err := idx.Page(ctx, first[len(first)-1], m)
			require.NoError(t, err)
			end := n + m
			if end > len(all) {
				end = len(all)
			}
			if end == n {
				require.Empty(t, second, "n=%d m=%d", n, m)
				continue
			}
			require.Equal(t, all[n:end], second, "n=%d m=%d", n, m)
		}
	}
}

func TestNameIndex_UnknownCursorRestartsAtFirstPage(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	idx := repositories.NewNameIndex(cache, namesUpstream(catalogNames...), time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	first, err := idx.Page(ctx, "", 3)
	require.NoError(t, err)
	fallback, err := idx.Page(ctx, "not-a-real-name", 3)
	require.NoError(t, err)
	require.Equal(t, first, fallback)
}

func TestNameIndex_NonPositiveLimitIsEmpty(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	idx := repositories.NewNameIndex(cache, namesUpstream(catalogNames...), time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	for _, limit := range []int{0, -1} {
		page, err := idx.Page(ctx, "", limit)
		require.NoError(t, err)
		require.Empty(t, page)
	}
}

func TestNameIndex_UpstreamFailureKeepsPriorState(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	up := namesUpstream("a", "b", "c")
	idx := repositories.NewNameIndex(cache, up, time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	up.FetchAllNamesFn = func(ctx context.Context) ([]string, error) {
		return nil, catalog.UpstreamError("unreachable", errors.New("dial tcp: refused"))
	}
	_, err := idx.Rebuild(ctx)
	require.Error(t, err)
	require.Equal(t, catalog.KindCache, catalog.KindOf(err))
	require.True(t, errors.Is(err, catalog.ErrUpstream))

	all, err := idx.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, all)
}

func TestNameIndex_RebuildReplacesAndDedupes(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	up := namesUpstream("a", "b")
	idx := repositories.NewNameIndex(cache, up, time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	up.FetchAllNamesFn = func(ctx context.Context) ([]string, error) { return []string{"c", "b", "c", ""}, nil }
	n, err := idx.Rebuild(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	all, err := idx.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, all)
}

func TestNameIndex_ExpiredIndexIsRewarmed(t *testing.T) {
	cache, mr := tmocks.NewRedisCache(t)
	up := namesUpstream("a")
	idx := repositories.NewNameIndex(cache, up, time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, idx.EnsureWarm(ctx))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, idx.EnsureWarm(ctx))
	require.Equal(t, int64(2), up.AllNamesCalls.Load())
}

func TestNameIndex_CacheDownIsCacheError(t *testing.T) {
	cache, mr := tmocks.NewRedisCache(t)
	idx := repositories.NewNameIndex(cache, namesUpstream("a"), time.Hour, nil)
	mr.Close()
	err := idx.EnsureWarm(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrCacheUnavailable))
}

func TestNameIndex_CancelledCallerDoesNotFailSharedWarm(t *testing.T) {
	cache, _ := tmocks.NewRedisCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	up := &tmocks.UpstreamClientMock{FetchAllNamesFn: func(ctx context.Context) ([]string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []string{"a", "b", "c"}, nil
	}}
	idx := repositories.NewNameIndex(cache, up, time.Hour, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() { firstErr <- idx.EnsureWarm(firstCtx) }()
	<-started

	secondErr := make(chan error, 1)
	go func() { secondErr <- idx.EnsureWarm(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(release)
	require.NoError(t, <-secondErr)
	require.Equal(t, int64(1), up.AllNamesCalls.Load())

	size, err := idx.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), size)
}
