package repositories

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

// flightTimeout bounds shared work that no longer follows any caller's context.
const flightTimeout = 30 * time.Second

// doShared runs fn once per key across concurrent callers. fn gets a context
// detached from the caller that started it, so one caller leaving does not fail
// the others; each caller still returns as soon as its own ctx is done.
func doShared(ctx context.Context, sf *singleflight.Group, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, catalog.UpstreamError("request cancelled", err)
	}
	ch := sf.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, catalog.UpstreamError("request cancelled", ctx.Err())
	}
}
