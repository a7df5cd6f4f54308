package catalog_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

func TestError_CodesAndStatus(t *testing.T) {
	cases := []struct {
		err    *catalog.Error
		code   string
		status int
		target error
	}{
		{catalog.CacheError("read", nil), catalog.CodeCacheError, http.StatusServiceUnavailable, catalog.ErrCacheUnavailable},
		{catalog.UpstreamError("fetch", nil), catalog.CodeAPIError, http.StatusBadGateway, catalog.ErrUpstream},
		{catalog.NotFoundError("missingno"), catalog.CodeNotFound, http.StatusNotFound, catalog.ErrNotFound},
		{catalog.MappingError("shape", nil), catalog.CodeInternalError, http.StatusInternalServerError, catalog.ErrMapping},
	}
	for _, tc := range cases {
		require.Equal(t, tc.code, tc.err.Code())
		require.Equal(t, tc.status, tc.err.Status())
		require.ErrorIs(t, tc.err, tc.target)
	}
}

func TestError_WrappingKeepsBothKinds(t *testing.T) {
	root := errors.New("connection reset")
	up := catalog.UpstreamError("fetch names", root)
	ce := catalog.CacheError("warm name index", up)
	wrapped := fmt.Errorf("get page: %w", ce)

	require.Equal(t, catalog.KindCache, catalog.KindOf(wrapped))
	require.ErrorIs(t, wrapped, catalog.ErrCacheUnavailable)
	require.ErrorIs(t, wrapped, catalog.ErrUpstream)
	require.ErrorIs(t, wrapped, root)
	require.False(t, catalog.IsNotFound(wrapped))
	require.Contains(t, ce.Error(), "connection reset")
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	require.Equal(t, catalog.KindInternal, catalog.KindOf(errors.New("boom")))
	require.True(t, catalog.IsNotFound(fmt.Errorf("x: %w", catalog.NotFoundError("pikachu"))))
	require.Equal(t, `"pikachu" not found`, catalog.NotFoundError("pikachu").Error())
}
