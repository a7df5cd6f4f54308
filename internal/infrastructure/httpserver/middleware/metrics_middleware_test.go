package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/boltedex/internal/infrastructure/httpserver/middleware"
)

func newInstrumentedEcho() (*echo.Echo, *prometheus.CounterVec, *prometheus.HistogramVec) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_requests_total"}, []string{"method", "endpoint", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_request_duration_seconds"}, []string{"method", "endpoint"})

	e := echo.New()
	e.Use(middleware.NewMetricsMiddleware(requests, latency, "/metrics").CollectHTTPMetrics())
	e.GET("/api/v1/pokemon/:name", func(c echo.Context) error {
		if c.Param("name") == "missingno" {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return c.String(http.StatusOK, c.Param("name"))
	})
	e.GET("/metrics", func(c echo.Context) error { return c.String(http.StatusOK, "") })
	return e, requests, latency
}

func hit(e *echo.Echo, target string) int {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Code
}

func TestMetricsMiddleware_LabelsByRouteTemplate(t *testing.T) {
	e, requests, latency := newInstrumentedEcho()

	require.Equal(t, http.StatusOK, hit(e, "/api/v1/pokemon/pikachu"))
	require.Equal(t, http.StatusOK, hit(e, "/api/v1/pokemon/eevee"))
	require.Equal(t, http.StatusNotFound, hit(e, "/api/v1/pokemon/missingno"))

	require.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues("GET", "/api/v1/pokemon/:name", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("GET", "/api/v1/pokemon/:name", "404")))
	require.Equal(t, 1, testutil.CollectAndCount(latency))
}

func TestMetricsMiddleware_UnmatchedPathsShareOneLabel(t *testing.T) {
	e, requests, _ := newInstrumentedEcho()

	require.Equal(t, http.StatusNotFound, hit(e, "/wp-admin/1"))
	require.Equal(t, http.StatusNotFound, hit(e, "/random/path/2"))

	require.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues("GET", middleware.UnmatchedRoute, "404")))
	require.Equal(t, 1, testutil.CollectAndCount(requests))
}

func TestMetricsMiddleware_SkipsScrapes(t *testing.T) {
	e, requests, latency := newInstrumentedEcho()

	require.Equal(t, http.StatusOK, hit(e, "/metrics"))
	require.Equal(t, http.StatusOK, hit(e, "/metrics"))

	require.Equal(t, 0, testutil.CollectAndCount(requests))
	require.Equal(t, 0, testutil.CollectAndCount(latency))
}
