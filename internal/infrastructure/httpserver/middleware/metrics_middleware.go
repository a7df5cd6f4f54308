package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// UnmatchedRoute labels requests that hit no registered route, so arbitrary
// request paths never become label values.
const UnmatchedRoute = "unmatched"

// MetricsMiddleware counts requests and observes latency per route template.
type MetricsMiddleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	skip     map[string]struct{}

	routesOnce sync.Once
	routes     map[string]struct{}
}

// NewMetricsMiddleware records into requests (method, endpoint, status) and
// latency (method, endpoint). Routes listed in skip are not recorded.
func NewMetricsMiddleware(requests *prometheus.CounterVec, latency *prometheus.HistogramVec, skip ...string) *MetricsMiddleware {
	m := &MetricsMiddleware{requests: requests, latency: latency, skip: make(map[string]struct{}, len(skip))}
	for _, p := range skip {
		m.skip[p] = struct{}{}
	}
	return m
}

func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := m.routeOf(c)
			if _, ok := m.skip[route]; ok {
				return next(c)
			}

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// routeOf returns the matched route template, or UnmatchedRoute when the
// router found nothing registered for the request.
func (m *MetricsMiddleware) routeOf(c echo.Context) string {
	m.routesOnce.Do(func() {
		m.routes = make(map[string]struct{})
		for _, r := range c.Echo().Routes() {
			m.routes[r.Path] = struct{}{}
		}
	})
	if _, ok := m.routes[c.Path()]; ok {
		return c.Path()
	}
	return UnmatchedRoute
}
