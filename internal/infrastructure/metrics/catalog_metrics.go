package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

// CatalogMetrics implements ports.CatalogMetrics with Prometheus collectors.
type CatalogMetrics struct {
	cacheLookups   *prometheus.CounterVec
	detailFailures *prometheus.CounterVec
	preloadRuns    *prometheus.CounterVec
	warmedEntities *prometheus.CounterVec
}

// NewCatalogMetrics creates and registers the collectors on reg. A nil reg
// leaves them unregistered, which tests use to avoid global state.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	m := &CatalogMetrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_cache_lookups_total",
				Help: "Cache lookups by cache and outcome",
			},
			[]string{"cache", "hit"},
		),
		detailFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_detail_failures_total",
				Help: "Detail resolutions that produced no record, by reason",
			},
			[]string{"reason"},
		),
		preloadRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_preload_runs_total",
				Help: "Preload scheduler task runs by task and result",
			},
			[]string{"task", "result"},
		),
		warmedEntities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_detail_warm_entities_total",
				Help: "Entities visited by bulk detail warms, by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.cacheLookups, m.detailFailures, m.preloadRuns, m.warmedEntities)
	}
	return m
}

func (m *CatalogMetrics) CacheLookup(cache string, hit bool) {
	m.cacheLookups.WithLabelValues(cache, strconv.FormatBool(hit)).Inc()
}

func (m *CatalogMetrics) DetailFailure(reason string) {
	m.detailFailures.WithLabelValues(reason).Inc()
}

func (m *CatalogMetrics) PreloadRun(task, result string) {
	m.preloadRuns.WithLabelValues(task, result).Inc()
}

func (m *CatalogMetrics) WarmCompleted(stats catalog.WarmStats) {
	m.warmedEntities.WithLabelValues("fetched").Add(float64(stats.Fetched))
	m.warmedEntities.WithLabelValues("skipped").Add(float64(stats.Skipped))
	m.warmedEntities.WithLabelValues("failed").Add(float64(stats.Failed))
}
