package main

import (
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/boltedex/configs"
	"github.com/avatarctic/boltedex/internal/application/services"
	"github.com/avatarctic/boltedex/internal/core/ports"
	"github.com/avatarctic/boltedex/internal/infrastructure/health"
	"github.com/avatarctic/boltedex/internal/infrastructure/metrics"
	"github.com/avatarctic/boltedex/internal/infrastructure/redis"
	"github.com/avatarctic/boltedex/internal/infrastructure/repositories"
	"github.com/avatarctic/boltedex/internal/infrastructure/upstream"
)

// deps is the fully wired object graph shared by every subcommand.
type deps struct {
	cfg       *config.Config
	logger    *logrus.Logger
	client    *goredis.Client
	names     *repositories.NameIndex
	catalog   *services.CatalogService
	scheduler *services.PreloadScheduler
	limiter   *services.RateLimiterService
	probe     ports.HealthChecker
}

func buildDeps(cfg *config.Config, logger *logrus.Logger, client *goredis.Client, reg prometheus.Registerer) *deps {
	cache := redis.NewRedisCache(client, cfg.Redis.KeyPrefix)
	api := upstream.NewClient(&cfg.Upstream, logger)
	catalogMetrics := metrics.NewCatalogMetrics(reg)

	names := repositories.NewNameIndex(cache, api, cfg.Cache.CatalogTTL, logger)
	search := repositories.NewSearchIndex(cache, names, cfg.Cache.SearchTTL, logger)
	details := repositories.NewDetailCache(cache, api, cfg.Cache.DetailTTL, catalogMetrics, logger)
	aux := repositories.NewCachingAuxRepository(cache, api, cfg.Cache.DetailTTL, logger)
	probe := health.NewCacheHealthChecker(cache)

	catalogSvc := services.NewCatalogService(names, search, details, aux, &services.CatalogServiceConfig{
		MaxPageSize:     cfg.Cache.MaxPageSize,
		PageConcurrency: cfg.Cache.PageConcurrency,
	}, logger)

	scheduler := services.NewPreloadScheduler(names, details, probe, catalogMetrics, services.PreloadConfig{
		DetailsEnabled:     cfg.Preload.DetailsEnabled,
		PollInterval:       cfg.Preload.PollInterval,
		NamesSchedule:      cfg.Preload.NamesSchedule,
		DetailsSchedule:    cfg.Preload.DetailsSchedule,
		DetailDelay:        cfg.Preload.DetailDelay,
		FreshnessThreshold: cfg.Preload.FreshnessThreshold,
		JobTimeout:         cfg.Preload.JobTimeout,
	}, logger)

	limiter := services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(client), &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
		Window:                   cfg.RateLimit.Window,
		KeyPrefix:                cfg.Redis.KeyPrefix + ":" + cfg.RateLimit.KeyPrefix,
	}, logger)

	return &deps{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		names:     names,
		catalog:   catalogSvc,
		scheduler: scheduler,
		limiter:   limiter,
		probe:     probe,
	}
}

func (d *deps) Close() {
	if err := d.client.Close(); err != nil {
		d.logger.WithError(err).Warn("closing redis client")
	}
}
