package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/avatarctic/boltedex/internal/core/ports"
	"github.com/avatarctic/boltedex/internal/infrastructure/httpserver"
	"github.com/avatarctic/boltedex/internal/infrastructure/redis"
)

func newServeCmd() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the preload scheduler",
		Long: "Starts the HTTP API immediately and warms the catalog in the background. " +
			"Requests made before the cache is reachable fail with CACHE_ERROR until the startup warm succeeds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), shutdownTimeout)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests and preload jobs")
	return cmd
}

func runServe(ctx context.Context, shutdownTimeout time.Duration) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	logger.WithField("version", version).Info("Starting boltedex...")

	// The scheduler polls until the cache is reachable, so startup must not block on it.
	client := redis.NewLazyRedisClient(&cfg.Redis)
	d := buildDeps(cfg, logger, client, prometheus.DefaultRegisterer)
	defer d.Close()

	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}

	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		TLSCertFile:     cfg.Server.TLSCertFile,
		TLSKeyFile:      cfg.Server.TLSKeyFile,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		DefaultPageSize: cfg.Cache.DefaultPageSize,
	}, logger, httpserver.ServerDeps{
		CatalogService:     d.catalog,
		RateLimiterService: d.limiter,
		Preload:            d.scheduler,
		HealthCheckers:     []ports.HealthChecker{d.probe},
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case runErr = <-serveErr:
		logger.WithError(runErr).Error("HTTP server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	}
	if err := d.scheduler.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("preload scheduler did not drain")
	}

	logger.Info("Server exited")
	return runErr
}
