package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/boltedex/internal/core/ports"
	customMiddleware "github.com/avatarctic/boltedex/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	TLSCertFile     string
	TLSKeyFile      string
	AllowedOrigins  []string
	DefaultPageSize int
}

type ServerDeps struct {
	CatalogService     ports.CatalogService
	RateLimiterService ports.RateLimiterService
	// Optional. When set, /health reports whether the startup warm finished.
	Preload        ports.PreloadScheduler
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	catalogSvc     ports.CatalogService
	preload        ports.PreloadScheduler
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()

	if serverConfig.DefaultPageSize <= 0 {
		serverConfig.DefaultPageSize = 30
	}

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		catalogSvc:     deps.CatalogService,
		preload:        deps.Preload,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
			metricsPath,
		),
	}
	e.HTTPErrorHandler = server.handleError

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
