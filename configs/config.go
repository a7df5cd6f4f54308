package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Preload   PreloadConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	DB       int
	// Namespace for every catalog key, e.g. "catalog" -> catalog:names:sorted
	KeyPrefix string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type UpstreamConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	ListLimit      int
}

type CacheConfig struct {
	CatalogTTL      time.Duration
	SearchTTL       time.Duration
	DetailTTL       time.Duration
	DefaultPageSize int
	MaxPageSize     int
	PageConcurrency int
}

type PreloadConfig struct {
	DetailsEnabled  bool
	PollInterval    time.Duration
	NamesSchedule   string
	DetailsSchedule string
	DetailDelay     time.Duration
	// Skip the daily name refetch while more than this much TTL remains.
	FreshnessThreshold time.Duration
	JobTimeout         time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Username:     getEnv("REDIS_USERNAME", ""),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "catalog"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Upstream: UpstreamConfig{
			BaseURL:        strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://pokeapi.co/api/v2"), "/"),
			RequestTimeout: getDurationEnv("UPSTREAM_TIMEOUT", 5*time.Second),
			ListLimit:      getIntEnv("UPSTREAM_LIST_LIMIT", 2000),
		},
		Cache: CacheConfig{
			CatalogTTL:      getDurationEnv("CACHE_CATALOG_TTL", 24*time.Hour),
			SearchTTL:       getDurationEnv("CACHE_SEARCH_TTL", time.Hour),
			DetailTTL:       getDurationEnv("CACHE_DETAIL_TTL", 24*time.Hour),
			DefaultPageSize: getIntEnv("PAGE_SIZE_DEFAULT", 30),
			MaxPageSize:     getIntEnv("PAGE_SIZE_MAX", 100),
			PageConcurrency: getIntEnv("PAGE_FETCH_CONCURRENCY", 8),
		},
		Preload: PreloadConfig{
			DetailsEnabled:  getBoolEnv("PRELOAD_DETAILS", false),
			PollInterval:    getDurationEnv("PRELOAD_POLL_INTERVAL", 5*time.Second),
			NamesSchedule:   getEnv("PRELOAD_NAMES_CRON", "0 0 3 * * *"),
			DetailsSchedule: getEnv("PRELOAD_DETAILS_CRON", "0 2 3 * * *"),
			DetailDelay:     getDurationEnv("PRELOAD_DETAIL_DELAY", 100*time.Millisecond),
			JobTimeout:      getDurationEnv("PRELOAD_JOB_TIMEOUT", 2*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 300),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 2.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:client"),
		},
	}

	cfg.Preload.FreshnessThreshold = getDurationEnv("PRELOAD_FRESHNESS_THRESHOLD", cfg.Cache.CatalogTTL/2)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must not be empty")
	}
	if c.Cache.DefaultPageSize <= 0 || c.Cache.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.Cache.DefaultPageSize > c.Cache.MaxPageSize {
		return fmt.Errorf("PAGE_SIZE_DEFAULT (%d) exceeds PAGE_SIZE_MAX (%d)", c.Cache.DefaultPageSize, c.Cache.MaxPageSize)
	}
	if c.Cache.CatalogTTL <= 0 || c.Cache.SearchTTL <= 0 || c.Cache.DetailTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

// RedisAddr returns host:port for the cache backend.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
