package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

var (
	ErrSchedulerRunning = errors.New("preload scheduler already running")
	ErrWarmInProgress   = errors.New("detail warm already in progress")
)

const (
	taskStartup = "startup"
	taskNames   = "names"
	taskDetails = "details"

	warmProgressEvery = 50
)

// PreloadConfig controls the background warm tasks.
type PreloadConfig struct {
	DetailsEnabled     bool
	PollInterval       time.Duration
	NamesSchedule      string
	DetailsSchedule    string
	DetailDelay        time.Duration
	FreshnessThreshold time.Duration
	JobTimeout         time.Duration
}

// PreloadScheduler keeps the name index (and optionally the detail cache) warm.
// Every task logs its own failure and never blocks the next scheduled run.
type PreloadScheduler struct {
	names   ports.NameIndex
	details ports.DetailCache
	probe   ports.HealthChecker
	metrics ports.CatalogMetrics
	cfg     PreloadConfig
	logger  *logrus.Logger

	// mu guards the per-run state below across Start and Stop.
	mu          sync.Mutex
	cron        *cron.Cron
	cancel      context.CancelFunc
	loopDone    chan struct{}
	running     bool
	startupDone atomic.Bool
	warmMu      sync.Mutex
}

func NewPreloadScheduler(names ports.NameIndex, details ports.DetailCache, probe ports.HealthChecker, metrics ports.CatalogMetrics, cfg PreloadConfig, logger *logrus.Logger) *PreloadScheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.NamesSchedule == "" {
		cfg.NamesSchedule = "0 0 3 * * *"
	}
	if cfg.DetailsSchedule == "" {
		cfg.DetailsSchedule = "0 2 3 * * *"
	}
	if cfg.FreshnessThreshold <= 0 {
		cfg.FreshnessThreshold = 12 * time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PreloadScheduler{names: names, details: details, probe: probe, metrics: metrics, cfg: cfg, logger: logger}
}

// Start registers the daily jobs and launches the startup warm loop. The loop
// and every job stop when ctx is cancelled or Stop is called.
func (s *PreloadScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	runCtx, cancel := context.WithCancel(ctx)

	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.cfg.NamesSchedule, func() {
		s.runTask(runCtx, taskNames, s.refreshNamesTask)
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid names schedule %q: %w", s.cfg.NamesSchedule, err)
	}
	if s.cfg.DetailsEnabled {
		if _, err := c.AddFunc(s.cfg.DetailsSchedule, func() {
			s.runTask(runCtx, taskDetails, s.warmDetailsTask)
		}); err != nil {
			cancel()
			return fmt.Errorf("invalid details schedule %q: %w", s.cfg.DetailsSchedule, err)
		}
	} else {
		s.logger.Info("detail preload is disabled")
	}

	loopDone := make(chan struct{})
	s.cron = c
	s.cancel = cancel
	s.loopDone = loopDone
	s.running = true
	c.Start()

	go func() {
		defer close(loopDone)
		s.startupLoop(runCtx)
	}()

	s.logger.WithFields(logrus.Fields{
		"names_schedule":   s.cfg.NamesSchedule,
		"details_schedule": s.cfg.DetailsSchedule,
		"details_enabled":  s.cfg.DetailsEnabled,
	}).Info("preload scheduler started")
	return nil
}

// Stop cancels in-flight work and waits for it to drain or for ctx to expire.
func (s *PreloadScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	cronDone := s.cron.Stop()
	loopDone := s.loopDone
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-loopDone
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("preload scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("preload scheduler stop: %w", ctx.Err())
	}
}

func (s *PreloadScheduler) StartupDone() bool {
	return s.startupDone.Load()
}

// startupLoop polls the cache backend until it answers, then runs the initial
// warm once. A failed warm is retried on the next poll.
func (s *PreloadScheduler) startupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if s.tryStartup(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *PreloadScheduler) tryStartup(ctx context.Context) bool {
	if s.startupDone.Load() {
		return true
	}
	if s.probe != nil {
		if err := s.probe.Check(ctx); err != nil {
			s.logger.WithError(err).Debug("cache backend not ready, waiting")
			return false
		}
	}
	ok := false
	s.runTask(ctx, taskStartup, func(ctx context.Context, log *logrus.Entry) (string, error) {
		if err := s.names.EnsureWarm(ctx); err != nil {
			return "", err
		}
		if s.cfg.DetailsEnabled {
			if _, err := s.warmDetailsTask(ctx, log); err != nil {
				log.WithError(err).Error("startup detail warm failed")
			}
		}
		ok = true
		return "success", nil
	})
	if ok {
		s.startupDone.Store(true)
	}
	return ok
}

// RefreshNames rebuilds the name index unless it is populated and still has
// more than the freshness threshold of TTL left.
func (s *PreloadScheduler) RefreshNames(ctx context.Context) (bool, error) {
	size, err := s.names.Size(ctx)
	if err != nil {
		return false, err
	}
	ttl, hasTTL, err := s.names.RemainingTTL(ctx)
	if err != nil {
		return false, err
	}
	if size > 0 && hasTTL && ttl > s.cfg.FreshnessThreshold {
		s.logger.WithFields(logrus.Fields{"size": size, "ttl": ttl.String()}).Info("name index is fresh, skipping refresh")
		return false, nil
	}
	if _, err := s.names.Rebuild(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// WarmDetails loads every indexed name missing from the detail cache, one
// upstream call per DetailDelay. Individual failures are counted, not returned.
func (s *PreloadScheduler) WarmDetails(ctx context.Context) (catalog.WarmStats, error) {
	return s.warmDetails(ctx, s.logger.WithField("task", taskDetails))
}

func (s *PreloadScheduler) warmDetails(ctx context.Context, log *logrus.Entry) (catalog.WarmStats, error) {
	var stats catalog.WarmStats
	if !s.warmMu.TryLock() {
		return stats, ErrWarmInProgress
	}
	defer s.warmMu.Unlock()

	names, err := s.names.All(ctx)
	if err != nil {
		return stats, err
	}
	if len(names) == 0 {
		log.Warn("name index is empty, skipping detail warm")
		return stats, nil
	}

	limit := rate.Inf
	if s.cfg.DetailDelay > 0 {
		limit = rate.Every(s.cfg.DetailDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, name := range names {
		exists, err := s.details.Exists(ctx, name)
		if err != nil {
			stats.Failed++
			log.WithField("name", name).WithError(err).Warn("detail existence check failed")
			continue
		}
		if exists {
			stats.Skipped++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}
		if _, err := s.details.Load(ctx, name); err != nil {
			stats.Failed++
			log.WithField("name", name).WithError(err).Warn("failed to preload entity")
		} else {
			stats.Fetched++
		}
		if (stats.Fetched+stats.Failed)%warmProgressEvery == 0 {
			log.WithFields(logrus.Fields{"fetched": stats.Fetched, "skipped": stats.Skipped, "failed": stats.Failed}).Info("detail warm progress")
		}
	}

	if s.metrics != nil {
		s.metrics.WarmCompleted(stats)
	}
	log.WithFields(logrus.Fields{"fetched": stats.Fetched, "skipped": stats.Skipped, "failed": stats.Failed}).Info("detail warm completed")
	return stats, nil
}

func (s *PreloadScheduler) refreshNamesTask(ctx context.Context, _ *logrus.Entry) (string, error) {
	refreshed, err := s.RefreshNames(ctx)
	if err != nil {
		return "", err
	}
	if !refreshed {
		return "skipped", nil
	}
	return "refreshed", nil
}

func (s *PreloadScheduler) warmDetailsTask(ctx context.Context, log *logrus.Entry) (string, error) {
	if _, err := s.warmDetails(ctx, log); err != nil {
		return "", err
	}
	return "success", nil
}

// runTask executes one task run with its own run id and timeout, recording
// the outcome. Errors and panics stop here.
func (s *PreloadScheduler) runTask(ctx context.Context, task string, fn func(context.Context, *logrus.Entry) (string, error)) {
	log := s.logger.WithFields(logrus.Fields{"task": task, "run_id": uuid.NewString()})
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	result, err := func() (result string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
			}
		}()
		log.Info("preload task started")
		return fn(jobCtx, log)
	}()

	if err != nil {
		result = "error"
		log.WithError(err).WithField("duration", time.Since(start).String()).Error("preload task failed")
	} else {
		log.WithFields(logrus.Fields{"result": result, "duration": time.Since(start).String()}).Info("preload task finished")
	}
	if s.metrics != nil {
		s.metrics.PreloadRun(task, result)
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
