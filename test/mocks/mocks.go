package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

// UpstreamClientMock is a function-field mock for UpstreamClient that also
// counts calls per operation.
type UpstreamClientMock struct {
	FetchEntityFn             func(ctx context.Context, name string) (*catalog.Entity, error)
	FetchAllNamesFn           func(ctx context.Context) ([]string, error)
	FetchAbilityRefsFn        func(ctx context.Context, name string) ([]catalog.AbilityRef, error)
	FetchAbilityDescriptionFn func(ctx context.Context, url string) (string, error)
	FetchSpeciesFn            func(ctx context.Context, name string) (*catalog.SpeciesMeta, error)
	FetchEvolutionChainFn     func(ctx context.Context, chainID string) (*catalog.EvolutionNode, error)
	FetchEncountersFn         func(ctx context.Context, name string) ([]string, error)

	EntityCalls    atomic.Int64
	AllNamesCalls  atomic.Int64
	SpeciesCalls   atomic.Int64
	ChainCalls     atomic.Int64
	EncounterCalls atomic.Int64
	AbilityCalls   atomic.Int64
}

var _ ports.UpstreamClient = (*UpstreamClientMock)(nil)

func (m *UpstreamClientMock) FetchEntity(ctx context.Context, name string) (*catalog.Entity, error) {
	m.EntityCalls.Add(1)
	if m.FetchEntityFn != nil {
		return m.FetchEntityFn(ctx, name)
	}
	return nil, catalog.NotFoundError(name)
}
func (m *UpstreamClientMock) FetchAllNames(ctx context.Context) ([]string, error) {
	m.AllNamesCalls.Add(1)
	if m.FetchAllNamesFn != nil {
		return m.FetchAllNamesFn(ctx)
	}
	return nil, catalog.UpstreamError("no names configured", nil)
}
func (m *UpstreamClientMock) FetchAbilityRefs(ctx context.Context, name string) ([]catalog.AbilityRef, error) {
	m.AbilityCalls.Add(1)
	if m.FetchAbilityRefsFn != nil {
		return m.FetchAbilityRefsFn(ctx, name)
	}
	return nil, catalog.NotFoundError(name)
}
func (m *UpstreamClientMock) FetchAbilityDescription(ctx context.Context, url string) (string, error) {
	if m.FetchAbilityDescriptionFn != nil {
		return m.FetchAbilityDescriptionFn(ctx, url)
	}
	return "", nil
}
func (m *UpstreamClientMock) FetchSpecies(ctx context.Context, name string) (*catalog.SpeciesMeta, error) {
	m.SpeciesCalls.Add(1)
	if m.FetchSpeciesFn != nil {
		return m.FetchSpeciesFn(ctx, name)
	}
	return nil, catalog.NotFoundError(name)
}
func (m *UpstreamClientMock) FetchEvolutionChain(ctx context.Context, chainID string) (*catalog.EvolutionNode, error) {
	m.ChainCalls.Add(1)
	if m.FetchEvolutionChainFn != nil {
		return m.FetchEvolutionChainFn(ctx, chainID)
	}
	return nil, catalog.NotFoundError(chainID)
}
func (m *UpstreamClientMock) FetchEncounters(ctx context.Context, name string) ([]string, error) {
	m.EncounterCalls.Add(1)
	if m.FetchEncountersFn != nil {
		return m.FetchEncountersFn(ctx, name)
	}
	return []string{}, nil
}

// EntityFixture builds a minimal entity for name with the given types.
func EntityFixture(id int, name string, types ...string) *catalog.Entity {
	w, r, i := catalog.Matchups(types)
	return &catalog.Entity{
		ID:          id,
		Name:        name,
		Height:      id,
		Weight:      id * 10,
		Types:       types,
		BaseStats:   catalog.Stats{HP: id, Attack: id, Defense: id, Speed: id, SpecialAttack: id, SpecialDefense: id},
		Weaknesses:  w,
		Resistances: r,
		Immunities:  i,
		Sprites:     catalog.Sprites{FrontDefault: fmt.Sprintf("https://example.com/%s-front.png", name)},
	}
}

// CatalogServiceMock is a function-field mock for CatalogService.
type CatalogServiceMock struct {
	GetPageFn           func(ctx context.Context, cursor string, limit int, query string) (*catalog.PageResult, error)
	GetDetailFn         func(ctx context.Context, name string) (*catalog.Entity, error)
	GetEvolutionChainFn func(ctx context.Context, name string) ([]catalog.EvolutionStage, error)
	GetEncountersFn     func(ctx context.Context, name string) ([]string, error)
	GetAbilitiesFn      func(ctx context.Context, name string) ([]catalog.Ability, error)
}

var _ ports.CatalogService = (*CatalogServiceMock)(nil)

func (m *CatalogServiceMock) GetPage(ctx context.Context, cursor string, limit int, query string) (*catalog.PageResult, error) {
	if m.GetPageFn != nil {
		return m.GetPageFn(ctx, cursor, limit, query)
	}
	return &catalog.PageResult{Results: []*catalog.Entity{}}, nil
}
func (m *CatalogServiceMock) GetDetail(ctx context.Context, name string) (*catalog.Entity, error) {
	if m.GetDetailFn != nil {
		return m.GetDetailFn(ctx, name)
	}
	return nil, catalog.NotFoundError(name)
}
func (m *CatalogServiceMock) GetEvolutionChain(ctx context.Context, name string) ([]catalog.EvolutionStage, error) {
	if m.GetEvolutionChainFn != nil {
		return m.GetEvolutionChainFn(ctx, name)
	}
	return []catalog.EvolutionStage{}, nil
}
func (m *CatalogServiceMock) GetEncounters(ctx context.Context, name string) ([]string, error) {
	if m.GetEncountersFn != nil {
		return m.GetEncountersFn(ctx, name)
	}
	return []string{}, nil
}
func (m *CatalogServiceMock) GetAbilities(ctx context.Context, name string) ([]catalog.Ability, error) {
	if m.GetAbilitiesFn != nil {
		return m.GetAbilitiesFn(ctx, name)
	}
	return []catalog.Ability{}, nil
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService.
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, clientKey string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, clientKey string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, clientKey)
	}
	return true, 100, 100, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository.
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, clientKey, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// HealthCheckerMock reports a fixed name and delegates Check.
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

// CatalogMetricsMock records every call for assertions.
type CatalogMetricsMock struct {
	mu       sync.Mutex
	Lookups  map[string]int
	Failures map[string]int
	Runs     map[string]int
	Warms    []catalog.WarmStats
}

func (m *CatalogMetricsMock) CacheLookup(cache string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Lookups == nil {
		m.Lookups = map[string]int{}
	}
	m.Lookups[fmt.Sprintf("%s:%t", cache, hit)]++
}
func (m *CatalogMetricsMock) DetailFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Failures == nil {
		m.Failures = map[string]int{}
	}
	m.Failures[reason]++
}
func (m *CatalogMetricsMock) PreloadRun(task, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Runs == nil {
		m.Runs = map[string]int{}
	}
	m.Runs[task+":"+result]++
}
func (m *CatalogMetricsMock) WarmCompleted(stats catalog.WarmStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warms = append(m.Warms, stats)
}

// Run returns the count recorded for task:result.
func (m *CatalogMetricsMock) Run(task, result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Runs[task+":"+result]
}
