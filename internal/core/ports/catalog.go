package ports

import (
	"context"
	"time"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

// UpstreamClient talks to the remote catalog API. No caching, no retries.
type UpstreamClient interface {
	FetchEntity(ctx context.Context, name string) (*catalog.Entity, error)
	FetchAllNames(ctx context.Context) ([]string, error)
	FetchAbilityRefs(ctx context.Context, name string) ([]catalog.AbilityRef, error)
	FetchAbilityDescription(ctx context.Context, url string) (string, error)
	FetchSpecies(ctx context.Context, name string) (*catalog.SpeciesMeta, error)
	FetchEvolutionChain(ctx context.Context, chainID string) (*catalog.EvolutionNode, error)
	FetchEncounters(ctx context.Context, name string) ([]string, error)
}

// NameIndex is the sorted catalog of every known entity name.
type NameIndex interface {
	// EnsureWarm populates the index from upstream only when it is empty.
	EnsureWarm(ctx context.Context) error
	// Rebuild unconditionally refetches and atomically replaces the index.
	Rebuild(ctx context.Context) (int, error)
	Page(ctx context.Context, cursor string, limit int) ([]string, error)
	All(ctx context.Context) ([]string, error)
	Size(ctx context.Context) (int64, error)
	RemainingTTL(ctx context.Context) (time.Duration, bool, error)
}

// SearchIndex is a per-query derived subset of the NameIndex.
type SearchIndex interface {
	ResultsFor(ctx context.Context, query, cursor string, limit int) ([]string, error)
	Size(ctx context.Context, query string) (int64, error)
}

// DetailCache is a cache-aside store of normalized entities.
type DetailCache interface {
	Get(ctx context.Context, name string) (*catalog.Entity, bool, error)
	Put(ctx context.Context, name string, e *catalog.Entity, ttl time.Duration) error
	Exists(ctx context.Context, name string) (bool, error)
	// Load fetches name from upstream and stores it, ignoring any cached copy.
	Load(ctx context.Context, name string) (*catalog.Entity, error)
	// GetOrFetch returns the cached entity or loads it on a miss.
	GetOrFetch(ctx context.Context, name string) (*catalog.Entity, error)
	Invalidate(ctx context.Context, name string) error
}

// AuxCache serves the auxiliary per-entity lookups, each under its own key prefix.
type AuxCache interface {
	Species(ctx context.Context, name string) (*catalog.SpeciesMeta, error)
	EvolutionChain(ctx context.Context, chainID string) (*catalog.EvolutionNode, error)
	Encounters(ctx context.Context, name string) ([]string, error)
	Abilities(ctx context.Context, name string) ([]catalog.Ability, error)
}

// CatalogService is the request-time entry point used by the HTTP layer.
type CatalogService interface {
	GetPage(ctx context.Context, cursor string, limit int, query string) (*catalog.PageResult, error)
	GetDetail(ctx context.Context, name string) (*catalog.Entity, error)
	GetEvolutionChain(ctx context.Context, name string) ([]catalog.EvolutionStage, error)
	GetEncounters(ctx context.Context, name string) ([]string, error)
	GetAbilities(ctx context.Context, name string) ([]catalog.Ability, error)
}

// PreloadScheduler keeps the indexes warm in the background.
type PreloadScheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// RefreshNames rebuilds the NameIndex unless it is still fresh. refreshed=false means skipped.
	RefreshNames(ctx context.Context) (refreshed bool, err error)
	WarmDetails(ctx context.Context) (catalog.WarmStats, error)
	StartupDone() bool
}

// CatalogMetrics receives cache and preload telemetry. Implementations must be safe for concurrent use.
type CatalogMetrics interface {
	CacheLookup(cache string, hit bool)
	DetailFailure(reason string)
	PreloadRun(task, result string)
	WarmCompleted(stats catalog.WarmStats)
}
