package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
)

// CatalogServiceConfig bounds page sizes and detail fan-out.
type CatalogServiceConfig struct {
	MaxPageSize     int
	PageConcurrency int
}

// CatalogService composes the name/search indexes with the detail and
// auxiliary caches into the request-time read operations.
type CatalogService struct {
	names       ports.NameIndex
	search      ports.SearchIndex
	details     ports.DetailCache
	aux         ports.AuxCache
	maxLimit    int
	concurrency int
	logger      *logrus.Logger
}

func NewCatalogService(names ports.NameIndex, search ports.SearchIndex, details ports.DetailCache, aux ports.AuxCache, cfg *CatalogServiceConfig, logger *logrus.Logger) *CatalogService {
	maxLimit := 100
	concurrency := 8
	if cfg != nil {
		if cfg.MaxPageSize > 0 {
			maxLimit = cfg.MaxPageSize
		}
		if cfg.PageConcurrency > 0 {
			concurrency = cfg.PageConcurrency
		}
	}
	return &CatalogService{
		names:       names,
		search:      search,
		details:     details,
		aux:         aux,
		maxLimit:    maxLimit,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GetPage returns the entities ranked after cursor in the active index, which is
// the search index for a non-blank query and the full name index otherwise.
// Names whose details cannot be resolved are dropped from the page; nextCursor
// still points at the last name of the requested window.
func (s *CatalogService) GetPage(ctx context.Context, cursor string, limit int, query string) (*catalog.PageResult, error) {
	if err := s.names.EnsureWarm(ctx); err != nil {
		return nil, err
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var (
		window []string
		total  int64
		err    error
	)
	if q := catalog.NormalizeQuery(query); q != "" {
		if window, err = s.search.ResultsFor(ctx, q, cursor, limit); err != nil {
			return nil, err
		}
		if total, err = s.search.Size(ctx, q); err != nil {
			return nil, err
		}
	} else {
		if window, err = s.names.Page(ctx, cursor, limit); err != nil {
			return nil, err
		}
		if total, err = s.names.Size(ctx); err != nil {
			return nil, err
		}
	}

	result := &catalog.PageResult{Results: s.resolveDetails(ctx, window), TotalCount: total}
	if len(window) > 0 {
		last := window[len(window)-1]
		result.NextCursor = &last
	}
	return result, nil
}

// resolveDetails fetches details concurrently and keeps the input order,
// skipping names that fail.
func (s *CatalogService) resolveDetails(ctx context.Context, names []string) []*catalog.Entity {
	slots := make([]*catalog.Entity, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			e, err := s.details.GetOrFetch(gctx, name)
			if err != nil {
				if s.logger != nil {
					s.logger.WithField("name", name).WithError(err).Warn("dropping entity from page")
				}
				return nil
			}
			slots[i] = e
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*catalog.Entity, 0, len(slots))
	for _, e := range slots {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (s *CatalogService) GetDetail(ctx context.Context, name string) (*catalog.Entity, error) {
	return s.details.GetOrFetch(ctx, strings.TrimSpace(name))
}

// GetEvolutionChain flattens the entity's evolution tree depth-first. Stages
// whose details cannot be resolved are skipped.
func (s *CatalogService) GetEvolutionChain(ctx context.Context, name string) ([]catalog.EvolutionStage, error) {
	species, err := s.aux.Species(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if species.EvolutionChainURL == "" {
		return []catalog.EvolutionStage{}, nil
	}
	chain, err := s.aux.EvolutionChain(ctx, species.ChainID())
	if err != nil {
		return nil, err
	}

	entities := s.resolveDetails(ctx, chain.Flatten())
	stages := make([]catalog.EvolutionStage, 0, len(entities))
	for _, e := range entities {
		stages = append(stages, catalog.EvolutionStage{ID: e.ID, Name: e.Name, Sprites: e.Sprites})
	}
	return stages, nil
}

func (s *CatalogService) GetEncounters(ctx context.Context, name string) ([]string, error) {
	return s.aux.Encounters(ctx, strings.TrimSpace(name))
}

func (s *CatalogService) GetAbilities(ctx context.Context, name string) ([]catalog.Ability, error) {
	return s.aux.Abilities(ctx, strings.TrimSpace(name))
}
