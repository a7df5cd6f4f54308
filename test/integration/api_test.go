package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	config "github.com/avatarctic/boltedex/configs"
	"github.com/avatarctic/boltedex/internal/application/services"
	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/core/ports"
	"github.com/avatarctic/boltedex/internal/infrastructure/health"
	"github.com/avatarctic/boltedex/internal/infrastructure/httpserver"
	"github.com/avatarctic/boltedex/internal/infrastructure/metrics"
	"github.com/avatarctic/boltedex/internal/infrastructure/redis"
	"github.com/avatarctic/boltedex/internal/infrastructure/repositories"
	"github.com/avatarctic/boltedex/internal/infrastructure/upstream"
)

var catalogNames = []string{"pikachu", "venusaur", "bulbasaur", "charmander", "ivysaur"}

// IntegrationTestSuite runs the full object graph against miniredis and a fake upstream.
type IntegrationTestSuite struct {
	suite.Suite
	mr          *miniredis.Miniredis
	client      *goredis.Client
	upstreamSrv *httptest.Server
	apiSrv      *httptest.Server
	entityCalls atomic.Int64
	listCalls   atomic.Int64
}

func (s *IntegrationTestSuite) SetupSuite() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	s.upstreamSrv = httptest.NewServer(s.fakeUpstream())

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cache := redis.NewRedisCache(s.client, "catalog")
	api := upstream.NewClient(&config.UpstreamConfig{BaseURL: s.upstreamSrv.URL, RequestTimeout: 2 * time.Second, ListLimit: 100}, logger)
	m := metrics.NewCatalogMetrics(nil)

	names := repositories.NewNameIndex(cache, api, 24*time.Hour, logger)
	search := repositories.NewSearchIndex(cache, names, time.Hour, logger)
	details := repositories.NewDetailCache(cache, api, 24*time.Hour, m, logger)
	aux := repositories.NewCachingAuxRepository(cache, api, 24*time.Hour, logger)

	svc := services.NewCatalogService(names, search, details, aux, &services.CatalogServiceConfig{MaxPageSize: 100, PageConcurrency: 4}, logger)
	limiter := services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(s.client), &services.RateLimiterConfig{DefaultRequestsPerMinute: 1000}, logger)

	server := httpserver.NewServer(&httpserver.ServerConfig{AllowedOrigins: []string{"*"}, DefaultPageSize: 30}, logger, httpserver.ServerDeps{
		CatalogService:     svc,
		RateLimiterService: limiter,
		HealthCheckers:     []ports.HealthChecker{health.NewCacheHealthChecker(cache)},
	})
	s.apiSrv = httptest.NewServer(server.Echo())
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.apiSrv.Close()
	s.upstreamSrv.Close()
	_ = s.client.Close()
	s.mr.Close()
}

func (s *IntegrationTestSuite) fakeUpstream() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		s.listCalls.Add(1)
		results := make([]string, 0, len(catalogNames))
		for _, n := range catalogNames {
			results = append(results, fmt.Sprintf(`{"name":%q,"url":""}`, n))
		}
		fmt.Fprintf(w, `{"count":%d,"results":[%s]}`, len(catalogNames), strings.Join(results, ","))
	})
	mux.HandleFunc("/pokemon/", func(w http.ResponseWriter, r *http.Request) {
		s.entityCalls.Add(1)
		name := strings.TrimPrefix(r.URL.Path, "/pokemon/")
		switch name {
		case "charmander":
			w.WriteHeader(http.StatusInternalServerError)
			return
		case "bulbasaur", "ivysaur", "venusaur", "pikachu":
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		typ := "grass"
		if name == "pikachu" {
			typ = "electric"
		}
		fmt.Fprintf(w, `{"id":%d,"name":%q,"height":7,"weight":69,"types":[{"slot":1,"type":{"name":%q}}],"stats":[{"base_stat":45,"stat":{"name":"hp"}}],"abilities":[],"sprites":{}}`,
			len(name), name, typ)
	})
	return mux
}

func (s *IntegrationTestSuite) getJSON(path string, out interface{}) int {
	resp, err := http.Get(s.apiSrv.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *IntegrationTestSuite) TestHealthCheck() {
	var health map[string]interface{}
	s.Equal(http.StatusOK, s.getJSON("/health", &health))
	assert.Equal(s.T(), "healthy", health["status"])
}

func (s *IntegrationTestSuite) TestPaginationWalksSortedCatalog() {
	var first catalog.PageResult
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/search?limit=2", &first))

	// charmander fails upstream: dropped from results but still advances the cursor
	s.Require().Len(first.Results, 1)
	s.Equal("bulbasaur", first.Results[0].Name)
	s.Require().NotNil(first.NextCursor)
	s.Equal("charmander", *first.NextCursor)
	s.EqualValues(len(catalogNames), first.TotalCount)

	var second catalog.PageResult
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/search?limit=2&cursor="+*first.NextCursor, &second))
	s.Require().Len(second.Results, 2)
	s.Equal("ivysaur", second.Results[0].Name)
	s.Equal("pikachu", second.Results[1].Name)

	var restart catalog.PageResult
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/search?limit=2&cursor=missingno", &restart))
	s.Equal(first.NextCursor, restart.NextCursor)

	s.EqualValues(1, s.listCalls.Load())
}

func (s *IntegrationTestSuite) TestSearchFiltersBySubstring() {
	var page catalog.PageResult
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/search?query=%20SAUR%20", &page))
	s.EqualValues(3, page.TotalCount)
	got := make([]string, 0, len(page.Results))
	for _, e := range page.Results {
		got = append(got, e.Name)
	}
	s.Equal([]string{"bulbasaur", "ivysaur", "venusaur"}, got)
	s.True(s.mr.Exists("catalog:search:saur"))

	var none catalog.PageResult
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/search?query=zzz", &none))
	s.Empty(none.Results)
	s.Nil(none.NextCursor)
	s.EqualValues(0, none.TotalCount)
}

func (s *IntegrationTestSuite) TestDetailIsCachedAfterFirstFetch() {
	var e catalog.Entity
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/pikachu", &e))
	s.Equal("pikachu", e.Name)
	s.Equal(2.0, e.Weaknesses["ground"])

	before := s.entityCalls.Load()
	s.Require().Equal(http.StatusOK, s.getJSON("/api/v1/pokemon/pikachu", &e))
	s.Equal(before, s.entityCalls.Load())
	s.True(s.mr.Exists("catalog:detail:pikachu"))
}

func (s *IntegrationTestSuite) TestErrorsCarryTaxonomy() {
	var body map[string]interface{}
	s.Equal(http.StatusNotFound, s.getJSON("/api/v1/pokemon/missingno", &body))
	s.Equal(catalog.CodeNotFound, body["code"])

	s.Equal(http.StatusBadGateway, s.getJSON("/api/v1/pokemon/charmander", &body))
	s.Equal(catalog.CodeAPIError, body["code"])
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
