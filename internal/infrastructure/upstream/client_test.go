package upstream_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	config "github.com/avatarctic/boltedex/configs"
	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
	"github.com/avatarctic/boltedex/internal/infrastructure/upstream"
)

const pikachuPayload = `{
  "id": 25, "name": "pikachu", "height": 4, "weight": 60,
  "types": [{"slot": 1, "type": {"name": "electric", "url": ""}}],
  "stats": [
    {"base_stat": 35, "stat": {"name": "hp"}},
    {"base_stat": 55, "stat": {"name": "attack"}},
    {"base_stat": 40, "stat": {"name": "defense"}},
    {"base_stat": 50, "stat": {"name": "special-attack"}},
    {"base_stat": 50, "stat": {"name": "special-defense"}},
    {"base_stat": 90, "stat": {"name": "speed"}}
  ],
  "abilities": [
    {"ability": {"name": "static", "url": "%[1]s/ability/9/"}, "is_hidden": false},
    {"ability": {"name": "lightning-rod", "url": "%[1]s/ability/31/"}, "is_hidden": true}
  ],
  "sprites": {
    "front_default": "https://example.com/pikachu-front.png",
    "back_default": "https://example.com/pikachu-back.png",
    "front_shiny": "https://example.com/pikachu-shiny-front.png",
    "back_shiny": null,
    "other": {"showdown": {
      "front_default": "https://example.com/pikachu-showdown.gif",
      "back_default": null,
      "front_shiny": null,
      "back_shiny": null
    }}
  }
}`

func newServer(t *testing.T) (*httptest.Server, *upstream.Client) {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "2000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"count":3,"results":[{"name":"pikachu","url":""},{"name":"charizard","url":""},{"name":"blastoise","url":""}]}`)
	})
	mux.HandleFunc("/pokemon/pikachu", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, pikachuPayload, srv.URL)
	})
	mux.HandleFunc("/pokemon/pikachu/encounters", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"location_area":{"name":"viridian-forest-area"}},{"location_area":{"name":"power-plant-area"}}]`)
	})
	mux.HandleFunc("/pokemon/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "name": `)
	})
	mux.HandleFunc("/pokemon/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/pokemon-species/pikachu", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name":"pikachu","evolution_chain":{"url":"%s/evolution-chain/10/"}}`, srv.URL)
	})
	mux.HandleFunc("/evolution-chain/10", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":10,"chain":{"species":{"name":"pichu"},"evolves_to":[{"species":{"name":"pikachu"},"evolves_to":[{"species":{"name":"raichu"},"evolves_to":[]}]}]}}`)
	})
	mux.HandleFunc("/ability/9/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"static","effect_entries":[{"short_effect":"Paralyse am Kontakt.","language":{"name":"de"}},{"short_effect":"Has a 30% chance of paralyzing attacking Pokemon on contact.","language":{"name":"en"}}]}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := upstream.NewClient(&config.UpstreamConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second, ListLimit: 2000}, nil)
	return srv, c
}

func TestFetchAllNames(t *testing.T) {
	_, c := newServer(t)
	names, err := c.FetchAllNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"pikachu", "charizard", "blastoise"}, names)
}

func TestFetchAllNames_EmptyListIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":0,"results":[]}`)
	}))
	defer srv.Close()
	c := upstream.NewClient(&config.UpstreamConfig{BaseURL: srv.URL}, nil)
	_, err := c.FetchAllNames(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrUpstream))
}

func TestFetchEntity_MapsPayload(t *testing.T) {
	_, c := newServer(t)
	e, err := c.FetchEntity(context.Background(), "pikachu")
	require.NoError(t, err)
	require.Equal(t, 25, e.ID)
	require.Equal(t, "pikachu", e.Name)
	require.Equal(t, []string{"electric"}, e.Types)
	require.Equal(t, catalog.Stats{HP: 35, Attack: 55, Defense: 40, Speed: 90, SpecialAttack: 50, SpecialDefense: 50}, e.BaseStats)
	require.Equal(t, 2.0, e.Weaknesses["ground"])
	require.Equal(t, 0.5, e.Resistances["flying"])
	require.Empty(t, e.Immunities)

	// showdown wins where present, static fills the gaps, missing stays empty
	require.Equal(t, "https://example.com/pikachu-showdown.gif", e.Sprites.FrontDefault)
	require.Equal(t, "https://example.com/pikachu-back.png", e.Sprites.BackDefault)
	require.Equal(t, "https://example.com/pikachu-shiny-front.png", e.Sprites.FrontShiny)
	require.Empty(t, e.Sprites.BackShiny)
}

func TestFetchEntity_NotFound(t *testing.T) {
	_, c := newServer(t)
	_, err := c.FetchEntity(context.Background(), "missingno")
	require.Error(t, err)
	require.True(t, catalog.IsNotFound(err))
}

func TestFetchEntity_ServerErrorAndMalformed(t *testing.T) {
	_, c := newServer(t)
	_, err := c.FetchEntity(context.Background(), "boom")
	require.True(t, errors.Is(err, catalog.ErrUpstream))

	_, err = c.FetchEntity(context.Background(), "broken")
	require.True(t, errors.Is(err, catalog.ErrUpstream))
}

func TestFetchEntity_CancelledContext(t *testing.T) {
	_, c := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchEntity(ctx, "pikachu")
	require.True(t, errors.Is(err, catalog.ErrUpstream))
}

func TestFetchAbilities(t *testing.T) {
	srv, c := newServer(t)
	refs, err := c.FetchAbilityRefs(context.Background(), "pikachu")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, catalog.AbilityRef{Name: "lightning-rod", URL: srv.URL + "/ability/31/", Hidden: true}, refs[1])

	desc, err := c.FetchAbilityDescription(context.Background(), refs[0].URL)
	require.NoError(t, err)
	require.Equal(t, "Has a 30% chance of paralyzing attacking Pokemon on contact.", desc)
}

func TestFetchSpeciesAndChain(t *testing.T) {
	_, c := newServer(t)
	meta, err := c.FetchSpecies(context.Background(), "pikachu")
	require.NoError(t, err)
	require.Equal(t, "10", meta.ChainID())

	chain, err := c.FetchEvolutionChain(context.Background(), meta.ChainID())
	require.NoError(t, err)
	require.Equal(t, []string{"pichu", "pikachu", "raichu"}, chain.Flatten())
}

func TestFetchEncounters(t *testing.T) {
	_, c := newServer(t)
	areas, err := c.FetchEncounters(context.Background(), "pikachu")
	require.NoError(t, err)
	require.Equal(t, []string{"viridian-forest-area", "power-plant-area"}, areas)
}

func TestFetchAbilityDescription_MissingRecordIsUpstreamError(t *testing.T) {
	srv, c := newServer(t)
	_, err := c.FetchAbilityDescription(context.Background(), srv.URL+"/ability/31/")
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrUpstream))
	require.False(t, catalog.IsNotFound(err))
}
