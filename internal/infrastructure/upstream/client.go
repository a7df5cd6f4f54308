package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	config "github.com/avatarctic/boltedex/configs"
	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

// Client is a thin read-only client over the remote catalog API. It performs
// exactly one request per call and never retries.
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	timeout   time.Duration
	listLimit int
	logger    *logrus.Logger
}

func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	listLimit := cfg.ListLimit
	if listLimit <= 0 {
		listLimit = 2000
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "boltedex",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:   cfg.BaseURL,
		timeout:   timeout,
		listLimit: listLimit,
		logger:    logger,
	}
}

func (c *Client) FetchAllNames(ctx context.Context) ([]string, error) {
	var p listPayload
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pokemon?limit=%d", c.baseURL, c.listLimit), "", &p); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(p.Results))
	for _, r := range p.Results {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	if len(names) == 0 {
		return nil, catalog.UpstreamError("name list payload is empty", nil)
	}
	return names, nil
}

func (c *Client) FetchEntity(ctx context.Context, name string) (*catalog.Entity, error) {
	p, err := c.fetchEntityPayload(ctx, name)
	if err != nil {
		return nil, err
	}
	return toEntity(p)
}

func (c *Client) FetchAbilityRefs(ctx context.Context, name string) ([]catalog.AbilityRef, error) {
	p, err := c.fetchEntityPayload(ctx, name)
	if err != nil {
		return nil, err
	}
	return toAbilityRefs(p), nil
}

// FetchAbilityDescription resolves an ability URL as listed on an entity payload.
// The URL comes from upstream itself, so a 404 is an upstream failure.
func (c *Client) FetchAbilityDescription(ctx context.Context, abilityURL string) (string, error) {
	var p abilityPayload
	if err := c.getJSON(ctx, abilityURL, "", &p); err != nil {
		return "", err
	}
	return englishShortEffect(&p), nil
}

func (c *Client) FetchSpecies(ctx context.Context, name string) (*catalog.SpeciesMeta, error) {
	var p speciesPayload
	if err := c.getJSON(ctx, c.baseURL+"/pokemon-species/"+url.PathEscape(name), name, &p); err != nil {
		return nil, err
	}
	meta := &catalog.SpeciesMeta{Name: p.Name}
	if meta.Name == "" {
		meta.Name = name
	}
	if p.EvolutionChain != nil {
		meta.EvolutionChainURL = p.EvolutionChain.URL
	}
	return meta, nil
}

func (c *Client) FetchEvolutionChain(ctx context.Context, chainID string) (*catalog.EvolutionNode, error) {
	var p chainPayload
	if err := c.getJSON(ctx, c.baseURL+"/evolution-chain/"+url.PathEscape(chainID), "evolution chain "+chainID, &p); err != nil {
		return nil, err
	}
	if p.Chain == nil {
		return nil, catalog.MappingError("evolution chain payload has no chain", nil)
	}
	node := toEvolutionNode(p.Chain)
	return &node, nil
}

func (c *Client) FetchEncounters(ctx context.Context, name string) ([]string, error) {
	var p []encounterPayload
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+url.PathEscape(name)+"/encounters", name, &p); err != nil {
		return nil, err
	}
	areas := make([]string, 0, len(p))
	for _, e := range p {
		if e.LocationArea != nil && e.LocationArea.Name != "" {
			areas = append(areas, e.LocationArea.Name)
		}
	}
	return areas, nil
}

func (c *Client) fetchEntityPayload(ctx context.Context, name string) (*entityPayload, error) {
	var p entityPayload
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+url.PathEscape(name), name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// getJSON issues a GET and decodes the body into out. A 404 becomes a NotFound
// error for subject; any other failure is an upstream error.
func (c *Client) getJSON(ctx context.Context, target, subject string, out any) error {
	if err := ctx.Err(); err != nil {
		return catalog.UpstreamError("request cancelled", err)
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return catalog.UpstreamError("request deadline exceeded", context.DeadlineExceeded)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return catalog.UpstreamError(fmt.Sprintf("GET %s failed", target), err)
	}
	status := resp.StatusCode()
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"url":         target,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("upstream request")
	}

	switch {
	case status == fasthttp.StatusNotFound:
		if subject == "" {
			return catalog.UpstreamError(fmt.Sprintf("GET %s returned 404", target), nil)
		}
		return catalog.NotFoundError(subject)
	case status < 200 || status >= 300:
		return catalog.UpstreamError(fmt.Sprintf("GET %s returned status %d", target, status), nil)
	}

	// The response buffer returns to the pool on release.
	body := append([]byte(nil), resp.Body()...)
	if len(body) == 0 {
		return catalog.UpstreamError(fmt.Sprintf("GET %s returned an empty payload", target), nil)
	}
	if err := sonic.ConfigStd.Unmarshal(body, out); err != nil {
		return catalog.UpstreamError(fmt.Sprintf("GET %s returned a malformed payload", target), err)
	}
	return nil
}
