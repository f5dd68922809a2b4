// Package pokeapi provides an HTTP implementation of the UpstreamClient
// interface backed by PokeAPI.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/pokecache/internal/domain/entities"
	"github.com/ersonp/pokecache/internal/domain/ports"
	"github.com/ersonp/pokecache/internal/infrastructure/config"
)

// Compile-time contract assertion.
var _ ports.UpstreamClient = (*Client)(nil)

const (
	defaultBaseURL      = "https://pokeapi.co/api/v2"
	defaultTimeout      = 10 * time.Second
	defaultCatalogLimit = 1000

	// maxBodyBytes caps a single upstream response.
	maxBodyBytes = 8 << 20
)

// Endpoints and outcomes reported to an Observer.
const (
	EndpointPokemon = "pokemon"
	EndpointSpecies = "species"

	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Observer records upstream request outcomes.
type Observer interface {
	ObserveUpstreamRequest(endpoint, outcome string)
}

// Client fetches Pokemon from PokeAPI.
type Client struct {
	baseURL      string
	userAgent    string
	catalogLimit int
	http         *http.Client
	observer     Observer
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(cl *Client) { cl.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a new PokeAPI client.
func NewClient(cfg config.UpstreamConfig, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.CatalogLimit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}

	c := &Client{
		baseURL:      baseURL,
		userAgent:    cfg.UserAgent,
		catalogLimit: limit,
		http:         &http.Client{Timeout: timeout},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchByID fetches a Pokemon by numeric id.
func (c *Client) FetchByID(ctx context.Context, id int) (entities.Pokemon, error) {
	if id < 1 {
		return entities.Pokemon{}, fmt.Errorf("pokemon %d: %w", id, ports.ErrNotFound)
	}
	return c.fetchPokemon(ctx, strconv.Itoa(id))
}

// FetchByName fetches a Pokemon by exact name.
func (c *Client) FetchByName(ctx context.Context, name string) (entities.Pokemon, error) {
	name = entities.NormalizeName(name)
	if name == "" {
		return entities.Pokemon{}, fmt.Errorf("pokemon %q: %w", name, ports.ErrNotFound)
	}
	return c.fetchPokemon(ctx, name)
}

func (c *Client) fetchPokemon(ctx context.Context, key string) (entities.Pokemon, error) {
	body, err := c.get(ctx, EndpointPokemon, "/pokemon/"+url.PathEscape(key))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return entities.Pokemon{}, fmt.Errorf("pokemon %q: %w", key, err)
		}
		return entities.Pokemon{}, err
	}

	p, err := Normalize(body)
	if err != nil {
		return entities.Pokemon{}, fmt.Errorf("normalizing pokemon %q: %w", key, err)
	}
	return p, nil
}

type speciesList struct {
	Results []namedResource `json:"results"`
}

// ListAllNames lists every species name known upstream.
func (c *Client) ListAllNames(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, EndpointSpecies, "/pokemon-species?limit="+strconv.Itoa(c.catalogLimit))
	if err != nil {
		return nil, err
	}

	var list speciesList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding species list: %w", err)
	}

	names := make([]string, 0, len(list.Results))
	for _, r := range list.Results {
		if name := entities.NormalizeName(r.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.observe(endpoint, OutcomeError)
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, OutcomeError)
		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream request",
		zap.String("endpoint", endpoint),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.observe(endpoint, OutcomeNotFound)
		return nil, ports.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.observe(endpoint, OutcomeError)
		return nil, fmt.Errorf("%s returned %s", endpoint, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(endpoint, OutcomeError)
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	c.observe(endpoint, OutcomeOK)
	return body, nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(endpoint, outcome)
	}
}
