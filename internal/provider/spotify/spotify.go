package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

const (
	defaultBaseURL = "https://api.spotify.com"

	// DefaultMarket restricts search results to artists available in Germany.
	DefaultMarket = "DE"
)

// Config holds the catalog endpoints and credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Market       string
}

// Client is a catalog session. The bearer token is fetched once in New and
// never refreshed; the session is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	overrides  *provider.Overrides
	logger     *slog.Logger
	baseURL    string
	market     string
	token      string
}

// New creates a session with default HTTP settings and exchanges the client
// credentials for a token.
func New(ctx context.Context, cfg Config, overrides *provider.Overrides, logger *slog.Logger) (*Client, error) {
	return NewWithHTTPClient(ctx, cfg, overrides, &http.Client{Timeout: 10 * time.Second}, logger)
}

// NewWithHTTPClient creates a session with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, cfg Config, overrides *provider.Overrides, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Market == "" {
		cfg.Market = DefaultMarket
	}

	c := &Client{
		httpClient: httpClient,
		overrides:  overrides,
		logger:     logger.With(slog.String("provider", "spotify")),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		market:     cfg.Market,
	}

	token, err := fetchToken(ctx, httpClient, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.token = token
	return c, nil
}

// Identify resolves name to an identification record. Names in the override
// table are answered without a request. A missing match is not an error.
func (c *Client) Identify(ctx context.Context, name string, genreHints []string) (provider.ArtistIdentification, error) {
	if id, ok := c.overrides.Lookup(name); ok {
		c.logger.Debug("artist served from overrides", slog.String("name", name))
		return id, nil
	}

	body, err := c.search(ctx, name)
	if err != nil {
		return provider.ArtistIdentification{}, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return provider.ArtistIdentification{}, fmt.Errorf("parsing search response: %w", err)
	}

	id, hadCandidates := match(name, genreHints, resp.Artists.Items)
	if !hadCandidates {
		c.logger.Error("no catalog candidate for artist",
			slog.String("name", name),
			slog.String("response", string(body)))
		return id, nil
	}

	if id.Found() {
		c.logger.Info("artist identified",
			slog.String("name", name),
			slog.String("catalog_id", id.CatalogID),
			slog.String("image", id.ImageURL))
	} else {
		c.logger.Info("no usable image for artist", slog.String("name", name))
	}
	return id, nil
}

// search runs an artist search for name and returns the raw response body.
func (c *Client) search(ctx context.Context, name string) ([]byte, error) {
	params := url.Values{
		"type":   {"artist"},
		"q":      {name},
		"market": {c.market},
	}
	reqURL := c.baseURL + "/v1/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Debug("searching artist", slog.String("name", name))

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL built from configured base URL
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("catalog search returned error status",
			slog.String("name", name),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return nil, &provider.ErrCatalogSearch{
			Query:      name,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}
