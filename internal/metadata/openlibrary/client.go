// Package openlibrary is the catalog's external book source.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/ratelimit"
)

const (
	// Open Library asks for at most a few requests per second.
	defaultRPS   = 1.0
	defaultBurst = 3

	// HTTP client settings
	defaultTimeout = 10 * time.Second

	// API settings
	DefaultBaseURL   = "https://openlibrary.org"
	defaultUserAgent = "Bookster/1.0 (catalog-server)"
	defaultLimit     = 20
	maxLimit         = 100
	defaultCacheTTL  = 24 * time.Hour
)

// Config configures a Client. Zero values take defaults.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Cache             Cache // optional
	CacheTTL          time.Duration
	Logger            *slog.Logger
}

// Client is a rate-limited Open Library search client.
type Client struct {
	http      *http.Client
	baseURL   string
	host      string
	userAgent string
	limiter   *ratelimit.KeyedRateLimiter
	cache     Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewClient creates a new Open Library client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid open library base url %q", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		host:      u.Host,
		userAgent: cfg.UserAgent,
		limiter:   ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    cfg.Logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search queries search.json for word.
// Responses are served from the cache when one is configured.
func (c *Client) Search(ctx context.Context, word string, limit int) ([]Doc, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, wrapError("search", word, ErrBadRequest)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	key := cacheKey(word, limit)
	if body, ok := c.cacheGet(key); ok {
		docs, err := decodeSearch(body)
		if err == nil {
			c.logger.Debug("open library cache hit", "query", word)
			return docs, nil
		}
		c.logger.Warn("discarding unreadable cached response", "key", key, "error", err)
	}

	query := url.Values{}
	query.Set("q", word)
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, "/search.json", query)
	if err != nil {
		return nil, wrapError("search", word, err)
	}

	docs, err := decodeSearch(body)
	if err != nil {
		return nil, wrapError("search", word, err)
	}

	c.cacheSet(key, body)
	return docs, nil
}

// SearchBooks searches for word and maps each result to a book preview.
func (c *Client) SearchBooks(ctx context.Context, word string, limit int) ([]domain.Book, error) {
	docs, err := c.Search(ctx, word, limit)
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, MapDoc(doc))
	}
	return books, nil
}

// doRequest executes an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("open library request", "path", path, "query", query.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrBadRequest, resp.StatusCode)
	}
}

func decodeSearch(body []byte) ([]Doc, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return resp.Docs, nil
}

func cacheKey(word string, limit int) string {
	return "ol:search:" + strings.ToLower(word) + ":" + strconv.Itoa(limit)
}

func (c *Client) cacheGet(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(key)
	if err != nil {
		c.logger.Warn("open library cache read failed", "key", key, "error", err)
		return nil, false
	}
	return body, ok
}

func (c *Client) cacheSet(key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
		c.logger.Warn("open library cache write failed", "key", key, "error", err)
	}
}
