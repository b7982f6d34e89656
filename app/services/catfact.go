package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/skybot/core/cache"
	"github.com/m3rciful/skybot/core/logger"
)

// lastFactKey is the single slot the cat fact cache uses: the endpoint is
// parameterless, so there is exactly one cacheable response.
const lastFactKey = "last_fact"

// CatFactOptions configures the client.
type CatFactOptions struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration

	HTTPClient *http.Client
}

// CatFactClient fetches random cat facts with a short single-slot cache.
type CatFactClient struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache[string, string]
}

// NewCatFactClient builds the client.
func NewCatFactClient(opts CatFactOptions) *CatFactClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://catfact.ninja"
	}
	return &CatFactClient{
		baseURL: baseURL,
		client:  client,
		cache:   cache.New[string, string](opts.CacheTTL),
	}
}

// Fetch returns a cat fact, serving the cached one while it is fresh.
func (c *CatFactClient) Fetch(ctx context.Context) (string, error) {
	if fact, ok := c.cache.Get(lastFactKey); ok {
		logger.LogEvent(ctx, logger.Cats, slog.LevelDebug, "catfact_fetch",
			slog.String("cache", "hit"))
		return fact, nil
	}

	fact, err := c.fetchRemote(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Cats, slog.LevelError, "catfact_fetch",
			slog.String("err", err.Error()))
		return "", err
	}
	c.cache.Put(lastFactKey, fact)
	logger.LogEvent(ctx, logger.Cats, slog.LevelInfo, "catfact_fetch",
		slog.String("cache", "miss"))
	return fact, nil
}

func (c *CatFactClient) fetchRemote(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fact", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("catfact request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catfact api status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var payload struct {
		Fact string `json:"fact"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(payload.Fact) == "" {
		return "", fmt.Errorf("catfact api returned empty fact")
	}
	return payload.Fact, nil
}

// CacheLen reports whether a fact is currently held (0 or 1).
func (c *CatFactClient) CacheLen() int { return c.cache.Len() }

// ClearCache drops the cached fact.
func (c *CatFactClient) ClearCache() int { return c.cache.Clear() }
