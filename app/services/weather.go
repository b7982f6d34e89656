// Package services holds the upstream API clients and the broadcast
// engine. Both clients cache successful responses for a short TTL; any
// upstream failure surfaces as an error.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/skybot/core/cache"
	"github.com/m3rciful/skybot/core/logger"
)

// ErrLocationNotFound marks a city the provider does not know. It is a
// user error, never cached and never retried.
var ErrLocationNotFound = errors.New("location not found")

// weatherstack reports "location not found" with this code inside an
// HTTP 200 body.
const weatherCodeNotFound = 615

// Snapshot is the weather state for one location.
type Snapshot struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}

// Location identifies the resolved place.
type Location struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Region  string `json:"region"`
}

// Current holds the observed conditions.
type Current struct {
	Temperature  int      `json:"temperature"`
	FeelsLike    int      `json:"feelslike"`
	Descriptions []string `json:"weather_descriptions"`
	Humidity     int      `json:"humidity"`
	WindSpeed    int      `json:"wind_speed"`
	WindDir      string   `json:"wind_dir"`
	Pressure     int      `json:"pressure"`
	UVIndex      int      `json:"uv_index"`
	Visibility   int      `json:"visibility"`
}

type weatherError struct {
	Success *bool `json:"success"`
	Error   struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// WeatherOptions configures the client.
type WeatherOptions struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration

	// HTTPClient is injectable for tests; a timeout-bound default is
	// built when nil.
	HTTPClient *http.Client
}

// WeatherClient fetches current weather with a per-city TTL cache.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *cache.Cache[string, Snapshot]
}

// NewWeatherClient builds the client. The cache key is the lowercased,
// trimmed city name.
func NewWeatherClient(opts WeatherOptions) *WeatherClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://api.weatherstack.com"
	}
	return &WeatherClient{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  client,
		cache:   cache.New[string, Snapshot](opts.CacheTTL),
	}
}

func weatherCacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Fetch returns the current weather for city. Fresh cache entries skip
// the network entirely; expired entries are refetched, never served.
func (w *WeatherClient) Fetch(ctx context.Context, city string) (Snapshot, error) {
	key := weatherCacheKey(city)
	if key == "" {
		return Snapshot{}, ErrLocationNotFound
	}

	if snap, ok := w.cache.Get(key); ok {
		logger.LogEvent(ctx, logger.Weather, slog.LevelDebug, "weather_fetch",
			slog.String("city", key),
			slog.String("cache", "hit"))
		return snap, nil
	}

	snap, err := w.fetchRemote(ctx, city)
	if err != nil {
		if !errors.Is(err, ErrLocationNotFound) {
			logger.LogEvent(ctx, logger.Weather, slog.LevelError, "weather_fetch",
				slog.String("city", key),
				slog.String("err", err.Error()))
		}
		return Snapshot{}, err
	}
	w.cache.Put(key, snap)
	logger.LogEvent(ctx, logger.Weather, slog.LevelInfo, "weather_fetch",
		slog.String("city", key),
		slog.String("cache", "miss"))
	return snap, nil
}

func (w *WeatherClient) fetchRemote(ctx context.Context, city string) (Snapshot, error) {
	params := url.Values{}
	params.Set("access_key", w.apiKey)
	params.Set("query", strings.TrimSpace(city))
	params.Set("units", "m")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/current?"+params.Encode(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("weather api status %d", resp.StatusCode)
	}

	// The provider signals errors inside a 200 body.
	var apiErr weatherError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Success != nil && !*apiErr.Success {
		if apiErr.Error.Code == weatherCodeNotFound {
			return Snapshot{}, ErrLocationNotFound
		}
		return Snapshot{}, fmt.Errorf("weather api error %d: %s", apiErr.Error.Code, apiErr.Error.Info)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode response: %w", err)
	}
	if snap.Location.Name == "" {
		return Snapshot{}, fmt.Errorf("weather api returned empty location")
	}
	return snap, nil
}

// CacheLen reports the number of cached cities.
func (w *WeatherClient) CacheLen() int { return w.cache.Len() }

// ClearCache drops all cached snapshots, returning how many were held.
func (w *WeatherClient) ClearCache() int { return w.cache.Clear() }
