package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const sampleWeatherBody = `{
	"location": {"name": "Paris", "country": "France", "region": "Ile-de-France"},
	"current": {
		"temperature": 18,
		"feelslike": 17,
		"weather_descriptions": ["Partly cloudy"],
		"humidity": 60,
		"wind_speed": 11,
		"wind_dir": "NW",
		"pressure": 1012,
		"uv_index": 4,
		"visibility": 10
	}
}`

func newWeatherServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherFetchAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("query"); got != "Paris" {
			t.Errorf("query = %q; want Paris", got)
		}
		if got := r.URL.Query().Get("units"); got != "m" {
			t.Errorf("units = %q; want m", got)
		}
		w.Write([]byte(sampleWeatherBody))
	})

	c := NewWeatherClient(WeatherOptions{
		APIKey:   "k",
		BaseURL:  srv.URL,
		CacheTTL: 5 * time.Minute,
	})

	snap, err := c.Fetch(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Location.Name != "Paris" || snap.Current.Temperature != 18 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Case variants share one cache entry.
	if _, err := c.Fetch(context.Background(), "  paris "); err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream calls = %d; want 1", calls.Load())
	}
	if c.CacheLen() != 1 {
		t.Fatalf("CacheLen = %d; want 1", c.CacheLen())
	}
}

func TestWeatherLocationNotFound(t *testing.T) {
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": {"code": 615, "info": "request failed"}}`))
	})

	c := NewWeatherClient(WeatherOptions{APIKey: "k", BaseURL: srv.URL, CacheTTL: time.Minute})

	_, err := c.Fetch(context.Background(), "Nowhereville")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("err = %v; want ErrLocationNotFound", err)
	}
	if c.CacheLen() != 0 {
		t.Fatal("failed lookup must not be cached")
	}
}

func TestWeatherOtherAPIErrorIsTransient(t *testing.T) {
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": {"code": 104, "info": "usage limit"}}`))
	})

	c := NewWeatherClient(WeatherOptions{APIKey: "k", BaseURL: srv.URL, CacheTTL: time.Minute})

	_, err := c.Fetch(context.Background(), "Paris")
	if err == nil || errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("err = %v; want transient error", err)
	}
}

func TestWeatherExpiredEntryIsNeverServed(t *testing.T) {
	var fail atomic.Bool
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleWeatherBody))
	})

	// Zero TTL: the stored snapshot is stale on arrival.
	c := NewWeatherClient(WeatherOptions{APIKey: "k", BaseURL: srv.URL, CacheTTL: 0})

	if _, err := c.Fetch(context.Background(), "Paris"); err != nil {
		t.Fatalf("warmup Fetch: %v", err)
	}

	fail.Store(true)
	if _, err := c.Fetch(context.Background(), "Paris"); err == nil {
		t.Fatal("a stale entry must not mask an upstream failure")
	}
}

func TestWeatherEmptyCity(t *testing.T) {
	c := NewWeatherClient(WeatherOptions{APIKey: "k", BaseURL: "http://127.0.0.1:1", CacheTTL: time.Minute})
	if _, err := c.Fetch(context.Background(), "   "); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("err = %v; want ErrLocationNotFound", err)
	}
}
