package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCatFactFetchAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"fact": "Cats sleep 70% of their lives.", "length": 31}`))
	}))
	defer srv.Close()

	c := NewCatFactClient(CatFactOptions{BaseURL: srv.URL, CacheTTL: time.Minute})

	fact, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fact != "Cats sleep 70% of their lives." {
		t.Fatalf("fact = %q", fact)
	}

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream calls = %d; want 1", calls.Load())
	}
}

func TestCatFactExpiredFactIsRefetched(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"fact": "A group of cats is a clowder."}`))
	}))
	defer srv.Close()

	c := NewCatFactClient(CatFactOptions{BaseURL: srv.URL, CacheTTL: 0})

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("warmup Fetch: %v", err)
	}

	fail.Store(true)
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("a stale fact must not mask an upstream failure")
	}
}

func TestCatFactErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCatFactClient(CatFactOptions{BaseURL: srv.URL, CacheTTL: time.Minute})
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("cold cache with failing upstream must error")
	}
}
