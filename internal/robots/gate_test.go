package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/linkscan/internal/fetch"
)

// TestGateAllowed tests robots.txt policy enforcement.
func TestGateAllowed(t *testing.T) {
	t.Parallel()

	t.Run("enforces disallow rules", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		gate := NewGate(fetch.NewClient(), "linkscan/2.0")

		if gate.Allowed(context.Background(), server.URL+"/private/page") {
			t.Error("expected /private to be disallowed")
		}
		if !gate.Allowed(context.Background(), server.URL+"/public") {
			t.Error("expected /public to be allowed")
		}
	})

	t.Run("resolves specific agent group", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				_, _ = w.Write([]byte("User-agent: linkscan\nDisallow: /\n\nUser-agent: *\nDisallow:\n"))
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		gate := NewGate(fetch.NewClient(), "linkscan")
		if gate.Allowed(context.Background(), server.URL+"/anything") {
			t.Error("expected linkscan group to be applied")
		}

		openGate := NewGate(fetch.NewClient(), "otherbot")
		if !openGate.Allowed(context.Background(), server.URL+"/anything") {
			t.Error("expected fallback * group to allow otherbot")
		}
	})

	t.Run("missing robots.txt allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		gate := NewGate(fetch.NewClient(), "linkscan/2.0")
		if !gate.Allowed(context.Background(), server.URL+"/anywhere") {
			t.Error("expected 404 robots.txt to allow all")
		}
	})

	t.Run("server error allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gate := NewGate(fetch.NewClient(), "linkscan/2.0")
		if !gate.Allowed(context.Background(), server.URL+"/anywhere") {
			t.Error("expected 500 robots.txt to allow all")
		}
	})

	t.Run("unreachable host allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		server.Close() // closed on purpose

		gate := NewGate(fetch.NewClient(), "linkscan/2.0")
		if !gate.Allowed(context.Background(), server.URL+"/page") {
			t.Error("expected fetch failure to allow all")
		}
	})

	t.Run("ignore mode never fetches", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				fetches.Add(1)
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		gate := NewGate(fetch.NewClient(), "linkscan/2.0", WithIgnore(true))
		if !gate.Allowed(context.Background(), server.URL+"/blocked") {
			t.Error("expected ignore mode to allow everything")
		}
		if fetches.Load() != 0 {
			t.Errorf("ignore mode fetched robots.txt %d times", fetches.Load())
		}
	})
}

// TestGateFetchesOncePerBase tests fetch deduplication.
func TestGateFetchesOncePerBase(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gate := NewGate(fetch.NewClient(), "linkscan/2.0")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.Allowed(context.Background(), server.URL+"/page")
		}()
	}
	wg.Wait()

	// Sequential queries after the burst must hit the cache.
	gate.Allowed(context.Background(), server.URL+"/other")

	if got := fetches.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}
