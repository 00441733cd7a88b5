package adzuna

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.AppID = "test-id"
	cfg.AppKey = "test-key"
	cfg.Timeout = 2 * time.Second
	cfg.Retries = 1
	cfg.Backoff = 5 * time.Millisecond
	return cfg
}

func TestSearchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/za/search/1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("app_id") != "test-id" || q.Get("app_key") != "test-key" {
			t.Error("credentials missing from query")
		}
		if q.Get("what") != "security" {
			t.Errorf("what = %q", q.Get("what"))
		}
		if q.Get("sort_by") != "date" {
			t.Errorf("sort_by = %q", q.Get("sort_by"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"results":[{"id":"42","title":"Security Engineer","company":{"display_name":"Acme"},"location":{"display_name":"Cape Town"},"redirect_url":"https://x/42","created":"2026-08-20T08:00:00Z"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	results, err := c.Search(context.Background(), "za", "security")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Security Engineer" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Company.DisplayName != "Acme" {
		t.Errorf("company = %q", results[0].Company.DisplayName)
	}
}

func TestSearchMissingCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AppID = ""

	c, err := NewClient(cfg, http.DefaultClient)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if _, err := c.Search(context.Background(), "za", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Search() = %v, want ErrMissingCredentials", err)
	}
}

func TestSearchRateLimitedFailsFast(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if _, err := c.Search(context.Background(), "za", "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Search() = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Fatalf("server hit %d times, want 1 (no retry on 429)", calls)
	}
}

func TestSearchMalformedBodyFailsFast(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	_, err = c.Search(context.Background(), "za", "x")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Search() = %v, want *MalformedResponseError", err)
	}
	if calls != 1 {
		t.Fatalf("server hit %d times, want 1 (no retry on malformed body)", calls)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	results, err := c.Search(context.Background(), "za", "x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 || calls != 2 {
		t.Fatalf("calls = %d, results = %v; want retry then success", calls, results)
	}
}

func TestSearchCircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 0
	cfg.CircuitFailureThreshold = 2
	cfg.CircuitReset = time.Minute

	c, err := NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for range cfg.CircuitFailureThreshold {
		if _, err := c.Search(ctx, "za", "x"); err == nil {
			t.Fatal("expected failure")
		}
	}

	if _, err := c.Search(ctx, "za", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Search() = %v, want ErrCircuitOpen", err)
	}
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "://not-a-url"
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("NewClient accepted an invalid base url")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := NewDefaultClient(testConfig("https://api.adzuna.com/v1/api"))
	if err != nil {
		t.Fatalf("NewDefaultClient: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
