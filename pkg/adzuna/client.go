package adzuna

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	// ErrCircuitOpen is returned while the circuit breaker is open.
	ErrCircuitOpen = errors.New("adzuna circuit open")
	// ErrRateLimited is returned on HTTP 429; callers should back off rather
	// than retry immediately.
	ErrRateLimited = errors.New("adzuna rate limited")
	// ErrMissingCredentials is returned when the client has no API key pair.
	ErrMissingCredentials = errors.New("adzuna credentials not configured")
)

// MalformedResponseError wraps a response body the API returned that could
// not be decoded.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("adzuna malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Result is one raw posting as returned by the Adzuna search endpoint.
type Result struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Description  string   `json:"description"`
	RedirectURL  string   `json:"redirect_url"`
	SalaryMin    *float64 `json:"salary_min"`
	SalaryMax    *float64 `json:"salary_max"`
	ContractType string   `json:"contract_type"`
	Created      string   `json:"created"`
}

type searchResponse struct {
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// package-level logger; can be replaced by callers.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/adzuna. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Client talks to the Adzuna search API with retries, per-request timeouts,
// and a simple circuit breaker.
type Client struct {
	cfg    Config
	client *http.Client

	failures  int32
	openUntil int64 // unix nano
	closed    int32
}

// NewClient creates a new Adzuna client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{cfg: cfg, client: httpClient}
	logger.Info("adzuna: client created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

// NewDefaultClient creates a client with a tuned HTTP transport.
func NewDefaultClient(cfg Config) (*Client, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

// Close releases idle connections held by the underlying transport. It is
// idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// half-open: reset failures and allow a request through
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

// Search queries one country for one search term, sorted newest first. It
// retries transient failures; rate limiting (HTTP 429) fails fast so the
// caller can record it and move on to the next query.
func (c *Client) Search(ctx context.Context, country, what string) ([]Result, error) {
	if c.cfg.AppID == "" || c.cfg.AppKey == "" {
		return nil, ErrMissingCredentials
	}
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		results, err := c.searchOnce(ctx, country, what)
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			return results, nil
		}

		lastErr = err
		c.recordFailure()

		// rate limiting and malformed bodies are not transient; retrying
		// immediately only burns quota
		var malformed *MalformedResponseError
		if errors.Is(err, ErrRateLimited) || errors.As(err, &malformed) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}

		time.Sleep(c.cfg.Backoff * time.Duration(attempt+1))
		if c.isCircuitOpen() {
			return nil, ErrCircuitOpen
		}
	}

	return nil, fmt.Errorf("search failed after retries: %w", lastErr)
}

func (c *Client) searchOnce(ctx context.Context, country, what string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(fmt.Sprintf("%s/jobs/%s/search/1", c.cfg.BaseURL, country))
	if err != nil {
		return nil, fmt.Errorf("build search url: %w", err)
	}

	q := u.Query()
	q.Set("app_id", c.cfg.AppID)
	q.Set("app_key", c.cfg.AppKey)
	q.Set("what", what)
	q.Set("results_per_page", strconv.Itoa(c.cfg.ResultsPerPage))
	q.Set("sort_by", "date")
	q.Set("max_days_old", strconv.Itoa(c.cfg.MaxDaysOld))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	logger.Debug("adzuna: search ok",
		slog.String("country", country),
		slog.String("what", what),
		slog.Int("results", len(sr.Results)),
	)

	return sr.Results, nil
}
