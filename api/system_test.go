package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", rr.Body)
	}
}

func TestVersionHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["version"] != "test" {
		t.Fatalf("version = %q", resp["version"])
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "OPTIONS", "/v1/postings", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS headers")
	}
}
