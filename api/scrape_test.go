package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jobhunterpro/jobhunter/internal/ingest"
)

func TestScrapeTrigger(t *testing.T) {
	env := newTestEnv(t)
	env.runner.sum = ingest.Summary{Stored: 4, Skipped: 2}

	rr := env.do(t, "POST", "/v1/scrape", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	var resp struct {
		Stored  int      `json:"stored"`
		Skipped int      `json:"skipped"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stored != 4 || resp.Skipped != 2 {
		t.Fatalf("summary = %+v", resp)
	}

	var total int64
	for _, v := range env.mocks.Stats.Counters {
		total += v
	}
	if total != 4 {
		t.Errorf("day stats counted %d, want 4", total)
	}

	if len(env.queue.enqueued) != 1 || env.queue.enqueued[0] != "notify.telegram" {
		t.Errorf("enqueued = %v, want [notify.telegram]", env.queue.enqueued)
	}
}

func TestScrapeConflictWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	env.runner.busy = true

	rr := env.do(t, "POST", "/v1/scrape", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestScrapeNoNewPostingsSkipsNotify(t *testing.T) {
	env := newTestEnv(t)
	env.runner.sum = ingest.Summary{Stored: 0, Skipped: 5}

	rr := env.do(t, "POST", "/v1/scrape", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(env.queue.enqueued) != 0 {
		t.Errorf("enqueued = %v, want none", env.queue.enqueued)
	}
}
