package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/ingest"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

// ScrapeRunner executes one scrape cycle, refusing when one is already in
// flight; satisfied by ingest.SingleFlight.
type ScrapeRunner interface {
	Run(ctx context.Context, queries []ingest.Query) (ingest.Summary, bool)
}

type ScrapeHandler struct {
	runner  ScrapeRunner
	queries func() []ingest.Query
	stats   repository.StatsRepo
	queue   Enqueuer
}

func NewScrapeHandler(runner ScrapeRunner, queries func() []ingest.Query, stats repository.StatsRepo, queue Enqueuer) *ScrapeHandler {
	return &ScrapeHandler{runner: runner, queries: queries, stats: stats, queue: queue}
}

type scrapeResponse struct {
	Stored  int      `json:"stored"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Trigger runs a scrape cycle synchronously. A 409 means a cycle is already
// running; the caller should simply wait for it.
func (h *ScrapeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.runner.Run(r.Context(), h.queries())
	if !ok {
		http.Error(w, "a scrape is already running", http.StatusConflict)
		return
	}

	if sum.Stored > 0 && h.stats != nil {
		day := time.Now().UTC().Format("2006-01-02")
		if err := h.stats.IncrementDay(r.Context(), day, repository.StatJobsFound, int64(sum.Stored)); err != nil {
			logger.Warn("increment day stats", "err", err)
		}
	}

	if sum.Stored > 0 && h.queue != nil {
		payload := map[string]any{"stored": sum.Stored, "skipped": sum.Skipped}
		if _, err := h.queue.Enqueue(r.Context(), "notify.telegram", payload, 80, 3); err != nil {
			logger.Warn("enqueue notify.telegram", "err", err)
		}
	}

	writeJSON(w, scrapeResponse{
		Stored:  sum.Stored,
		Skipped: sum.Skipped,
		Errors:  sum.ErrorStrings(),
	}, http.StatusOK)
}
