package api

import (
	"net/http"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

type StatsHandler struct {
	postings repository.PostingRepo
	stats    repository.StatsRepo
}

func NewStatsHandler(pr repository.PostingRepo, sr repository.StatsRepo) *StatsHandler {
	return &StatsHandler{postings: pr, stats: sr}
}

type statsResponse struct {
	StatusCounts map[models.Status]int64 `json:"status_counts"`
	Days         []models.DayStats       `json:"days"`
	// ResponseRate is responses (interviews + rejections + offers) over
	// applications within the window.
	ResponseRate float64 `json:"response_rate"`
}

// Overview returns lifecycle counts plus per-day activity since ?since
// (default: the last 7 days).
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since == "" {
		since = time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", since); err != nil {
		http.Error(w, "invalid since date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	counts, err := h.postings.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, "failed to count postings", http.StatusInternalServerError)
		return
	}

	days, err := h.stats.ListDaysSince(r.Context(), since)
	if err != nil {
		http.Error(w, "failed to list day stats", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []models.DayStats{}
	}

	var applied, responses int64
	for _, d := range days {
		applied += d.Applied
		responses += d.Interviews + d.Rejections + d.Offers
	}
	var rate float64
	if applied > 0 {
		rate = float64(responses) / float64(applied)
	}

	writeJSON(w, statsResponse{StatusCounts: counts, Days: days, ResponseRate: rate}, http.StatusOK)
}
