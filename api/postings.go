package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jobhunterpro/jobhunter/internal/ingest"
	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

// Enqueuer pushes background jobs; satisfied by the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

// letterDrafter produces a cover letter for a posting.
type letterDrafter interface {
	Draft(ctx context.Context, p *models.Posting) string
}

type PostingsHandler struct {
	postings repository.PostingRepo
	apps     repository.ApplicationRepo
	stats    repository.StatsRepo
	norm     *ingest.Normalizer
	scorer   *ingest.Scorer
	letters  letterDrafter
	queue    Enqueuer
}

func NewPostingsHandler(pr repository.PostingRepo, ar repository.ApplicationRepo, sr repository.StatsRepo, norm *ingest.Normalizer, scorer *ingest.Scorer, letters letterDrafter, queue Enqueuer) *PostingsHandler {
	return &PostingsHandler{
		postings: pr,
		apps:     ar,
		stats:    sr,
		norm:     norm,
		scorer:   scorer,
		letters:  letters,
		queue:    queue,
	}
}

type createPostingRequest struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	Salary       string `json:"salary"`
	ContractType string `json:"contract_type"`
}

// CreatePosting stores a manually submitted posting. It goes through the same
// normalize/dedup/score path as scraped records.
func (h *PostingsHandler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	var req createPostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	raw := models.RawPosting{
		ExternalID:   uuid.NewString(),
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		URL:          req.URL,
		Description:  req.Description,
		Salary:       req.Salary,
		ContractType: req.ContractType,
		SourceName:   "Manual",
	}

	p, err := h.norm.Normalize(raw, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dedup := ingest.NewDeduplicator(h.postings)
	if err := dedup.Check(r.Context(), p); err != nil {
		if errors.Is(err, ingest.ErrDuplicatePosting) {
			http.Error(w, "posting already exists", http.StatusConflict)
			return
		}
		http.Error(w, "failed to check duplicates", http.StatusInternalServerError)
		return
	}

	p.RelevanceScore = h.scorer.Score(p)

	id, err := h.postings.CreatePosting(r.Context(), p)
	if err != nil {
		http.Error(w, "failed to store posting", http.StatusInternalServerError)
		return
	}
	p.ID = id

	day := time.Now().UTC().Format("2006-01-02")
	if err := h.stats.IncrementDay(r.Context(), day, repository.StatJobsFound, 1); err != nil {
		logger.Warn("increment day stats", "err", err)
	}

	writeJSON(w, p, http.StatusCreated)
}

func (h *PostingsHandler) GetPosting(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *PostingsHandler) DeletePosting(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.postings.DeletePosting(r.Context(), p.ID); err != nil {
		http.Error(w, "failed to delete posting", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostingsHandler) ListPostings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f repository.PostingFilter
	if s := q.Get("status"); s != "" {
		status := models.Status(s)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		f.Status = status
	}
	if ms := q.Get("min_score"); ms != "" {
		v, err := strconv.ParseFloat(ms, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid min_score", http.StatusBadRequest)
			return
		}
		f.MinScore = v
	}
	f.Limit = 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			f.Limit = v
		}
	}
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			f.Offset = v
		}
	}

	rows, err := h.postings.ListPostings(r.Context(), f)
	if err != nil {
		http.Error(w, "failed to list postings", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.Posting{}
	}

	resp := map[string]any{
		"limit":  f.Limit,
		"offset": f.Offset,
		"items":  rows,
	}
	writeJSON(w, resp, http.StatusOK)
}

type updateStatusRequest struct {
	Status models.Status `json:"status"`
}

// UpdateStatus moves a posting through the application state machine. An
// illegal transition is a 422, not a 400: the request is well formed, the
// state just does not allow it.
func (h *PostingsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	prev := p.Status
	if err := ingest.Transition(p, req.Status, time.Now()); err != nil {
		var terr *ingest.InvalidTransitionError
		if errors.As(err, &terr) {
			http.Error(w, terr.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	if p.Status != prev {
		if err := h.postings.UpdatePosting(r.Context(), p); err != nil {
			http.Error(w, "failed to update posting", http.StatusInternalServerError)
			return
		}
		h.recordStatusStat(r.Context(), p.Status)
	}

	writeJSON(w, p, http.StatusOK)
}

type applyRequest struct {
	RecipientEmail string `json:"recipient_email"`
	CoverLetter    string `json:"cover_letter,omitempty"`
}

type applyResponse struct {
	Posting     *models.Posting     `json:"posting"`
	Application *models.Application `json:"application"`
}

// Apply transitions the posting to Applied, stores an application with a
// cover letter (drafted when none is supplied), and queues the email send.
func (h *PostingsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if existing, err := h.apps.GetApplicationByPosting(r.Context(), p.ID); err != nil {
		http.Error(w, "failed to check application", http.StatusInternalServerError)
		return
	} else if existing != nil {
		http.Error(w, "posting already has an application", http.StatusConflict)
		return
	}

	if err := ingest.Transition(p, models.StatusApplied, time.Now()); err != nil {
		var terr *ingest.InvalidTransitionError
		if errors.As(err, &terr) {
			http.Error(w, terr.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to apply", http.StatusInternalServerError)
		return
	}

	letter := req.CoverLetter
	if letter == "" && h.letters != nil {
		letter = h.letters.Draft(r.Context(), p)
	}

	app := &models.Application{
		PostingID:      p.ID,
		CoverLetter:    letter,
		RecipientEmail: req.RecipientEmail,
		AppliedAt:      *p.AppliedAt,
	}
	appID, err := h.apps.CreateApplication(r.Context(), app)
	if err != nil {
		http.Error(w, "failed to store application", http.StatusInternalServerError)
		return
	}
	app.ID = appID

	if err := h.postings.UpdatePosting(r.Context(), p); err != nil {
		http.Error(w, "failed to update posting", http.StatusInternalServerError)
		return
	}
	h.recordStatusStat(r.Context(), models.StatusApplied)

	// email delivery is fire-and-forget through the job queue
	if h.queue != nil && app.RecipientEmail != "" {
		payload := map[string]any{"posting_id": p.ID, "application_id": app.ID}
		if _, err := h.queue.Enqueue(r.Context(), "email.send", payload, 50, 3); err != nil {
			logger.Warn("enqueue email.send", "err", err)
		}
	}

	writeJSON(w, applyResponse{Posting: p, Application: app}, http.StatusCreated)
}

type bulkApplyRequest struct {
	MinScore       float64 `json:"min_score"`
	Limit          int     `json:"limit"`
	RecipientEmail string  `json:"recipient_email,omitempty"`
}

type bulkApplyResponse struct {
	Applied    int     `json:"applied"`
	Skipped    int     `json:"skipped"`
	PostingIDs []int64 `json:"posting_ids"`
}

// BulkApply applies to every Found posting at or above min_score, newest and
// most relevant first. Postings that already carry an application are skipped
// rather than failing the batch.
func (h *PostingsHandler) BulkApply(w http.ResponseWriter, r *http.Request) {
	var req bulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.MinScore < 0 || req.MinScore > 100 {
		http.Error(w, "invalid min_score", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 10
	}

	rows, err := h.postings.ListPostings(r.Context(), repository.PostingFilter{
		Status:   models.StatusFound,
		MinScore: req.MinScore,
		Limit:    req.Limit,
	})
	if err != nil {
		http.Error(w, "failed to list postings", http.StatusInternalServerError)
		return
	}

	resp := bulkApplyResponse{PostingIDs: []int64{}}
	for i := range rows {
		p := &rows[i]

		if existing, err := h.apps.GetApplicationByPosting(r.Context(), p.ID); err != nil || existing != nil {
			resp.Skipped++
			continue
		}
		if err := ingest.Transition(p, models.StatusApplied, time.Now()); err != nil {
			resp.Skipped++
			continue
		}

		var letter string
		if h.letters != nil {
			letter = h.letters.Draft(r.Context(), p)
		}
		app := &models.Application{
			PostingID:      p.ID,
			CoverLetter:    letter,
			RecipientEmail: req.RecipientEmail,
			AppliedAt:      *p.AppliedAt,
		}
		appID, err := h.apps.CreateApplication(r.Context(), app)
		if err != nil {
			resp.Skipped++
			continue
		}
		if err := h.postings.UpdatePosting(r.Context(), p); err != nil {
			resp.Skipped++
			continue
		}
		h.recordStatusStat(r.Context(), models.StatusApplied)

		if h.queue != nil && req.RecipientEmail != "" {
			payload := map[string]any{"posting_id": p.ID, "application_id": appID}
			if _, err := h.queue.Enqueue(r.Context(), "email.send", payload, 50, 3); err != nil {
				logger.Warn("enqueue email.send", "err", err)
			}
		}

		resp.Applied++
		resp.PostingIDs = append(resp.PostingIDs, p.ID)
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *PostingsHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.Posting, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid posting id", http.StatusBadRequest)
		return nil, false
	}

	p, err := h.postings.GetPosting(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load posting", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		http.Error(w, "posting not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (h *PostingsHandler) recordStatusStat(ctx context.Context, status models.Status) {
	var counter repository.StatCounter
	switch status {
	case models.StatusApplied:
		counter = repository.StatJobsApplied
	case models.StatusInterview:
		counter = repository.StatInterviews
	case models.StatusRejected:
		counter = repository.StatRejections
	case models.StatusOffer:
		counter = repository.StatOffers
	default:
		return
	}

	day := time.Now().UTC().Format("2006-01-02")
	if err := h.stats.IncrementDay(ctx, day, counter, 1); err != nil {
		logger.Warn("increment day stats", "err", err)
	}
}
