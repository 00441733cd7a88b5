package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// Query is one unit of search work: a keyword against one source region.
type Query struct {
	Keyword     string `json:"keyword"`
	Country     string `json:"country"`
	CountryName string `json:"country_name,omitempty"`
}

// Source fetches raw postings for one query. Implementations classify their
// own failures by returning *SourceError where possible.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.RawPosting, error)
}

// Storage is the persistence contract the pipeline depends on.
type Storage interface {
	Lookup
	CreatePosting(ctx context.Context, p *models.Posting) (int64, error)
}

// Validator optionally refines a posting's relevance score. A failing
// validator never blocks ingestion; the base score stands.
type Validator interface {
	Score(ctx context.Context, p *models.Posting) (float64, error)
}

// Summary reports the outcome of one pipeline run. A run always completes;
// per-query and per-record failures are collected here instead of aborting
// the batch.
type Summary struct {
	Stored  int     `json:"stored"`
	Skipped int     `json:"skipped"`
	Errors  []error `json:"-"`
}

// ErrorStrings renders the collected errors for transport.
func (s Summary) ErrorStrings() []string {
	out := make([]string, 0, len(s.Errors))
	for _, err := range s.Errors {
		out = append(out, err.Error())
	}
	return out
}

// PipelineConfig tunes one pipeline instance.
type PipelineConfig struct {
	// FetchWorkers bounds the concurrent source fetches per run.
	FetchWorkers int
	// FetchTimeout is the per-query timeout; a stuck query becomes a
	// SourceError instead of stalling the run.
	FetchTimeout time.Duration
	// MinRelevance drops postings scoring below this threshold.
	MinRelevance float64
}

// Pipeline orchestrates fetch -> normalize -> dedup -> score -> persist for
// one scrape cycle. Fetches run concurrently; the dedup/persist phase is
// strictly sequential to keep a single writer on storage. The pipeline
// assumes it is not re-entered concurrently; see SingleFlight.
type Pipeline struct {
	source    Source
	store     Storage
	norm      *Normalizer
	scorer    *Scorer
	validator Validator
	logger    *slog.Logger
	cfg       PipelineConfig
}

// NewPipeline wires a pipeline. validator may be nil.
func NewPipeline(source Source, store Storage, norm *Normalizer, scorer *Scorer, validator Validator, logger *slog.Logger, cfg PipelineConfig) *Pipeline {
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    source,
		store:     store,
		norm:      norm,
		scorer:    scorer,
		validator: validator,
		logger:    logger,
		cfg:       cfg,
	}
}

type fetchResult struct {
	query Query
	raws  []models.RawPosting
	err   error
}

// Run executes one scrape cycle over the given queries and returns a
// summary. Running twice over overlapping source data stores nothing the
// second time: idempotence comes from the dedup checks against durable
// storage, not from any memo kept between runs.
func (pl *Pipeline) Run(ctx context.Context, queries []Query) Summary {
	results := pl.fetchAll(ctx, queries)

	var sum Summary
	dedup := NewDeduplicator(pl.store)
	now := time.Now()

	for _, res := range results {
		if res.err != nil {
			srcErr := classifySourceError(res.query, res.err)
			pl.logger.Warn("source query failed",
				slog.String("keyword", res.query.Keyword),
				slog.String("country", res.query.Country),
				slog.String("kind", string(srcErr.Kind)),
			)
			sum.Errors = append(sum.Errors, srcErr)
			continue
		}

		for _, raw := range res.raws {
			p, err := pl.norm.Normalize(raw, now)
			if err != nil {
				sum.Skipped++
				continue
			}

			if err := dedup.Check(ctx, p); err != nil {
				if errors.Is(err, ErrDuplicatePosting) {
					sum.Skipped++
					continue
				}
				sum.Errors = append(sum.Errors, err)
				continue
			}

			p.RelevanceScore = pl.scorer.Score(p)
			if pl.validator != nil {
				if refined, verr := pl.validator.Score(ctx, p); verr == nil {
					p.RelevanceScore = clampScore(refined)
				} else {
					pl.logger.Warn("validator unavailable, keeping base score", "err", verr)
				}
			}

			if p.RelevanceScore < pl.cfg.MinRelevance {
				sum.Skipped++
				continue
			}

			id, err := pl.store.CreatePosting(ctx, p)
			if err != nil {
				sum.Errors = append(sum.Errors, &StorageError{Op: "create posting", Err: err})
				continue
			}
			p.ID = id
			sum.Stored++
		}
	}

	pl.logger.Info("pipeline run complete",
		slog.Int("queries", len(queries)),
		slog.Int("stored", sum.Stored),
		slog.Int("skipped", sum.Skipped),
		slog.Int("errors", len(sum.Errors)),
	)

	return sum
}

// fetchAll issues all queries over a bounded worker pool and returns results
// in query order so the merge phase stays deterministic.
func (pl *Pipeline) fetchAll(ctx context.Context, queries []Query) []fetchResult {
	results := make([]fetchResult, len(queries))

	idxCh := make(chan int)
	var wg sync.WaitGroup
	workers := pl.cfg.FetchWorkers
	if workers > len(queries) {
		workers = len(queries)
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxCh {
				q := queries[idx]
				ctxQ, cancel := context.WithTimeout(ctx, pl.cfg.FetchTimeout)
				raws, err := pl.source.Search(ctxQ, q)
				cancel()
				results[idx] = fetchResult{query: q, raws: raws, err: err}
			}
		}()
	}

	for i := range queries {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	return results
}

// classifySourceError wraps err as a SourceError, respecting a
// classification the source already made.
func classifySourceError(q Query, err error) *SourceError {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		if srcErr.Query == (Query{}) {
			srcErr.Query = q
		}
		return srcErr
	}

	kind := SourceUnavailable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = SourceTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = SourceTimeout
	}

	return &SourceError{Query: q, Kind: kind, Err: err}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// SingleFlight serializes pipeline runs. The in-batch dedup set is not safe
// against concurrent writers, so at most one run may be active per storage
// backend.
type SingleFlight struct {
	pipeline *Pipeline
	mu       sync.Mutex
}

func NewSingleFlight(p *Pipeline) *SingleFlight {
	return &SingleFlight{pipeline: p}
}

// Run executes the pipeline unless a run is already in flight, in which case
// it reports ok=false without blocking.
func (s *SingleFlight) Run(ctx context.Context, queries []Query) (Summary, bool) {
	if !s.mu.TryLock() {
		return Summary{}, false
	}
	defer s.mu.Unlock()

	return s.pipeline.Run(ctx, queries), true
}
