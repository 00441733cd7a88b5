package api

import (
	"github.com/gorilla/mux"

	"github.com/jobhunterpro/jobhunter/internal/ingest"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

// Deps carries everything the route tree needs; main assembles it once.
type Deps struct {
	Postings     repository.PostingRepo
	Applications repository.ApplicationRepo
	Stats        repository.StatsRepo
	Normalizer   *ingest.Normalizer
	Scorer       *ingest.Scorer
	Letters      letterDrafter
	Queue        Enqueuer
	Scraper      ScrapeRunner
	Queries      func() []ingest.Query
	ExportDir    string
}

func SetupRoutes(version, buildTime string, deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	postingsHandler := NewPostingsHandler(deps.Postings, deps.Applications, deps.Stats, deps.Normalizer, deps.Scorer, deps.Letters, deps.Queue)
	scrapeHandler := NewScrapeHandler(deps.Scraper, deps.Queries, deps.Stats, deps.Queue)
	statsHandler := NewStatsHandler(deps.Postings, deps.Stats)
	exportHandler := NewExportHandler(deps.Postings, deps.ExportDir)

	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	apiV1 := r.PathPrefix("/v1").Subrouter()

	apiV1.HandleFunc("/postings", postingsHandler.CreatePosting).Methods("POST")
	apiV1.HandleFunc("/postings", postingsHandler.ListPostings).Methods("GET")
	apiV1.HandleFunc("/postings/{id}", postingsHandler.GetPosting).Methods("GET")
	apiV1.HandleFunc("/postings/{id}", postingsHandler.DeletePosting).Methods("DELETE")
	apiV1.HandleFunc("/postings/{id}/status", postingsHandler.UpdateStatus).Methods("PATCH")
	apiV1.HandleFunc("/postings/{id}/apply", postingsHandler.Apply).Methods("POST")
	apiV1.HandleFunc("/postings/bulk-apply", postingsHandler.BulkApply).Methods("POST")

	apiV1.HandleFunc("/scrape", scrapeHandler.Trigger).Methods("POST")
	apiV1.HandleFunc("/stats", statsHandler.Overview).Methods("GET")
	apiV1.HandleFunc("/export", exportHandler.Export).Methods("POST")

	return r
}
