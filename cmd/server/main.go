package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobhunterpro/jobhunter/api"
	dbfs "github.com/jobhunterpro/jobhunter/db"
	"github.com/jobhunterpro/jobhunter/internal/ai"
	"github.com/jobhunterpro/jobhunter/internal/config"
	"github.com/jobhunterpro/jobhunter/internal/db"
	"github.com/jobhunterpro/jobhunter/internal/ingest"
	"github.com/jobhunterpro/jobhunter/internal/jobs"
	"github.com/jobhunterpro/jobhunter/internal/mailer"
	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/internal/notify"
	"github.com/jobhunterpro/jobhunter/internal/repository/sqlite"
	"github.com/jobhunterpro/jobhunter/internal/source"
	"github.com/jobhunterpro/jobhunter/pkg/adzuna"
	"github.com/jobhunterpro/jobhunter/pkg/ollama"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	adzuna.SetLogger(logger)
	ollama.SetLogger(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	logger.Info("starting jobhunter", "version", version, "built", buildTime)

	ctx := context.Background()

	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	repo := sqlite.New(conn, logger)

	adzunaClient, err := adzuna.NewDefaultClient(cfg.Adzuna)
	if err != nil {
		logger.Error("create adzuna client", "err", err)
		os.Exit(1)
	}
	defer adzunaClient.Close()

	var (
		validator ingest.Validator
		letters   *ai.LetterWriter
	)
	if cfg.Engine.Enabled {
		ollamaClient, err := ollama.NewDefaultClient(cfg.Ollama)
		if err != nil {
			logger.Error("create ollama client", "err", err)
			os.Exit(1)
		}
		defer ollamaClient.Close()

		v, err := ai.NewValidator(ollamaClient, cfg.Engine.Model, cfg.Engine.Timeout, cfg.Profile.Keywords, logger)
		if err != nil {
			logger.Error("create validator", "err", err)
			os.Exit(1)
		}
		validator = v
		letters = ai.NewLetterWriter(ollamaClient, cfg.Engine.Model, cfg.Engine.Timeout, cfg.Candidate, logger)
	} else {
		letters = ai.NewLetterWriter(nil, "", 0, cfg.Candidate, logger)
	}

	norm := ingest.NewNormalizer(cfg.Profile.FallbackLocation)
	scorer := ingest.NewScorer(
		ingest.Profile{Keywords: cfg.Profile.Keywords, Locations: cfg.Profile.Locations},
		ingest.Weights{
			Title:       cfg.Scorer.TitleWeight,
			Description: cfg.Scorer.DescriptionWeight,
			Location:    cfg.Scorer.LocationBonus,
			Scale:       cfg.Scorer.Scale,
		},
	)
	src := source.NewAdzuna(adzunaClient)
	pipeline := ingest.NewPipeline(src, repo, norm, scorer, validator, logger, ingest.PipelineConfig{
		FetchWorkers: cfg.FetchWorkers,
		FetchTimeout: cfg.Adzuna.Timeout,
		MinRelevance: cfg.MinRelevance,
	})
	runner := ingest.NewSingleFlight(pipeline)
	queries := func() []ingest.Query {
		return source.Queries(cfg.Profile.Keywords, cfg.Adzuna.Countries)
	}

	telegram := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	mail := mailer.New(cfg.Mail, logger)

	// The handler map is filled after the pool exists so handlers can enqueue
	// follow-up jobs through it.
	jobRepo := jobs.NewRepository(conn)
	handlers := map[string]jobs.Handler{}
	pool := jobs.NewWorkerPool(jobRepo, handlers, logger, 2)

	handlers[jobs.TypeScrapeRun] = func(ctx context.Context, _ *models.BackgroundJob) error {
		runCtx, cancel := context.WithTimeout(ctx, cfg.ScrapeTimeout)
		defer cancel()

		sum, ok := runner.Run(runCtx, queries())
		if !ok {
			logger.Info("scheduled scrape skipped, one already running")
			return nil
		}
		if sum.Stored > 0 {
			day := time.Now().UTC().Format("2006-01-02")
			if err := repo.IncrementDay(ctx, day, repository.StatJobsFound, int64(sum.Stored)); err != nil {
				logger.Warn("increment day stats", "err", err)
			}
			payload := map[string]any{"stored": sum.Stored, "skipped": sum.Skipped}
			if _, err := pool.Enqueue(ctx, jobs.TypeNotifyTelegram, payload, 80, 3); err != nil {
				logger.Warn("enqueue notify.telegram", "err", err)
			}
		}
		return nil
	}

	handlers[jobs.TypeNotifyTelegram] = func(ctx context.Context, j *models.BackgroundJob) error {
		if !telegram.Configured() {
			return nil
		}
		var p struct {
			Stored  int `json:"stored"`
			Skipped int `json:"skipped"`
		}
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode notify payload: %w", err)
		}
		text := fmt.Sprintf("Job hunt update: %d new postings stored, %d skipped.", p.Stored, p.Skipped)
		return telegram.Send(ctx, text)
	}

	handlers[jobs.TypeEmailSend] = func(ctx context.Context, j *models.BackgroundJob) error {
		if !mail.Configured() {
			logger.Warn("mailer not configured, dropping email job", "job_id", j.ID)
			return nil
		}
		var p struct {
			PostingID     int64 `json:"posting_id"`
			ApplicationID int64 `json:"application_id"`
		}
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		posting, err := repo.GetPosting(ctx, p.PostingID)
		if err != nil {
			return err
		}
		if posting == nil {
			// posting was deleted after the apply; nothing to send
			return nil
		}
		app, err := repo.GetApplicationByPosting(ctx, p.PostingID)
		if err != nil {
			return err
		}
		if app == nil || app.EmailSent {
			return nil
		}
		if err := mail.SendApplication(posting, app); err != nil {
			return err
		}
		return repo.MarkEmailSent(ctx, app.ID)
	}

	pool.Start(ctx)

	// periodic scrape: enqueue through the job queue so the run gets the same
	// retry and dead-letter treatment as everything else
	ticker := time.NewTicker(cfg.ScrapeInterval)
	tickerDone := make(chan struct{})
	go func() {
		for {
			select {
			case <-tickerDone:
				return
			case <-ticker.C:
				if _, err := pool.Enqueue(ctx, jobs.TypeScrapeRun, map[string]any{}, 10, 1); err != nil {
					logger.Error("enqueue scheduled scrape", "err", err)
				}
			}
		}
	}()

	handler := api.SetupRoutes(version, buildTime, api.Deps{
		Postings:     repo,
		Applications: repo,
		Stats:        repo,
		Normalizer:   norm,
		Scorer:       scorer,
		Letters:      letters,
		Queue:        pool,
		Scraper:      runner,
		Queries:      queries,
		ExportDir:    cfg.ExportDir,
	})

	// the write timeout must cover a synchronous /v1/scrape cycle
	writeTimeout := cfg.APITimeout
	if cfg.ScrapeTimeout > writeTimeout {
		writeTimeout = cfg.ScrapeTimeout
	}
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ticker.Stop()
	close(tickerDone)

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}

	pool.Stop()

	if err := conn.Close(); err != nil {
		logger.Error("close database", "err", err)
	}

	logger.Info("server exited")
}
