package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/config"
)

func TestValidate_MissingEngineModel(t *testing.T) {
	cfg := &config.Config{
		Addr:         ":8080",
		DatabasePath: "jobhunter.db",
		Engine:       config.EngineConfig{Enabled: true, Model: ""},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail when the engine is enabled without a model")
	}
}

func TestValidate_EngineDisabledNeedsNoModel(t *testing.T) {
	cfg := &config.Config{
		Addr:         ":8080",
		DatabasePath: "jobhunter.db",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}
}

func TestValidate_MinRelevanceOutOfRange(t *testing.T) {
	cfg := &config.Config{
		Addr:         ":8080",
		DatabasePath: "jobhunter.db",
		MinRelevance: 120,
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for min_relevance > 100, got nil")
	}
}

func TestValidate_DefaultsPopulated(t *testing.T) {
	cfg := &config.Config{
		Addr:         ":8080",
		DatabasePath: "jobhunter.db",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}

	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.ScrapeInterval != 6*time.Hour {
		t.Fatalf("unexpected ScrapeInterval: got %v", cfg.ScrapeInterval)
	}
	if cfg.MinRelevance != 15 {
		t.Fatalf("unexpected MinRelevance: got %v want 15", cfg.MinRelevance)
	}
	if cfg.Profile.FallbackLocation != "Kenya" {
		t.Fatalf("unexpected FallbackLocation: got %q", cfg.Profile.FallbackLocation)
	}
	if len(cfg.Profile.Keywords) == 0 {
		t.Fatalf("expected default keywords to be populated")
	}
	if cfg.Scorer.TitleWeight != 3 || cfg.Scorer.Scale != 5 {
		t.Fatalf("unexpected scorer defaults: %+v", cfg.Scorer)
	}
	if cfg.Adzuna.BaseURL == "" {
		t.Fatalf("expected Adzuna.BaseURL to be populated, got empty")
	}
	if cfg.Adzuna.Retries == 0 {
		t.Fatalf("expected Adzuna.Retries default to be non-zero")
	}
	if cfg.Ollama.BaseURL == "" {
		t.Fatalf("expected Ollama.BaseURL to be populated, got empty")
	}
	if cfg.Mail.Host != "smtp.gmail.com" || cfg.Mail.Port != 587 {
		t.Fatalf("unexpected mail defaults: %+v", cfg.Mail)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	_ = os.Unsetenv("JOBHUNTER_ADDR")
	_ = os.Unsetenv("JOBHUNTER_DATABASE_PATH")
	_ = os.Unsetenv("JOBHUNTER_EXPORT_DIR")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "jobhunter.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "jobhunter.db")
	}
	if cfg.ExportDir != "exports" {
		t.Fatalf("unexpected ExportDir: got %q want %q", cfg.ExportDir, "exports")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\ntimeout: \"30s\"\ndatabase_path: \"test.db\"\nmin_relevance: 40\nprofile:\n  fallback_location: \"Lagos\"\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.DatabasePath != "test.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "test.db")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.MinRelevance != 40 {
		t.Fatalf("unexpected MinRelevance: got %v want 40", cfg.MinRelevance)
	}
	if cfg.Profile.FallbackLocation != "Lagos" {
		t.Fatalf("unexpected FallbackLocation: got %q", cfg.Profile.FallbackLocation)
	}
}

func TestLoadConfig_CredentialsFromEnv(t *testing.T) {
	t.Setenv("ADZUNA_APP_ID", "id-from-env")
	t.Setenv("ADZUNA_APP_KEY", "key-from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Adzuna.AppID != "id-from-env" || cfg.Adzuna.AppKey != "key-from-env" {
		t.Fatalf("adzuna credentials not read from environment: %+v", cfg.Adzuna)
	}
	if cfg.Telegram.BotToken != "tg-token" {
		t.Fatalf("telegram token not read from environment: %q", cfg.Telegram.BotToken)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
