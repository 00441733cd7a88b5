package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobhunterpro/jobhunter/pkg/adzuna"
	"github.com/jobhunterpro/jobhunter/pkg/ollama"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	APITimeout     time.Duration `yaml:"timeout"`
	DatabasePath   string        `yaml:"database_path"`
	ExportDir      string        `yaml:"export_dir"`
	ScrapeInterval time.Duration `yaml:"scrape_interval"`
	ScrapeTimeout  time.Duration `yaml:"scrape_timeout"`
	FetchWorkers   int           `yaml:"fetch_workers"`
	MinRelevance   float64       `yaml:"min_relevance"`

	Profile   SearchProfile    `yaml:"profile"`
	Candidate CandidateProfile `yaml:"candidate"`
	Scorer    ScorerConfig     `yaml:"scorer"`
	Engine    EngineConfig     `yaml:"engine"`
	Adzuna    adzuna.Config    `yaml:"adzuna"`
	Ollama    ollama.Config    `yaml:"ollama"`
	Mail      MailConfig       `yaml:"mail"`
	Telegram  TelegramConfig   `yaml:"telegram"`
}

// SearchProfile is the candidate's search intent: what roles to look for and
// where the candidate prefers to work.
type SearchProfile struct {
	Keywords  []string `yaml:"keywords"`
	Locations []string `yaml:"locations"`
	// FallbackLocation is used when a source record carries no location.
	FallbackLocation string `yaml:"fallback_location"`
}

// CandidateProfile feeds the cover-letter generator.
type CandidateProfile struct {
	Name           string   `yaml:"name"`
	Email          string   `yaml:"email"`
	Phone          string   `yaml:"phone"`
	GitHub         string   `yaml:"github"`
	LinkedIn       string   `yaml:"linkedin"`
	Skills         []string `yaml:"skills"`
	Certifications []string `yaml:"certifications"`
	Education      string   `yaml:"education"`
	KeyProject     string   `yaml:"key_project"`
}

// ScorerConfig holds the relevance-scoring weights. The exact weighting is
// deliberately configurable; the defaults favor title matches over body text.
type ScorerConfig struct {
	TitleWeight       float64 `yaml:"title_weight"`
	DescriptionWeight float64 `yaml:"description_weight"`
	LocationBonus     float64 `yaml:"location_bonus"`
	Scale             float64 `yaml:"scale"`
}

// EngineConfig configures the optional AI layer (posting validation and
// cover-letter drafting).
type EngineConfig struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	CVPath   string `yaml:"cv_path"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:         getEnv("JOBHUNTER_ADDR", ":8080"),
		DatabasePath: getEnv("JOBHUNTER_DATABASE_PATH", "jobhunter.db"),
		ExportDir:    getEnv("JOBHUNTER_EXPORT_DIR", "exports"),
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	// credentials always come from the environment, never from the YAML file
	cfg.Adzuna.AppID = getEnv("ADZUNA_APP_ID", cfg.Adzuna.AppID)
	cfg.Adzuna.AppKey = getEnv("ADZUNA_APP_KEY", cfg.Adzuna.AppKey)
	cfg.Mail.Username = getEnv("MAIL_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("MAIL_PASSWORD", cfg.Mail.Password)
	cfg.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills defaults and rejects configurations the server cannot run
// with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.ScrapeInterval <= 0 {
		c.ScrapeInterval = 6 * time.Hour
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = 5 * time.Minute
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = 4
	}
	if c.MinRelevance < 0 || c.MinRelevance > 100 {
		return fmt.Errorf("min_relevance must be within [0,100]")
	}
	if c.MinRelevance == 0 {
		c.MinRelevance = 15
	}

	if len(c.Profile.Keywords) == 0 {
		c.Profile.Keywords = defaultKeywords()
	}
	if len(c.Profile.Locations) == 0 {
		c.Profile.Locations = defaultLocations()
	}
	if c.Profile.FallbackLocation == "" {
		c.Profile.FallbackLocation = "Kenya"
	}

	if c.Scorer.TitleWeight <= 0 {
		c.Scorer.TitleWeight = 3
	}
	if c.Scorer.DescriptionWeight <= 0 {
		c.Scorer.DescriptionWeight = 1
	}
	if c.Scorer.LocationBonus <= 0 {
		c.Scorer.LocationBonus = 2
	}
	if c.Scorer.Scale <= 0 {
		c.Scorer.Scale = 5
	}

	if c.Engine.Enabled && c.Engine.Model == "" {
		return fmt.Errorf("engine.model is required when the AI engine is enabled")
	}
	if c.Engine.Timeout <= 0 {
		c.Engine.Timeout = 20 * time.Second
	}

	applyAdzunaDefaults(&c.Adzuna)
	applyOllamaDefaults(&c.Ollama)

	if c.Mail.Host == "" {
		c.Mail.Host = "smtp.gmail.com"
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}

	return nil
}

func applyAdzunaDefaults(a *adzuna.Config) {
	def := adzuna.DefaultConfig()
	if a.BaseURL == "" {
		a.BaseURL = def.BaseURL
	}
	if len(a.Countries) == 0 {
		a.Countries = def.Countries
	}
	if a.ResultsPerPage <= 0 {
		a.ResultsPerPage = def.ResultsPerPage
	}
	if a.MaxDaysOld <= 0 {
		a.MaxDaysOld = def.MaxDaysOld
	}
	if a.Timeout <= 0 {
		a.Timeout = def.Timeout
	}
	if a.Retries == 0 {
		a.Retries = def.Retries
	}
	if a.Backoff <= 0 {
		a.Backoff = def.Backoff
	}
	if a.CircuitFailureThreshold <= 0 {
		a.CircuitFailureThreshold = def.CircuitFailureThreshold
	}
	if a.CircuitReset <= 0 {
		a.CircuitReset = def.CircuitReset
	}
}

func applyOllamaDefaults(o *ollama.Config) {
	def := ollama.DefaultConfig()
	if o.BaseURL == "" {
		o.BaseURL = def.BaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.Retries == 0 {
		o.Retries = def.Retries
	}
	if o.Backoff <= 0 {
		o.Backoff = def.Backoff
	}
	if o.CircuitFailureThreshold <= 0 {
		o.CircuitFailureThreshold = def.CircuitFailureThreshold
	}
	if o.CircuitReset <= 0 {
		o.CircuitReset = def.CircuitReset
	}
}

func defaultKeywords() []string {
	return []string{
		"SOC Analyst", "Security Analyst", "Cybersecurity",
		"Junior Developer", "Python Developer", "Software Engineer",
		"Security Engineer", "Backend Developer", "Full Stack Developer",
		"Data Analyst", "Network Administrator", "IT Support",
	}
}

func defaultLocations() []string {
	return []string{
		"Kenya", "Nairobi", "Mombasa", "Kisumu",
		"Uganda", "Kampala", "Tanzania", "Rwanda",
		"Remote", "East Africa", "Africa",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
