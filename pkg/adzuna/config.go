package adzuna

import (
	"strings"
	"time"
)

// Config holds settings for the Adzuna search API client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.adzuna.com/v1/api
	BaseURL string `yaml:"base_url" json:"base_url"`
	// AppID and AppKey are the API credentials from developer.adzuna.com.
	AppID  string `yaml:"app_id" json:"app_id"`
	AppKey string `yaml:"app_key" json:"app_key"`
	// Countries is the list of two-letter country codes to search, in order.
	Countries []string `yaml:"countries" json:"countries"`
	// ResultsPerPage caps results per query.
	ResultsPerPage int `yaml:"results_per_page" json:"results_per_page"`
	// MaxDaysOld restricts results to recent postings.
	MaxDaysOld int `yaml:"max_days_old" json:"max_days_old"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Retries is the number of retry attempts for transient failures.
	Retries int `yaml:"retries" json:"retries"`
	// Backoff is the base backoff between retries.
	Backoff time.Duration `yaml:"backoff" json:"backoff"`
	// CircuitFailureThreshold opens the circuit after this many consecutive failures.
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" json:"circuit_failure_threshold"`
	// CircuitReset is the duration after which the circuit attempts to half-open.
	CircuitReset time.Duration `yaml:"circuit_reset" json:"circuit_reset"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:                 "https://api.adzuna.com/v1/api",
		Countries:               []string{"za", "in", "gb", "us"},
		ResultsPerPage:          10,
		MaxDaysOld:              7,
		Timeout:                 10 * time.Second,
		Retries:                 3,
		Backoff:                 500 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitReset:            30 * time.Second,
	}
}

// SupportedCountries maps Adzuna country codes to display names.
var SupportedCountries = map[string]string{
	"gb": "United Kingdom",
	"us": "United States",
	"au": "Australia",
	"ca": "Canada",
	"de": "Germany",
	"fr": "France",
	"nl": "Netherlands",
	"nz": "New Zealand",
	"br": "Brazil",
	"in": "India",
	"pl": "Poland",
	"za": "South Africa",
	"at": "Austria",
	"ch": "Switzerland",
	"sg": "Singapore",
}

// CountryName returns the display name for a country code, falling back to
// the upper-cased code for unknown entries.
func CountryName(code string) string {
	if name, ok := SupportedCountries[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}
