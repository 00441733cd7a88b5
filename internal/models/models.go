package models

import (
	"encoding/json"
	"time"
)

// Status is the application lifecycle state of a posting.
type Status string

const (
	StatusFound     Status = "Found"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusFound, StatusApplied, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

// RawPosting is the loosely-typed record a job source hands to the ingestion
// pipeline. Every field may be empty; the normalizer decides what survives.
type RawPosting struct {
	ExternalID   string     `json:"external_id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location"`
	Description  string     `json:"description"`
	URL          string     `json:"url"`
	Salary       string     `json:"salary"`
	ContractType string     `json:"contract_type"`
	SourceName   string     `json:"source_name"`
	Region       string     `json:"region"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
}

// Posting is the canonical job listing record, post-normalization.
type Posting struct {
	ID             int64      `json:"id" db:"id"`
	ExternalID     string     `json:"external_id" db:"external_id"`
	Fingerprint    string     `json:"fingerprint" db:"fingerprint"`
	Title          string     `json:"title" db:"title"`
	Company        string     `json:"company" db:"company"`
	Location       string     `json:"location" db:"location"`
	URL            string     `json:"url" db:"url"`
	Description    string     `json:"description,omitempty" db:"description"`
	Source         string     `json:"source" db:"source"`
	Salary         string     `json:"salary,omitempty" db:"salary"`
	ContractType   string     `json:"contract_type,omitempty" db:"contract_type"`
	PostedAt       *time.Time `json:"posted_at,omitempty" db:"posted_at"`
	DiscoveredAt   time.Time  `json:"discovered_at" db:"discovered_at"`
	RelevanceScore float64    `json:"relevance_score" db:"relevance_score"`
	Status         Status     `json:"status" db:"status"`
	AppliedAt      *time.Time `json:"applied_at,omitempty" db:"applied_at"`
}

// Application tracks a submitted application for a posting (1:1 once the
// posting leaves Found).
type Application struct {
	ID             int64     `json:"id" db:"id"`
	PostingID      int64     `json:"posting_id" db:"posting_id"`
	CoverLetter    string    `json:"cover_letter,omitempty" db:"cover_letter"`
	RecipientEmail string    `json:"recipient_email,omitempty" db:"recipient_email"`
	EmailSent      bool      `json:"email_sent" db:"email_sent"`
	AppliedAt      time.Time `json:"applied_at" db:"applied_at"`
	Updated        time.Time `json:"updated" db:"updated"`
}

// DayStats holds per-day counters for the dashboard.
type DayStats struct {
	Day        string `json:"day" db:"day"`
	JobsFound  int64  `json:"jobs_found" db:"jobs_found"`
	Applied    int64  `json:"jobs_applied" db:"jobs_applied"`
	Interviews int64  `json:"interviews" db:"interviews"`
	Rejections int64  `json:"rejections" db:"rejections"`
	Offers     int64  `json:"offers" db:"offers"`
}

// BackgroundJob represents a queued unit of work for the worker pool.
type BackgroundJob struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
