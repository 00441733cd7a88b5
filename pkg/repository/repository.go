package repository

import (
	"context"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

// PostingFilter narrows ListPostings. Zero values mean "no constraint".
type PostingFilter struct {
	Status   models.Status
	MinScore float64
	Limit    int
	Offset   int
}

type PostingRepo interface {
	CreatePosting(ctx context.Context, p *models.Posting) (int64, error)
	GetPosting(ctx context.Context, id int64) (*models.Posting, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.Posting, error)
	FindByURL(ctx context.Context, url string) (*models.Posting, error)
	ListPostings(ctx context.Context, f PostingFilter) ([]models.Posting, error)
	UpdatePosting(ctx context.Context, p *models.Posting) error
	DeletePosting(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[models.Status]int64, error)
}

type ApplicationRepo interface {
	CreateApplication(ctx context.Context, a *models.Application) (int64, error)
	GetApplicationByPosting(ctx context.Context, postingID int64) (*models.Application, error)
	MarkEmailSent(ctx context.Context, id int64) error
}

// StatCounter names one day_stats column.
type StatCounter string

const (
	StatJobsFound   StatCounter = "jobs_found"
	StatJobsApplied StatCounter = "jobs_applied"
	StatInterviews  StatCounter = "interviews"
	StatRejections  StatCounter = "rejections"
	StatOffers      StatCounter = "offers"
)

type StatsRepo interface {
	IncrementDay(ctx context.Context, day string, counter StatCounter, delta int64) error
	ListDaysSince(ctx context.Context, since string) ([]models.DayStats, error)
}
