package mock

import (
	"context"

	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	Postings     *PostingRepo
	Applications *ApplicationRepo
	Stats        *StatsRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Postings:     &PostingRepo{},
		Applications: &ApplicationRepo{},
		Stats:        &StatsRepo{Counters: make(map[string]int64)},
	}
}

// PostingRepo is an in-memory repository.PostingRepo.
type PostingRepo struct {
	Stored    []*models.Posting
	CreateErr error
	LookupErr error
	nextID    int64
}

var _ repository.PostingRepo = (*PostingRepo)(nil)

func (m *PostingRepo) CreatePosting(_ context.Context, p *models.Posting) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	m.Stored = append(m.Stored, &cp)
	return cp.ID, nil
}

func (m *PostingRepo) GetPosting(_ context.Context, id int64) (*models.Posting, error) {
	for _, p := range m.Stored {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *PostingRepo) FindByFingerprint(_ context.Context, fp string) (*models.Posting, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	for _, p := range m.Stored {
		if p.Fingerprint == fp {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *PostingRepo) FindByURL(_ context.Context, url string) (*models.Posting, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	for _, p := range m.Stored {
		if p.URL == url && url != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *PostingRepo) ListPostings(_ context.Context, f repository.PostingFilter) ([]models.Posting, error) {
	out := make([]models.Posting, 0, len(m.Stored))
	for _, p := range m.Stored {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if p.RelevanceScore < f.MinScore {
			continue
		}
		out = append(out, *p)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *PostingRepo) UpdatePosting(_ context.Context, p *models.Posting) error {
	for i, stored := range m.Stored {
		if stored.ID == p.ID {
			cp := *p
			m.Stored[i] = &cp
			return nil
		}
	}
	return nil
}

func (m *PostingRepo) DeletePosting(_ context.Context, id int64) error {
	for i, p := range m.Stored {
		if p.ID == id {
			m.Stored = append(m.Stored[:i], m.Stored[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *PostingRepo) CountByStatus(_ context.Context) (map[models.Status]int64, error) {
	counts := make(map[models.Status]int64)
	for _, p := range m.Stored {
		counts[p.Status]++
	}
	return counts, nil
}

// ApplicationRepo is an in-memory repository.ApplicationRepo.
type ApplicationRepo struct {
	Stored    []*models.Application
	CreateErr error
	nextID    int64
}

var _ repository.ApplicationRepo = (*ApplicationRepo)(nil)

func (m *ApplicationRepo) CreateApplication(_ context.Context, a *models.Application) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	m.Stored = append(m.Stored, &cp)
	return cp.ID, nil
}

func (m *ApplicationRepo) GetApplicationByPosting(_ context.Context, postingID int64) (*models.Application, error) {
	for _, a := range m.Stored {
		if a.PostingID == postingID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *ApplicationRepo) MarkEmailSent(_ context.Context, id int64) error {
	for _, a := range m.Stored {
		if a.ID == id {
			a.EmailSent = true
		}
	}
	return nil
}

// StatsRepo is an in-memory repository.StatsRepo keyed by "day/counter".
type StatsRepo struct {
	Counters map[string]int64
}

var _ repository.StatsRepo = (*StatsRepo)(nil)

func (m *StatsRepo) IncrementDay(_ context.Context, day string, counter repository.StatCounter, delta int64) error {
	if m.Counters == nil {
		m.Counters = make(map[string]int64)
	}
	m.Counters[day+"/"+string(counter)] += delta
	return nil
}

func (m *StatsRepo) ListDaysSince(_ context.Context, since string) ([]models.DayStats, error) {
	days := make(map[string]*models.DayStats)
	for key, v := range m.Counters {
		var day, counter string
		for i := len(key) - 1; i >= 0; i-- {
			if key[i] == '/' {
				day, counter = key[:i], key[i+1:]
				break
			}
		}
		if day < since {
			continue
		}
		ds, ok := days[day]
		if !ok {
			ds = &models.DayStats{Day: day}
			days[day] = ds
		}
		switch repository.StatCounter(counter) {
		case repository.StatJobsFound:
			ds.JobsFound += v
		case repository.StatJobsApplied:
			ds.Applied += v
		case repository.StatInterviews:
			ds.Interviews += v
		case repository.StatRejections:
			ds.Rejections += v
		case repository.StatOffers:
			ds.Offers += v
		}
	}
	out := make([]models.DayStats, 0, len(days))
	for _, ds := range days {
		out = append(out, *ds)
	}
	return out, nil
}
