// Package source adapts external job boards to the ingestion pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jobhunterpro/jobhunter/internal/ingest"
	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/adzuna"
)

const maxDescriptionLen = 1000

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// searcher is the slice of the Adzuna client the adapter needs.
type searcher interface {
	Search(ctx context.Context, country, what string) ([]adzuna.Result, error)
}

// Adzuna adapts the Adzuna API client to the pipeline's Source contract:
// it converts raw API results into RawPosting records and classifies
// failures by kind.
type Adzuna struct {
	client searcher
}

func NewAdzuna(client searcher) *Adzuna {
	return &Adzuna{client: client}
}

func (a *Adzuna) Name() string { return "Adzuna" }

// Search runs one query and converts the results. Errors come back as
// *ingest.SourceError so the pipeline can report them without guessing.
func (a *Adzuna) Search(ctx context.Context, q ingest.Query) ([]models.RawPosting, error) {
	results, err := a.client.Search(ctx, q.Country, q.Keyword)
	if err != nil {
		return nil, &ingest.SourceError{Query: q, Kind: classify(err), Err: err}
	}

	region := q.CountryName
	if region == "" {
		region = adzuna.CountryName(q.Country)
	}

	raws := make([]models.RawPosting, 0, len(results))
	for _, r := range results {
		raws = append(raws, convert(r, region))
	}
	return raws, nil
}

func classify(err error) ingest.SourceErrorKind {
	var malformed *adzuna.MalformedResponseError
	var netErr net.Error
	switch {
	case errors.Is(err, adzuna.ErrRateLimited):
		return ingest.SourceRateLimited
	case errors.As(err, &malformed):
		return ingest.SourceMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return ingest.SourceTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ingest.SourceTimeout
	default:
		return ingest.SourceUnavailable
	}
}

func convert(r adzuna.Result, region string) models.RawPosting {
	raw := models.RawPosting{
		ExternalID:   r.ID,
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.Company.DisplayName),
		Location:     location(r.Location.DisplayName, region),
		Description:  cleanDescription(r.Description),
		URL:          r.RedirectURL,
		Salary:       salary(r.SalaryMin, r.SalaryMax),
		ContractType: r.ContractType,
		SourceName:   "Adzuna",
		Region:       region,
	}

	if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
		raw.PostedAt = &t
	}

	return raw
}

// location substitutes a readable remote label when the API gives none.
func location(display, region string) string {
	display = strings.TrimSpace(display)
	if display == "" {
		return fmt.Sprintf("Remote (%s)", region)
	}
	return display
}

// cleanDescription strips HTML tags and truncates overly long bodies; Adzuna
// descriptions frequently embed markup and run to several kilobytes.
func cleanDescription(desc string) string {
	desc = htmlTagPattern.ReplaceAllString(desc, " ")
	desc = strings.Join(strings.Fields(desc), " ")
	if len(desc) > maxDescriptionLen {
		cut := maxDescriptionLen
		// never split a multi-byte rune
		for cut > 0 && !utf8.RuneStart(desc[cut]) {
			cut--
		}
		desc = desc[:cut]
	}
	return desc
}

func salary(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%.0f - %.0f", *min, *max)
	case min != nil:
		return fmt.Sprintf("from %.0f", *min)
	case max != nil:
		return fmt.Sprintf("up to %.0f", *max)
	default:
		return ""
	}
}

// Queries expands the configured keywords across the configured countries in
// a stable order.
func Queries(keywords, countries []string) []ingest.Query {
	queries := make([]ingest.Query, 0, len(keywords)*len(countries))
	for _, cc := range countries {
		name := adzuna.CountryName(cc)
		for _, kw := range keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			queries = append(queries, ingest.Query{Keyword: kw, Country: cc, CountryName: name})
		}
	}
	return queries
}
