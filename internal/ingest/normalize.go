package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// Normalizer maps heterogeneous per-source records into the canonical
// posting shape. Only title or URL is mandatory; everything else defaults.
type Normalizer struct {
	fallbackLocation string
}

func NewNormalizer(fallbackLocation string) *Normalizer {
	return &Normalizer{fallbackLocation: fallbackLocation}
}

// Normalize builds a canonical posting from a raw source record. It fails
// with NormalizationError only when the record has neither title nor URL.
func (n *Normalizer) Normalize(raw models.RawPosting, now time.Time) (*models.Posting, error) {
	title := strings.TrimSpace(raw.Title)
	url := strings.TrimSpace(raw.URL)
	if title == "" && url == "" {
		return nil, &NormalizationError{Reason: "record has neither title nor url"}
	}

	location := strings.TrimSpace(raw.Location)
	if location == "" {
		location = n.fallbackLocation
	}

	company := strings.TrimSpace(raw.Company)

	source := strings.TrimSpace(raw.SourceName)
	if region := strings.TrimSpace(raw.Region); region != "" {
		source = fmt.Sprintf("%s (%s)", source, region)
	}

	p := &models.Posting{
		ExternalID:   strings.TrimSpace(raw.ExternalID),
		Fingerprint:  Fingerprint(title, company, location),
		Title:        title,
		Company:      company,
		Location:     location,
		URL:          url,
		Description:  strings.TrimSpace(raw.Description),
		Source:       source,
		Salary:       strings.TrimSpace(raw.Salary),
		ContractType: strings.TrimSpace(raw.ContractType),
		PostedAt:     raw.PostedAt,
		DiscoveredAt: now.UTC(),
		Status:       models.StatusFound,
	}

	return p, nil
}

// Fingerprint derives the dedup identity of a posting from its title,
// company, and location, ignoring case and whitespace variance. Two postings
// from different sources describing the same role collapse to one.
func Fingerprint(title, company, location string) string {
	key := canonicalKey(title) + "|" + canonicalKey(company) + "|" + canonicalKey(location)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// canonicalKey lower-cases s and collapses every whitespace run to a single
// space.
func canonicalKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
