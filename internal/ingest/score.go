package ingest

import (
	"strings"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// Profile is the candidate's search profile the scorer matches against.
type Profile struct {
	Keywords  []string
	Locations []string
}

// Weights tunes the relevance formula. The exact numbers are configuration,
// not contract; defaults favor title matches.
type Weights struct {
	Title       float64
	Description float64
	Location    float64
	Scale       float64
}

// DefaultWeights returns the stock weighting: title hits count triple,
// description hits single, plus a one-time location bonus, scaled by 5 into
// the 0-100 range.
func DefaultWeights() Weights {
	return Weights{Title: 3, Description: 1, Location: 2, Scale: 5}
}

// Scorer computes a 0-100 relevance score for a posting against a profile.
// Scoring is a pure function of its inputs: no storage, no network.
type Scorer struct {
	profile Profile
	weights Weights
}

func NewScorer(profile Profile, weights Weights) *Scorer {
	if weights.Scale <= 0 {
		weights = DefaultWeights()
	}
	return &Scorer{profile: profile, weights: weights}
}

// Score counts case-insensitive keyword occurrences in the title and
// description, adds a one-time bonus when the location matches a preferred
// location, scales the weighted sum, and clamps to [0,100].
func (s *Scorer) Score(p *models.Posting) float64 {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)

	var raw float64
	for _, kw := range s.profile.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		raw += float64(strings.Count(title, kw)) * s.weights.Title
		raw += float64(strings.Count(desc, kw)) * s.weights.Description
	}

	location := strings.ToLower(p.Location)
	for _, loc := range s.profile.Locations {
		loc = strings.ToLower(strings.TrimSpace(loc))
		if loc == "" {
			continue
		}
		if strings.Contains(location, loc) {
			raw += s.weights.Location
			break
		}
	}

	score := raw * s.weights.Scale
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
