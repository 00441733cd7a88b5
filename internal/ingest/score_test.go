package ingest

import (
	"testing"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

func TestScoreKnownScenario(t *testing.T) {
	s := NewScorer(Profile{
		Keywords:  []string{"python", "security"},
		Locations: []string{"nairobi"},
	}, DefaultWeights())

	// "python" once in the title (3), "security" once in the description (1),
	// location bonus (2) => raw 6, scaled by 5 => 30.
	p := &models.Posting{
		Title:       "Python Developer",
		Description: "We need someone with a security mindset.",
		Location:    "Nairobi, Kenya",
	}

	if got := s.Score(p); got != 30 {
		t.Fatalf("Score() = %v, want 30", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(Profile{
		Keywords:  []string{"go", "backend"},
		Locations: []string{"remote"},
	}, DefaultWeights())

	p := &models.Posting{
		Title:       "Senior Backend Engineer (Go)",
		Description: "Backend services in Go. Remote friendly.",
		Location:    "Remote (Kenya)",
	}

	first := s.Score(p)
	for range 10 {
		if got := s.Score(p); got != first {
			t.Fatalf("Score() unstable: %v then %v", first, got)
		}
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := NewScorer(Profile{Keywords: []string{"DevOps"}}, DefaultWeights())

	upper := s.Score(&models.Posting{Title: "DEVOPS ENGINEER"})
	lower := s.Score(&models.Posting{Title: "devops engineer"})
	if upper != lower || upper == 0 {
		t.Fatalf("case sensitivity leak: %v vs %v", upper, lower)
	}
}

func TestScoreLocationBonusOnce(t *testing.T) {
	s := NewScorer(Profile{
		Locations: []string{"kenya", "nairobi"},
	}, DefaultWeights())

	// Location matches both preferences; the bonus applies once.
	p := &models.Posting{Location: "Nairobi, Kenya"}
	if got := s.Score(p); got != 2*5 {
		t.Fatalf("Score() = %v, want one-time bonus %v", got, 2*5)
	}
}

func TestScoreClampUpper(t *testing.T) {
	s := NewScorer(Profile{Keywords: []string{"go"}}, DefaultWeights())

	p := &models.Posting{
		Title:       "go go go go go go go go go go",
		Description: "go go go go go go go go go go go go go go go go go go go go",
	}
	if got := s.Score(p); got != 100 {
		t.Fatalf("Score() = %v, want clamped 100", got)
	}
}

func TestScoreEmptyProfile(t *testing.T) {
	s := NewScorer(Profile{}, DefaultWeights())

	p := &models.Posting{Title: "Anything", Description: "At all", Location: "Anywhere"}
	if got := s.Score(p); got != 0 {
		t.Fatalf("Score() = %v, want 0 for empty profile", got)
	}
}

func TestScoreCustomWeights(t *testing.T) {
	s := NewScorer(Profile{Keywords: []string{"rust"}}, Weights{
		Title: 10, Description: 0, Location: 0, Scale: 1,
	})

	p := &models.Posting{Title: "Rust Engineer", Description: "rust rust rust"}
	if got := s.Score(p); got != 10 {
		t.Fatalf("Score() = %v, want 10 (description weight zeroed)", got)
	}
}
