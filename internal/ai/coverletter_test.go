package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jobhunterpro/jobhunter/internal/config"
)

func candidate() config.CandidateProfile {
	return config.CandidateProfile{
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Phone:          "+254700000000",
		Skills:         []string{"Python", "SIEM"},
		Certifications: []string{"Security+"},
		KeyProject:     "Built a home SOC lab",
	}
}

func TestDraftPrefersModel(t *testing.T) {
	w := NewLetterWriter(&stubGenerate{out: "Dear team, generated letter."}, "llama3.2", 0, candidate(), nil)

	letter := w.Draft(context.Background(), posting())
	if letter != "Dear team, generated letter." {
		t.Fatalf("letter = %q", letter)
	}
}

func TestDraftFallsBackOnModelFailure(t *testing.T) {
	w := NewLetterWriter(&stubGenerate{err: errors.New("model offline")}, "llama3.2", 0, candidate(), nil)

	letter := w.Draft(context.Background(), posting())
	if !strings.Contains(letter, "Security Engineer") || !strings.Contains(letter, "Jane Doe") {
		t.Fatalf("fallback letter missing role or signature: %q", letter)
	}
	if !strings.Contains(letter, "Acme") {
		t.Fatalf("fallback letter missing company: %q", letter)
	}
}

func TestDraftWithoutModelUsesTemplate(t *testing.T) {
	w := NewLetterWriter(nil, "", 0, candidate(), nil)

	letter := w.Draft(context.Background(), posting())
	if !strings.Contains(letter, "Python, SIEM") {
		t.Fatalf("template letter missing skills: %q", letter)
	}
	if !strings.Contains(letter, "Built a home SOC lab") {
		t.Fatalf("template letter missing key project: %q", letter)
	}
}

func TestTemplateDeterministic(t *testing.T) {
	w := NewLetterWriter(nil, "", 0, candidate(), nil)
	p := posting()

	first := w.Template(p)
	for range 3 {
		if got := w.Template(p); got != first {
			t.Fatal("template letter not deterministic")
		}
	}
}

func TestDraftEmptyModelOutputFallsBack(t *testing.T) {
	w := NewLetterWriter(&stubGenerate{out: "   "}, "llama3.2", 0, candidate(), nil)

	letter := w.Draft(context.Background(), posting())
	if !strings.Contains(letter, "Jane Doe") {
		t.Fatalf("expected template fallback, got %q", letter)
	}
}
