package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer("Kenya")
	now := time.Date(2026, 8, 1, 10, 30, 0, 0, time.FixedZone("EAT", 3*3600))

	raw := models.RawPosting{
		Title:      "  Security Engineer  ",
		Company:    " Acme ",
		URL:        " https://example.com/jobs/1 ",
		SourceName: "Adzuna",
		Region:     "South Africa",
	}

	p, err := n.Normalize(raw, now)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if p.Title != "Security Engineer" {
		t.Errorf("Title = %q, want trimmed", p.Title)
	}
	if p.Location != "Kenya" {
		t.Errorf("Location = %q, want fallback %q", p.Location, "Kenya")
	}
	if p.Source != "Adzuna (South Africa)" {
		t.Errorf("Source = %q", p.Source)
	}
	if p.Status != models.StatusFound {
		t.Errorf("Status = %q, want %q", p.Status, models.StatusFound)
	}
	if !p.DiscoveredAt.Equal(now) || p.DiscoveredAt.Location() != time.UTC {
		t.Errorf("DiscoveredAt = %v, want %v in UTC", p.DiscoveredAt, now.UTC())
	}
	if p.Fingerprint == "" {
		t.Error("Fingerprint not set")
	}
}

func TestNormalizeRejectsEmptyRecord(t *testing.T) {
	n := NewNormalizer("Kenya")

	_, err := n.Normalize(models.RawPosting{Company: "Acme"}, time.Now())
	if err == nil {
		t.Fatal("Normalize() accepted a record with neither title nor url")
	}
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("error type = %T, want *NormalizationError", err)
	}
}

func TestNormalizeURLOnlyRecord(t *testing.T) {
	n := NewNormalizer("Kenya")

	p, err := n.Normalize(models.RawPosting{URL: "https://example.com/jobs/2"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.URL == "" {
		t.Error("URL not carried through")
	}
}

func TestFingerprintCanonicalization(t *testing.T) {
	tests := []struct {
		name string
		a    [3]string
		b    [3]string
		same bool
	}{
		{
			name: "case and whitespace variance collapse",
			a:    [3]string{"Security   Engineer", "ACME Corp", "Nairobi"},
			b:    [3]string{"security engineer", "acme  corp", " nairobi "},
			same: true,
		},
		{
			name: "different title diverges",
			a:    [3]string{"SOC Analyst", "Acme", "Nairobi"},
			b:    [3]string{"SOC Analyst I", "Acme", "Nairobi"},
			same: false,
		},
		{
			name: "different company diverges",
			a:    [3]string{"SOC Analyst", "Acme", "Nairobi"},
			b:    [3]string{"SOC Analyst", "Globex", "Nairobi"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := Fingerprint(tt.a[0], tt.a[1], tt.a[2])
			fb := Fingerprint(tt.b[0], tt.b[1], tt.b[2])
			if (fa == fb) != tt.same {
				t.Errorf("Fingerprint equality = %v, want %v (%q vs %q)", fa == fb, tt.same, fa, fb)
			}
		})
	}
}

func TestFingerprintIsHex(t *testing.T) {
	fp := Fingerprint("Backend Engineer", "Acme", "Remote")
	if len(fp) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(fp))
	}
	if strings.ToLower(fp) != fp {
		t.Error("fingerprint not lowercase hex")
	}
}
