package export

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	applied := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	postings := []models.Posting{
		{
			ID: 1, Title: "Security Engineer", Company: "Acme", Location: "Cape Town",
			URL: "https://x/1", Source: "Adzuna (South Africa)", RelevanceScore: 30,
			DiscoveredAt: time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC),
			Status:       models.StatusApplied, AppliedAt: &applied,
		},
		{
			ID: 2, Title: "SOC Analyst", Company: "Globex", Location: "Remote (India)",
			DiscoveredAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			Status:       models.StatusFound,
		},
	}

	path, err := WriteXLSX(dir, postings, time.Date(2026, 8, 22, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][1] != "Title" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Security Engineer" || rows[2][1] != "SOC Analyst" {
		t.Errorf("data rows = %v / %v", rows[1], rows[2])
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	path, err := WriteXLSX(t.TempDir(), nil, time.Now())
	if err != nil {
		t.Fatalf("WriteXLSX with no postings: %v", err)
	}
	if path == "" {
		t.Fatal("empty path returned")
	}
}
