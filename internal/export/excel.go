// Package export writes posting reports to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

const sheetName = "Postings"

var headers = []string{
	"ID", "Title", "Company", "Location", "URL", "Source",
	"Salary", "Contract", "Posted", "Discovered", "Relevance", "Status", "Applied",
}

// WriteXLSX writes the postings to an .xlsx workbook under dir and returns
// the file path. The filename carries a date stamp so repeated exports never
// overwrite each other within a day's granularity.
func WriteXLSX(dir string, postings []models.Posting, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheetName); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return "", err
		}
	}

	for rowIdx, p := range postings {
		row := []any{
			p.ID, p.Title, p.Company, p.Location, p.URL, p.Source,
			p.Salary, p.ContractType, formatTimePtr(p.PostedAt),
			p.DiscoveredAt.Format("2006-01-02 15:04"),
			p.RelevanceScore, string(p.Status), formatTimePtr(p.AppliedAt),
		}
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("postings_%s.xlsx", now.Format("2006-01-02_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
