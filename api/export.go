package api

import (
	"net/http"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/export"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

type ExportHandler struct {
	postings repository.PostingRepo
	dir      string
}

func NewExportHandler(pr repository.PostingRepo, dir string) *ExportHandler {
	return &ExportHandler{postings: pr, dir: dir}
}

// Export writes every stored posting to an xlsx workbook and returns its
// path.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.postings.ListPostings(r.Context(), repository.PostingFilter{})
	if err != nil {
		http.Error(w, "failed to list postings", http.StatusInternalServerError)
		return
	}

	path, err := export.WriteXLSX(h.dir, rows, time.Now())
	if err != nil {
		logger.Error("export failed", "err", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"path": path, "count": len(rows)}, http.StatusCreated)
}
