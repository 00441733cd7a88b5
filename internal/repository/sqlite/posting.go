package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

const postingColumns = `id, external_id, fingerprint, title, company, location, url, description, source, salary, contract_type, posted_at, discovered_at, relevance_score, status, applied_at`

func (r *SQLiteRepo) CreatePosting(ctx context.Context, p *models.Posting) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("posting is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO postings
		(external_id, fingerprint, title, company, location, url, description, source, salary, contract_type, posted_at, discovered_at, relevance_score, status, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ExternalID, p.Fingerprint, p.Title, p.Company, p.Location, p.URL,
		p.Description, p.Source, p.Salary, p.ContractType,
		toMillisPtr(p.PostedAt), toMillis(p.DiscoveredAt), p.RelevanceScore,
		string(p.Status), toMillisPtr(p.AppliedAt))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetPosting(ctx context.Context, id int64) (*models.Posting, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = ?`, id)
	return scanPosting(row)
}

func (r *SQLiteRepo) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Posting, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE fingerprint = ?`, fingerprint)
	return scanPosting(row)
}

func (r *SQLiteRepo) FindByURL(ctx context.Context, url string) (*models.Posting, error) {
	if url == "" {
		return nil, nil
	}
	row := r.conn.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE url = ? LIMIT 1`, url)
	return scanPosting(row)
}

func (r *SQLiteRepo) ListPostings(ctx context.Context, f repository.PostingFilter) ([]models.Posting, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + postingColumns + ` FROM postings`)

	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}
	if f.MinScore > 0 {
		conds = append(conds, `relevance_score >= ?`)
		args = append(args, f.MinScore)
	}
	if len(conds) > 0 {
		sb.WriteString(` WHERE ` + strings.Join(conds, ` AND `))
	}
	sb.WriteString(` ORDER BY relevance_score DESC, discovered_at DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
		if f.Offset > 0 {
			sb.WriteString(` OFFSET ?`)
			args = append(args, f.Offset)
		}
	}

	rows, err := r.conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Posting
	for rows.Next() {
		p, err := scanPostingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdatePosting(ctx context.Context, p *models.Posting) error {
	if p == nil {
		return fmt.Errorf("posting is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE postings SET
		external_id = ?, fingerprint = ?, title = ?, company = ?, location = ?, url = ?,
		description = ?, source = ?, salary = ?, contract_type = ?, posted_at = ?,
		relevance_score = ?, status = ?, applied_at = ?
		WHERE id = ?`,
		p.ExternalID, p.Fingerprint, p.Title, p.Company, p.Location, p.URL,
		p.Description, p.Source, p.Salary, p.ContractType, toMillisPtr(p.PostedAt),
		p.RelevanceScore, string(p.Status), toMillisPtr(p.AppliedAt), p.ID)
	return err
}

func (r *SQLiteRepo) DeletePosting(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM postings WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	rows, err := r.conn.Query(ctx, `SELECT status, COUNT(1) FROM postings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostingFrom(s rowScanner) (*models.Posting, error) {
	var p models.Posting
	var status string
	var postedAt, appliedAt *int64
	var discoveredAt int64

	err := s.Scan(&p.ID, &p.ExternalID, &p.Fingerprint, &p.Title, &p.Company,
		&p.Location, &p.URL, &p.Description, &p.Source, &p.Salary, &p.ContractType,
		&postedAt, &discoveredAt, &p.RelevanceScore, &status, &appliedAt)
	if err != nil {
		return nil, err
	}

	p.Status = models.Status(status)
	p.PostedAt = fromMillisPtr(postedAt)
	p.DiscoveredAt = fromMillis(discoveredAt)
	p.AppliedAt = fromMillisPtr(appliedAt)
	return &p, nil
}

func scanPosting(row *sql.Row) (*models.Posting, error) {
	p, err := scanPostingFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPostingRow(rows *sql.Rows) (*models.Posting, error) {
	return scanPostingFrom(rows)
}
