package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("application is nil")
	}

	appliedAt := toMillis(a.AppliedAt)
	if appliedAt == 0 {
		appliedAt = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO applications
		(posting_id, cover_letter, recipient_email, email_sent, applied_at, updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.PostingID, a.CoverLetter, a.RecipientEmail, boolToInt(a.EmailSent), appliedAt, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetApplicationByPosting(ctx context.Context, postingID int64) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, posting_id, cover_letter, recipient_email, email_sent, applied_at, updated
		FROM applications WHERE posting_id = ?`, postingID)

	var a models.Application
	var sent int
	var appliedAt, updated int64
	if err := row.Scan(&a.ID, &a.PostingID, &a.CoverLetter, &a.RecipientEmail, &sent, &appliedAt, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a.EmailSent = sent != 0
	a.AppliedAt = fromMillis(appliedAt)
	a.Updated = fromMillis(updated)
	return &a, nil
}

func (r *SQLiteRepo) MarkEmailSent(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE applications SET email_sent = 1, updated = ? WHERE id = ?`, now(), id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
