package sqlite

import (
	"context"
	"fmt"

	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/repository"
)

// statColumns whitelists the day_stats counters; the counter name is spliced
// into SQL and must never come from user input.
var statColumns = map[repository.StatCounter]bool{
	repository.StatJobsFound:   true,
	repository.StatJobsApplied: true,
	repository.StatInterviews:  true,
	repository.StatRejections:  true,
	repository.StatOffers:      true,
}

func (r *SQLiteRepo) IncrementDay(ctx context.Context, day string, counter repository.StatCounter, delta int64) error {
	if !statColumns[counter] {
		return fmt.Errorf("unknown stat counter %q", counter)
	}

	col := string(counter)
	_, err := r.conn.Exec(ctx, `INSERT INTO day_stats (day, `+col+`) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET `+col+` = `+col+` + excluded.`+col, day, delta)
	return err
}

func (r *SQLiteRepo) ListDaysSince(ctx context.Context, since string) ([]models.DayStats, error) {
	rows, err := r.conn.Query(ctx, `SELECT day, jobs_found, jobs_applied, interviews, rejections, offers
		FROM day_stats WHERE day >= ? ORDER BY day`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DayStats
	for rows.Next() {
		var ds models.DayStats
		if err := rows.Scan(&ds.Day, &ds.JobsFound, &ds.Applied, &ds.Interviews, &ds.Rejections, &ds.Offers); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}
