package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pokrovsky/timetable-api/internal/models"
)

// ScheduleRepository persists the discovered timetable documents: one row per
// published date with the page link and the resolved spreadsheet URL.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetAll returns every known document record keyed by date label.
func (r *ScheduleRepository) GetAll(ctx context.Context) (map[string]models.ScheduleRecord, error) {
	var rows []models.ScheduleRecord
	query := `SELECT date, link_url, google_url, created_at FROM schedules`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get schedules: %w", err)
	}
	out := make(map[string]models.ScheduleRecord, len(rows))
	for _, row := range rows {
		out[row.Date] = row
	}
	return out, nil
}

// Upsert stores or updates the document record for a date. The creation
// timestamp of an existing row is kept.
func (r *ScheduleRepository) Upsert(ctx context.Context, date, linkURL, googleURL string) error {
	query := `INSERT INTO schedules (date, link_url, google_url, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (date) DO UPDATE SET link_url = EXCLUDED.link_url, google_url = EXCLUDED.google_url`
	if _, err := r.db.ExecContext(ctx, query, date, linkURL, googleURL); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}
