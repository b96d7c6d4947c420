package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventRepository writes audit events for deliveries and watcher activity.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Log appends an event and returns its generated id.
func (r *EventRepository) Log(ctx context.Context, userID int64, kind, payload string) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO events (id, user_id, kind, payload, created_at)
        VALUES ($1, $2, $3, $4, NOW())`
	if _, err := r.db.ExecContext(ctx, query, id, userID, kind, payload); err != nil {
		return "", fmt.Errorf("log event: %w", err)
	}
	return id, nil
}
