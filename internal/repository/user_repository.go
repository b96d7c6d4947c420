package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pokrovsky/timetable-api/internal/models"
)

// UserRepository records known chat users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert records a user sighting, updating the last seen timestamp.
func (r *UserRepository) Upsert(ctx context.Context, id int64, username string) error {
	query := `INSERT INTO users (id, username, first_seen, last_seen)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, last_seen = NOW()`
	if _, err := r.db.ExecContext(ctx, query, id, username); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// All returns every known user, newest sighting first.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := `SELECT id, username, first_seen, last_seen FROM users ORDER BY last_seen DESC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
