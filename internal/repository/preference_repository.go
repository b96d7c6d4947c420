package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pokrovsky/timetable-api/internal/models"
)

// PreferenceRepository stores per-user notification preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored preference for a user, or defaults when none exists.
func (r *PreferenceRepository) Get(ctx context.Context, userID int64) (models.UserPreference, error) {
	var pref models.UserPreference
	query := `SELECT user_id, class, notify_new, notify_changes, updated_at FROM user_prefs WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &pref, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserPreference{UserID: userID, NotifyNew: true, NotifyChanges: true}, nil
		}
		return models.UserPreference{}, fmt.Errorf("get preference: %w", err)
	}
	return pref, nil
}

// SetClass stores the class a user is subscribed to.
func (r *PreferenceRepository) SetClass(ctx context.Context, userID int64, class string) error {
	query := `INSERT INTO user_prefs (user_id, class, notify_new, notify_changes, updated_at)
        VALUES ($1, $2, TRUE, TRUE, NOW())
        ON CONFLICT (user_id) DO UPDATE SET class = EXCLUDED.class, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, userID, class); err != nil {
		return fmt.Errorf("set class: %w", err)
	}
	return nil
}

// ToggleNew flips the new-timetable notification flag and returns its new value.
func (r *PreferenceRepository) ToggleNew(ctx context.Context, userID int64) (bool, error) {
	return r.toggle(ctx, userID, "notify_new")
}

// ToggleChanges flips the change notification flag and returns its new value.
func (r *PreferenceRepository) ToggleChanges(ctx context.Context, userID int64) (bool, error) {
	return r.toggle(ctx, userID, "notify_changes")
}

func (r *PreferenceRepository) toggle(ctx context.Context, userID int64, column string) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO user_prefs (user_id, class, notify_new, notify_changes, updated_at)
        VALUES ($1, '', TRUE, TRUE, NOW())
        ON CONFLICT (user_id) DO UPDATE SET %s = NOT user_prefs.%s, updated_at = NOW()
        RETURNING %s`, column, column, column)
	var enabled bool
	if err := r.db.GetContext(ctx, &enabled, query, userID); err != nil {
		return false, fmt.Errorf("toggle %s: %w", column, err)
	}
	return enabled, nil
}

// UsersForNew lists users subscribed to new-timetable notifications. Only
// users who chose a class are included; the broadcast has nothing personal
// to send otherwise.
func (r *PreferenceRepository) UsersForNew(ctx context.Context) ([]models.UserPreference, error) {
	return r.usersWhere(ctx, `notify_new = TRUE AND class <> ''`)
}

// UsersForChanges lists users subscribed to change notifications.
func (r *PreferenceRepository) UsersForChanges(ctx context.Context) ([]models.UserPreference, error) {
	return r.usersWhere(ctx, `notify_changes = TRUE`)
}

func (r *PreferenceRepository) usersWhere(ctx context.Context, cond string) ([]models.UserPreference, error) {
	var prefs []models.UserPreference
	query := fmt.Sprintf(`SELECT user_id, class, notify_new, notify_changes, updated_at FROM user_prefs WHERE %s`, cond)
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return prefs, nil
}
