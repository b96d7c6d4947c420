package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SheetHashRepository stores last seen content hashes per document tab.
type SheetHashRepository struct {
	db *sqlx.DB
}

// NewSheetHashRepository constructs a SheetHashRepository.
func NewSheetHashRepository(db *sqlx.DB) *SheetHashRepository {
	return &SheetHashRepository{db: db}
}

// Get returns the stored hash for a tab, or empty string when none exists.
func (r *SheetHashRepository) Get(ctx context.Context, docID, gid string) (string, error) {
	var hash string
	query := `SELECT hash FROM sheet_hashes WHERE doc_id = $1 AND gid = $2`
	if err := r.db.GetContext(ctx, &hash, query, docID, gid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get sheet hash: %w", err)
	}
	return hash, nil
}

// Set stores or replaces the hash for a tab, keeping its last seen title.
func (r *SheetHashRepository) Set(ctx context.Context, docID, gid, title, hash string) error {
	query := `INSERT INTO sheet_hashes (doc_id, gid, title, hash, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (doc_id, gid) DO UPDATE SET title = EXCLUDED.title, hash = EXCLUDED.hash, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, docID, gid, title, hash); err != nil {
		return fmt.Errorf("set sheet hash: %w", err)
	}
	return nil
}
