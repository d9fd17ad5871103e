package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
)

// SearchRepository records executed queries.
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new SearchRepository with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Record inserts search with a generated ID and the current time.
func (r *SearchRepository) Record(ctx context.Context, search *models.Search) error {
	if err := search.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	search.ID = shared.GenerateID()
	search.Created = time.Now().UTC()

	query := `
		INSERT INTO searches (id, source, query, max_results, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		search.ID,
		search.Source,
		search.Query,
		search.MaxResults,
		search.ResultCount,
		search.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}
	return nil
}

// Recent returns up to limit searches, newest first. limit <= 0 returns all of them.
func (r *SearchRepository) Recent(ctx context.Context, limit int) ([]*models.Search, error) {
	query := `
		SELECT id, source, query, max_results, result_count, created_at
		FROM searches
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var searches []*models.Search
	for rows.Next() {
		var s models.Search
		if err := rows.Scan(&s.ID, &s.Source, &s.Query, &s.MaxResults, &s.ResultCount, &s.Created); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		searches = append(searches, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return searches, nil
}

// Clear deletes the whole search history and returns how many rows went.
func (r *SearchRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM searches`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear searches: %w", err)
	}
	return result.RowsAffected()
}
