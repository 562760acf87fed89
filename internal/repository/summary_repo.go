package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"briefly/internal/model"
)

type SummaryRepository struct {
	pool *pgxpool.Pool
}

func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

func (r *SummaryRepository) Create(ctx context.Context, s model.Summary) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO summaries (id, user_id, url, title, summary, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.URL, s.Title, s.Summary, s.Type, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	return nil
}

// FindByURL returns the most recent summary anyone produced for a URL. Video
// summaries are reused across users this way instead of re-running the
// pipeline.
func (r *SummaryRepository) FindByURL(ctx context.Context, url string) (model.Summary, error) {
	var s model.Summary
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, url, title, summary, type, created_at
		 FROM summaries WHERE url = $1
		 ORDER BY created_at DESC LIMIT 1`, url).
		Scan(&s.ID, &s.UserID, &s.URL, &s.Title, &s.Summary, &s.Type, &s.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Summary{}, pgx.ErrNoRows
	}
	if err != nil {
		return model.Summary{}, fmt.Errorf("find summary by url: %w", err)
	}
	return s, nil
}

func (r *SummaryRepository) ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, url, title, summary, type, created_at
		 FROM summaries WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.Summary, 0)
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.UserID, &s.URL, &s.Title, &s.Summary, &s.Type, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
