package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"briefly/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert appends one event. Rows in audit_events are never updated or
// deleted.
func (r *AuditRepository) Insert(ctx context.Context, event model.AuditEvent) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	var userID *string
	if event.UserID != "" {
		userID = &event.UserID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (action, user_id, ip, user_agent, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.Action, userID, event.IP, event.UserAgent, metadataJSON, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns the newest events first, capped at limit (at most 100).
func (r *AuditRepository) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, action, user_id, ip, user_agent, metadata, created_at
		 FROM audit_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]model.AuditEvent, 0, limit)
	for rows.Next() {
		var e model.AuditEvent
		var userID *string
		var metadataJSON []byte
		var createdAt time.Time

		if err := rows.Scan(&e.ID, &e.Action, &userID, &e.IP, &e.UserAgent, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		if userID != nil {
			e.UserID = *userID
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &e.Metadata)
		}
		e.CreatedAt = createdAt.UTC()

		events = append(events, e)
	}
	return events, rows.Err()
}
