package service

import (
	"context"
	"log/slog"
	"time"

	"briefly/internal/model"
)

type auditStore interface {
	Insert(ctx context.Context, event model.AuditEvent) error
	List(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

// AuditService records security events. Record is a non-critical side
// effect: a failed write goes to the operational log and never propagates to
// the caller, so audit outages cannot fail a login or refresh.
type AuditService struct {
	store auditStore
}

func NewAuditService(store auditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Record(ctx context.Context, event model.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := s.store.Insert(ctx, event); err != nil {
		slog.Error("audit event dropped", "action", event.Action, "error", err)
	}
}

func (s *AuditService) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	return s.store.List(ctx, limit)
}
