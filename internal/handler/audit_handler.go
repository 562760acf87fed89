package handler

import (
	"context"
	"net/http"
	"strconv"

	"briefly/internal/model"
)

type auditLister interface {
	List(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

type AuditHandler struct {
	service auditLister
}

func NewAuditHandler(service auditLister) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns the most recent security events, newest first. Admin only;
// the role check happens in the router.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"logs": events})
}
