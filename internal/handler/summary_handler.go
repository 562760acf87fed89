package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"briefly/internal/middleware"
	"briefly/internal/model"
	"briefly/internal/ratelimit"
	"briefly/internal/service"
	"briefly/pkg/apierror"
)

type summaryService interface {
	Summarize(ctx context.Context, userID string, url string) (service.SummarizeOutput, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error)
}

type SummaryHandler struct {
	service summaryService
	limiter *ratelimit.Limiter
}

func NewSummaryHandler(service summaryService, limiter *ratelimit.Limiter) *SummaryHandler {
	return &SummaryHandler{service: service, limiter: limiter}
}

func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if !h.limiter.Allow(r.Context(), "summarize", middleware.ClientIP(r), ratelimit.PolicySummarize) {
		writeError(w, model.ErrRateLimited)
		return
	}

	var payload model.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	output, err := h.service.Summarize(r.Context(), identity.UserID, payload.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, output)
}

func (h *SummaryHandler) MySummaries(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summaries, err := h.service.ListForUser(r.Context(), identity.UserID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"summaries": summaries})
}
