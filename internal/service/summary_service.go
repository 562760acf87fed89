package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"briefly/internal/model"
	"briefly/internal/summarize"
	"briefly/internal/token"
)

type summaryStore interface {
	Create(ctx context.Context, s model.Summary) error
	FindByURL(ctx context.Context, url string) (model.Summary, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error)
}

type creditStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	DeductCredit(ctx context.Context, userID string) error
}

type summaryCache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
}

type summarizer interface {
	Summarize(ctx context.Context, url string) (summarize.Result, error)
}

// SummaryService charges one credit per summary. Video summaries are reused
// from the document store, website summaries from the key-value cache; only
// a miss on both goes out to the content producer.
type SummaryService struct {
	summaries summaryStore
	users     creditStore
	cache     summaryCache
	producer  summarizer
	cacheTTL  time.Duration
}

func NewSummaryService(summaries summaryStore, users creditStore, cache summaryCache, producer summarizer, cacheTTL time.Duration) *SummaryService {
	return &SummaryService{
		summaries: summaries,
		users:     users,
		cache:     cache,
		producer:  producer,
		cacheTTL:  cacheTTL,
	}
}

type SummarizeOutput struct {
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

func (s *SummaryService) Summarize(ctx context.Context, userID string, url string) (SummarizeOutput, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return SummarizeOutput{}, err
	}
	// Cheap pre-check; the real gate is the conditional decrement below.
	if user.Credits <= 0 {
		return SummarizeOutput{}, model.ErrInsufficientCredits
	}

	if summarize.IsVideoURL(url) {
		return s.summarizeVideo(ctx, userID, url)
	}
	return s.summarizeWebsite(ctx, userID, url)
}

func (s *SummaryService) summarizeVideo(ctx context.Context, userID string, url string) (SummarizeOutput, error) {
	existing, err := s.summaries.FindByURL(ctx, url)
	if err == nil {
		if err := s.record(ctx, userID, url, existing.Title, existing.Summary, model.SummaryTypeVideo); err != nil {
			return SummarizeOutput{}, err
		}
		return SummarizeOutput{Summary: existing.Summary, Source: "store"}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return SummarizeOutput{}, err
	}

	result, err := s.producer.Summarize(ctx, url)
	if err != nil {
		return SummarizeOutput{}, fmt.Errorf("produce summary: %w", err)
	}

	if err := s.record(ctx, userID, url, result.Title, result.Summary, model.SummaryTypeVideo); err != nil {
		return SummarizeOutput{}, err
	}
	return SummarizeOutput{Summary: result.Summary, Source: "fresh"}, nil
}

func (s *SummaryService) summarizeWebsite(ctx context.Context, userID string, url string) (SummarizeOutput, error) {
	cacheKey := "summary:" + token.HashSecret(url)

	cached, hit, err := s.cache.GetString(ctx, cacheKey)
	if err != nil {
		return SummarizeOutput{}, err
	}
	if hit {
		if err := s.record(ctx, userID, url, "Web Article (Cached)", cached, model.SummaryTypeWebsite); err != nil {
			return SummarizeOutput{}, err
		}
		return SummarizeOutput{Summary: cached, Source: "cache"}, nil
	}

	result, err := s.producer.Summarize(ctx, url)
	if err != nil {
		return SummarizeOutput{}, fmt.Errorf("produce summary: %w", err)
	}

	if err := s.record(ctx, userID, url, result.Title, result.Summary, model.SummaryTypeWebsite); err != nil {
		return SummarizeOutput{}, err
	}

	// Cache writes are best-effort; the summary is already recorded.
	if err := s.cache.SetString(ctx, cacheKey, result.Summary, s.cacheTTL); err != nil {
		slog.Warn("summary cache write failed", "error", err)
	}
	return SummarizeOutput{Summary: result.Summary, Source: "fresh"}, nil
}

// record charges the credit and appends the summary to the user's history.
// DeductCredit is atomic at the store: it either spends an available credit
// or fails, never read-compute-write.
func (s *SummaryService) record(ctx context.Context, userID string, url string, title string, summaryText string, kind string) error {
	if err := s.users.DeductCredit(ctx, userID); err != nil {
		return err
	}

	return s.summaries.Create(ctx, model.Summary{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       url,
		Title:     title,
		Summary:   summaryText,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *SummaryService) ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error) {
	return s.summaries.ListForUser(ctx, userID, limit)
}
