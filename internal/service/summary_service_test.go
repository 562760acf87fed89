package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briefly/internal/model"
	"briefly/internal/summarize"
	"briefly/internal/token"
)

type mockSummaryStore struct{ mock.Mock }

func (m *mockSummaryStore) Create(ctx context.Context, s model.Summary) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSummaryStore) FindByURL(ctx context.Context, url string) (model.Summary, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(model.Summary), args.Error(1)
}

func (m *mockSummaryStore) ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.Summary), args.Error(1)
}

type mockCreditStore struct{ mock.Mock }

func (m *mockCreditStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockCreditStore) DeductCredit(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSummaryCache struct{ mock.Mock }

func (m *mockSummaryCache) GetString(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSummaryCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

type mockSummarizer struct{ mock.Mock }

func (m *mockSummarizer) Summarize(ctx context.Context, url string) (summarize.Result, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(summarize.Result), args.Error(1)
}

type summaryFixture struct {
	summaries *mockSummaryStore
	users     *mockCreditStore
	cache     *mockSummaryCache
	producer  *mockSummarizer
	svc       *SummaryService
}

func newSummaryFixture() *summaryFixture {
	f := &summaryFixture{
		summaries: new(mockSummaryStore),
		users:     new(mockCreditStore),
		cache:     new(mockSummaryCache),
		producer:  new(mockSummarizer),
	}
	f.svc = NewSummaryService(f.summaries, f.users, f.cache, f.producer, 24*time.Hour)
	return f
}

func userWithCredits(n int) model.User {
	return model.User{ID: "user-1", Email: "a@x.com", Credits: n, PlanName: "free"}
}

func TestSummaryService_Summarize(t *testing.T) {
	ctx := context.Background()
	const siteURL = "https://example.com/article"
	siteCacheKey := "summary:" + token.HashSecret(siteURL)

	t.Run("no credits blocks before any work", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(0), nil)

		_, err := f.svc.Summarize(ctx, "user-1", siteURL)
		assert.ErrorIs(t, err, model.ErrInsufficientCredits)

		f.producer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "DeductCredit", mock.Anything, mock.Anything)
	})

	t.Run("website cache hit still charges a credit", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(2), nil)
		f.cache.On("GetString", ctx, siteCacheKey).Return("cached text", true, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(nil).Once()
		f.summaries.On("Create", ctx, mock.MatchedBy(func(s model.Summary) bool {
			return s.UserID == "user-1" && s.URL == siteURL && s.Type == model.SummaryTypeWebsite
		})).Return(nil)

		out, err := f.svc.Summarize(ctx, "user-1", siteURL)
		require.NoError(t, err)

		assert.Equal(t, "cached text", out.Summary)
		assert.Equal(t, "cache", out.Source)
		f.users.AssertExpectations(t)
		f.producer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	})

	t.Run("website miss produces, records, then caches", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(1), nil)
		f.cache.On("GetString", ctx, siteCacheKey).Return("", false, nil)
		f.producer.On("Summarize", ctx, siteURL).Return(summarize.Result{Title: "Article", Summary: "fresh text"}, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(nil).Once()
		f.summaries.On("Create", ctx, mock.Anything).Return(nil)
		f.cache.On("SetString", ctx, siteCacheKey, "fresh text", 24*time.Hour).Return(nil).Once()

		out, err := f.svc.Summarize(ctx, "user-1", siteURL)
		require.NoError(t, err)

		assert.Equal(t, "fresh text", out.Summary)
		assert.Equal(t, "fresh", out.Source)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache write failure does not fail the request", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(1), nil)
		f.cache.On("GetString", ctx, siteCacheKey).Return("", false, nil)
		f.producer.On("Summarize", ctx, siteURL).Return(summarize.Result{Summary: "fresh text"}, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(nil)
		f.summaries.On("Create", ctx, mock.Anything).Return(nil)
		f.cache.On("SetString", ctx, siteCacheKey, mock.Anything, mock.Anything).Return(errors.New("redis down"))

		out, err := f.svc.Summarize(ctx, "user-1", siteURL)
		require.NoError(t, err)
		assert.Equal(t, "fresh text", out.Summary)
	})

	t.Run("video reuses a stored summary", func(t *testing.T) {
		f := newSummaryFixture()
		videoURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(3), nil)
		f.summaries.On("FindByURL", ctx, videoURL).Return(model.Summary{
			Title:   "Some Video",
			Summary: "stored text",
			Type:    model.SummaryTypeVideo,
		}, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(nil).Once()
		f.summaries.On("Create", ctx, mock.MatchedBy(func(s model.Summary) bool {
			return s.Type == model.SummaryTypeVideo && s.Summary == "stored text"
		})).Return(nil)

		out, err := f.svc.Summarize(ctx, "user-1", videoURL)
		require.NoError(t, err)

		assert.Equal(t, "stored text", out.Summary)
		assert.Equal(t, "store", out.Source)
		f.producer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "GetString", mock.Anything, mock.Anything)
	})

	t.Run("video without prior summary goes to the producer", func(t *testing.T) {
		f := newSummaryFixture()
		videoURL := "https://youtu.be/dQw4w9WgXcQ"

		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(3), nil)
		f.summaries.On("FindByURL", ctx, videoURL).Return(model.Summary{}, pgx.ErrNoRows)
		f.producer.On("Summarize", ctx, videoURL).Return(summarize.Result{Title: "Some Video", Summary: "fresh video text"}, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(nil).Once()
		f.summaries.On("Create", ctx, mock.Anything).Return(nil)

		out, err := f.svc.Summarize(ctx, "user-1", videoURL)
		require.NoError(t, err)

		assert.Equal(t, "fresh video text", out.Summary)
		assert.Equal(t, "fresh", out.Source)
	})

	t.Run("deduction race loses to the store", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(1), nil)
		f.cache.On("GetString", ctx, siteCacheKey).Return("cached text", true, nil)
		f.users.On("DeductCredit", ctx, "user-1").Return(model.ErrInsufficientCredits)

		_, err := f.svc.Summarize(ctx, "user-1", siteURL)
		assert.ErrorIs(t, err, model.ErrInsufficientCredits)
		f.summaries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("producer failure charges nothing", func(t *testing.T) {
		f := newSummaryFixture()
		f.users.On("FindByID", ctx, "user-1").Return(userWithCredits(1), nil)
		f.cache.On("GetString", ctx, siteCacheKey).Return("", false, nil)
		f.producer.On("Summarize", ctx, siteURL).Return(summarize.Result{}, errors.New("upstream 500"))

		_, err := f.svc.Summarize(ctx, "user-1", siteURL)
		assert.Error(t, err)
		f.users.AssertNotCalled(t, "DeductCredit", mock.Anything, mock.Anything)
	})
}

func TestSummaryService_ListForUser(t *testing.T) {
	ctx := context.Background()
	f := newSummaryFixture()

	want := []model.Summary{{ID: "s1", UserID: "user-1", Title: "Article"}}
	f.summaries.On("ListForUser", ctx, "user-1", 20).Return(want, nil)

	got, err := f.svc.ListForUser(ctx, "user-1", 20)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
