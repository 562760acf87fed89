package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briefly/internal/middleware"
	"briefly/internal/model"
	"briefly/internal/ratelimit"
	"briefly/internal/service"
	"briefly/internal/token"
)

type mockSummaryService struct{ mock.Mock }

func (m *mockSummaryService) Summarize(ctx context.Context, userID string, url string) (service.SummarizeOutput, error) {
	args := m.Called(ctx, userID, url)
	return args.Get(0).(service.SummarizeOutput), args.Error(1)
}

func (m *mockSummaryService) ListForUser(ctx context.Context, userID string, limit int) ([]model.Summary, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.Summary), args.Error(1)
}

// authenticated wraps a handler func the way the router does, so the identity
// lands in the request context via a real verified token.
func authenticated(t *testing.T, identity model.Identity, next http.HandlerFunc) (http.Handler, string) {
	t.Helper()
	codec := token.NewCodec("handler-test-secret", 15*time.Minute)
	accessToken, err := codec.Issue(identity.UserID, identity.Role, identity.SessionID)
	require.NoError(t, err)

	mw := middleware.NewAuthMiddleware(codec)
	return mw.RequireAuth(next), accessToken
}

func TestSummaryHandler_Summarize(t *testing.T) {
	identity := model.Identity{UserID: "user-1", Role: model.RoleUser, SessionID: "sid-1"}

	newHandler := func(svc *mockSummaryService) *SummaryHandler {
		return NewSummaryHandler(svc, ratelimit.NewLimiter(newMemCounterStore()))
	}

	t.Run("passes the caller identity and url through", func(t *testing.T) {
		svc := new(mockSummaryService)
		svc.On("Summarize", mock.Anything, "user-1", "https://example.com/article").
			Return(service.SummarizeOutput{Summary: "text", Source: "fresh"}, nil)

		h, accessToken := authenticated(t, identity, newHandler(svc).Summarize)
		req := httptest.NewRequest(http.MethodPost, "/api/protected/summarize",
			strings.NewReader(`{"url":"https://example.com/article"}`))
		req.Header.Set("Authorization", "Bearer "+accessToken)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		data := body.Data.(map[string]any)
		assert.Equal(t, "text", data["summary"])
		assert.Equal(t, "fresh", data["source"])
	})

	t.Run("missing identity", func(t *testing.T) {
		svc := new(mockSummaryService)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/protected/summarize",
			strings.NewReader(`{"url":"https://example.com"}`))
		newHandler(svc).Summarize(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("relative url rejected", func(t *testing.T) {
		svc := new(mockSummaryService)
		h, accessToken := authenticated(t, identity, newHandler(svc).Summarize)

		req := httptest.NewRequest(http.MethodPost, "/api/protected/summarize",
			strings.NewReader(`{"url":"not-a-url"}`))
		req.Header.Set("Authorization", "Bearer "+accessToken)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("out of credits", func(t *testing.T) {
		svc := new(mockSummaryService)
		svc.On("Summarize", mock.Anything, mock.Anything, mock.Anything).
			Return(service.SummarizeOutput{}, model.ErrInsufficientCredits)

		h, accessToken := authenticated(t, identity, newHandler(svc).Summarize)
		req := httptest.NewRequest(http.MethodPost, "/api/protected/summarize",
			strings.NewReader(`{"url":"https://example.com"}`))
		req.Header.Set("Authorization", "Bearer "+accessToken)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "INSUFFICIENT_CREDITS", body.Error.Code)
	})

	t.Run("sixth request in the window is throttled", func(t *testing.T) {
		svc := new(mockSummaryService)
		svc.On("Summarize", mock.Anything, mock.Anything, mock.Anything).
			Return(service.SummarizeOutput{Summary: "text"}, nil)

		h, accessToken := authenticated(t, identity, newHandler(svc).Summarize)

		var rec *httptest.ResponseRecorder
		for i := 0; i < 6; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/protected/summarize",
				strings.NewReader(`{"url":"https://example.com"}`))
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.RemoteAddr = "10.0.0.9:1234"
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
		}

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		svc.AssertNumberOfCalls(t, "Summarize", 5)
	})
}

func TestSummaryHandler_MySummaries(t *testing.T) {
	identity := model.Identity{UserID: "user-1", Role: model.RoleUser, SessionID: "sid-1"}

	svc := new(mockSummaryService)
	svc.On("ListForUser", mock.Anything, "user-1", 10).
		Return([]model.Summary{{ID: "s1", Title: "Article"}}, nil)

	h, accessToken := authenticated(t, identity, NewSummaryHandler(svc, ratelimit.NewLimiter(newMemCounterStore())).MySummaries)
	req := httptest.NewRequest(http.MethodGet, "/api/protected/my-summaries?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
}
