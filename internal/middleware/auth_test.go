package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefly/internal/model"
)

type stubVerifier struct {
	identity model.Identity
	err      error
	seen     string
}

func (v *stubVerifier) Verify(tokenString string) (model.Identity, error) {
	v.seen = tokenString
	return v.identity, v.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var body model.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequireAuth(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes identity to the next handler", func(t *testing.T) {
		verifier := &stubVerifier{identity: model.Identity{UserID: "user-1", Role: model.RoleUser, SessionID: "sid-1"}}
		mw := NewAuthMiddleware(verifier)

		var got model.Identity
		var ok bool
		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = IdentityFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/protected/auth/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, ok)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "sid-1", got.SessionID)
		assert.Equal(t, "abc.def.ghi", verifier.seen)
	})

	t.Run("missing header", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubVerifier{})
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeEnvelope(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubVerifier{})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token gets the same body as an expired one", func(t *testing.T) {
		responses := make([]string, 0, 2)
		for _, verifyErr := range []error{model.ErrTokenInvalid, model.ErrTokenExpired} {
			mw := NewAuthMiddleware(&stubVerifier{err: verifyErr})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer whatever")

			rec := httptest.NewRecorder()
			mw.RequireAuth(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			responses = append(responses, rec.Body.String())
		}
		assert.Equal(t, responses[0], responses[1])
	})

	t.Run("case insensitive bearer prefix", func(t *testing.T) {
		verifier := &stubVerifier{identity: model.Identity{UserID: "user-1"}}
		mw := NewAuthMiddleware(verifier)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer abc")

		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(t *testing.T, identity model.Identity, roles ...string) *httptest.ResponseRecorder {
		t.Helper()
		verifier := &stubVerifier{identity: identity}
		mw := NewAuthMiddleware(verifier)

		handler := mw.RequireAuth(mw.RequireRoles(roles...)(okHandler))
		req := httptest.NewRequest(http.MethodGet, "/api/protected/admin/audit-logs", nil)
		req.Header.Set("Authorization", "Bearer token")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed role", func(t *testing.T) {
		rec := serve(t, model.Identity{UserID: "u", Role: model.RoleAdmin}, model.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("role comparison ignores case", func(t *testing.T) {
		rec := serve(t, model.Identity{UserID: "u", Role: "admin"}, model.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden role", func(t *testing.T) {
		rec := serve(t, model.Identity{UserID: "u", Role: model.RoleUser}, model.RoleAdmin)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeEnvelope(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "FORBIDDEN", body.Error.Code)
	})

	t.Run("no identity in context", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubVerifier{err: errors.New("unused")})
		rec := httptest.NewRecorder()
		mw.RequireRoles(model.RoleAdmin)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
