package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefly/pkg/apierror"
)

func assertBadRequest(t *testing.T, err error, field string) {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	assert.Equal(t, field, apiErr.Details)
}

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{name: "valid", email: "a@x.com", password: "secret1"},
		{name: "normalized upper case", email: "  A@X.COM  ", password: "secret1"},
		{name: "empty email", email: "", password: "secret1", field: "email"},
		{name: "not an address", email: "nonsense", password: "secret1", field: "email"},
		{name: "short password", email: "a@x.com", password: "abc", field: "password"},
		{name: "oversized password", email: "a@x.com", password: strings.Repeat("x", 101), field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := LoginRequest{Email: tt.email, Password: tt.password}
			err := req.Validate()

			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, NormalizeEmail(tt.email), req.Email)
				return
			}
			assertBadRequest(t, err, tt.field)
		})
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Email: " New@X.Com ", Password: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "new@x.com", req.Email)

	bad := RegisterRequest{Email: "new@x.com", Password: "12345"}
	assertBadRequest(t, bad.Validate(), "password")
}

func TestForgotPasswordRequest_Validate(t *testing.T) {
	req := ForgotPasswordRequest{Email: "A@X.com"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "a@x.com", req.Email)

	assertBadRequest(t, (&ForgotPasswordRequest{}).Validate(), "email")
}

func TestResetPasswordRequest_Validate(t *testing.T) {
	req := ResetPasswordRequest{Token: " tok ", NewPassword: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "tok", req.Token)

	assertBadRequest(t, (&ResetPasswordRequest{NewPassword: "secret1"}).Validate(), "token")
	assertBadRequest(t, (&ResetPasswordRequest{Token: "tok", NewPassword: "abc"}).Validate(), "password")
}

func TestSummarizeRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{name: "https", url: "https://example.com/article", ok: true},
		{name: "http", url: "http://example.com", ok: true},
		{name: "trimmed", url: "  https://example.com  ", ok: true},
		{name: "empty", url: ""},
		{name: "relative", url: "/just/a/path"},
		{name: "other scheme", url: "ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SummarizeRequest{URL: tt.url}
			err := req.Validate()
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, strings.TrimSpace(tt.url), req.URL)
				return
			}
			assertBadRequest(t, err, "url")
		})
	}
}
