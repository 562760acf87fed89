package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"briefly/internal/middleware"
	"briefly/internal/model"
	"briefly/internal/ratelimit"
	"briefly/internal/service"
	"briefly/pkg/apierror"
)

type authService interface {
	Register(ctx context.Context, email string, password string, meta service.RequestMeta) error
	Login(ctx context.Context, email string, password string, meta service.RequestMeta) (model.LoginResult, error)
	Refresh(ctx context.Context, cookieValue string, meta service.RequestMeta) (model.LoginResult, error)
	Logout(ctx context.Context, identity model.Identity, meta service.RequestMeta) error
	LogoutAll(ctx context.Context, identity model.Identity, meta service.RequestMeta) error
	Sessions(ctx context.Context, userID string) ([]model.SessionInfo, error)
	VerifyEmail(ctx context.Context, verifyToken string, meta service.RequestMeta) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken string, newPassword string, meta service.RequestMeta) error
	Me(ctx context.Context, userID string) (model.Profile, error)
}

type AuthHandler struct {
	service authService
	limiter *ratelimit.Limiter
	cookies CookieConfig
}

func NewAuthHandler(service authService, limiter *ratelimit.Limiter, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, limiter: limiter, cookies: cookies}
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !h.limiter.Allow(r.Context(), "register", middleware.ClientIP(r), ratelimit.PolicyRegister) {
		writeError(w, model.ErrRateLimited)
		return
	}

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Register(r.Context(), payload.Email, payload.Password, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"message": "User registered successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !h.limiter.Allow(r.Context(), "login", middleware.ClientIP(r), ratelimit.PolicyLogin) {
		writeError(w, model.ErrRateLimited)
		return
	}

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setRefreshCookie(w, result.SessionID, result.RefreshSecret)
	writeSuccess(w, http.StatusOK, map[string]any{
		"accessToken": result.AccessToken,
		"user":        result.User,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(r.Context(), "refresh", middleware.ClientIP(r), ratelimit.PolicyRefresh) {
		writeError(w, model.ErrRateLimited)
		return
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, apierror.Unauthorized("No refresh token"))
		return
	}

	result, err := h.service.Refresh(r.Context(), cookie.Value, requestMeta(r))
	if err != nil {
		if err == model.ErrSessionCompromised {
			h.cookies.clearRefreshCookie(w)
		}
		writeError(w, err)
		return
	}

	h.cookies.setRefreshCookie(w, result.SessionID, result.RefreshSecret)
	writeSuccess(w, http.StatusOK, map[string]any{
		"accessToken": result.AccessToken,
		"user":        result.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), identity, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "logged out from current device"})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "logged out from all devices"})
}

func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	sessions, err := h.service.Sessions(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	verifyToken := strings.TrimSpace(r.URL.Query().Get("token"))
	if verifyToken == "" {
		writeError(w, apierror.BadRequest("token is required", "token"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), verifyToken, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Email verified successfully"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !h.limiter.Allow(r.Context(), "forgot", middleware.ClientIP(r), ratelimit.PolicyForgot) {
		writeError(w, model.ErrRateLimited)
		return
	}

	var payload model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}

	// Same body whether or not the account exists.
	writeSuccess(w, http.StatusOK, map[string]any{"message": "if the account exists, a reset link was sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload.Token, payload.NewPassword, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Password reset successful"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	profile, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile)
}
