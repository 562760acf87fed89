package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"briefly/internal/model"
	"briefly/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError maps service errors to the uniform JSON error envelope.
// Anything unclassified becomes an opaque 500; store/provider error text is
// never surfaced to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrInvalidCredentials) || errors.Is(err, model.ErrEmailNotVerified) {
		// Credential failures and unverified accounts share a response
		// shape; the message differs but neither confirms account existence
		// beyond what the caller already proved.
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
		if errors.Is(err, model.ErrEmailNotVerified) {
			body.Message = "Email not verified"
		}
	} else if errors.Is(err, model.ErrEmailTaken) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Email already registered"
	} else if errors.Is(err, model.ErrMalformedCookie) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid token format"
	} else if errors.Is(err, model.ErrSessionExpired) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Session expired"
	} else if errors.Is(err, model.ErrSessionCompromised) {
		status = http.StatusUnauthorized
		body.Code = "SESSION_COMPROMISED"
		body.Message = "Session compromised"
	} else if errors.Is(err, model.ErrTokenExpired) || errors.Is(err, model.ErrTokenInvalid) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrVerificationToken) || errors.Is(err, model.ErrResetToken) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Token expired or invalid"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrInsufficientCredits) {
		status = http.StatusForbidden
		body.Code = "INSUFFICIENT_CREDITS"
		body.Message = "Insufficient credits. Please upgrade your plan."
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrRateLimited) {
		status = http.StatusTooManyRequests
		body.Code = "RATE_LIMITED"
		body.Message = "Too many requests. Please try again later."
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
