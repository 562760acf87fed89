package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Access token errors
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session related errors
	ErrMalformedCookie    = errors.New("malformed refresh cookie")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionCompromised = errors.New("session compromised")

	// Out-of-band token flows
	ErrVerificationToken = errors.New("verification token expired or invalid")
	ErrResetToken        = errors.New("reset token expired or invalid")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Credits
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("rate limited")
)
