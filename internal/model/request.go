package model

import (
	"net/http"
	"net/mail"
	"strings"

	"briefly/pkg/apierror"
)

// Request bodies are validated at the boundary: handlers call Validate before
// any domain logic runs, and validation failures map to a 400 with a
// structured error.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	return validateEmail(r.Email)
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return apierror.New("BAD_REQUEST", "token is required", "token", http.StatusBadRequest)
	}
	return validatePassword(r.NewPassword)
}

type SummarizeRequest struct {
	URL string `json:"url"`
}

func (r *SummarizeRequest) Validate() error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return apierror.New("BAD_REQUEST", "url is required", "url", http.StatusBadRequest)
	}
	if !strings.HasPrefix(r.URL, "http://") && !strings.HasPrefix(r.URL, "https://") {
		return apierror.New("BAD_REQUEST", "url must be absolute", "url", http.StatusBadRequest)
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apierror.New("BAD_REQUEST", "email is required", "email", http.StatusBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierror.New("BAD_REQUEST", "please provide a valid email address", "email", http.StatusBadRequest)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return apierror.New("BAD_REQUEST", "password must be at least 6 characters", "password", http.StatusBadRequest)
	}
	if len(password) > 100 {
		return apierror.New("BAD_REQUEST", "password is too long", "password", http.StatusBadRequest)
	}
	return nil
}
