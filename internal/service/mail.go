package service

import (
	"context"
	"fmt"
	"log/slog"
)

// LogMailer writes mail links to the operational log instead of sending
// anything. Delivery through a real provider hangs off the same interface.
type LogMailer struct {
	baseURL string
}

func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{baseURL: baseURL}
}

func (m *LogMailer) SendVerification(_ context.Context, email string, verifyToken string) error {
	slog.Info("verification mail",
		"email", email,
		"link", fmt.Sprintf("%s/api/auth/verify-email?token=%s", m.baseURL, verifyToken))
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email string, resetToken string) error {
	slog.Info("password reset mail",
		"email", email,
		"link", fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, resetToken))
	return nil
}
