package model

import "time"

const (
	AuditRegisterSuccess = "REGISTER_SUCCESS"
	AuditRegisterFailed  = "REGISTER_FAILED"
	AuditLoginSuccess    = "LOGIN_SUCCESS"
	AuditLoginFailed     = "LOGIN_FAILED"
	AuditTokenRefresh    = "TOKEN_REFRESH"
	AuditTokenReuse      = "TOKEN_REUSE_DETECTED"
	AuditLogout          = "LOGOUT"
	AuditLogoutAll       = "LOGOUT_ALL"
	AuditPasswordReset   = "PASSWORD_RESET"
	AuditEmailVerified   = "EMAIL_VERIFIED"
)

// AuditEvent is an append-only security event. Events are never mutated or
// deleted once recorded.
type AuditEvent struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"user_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
