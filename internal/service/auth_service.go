package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"briefly/internal/model"
	"briefly/internal/repository"
	"briefly/internal/token"
)

const (
	bcryptCost     = 12
	oobTokenExpiry = 15 * time.Minute
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	VerifyEmailByToken(ctx context.Context, verifyToken string) (model.User, error)
	SetResetToken(ctx context.Context, userID string, resetToken string, expiry time.Time) error
	ResetPasswordByToken(ctx context.Context, resetToken string, passwordHash string) (model.User, error)
}

type sessionStore interface {
	Create(ctx context.Context, sessionID string, userID string, role string, hashedSecret string, meta repository.SessionMetadata, ttl time.Duration) error
	GetRefreshRecord(ctx context.Context, sessionID string) (model.RefreshRecord, error)
	RotateSecret(ctx context.Context, sessionID string, record model.RefreshRecord) error
	Delete(ctx context.Context, sessionID string, userID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	ListForUser(ctx context.Context, userID string) ([]model.SessionInfo, error)
}

type auditRecorder interface {
	Record(ctx context.Context, event model.AuditEvent)
}

type mailer interface {
	SendVerification(ctx context.Context, email string, verifyToken string) error
	SendPasswordReset(ctx context.Context, email string, resetToken string) error
}

// RequestMeta carries the caller's network identity into audit events and
// session metadata.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthService owns the session lifecycle: a session is created at login,
// keeps rotating its refresh secret on every successful refresh, and dies on
// logout, logout-all, TTL expiry, or reuse detection.
type AuthService struct {
	users      userStore
	sessions   sessionStore
	audit      auditRecorder
	mail       mailer
	codec      *token.Codec
	sessionTTL time.Duration
}

func NewAuthService(users userStore, sessions sessionStore, audit auditRecorder, mail mailer, codec *token.Codec, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		audit:      audit,
		mail:       mail,
		codec:      codec,
		sessionTTL: sessionTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, email string, password string, meta RequestMeta) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check existing email: %w", err)
	}
	if exists {
		s.audit.Record(ctx, model.AuditEvent{
			Action: model.AuditRegisterFailed,
			IP:     meta.IP,
			Metadata: map[string]any{
				"email":  email,
				"reason": "email taken",
			},
		})
		return model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	verifyToken, err := token.NewOpaqueToken()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	expiry := now.Add(oobTokenExpiry)
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Credits:      3,
		PlanName:     "free",
		VerifyToken:  &verifyToken,
		VerifyExpiry: &expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if err := s.mail.SendVerification(ctx, email, verifyToken); err != nil {
		slog.Error("verification mail not sent", "error", err)
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:    model.AuditRegisterSuccess,
		UserID:    user.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// Login authenticates credentials and opens a new session. The response
// never distinguishes "no such user" from "wrong password".
func (s *AuthService) Login(ctx context.Context, email string, password string, meta RequestMeta) (model.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.audit.Record(ctx, model.AuditEvent{
			Action:   model.AuditLoginFailed,
			IP:       meta.IP,
			Metadata: map[string]any{"email": email},
		})
		return model.LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.audit.Record(ctx, model.AuditEvent{
			Action:   model.AuditLoginFailed,
			UserID:   user.ID,
			IP:       meta.IP,
			Metadata: map[string]any{"email": email},
		})
		return model.LoginResult{}, model.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		s.audit.Record(ctx, model.AuditEvent{
			Action:   model.AuditLoginFailed,
			UserID:   user.ID,
			IP:       meta.IP,
			Metadata: map[string]any{"email": email, "reason": "email not verified"},
		})
		return model.LoginResult{}, model.ErrEmailNotVerified
	}

	result, err := s.openSession(ctx, user, meta)
	if err != nil {
		return model.LoginResult{}, err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:    model.AuditLoginSuccess,
		UserID:    user.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return result, nil
}

func (s *AuthService) openSession(ctx context.Context, user model.User, meta RequestMeta) (model.LoginResult, error) {
	sessionID := uuid.NewString()
	secret, err := token.NewRefreshSecret()
	if err != nil {
		return model.LoginResult{}, err
	}

	sessionMeta := repository.SessionMetadata{IP: meta.IP, UserAgent: meta.UserAgent}
	if err := s.sessions.Create(ctx, sessionID, user.ID, user.Role, token.HashSecret(secret), sessionMeta, s.sessionTTL); err != nil {
		return model.LoginResult{}, err
	}

	accessToken, err := s.codec.Issue(user.ID, user.Role, sessionID)
	if err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		AccessToken:   accessToken,
		SessionID:     sessionID,
		RefreshSecret: secret,
		User:          user.Profile(),
	}, nil
}

// Refresh exchanges a valid refresh secret for a new token pair, rotating the
// stored secret in place. A presented secret that does not match the current
// hash means a previously rotated-out value is being replayed; every session
// belonging to the user is revoked before the error returns.
func (s *AuthService) Refresh(ctx context.Context, cookieValue string, meta RequestMeta) (model.LoginResult, error) {
	sessionID, secret, ok := strings.Cut(cookieValue, ":")
	if !ok || sessionID == "" || secret == "" {
		return model.LoginResult{}, model.ErrMalformedCookie
	}

	record, err := s.sessions.GetRefreshRecord(ctx, sessionID)
	if err != nil {
		return model.LoginResult{}, err
	}

	if !token.VerifySecret(secret, record.Hash) {
		s.audit.Record(ctx, model.AuditEvent{
			Action:    model.AuditTokenReuse,
			UserID:    record.UserID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Metadata:  map[string]any{"sessionId": sessionID},
		})

		if err := s.sessions.DeleteAllForUser(ctx, record.UserID); err != nil {
			slog.Error("revoke-all after reuse detection failed", "user_id", record.UserID, "error", err)
		}
		return model.LoginResult{}, model.ErrSessionCompromised
	}

	newSecret, err := token.NewRefreshSecret()
	if err != nil {
		return model.LoginResult{}, err
	}

	record.Hash = token.HashSecret(newSecret)
	if err := s.sessions.RotateSecret(ctx, sessionID, record); err != nil {
		return model.LoginResult{}, err
	}

	accessToken, err := s.codec.Issue(record.UserID, record.Role, sessionID)
	if err != nil {
		return model.LoginResult{}, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("load user for refresh: %w", err)
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action: model.AuditTokenRefresh,
		UserID: record.UserID,
		IP:     meta.IP,
	})

	return model.LoginResult{
		AccessToken:   accessToken,
		SessionID:     sessionID,
		RefreshSecret: newSecret,
		User:          user.Profile(),
	}, nil
}

// Logout revokes the single session named by the caller's access token.
// Already-issued access tokens for it stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, identity model.Identity, meta RequestMeta) error {
	if err := s.sessions.Delete(ctx, identity.SessionID, identity.UserID); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:    model.AuditLogout,
		UserID:    identity.UserID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  map[string]any{"sessionId": identity.SessionID},
	})
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, identity model.Identity, meta RequestMeta) error {
	if err := s.sessions.DeleteAllForUser(ctx, identity.UserID); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action: model.AuditLogoutAll,
		UserID: identity.UserID,
		IP:     meta.IP,
	})
	return nil
}

func (s *AuthService) Sessions(ctx context.Context, userID string) ([]model.SessionInfo, error) {
	return s.sessions.ListForUser(ctx, userID)
}

func (s *AuthService) VerifyEmail(ctx context.Context, verifyToken string, meta RequestMeta) error {
	user, err := s.users.VerifyEmailByToken(ctx, verifyToken)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action: model.AuditEmailVerified,
		UserID: user.ID,
		IP:     meta.IP,
	})
	return nil
}

// ForgotPassword always reports success to the caller so the endpoint cannot
// be used to probe which emails exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	resetToken, err := token.NewOpaqueToken()
	if err != nil {
		return err
	}

	if err := s.users.SetResetToken(ctx, user.ID, resetToken, time.Now().UTC().Add(oobTokenExpiry)); err != nil {
		return err
	}

	if err := s.mail.SendPasswordReset(ctx, user.Email, resetToken); err != nil {
		slog.Error("password reset mail not sent", "error", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken string, newPassword string, meta RequestMeta) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.ResetPasswordByToken(ctx, resetToken, string(hash))
	if err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action: model.AuditPasswordReset,
		UserID: user.ID,
		IP:     meta.IP,
	})
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return user.Profile(), nil
}
