package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"briefly/internal/model"
)

const userColumns = `id, email, password_hash, role, email_verified, credits, plan_name,
	verify_token, verify_expiry, reset_token, reset_expiry, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified,
		&u.Credits, &u.PlanName, &u.VerifyToken, &u.VerifyExpiry,
		&u.ResetToken, &u.ResetExpiry, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, email_verified, credits, plan_name,
		                    verify_token, verify_expiry, created_at, updated_at)
		 VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.EmailVerified, u.Credits, u.PlanName,
		u.VerifyToken, u.VerifyExpiry, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// VerifyEmailByToken flips email_verified for an unexpired verification token
// and clears the token in the same statement.
func (r *UserRepository) VerifyEmailByToken(ctx context.Context, verifyToken string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET email_verified = true, verify_token = NULL, verify_expiry = NULL, updated_at = now()
		 WHERE verify_token = $1 AND verify_expiry > now()
		 RETURNING `+userColumns, verifyToken)

	u, err := scanUser(row)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, model.ErrVerificationToken
	}
	return u, err
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID string, resetToken string, expiry time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_expiry = $3, updated_at = now() WHERE id = $1`,
		userID, resetToken, expiry)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ResetPasswordByToken swaps the password hash for an unexpired reset token
// and clears the token in the same statement.
func (r *UserRepository) ResetPasswordByToken(ctx context.Context, resetToken string, passwordHash string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET password_hash = $2, reset_token = NULL, reset_expiry = NULL, updated_at = now()
		 WHERE reset_token = $1 AND reset_expiry > now()
		 RETURNING `+userColumns, resetToken, passwordHash)

	u, err := scanUser(row)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, model.ErrResetToken
	}
	return u, err
}

// DeductCredit is a conditional decrement at the store level. Concurrent
// callers can never drive the balance negative: the WHERE clause makes the
// observe-and-spend a single atomic statement.
func (r *UserRepository) DeductCredit(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET credits = credits - 1, updated_at = now()
		 WHERE id = $1 AND credits > 0`, userID)
	if err != nil {
		return fmt.Errorf("deduct credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInsufficientCredits
	}
	return nil
}
