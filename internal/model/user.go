package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	Credits       int        `json:"credits"`
	PlanName      string     `json:"plan_name"`
	VerifyToken   *string    `json:"-"`
	VerifyExpiry  *time.Time `json:"-"`
	ResetToken    *string    `json:"-"`
	ResetExpiry   *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Profile is the client-facing projection of a user.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Credits  int    `json:"credits"`
	PlanName string `json:"plan_name"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Role: u.Role, Credits: u.Credits, PlanName: u.PlanName}
}
