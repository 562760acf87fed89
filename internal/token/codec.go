package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"briefly/internal/model"
)

// Codec signs and verifies the short-lived access tokens. It is purely
// computational and safe for concurrent use.
type Codec struct {
	secret    []byte
	accessTTL time.Duration
}

type accessClaims struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

func NewCodec(secret string, accessTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), accessTTL: accessTTL}
}

func (c *Codec) Issue(userID string, role string, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only. A valid token does not imply the
// embedded session is still live; revocation is enforced on refresh.
func (c *Codec) Verify(tokenString string) (model.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, model.ErrTokenExpired
		}
		return model.Identity{}, model.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return model.Identity{}, model.ErrTokenInvalid
	}

	if claims.UserID == "" || claims.Role == "" || claims.SessionID == "" {
		return model.Identity{}, model.ErrTokenInvalid
	}

	return model.Identity{UserID: claims.UserID, Role: claims.Role, SessionID: claims.SessionID}, nil
}
