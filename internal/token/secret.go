package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// NewRefreshSecret returns a 512-bit random secret, hex encoded. The raw
// value travels to the client; only its hash is ever stored.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewOpaqueToken returns a 256-bit random token for email-verification and
// password-reset links.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret is the at-rest digest used for refresh secrets. Not suitable for
// passwords; those go through bcrypt.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifySecret compares a presented secret against a stored digest without
// leaking timing.
func VerifySecret(secret string, storedHash string) bool {
	presented := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}
