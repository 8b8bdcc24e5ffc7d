package hash

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Hash produces a bcrypt hash suitable for NOTES_POST_PASSWORD.
func Hash(secret string) (string, error) {
	if len(secret) < 8 {
		return "", fmt.Errorf("secret must be at least 8 characters")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(hashedBytes), nil
}

func Compare(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}

// IsHash reports whether s looks like a bcrypt hash rather than a plain secret.
func IsHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// CheckSecret compares a presented secret against the configured one, which
// may be stored either as a bcrypt hash or in plain text. An empty configured
// secret never matches.
func CheckSecret(configured, presented string) bool {
	if configured == "" {
		return false
	}
	if IsHash(configured) {
		return Compare(configured, presented) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
