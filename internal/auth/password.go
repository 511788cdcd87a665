package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// Cost 0 falls back to bcrypt's default.
func HashPassword(plaintext string, cost int) (string, error) {
	if len(plaintext) < MinPasswordLength {
		return "", errors.New("password must be at least 8 characters")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
// Comparison is constant-time inside bcrypt; an unparsable hash is a plain
// mismatch.
func VerifyPassword(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
