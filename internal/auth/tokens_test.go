package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	userID := uuid.NewString()
	token, expires, err := m.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expiry should be in the future, got %v", expires)
	}
	got, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if got != userID {
		t.Fatalf("expected subject %q, got %q", userID, got)
	}
}

func TestTokenManager_ExpiredTokenRejected(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	issuedAt := time.Now().Add(-48 * time.Hour)
	m.SetClock(func() time.Time { return issuedAt })
	token, _, err := m.IssueToken(uuid.NewString())
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	m.SetClock(time.Now)
	if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManager_WrongSecretRejected(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a", time.Hour)
	verifier, _ := NewTokenManager("secret-b", time.Hour)
	token, _, err := issuer.IssueToken(uuid.NewString())
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenManager_MalformedTokenRejected(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	for _, token := range []string{"", "garbage", "a.b.c", "   "} {
		if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenManager_SubjectMustBeUUID(t *testing.T) {
	secret := "test-secret"
	m, _ := NewTokenManager(secret, time.Hour)

	sign := func(subject string) string {
		claims := jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		return signed
	}

	for _, subject := range []string{"", "not-a-uuid", "42"} {
		if _, err := m.VerifyToken(sign(subject)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("subject %q: expected ErrInvalidToken, got %v", subject, err)
		}
	}
}

func TestTokenManager_MissingExpiryRejected(t *testing.T) {
	secret := "test-secret"
	m, _ := NewTokenManager(secret, time.Hour)
	claims := jwt.RegisteredClaims{Subject: uuid.NewString()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := m.VerifyToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for token without exp, got %v", err)
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("  ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
