package auth

import (
	"context"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery", 10)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == "correct horse battery" {
		t.Fatal("hash must not equal plaintext")
	}
	if !VerifyPassword("correct horse battery", hashed) {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword("wrong password!", hashed) {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestHashPassword_RejectsShortPasswords(t *testing.T) {
	if _, err := HashPassword("short", 10); err == nil {
		t.Fatal("expected error for password under minimum length")
	}
}

func TestVerifyPassword_UnparsableHashIsMismatch(t *testing.T) {
	if VerifyPassword("whatever1", "not-a-bcrypt-hash") {
		t.Fatal("expected unparsable hash to fail verification")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	got, ok := UserIDFromContext(ctx)
	if !ok || got != "user-1" {
		t.Fatalf("expected user-1, got %q ok=%v", got, ok)
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("expected no identity on a bare context")
	}
}
