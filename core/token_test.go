package core

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour)

	tok, err := issuer.Issue("a@b.com", "USER")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	ident, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ident.Email != "a@b.com" {
		t.Fatalf("subject mismatch: got %q want %q", ident.Email, "a@b.com")
	}
	if ident.Role != "USER" {
		t.Fatalf("role mismatch: got %q want %q", ident.Role, "USER")
	}
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), -1*time.Second)

	tok, err := issuer.Issue("a@b.com", "USER")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := issuer.Verify(tok); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer([]byte("right-secret"), time.Hour).Issue("a@b.com", "USER")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewTokenIssuer([]byte("wrong-secret"), time.Hour).Verify(tok); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for mis-signed token, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := issuer.Verify(tok); err != ErrTokenInvalid {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", tok, err)
		}
	}
}
