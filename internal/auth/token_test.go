package auth

import (
	"testing"

	"github.com/soportehq/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	user := &domain.User{
		ID:    "user-1",
		Email: "maria@soporte.example.com",
		Role:  domain.RoleAdmin,
	}

	token, expiresAt, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("empty token or expiry")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Email != user.Email {
		t.Fatalf("email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", claims.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 30)
	other := NewTokenManager("secret-b", 30)

	token, _, err := tm.GenerateToken(&domain.User{ID: "user-1", Email: "x@example.com", Role: domain.RoleAgent})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	if _, err := tm.ParseToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3creta", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3creta" {
		t.Fatal("password stored in the clear")
	}
	if err := ComparePassword(hash, "s3creta"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "otra"); err == nil {
		t.Fatal("wrong password accepted")
	}
}
