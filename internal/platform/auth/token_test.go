package auth

import (
	"strings"
	"testing"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	signed, err := issuer.IssueAccessToken("user-1", RoleDoctor, "Dr. Who")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(signed)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("UserID = %q", claims.UserID)
	}
	if claims.Role != RoleDoctor {
		t.Fatalf("Role = %q", claims.Role)
	}
	if claims.Name != "Dr. Who" {
		t.Fatalf("Name = %q", claims.Name)
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	signed, err := NewTokenIssuer("secret-a").IssueAccessToken("user-1", RolePatient, "")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b").VerifyAccessToken(signed); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	if _, err := issuer.VerifyAccessToken("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestNewRefreshToken_UniqueAndOpaque(t *testing.T) {
	a, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a == b {
		t.Fatal("two refresh tokens should never collide")
	}
	if len(a) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(a))
	}
}

func TestHashToken(t *testing.T) {
	token := "abc123"
	h := HashToken(token)
	if h == token || strings.Contains(h, token) {
		t.Fatal("hash must not contain the raw token")
	}
	if h != HashToken(token) {
		t.Fatal("hash must be deterministic")
	}
	if len(h) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h))
	}
}
