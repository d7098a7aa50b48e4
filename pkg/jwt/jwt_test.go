package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, err := s.GenerateToken(42, "vendedor", "USER", "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "USER" || claims.TokenVersion != "v1" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestRejects(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, _ := s.GenerateToken(1, "a", "ADMIN", "v")

	other := NewSigner("other-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidToken", err)
	}

	expired := NewSigner("secret", -time.Minute)
	old, _ := expired.GenerateToken(1, "a", "ADMIN", "v")
	if _, err := s.ValidateToken(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v, want ErrInvalidToken", err)
	}

	if _, err := s.ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("empty: err = %v, want ErrMissingToken", err)
	}
}
