package utils

import (
	"errors"
	"testing"
	"time"
)

func TestVerifyTokenRoundTrip(t *testing.T) {
	tok, err := NewVerifyToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := ParseVerifyToken("secret", tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("wrong user id: %d", id)
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	tok, err := NewVerifyToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseVerifyToken("other-secret", tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: want ErrInvalidToken, got %v", err)
	}
	if _, err := ParseVerifyToken("secret", "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: want ErrInvalidToken, got %v", err)
	}

	expired, err := NewVerifyToken("secret", 42, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseVerifyToken("secret", expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: want ErrInvalidToken, got %v", err)
	}
}
