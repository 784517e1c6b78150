package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "biz-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	businessID, err := VerifyToken(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if businessID != "biz-1" {
		t.Fatalf("businessID = %q, want biz-1", businessID)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, "biz-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := VerifyToken("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, "biz-1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := VerifyToken(testSecret, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	if _, err := VerifyToken(testSecret, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
