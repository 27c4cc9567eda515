package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyActorToken_SubjectAndAudience(t *testing.T) {
	audience := "fieldpay"
	secret := "test_secret"

	now := time.Unix(1700000000, 0)

	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-42",
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
		Name: "Jane Field",
		Role: "supervisor",
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := VerifyActorToken(s, secret, audience, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != "usr-42" {
		t.Fatalf("actor id mismatch: %q", got.ID)
	}
	if got.Role != "supervisor" {
		t.Fatalf("actor role mismatch: %q", got.Role)
	}
}

func TestVerifyActorToken_Expired(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-42",
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := VerifyActorToken(s, secret, "", now); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
