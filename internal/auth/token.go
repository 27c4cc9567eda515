package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the identity attributed to lifecycle transitions and history records.
// It is supplied by the identity gateway in front of this service; the core never
// decides authorization itself.
type Actor struct {
	ID   string
	Name string
	Role string
}

type ActorClaims struct {
	jwt.RegisteredClaims

	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// VerifyActorToken verifies an actor session token (JWT, HS256) signed by the
// identity gateway with the shared session secret. The subject claim carries the
// actor id.
func VerifyActorToken(tokenString string, secret string, audience string, now time.Time) (*Actor, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &ActorClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Time validation
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}

	if audience != "" {
		if !audContains([]string(claims.RegisteredClaims.Audience), audience) {
			return nil, fmt.Errorf("audience mismatch")
		}
	}

	id := strings.TrimSpace(claims.Subject)
	if id == "" {
		return nil, fmt.Errorf("missing subject in token")
	}

	return &Actor{
		ID:   id,
		Name: claims.Name,
		Role: claims.Role,
	}, nil
}

func audContains(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
