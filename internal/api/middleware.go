package api

import (
	"net/http"
	"strings"
	"time"

	"fieldpay/internal/auth"
	"fieldpay/pkg/config"
)

// ActorAuth attaches the verified actor identity to the request context.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, it can fall back to X-Actor-ID to keep
// local testing simple.
func ActorAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				actor, err := auth.VerifyActorToken(token, cfg.Auth.SessionSecret, cfg.Auth.Audience, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
				return
			}

			if cfg.AppEnv != "prod" {
				actorID := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
				if actorID != "" {
					a := &auth.Actor{ID: actorID, Name: r.Header.Get("X-Actor-Name")}
					next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		})
	}
}
