package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const (
	ActorKey    contextKey = "actor"
	OverrideKey contextKey = "can_override"
)

// APIKeyAuth validates the API key from the Authorization header and maps it
// to an actor. overrideActors lists actors holding the gate-override
// capability.
func APIKeyAuth(validKeys map[string]string, overrideActors []string) func(http.Handler) http.Handler {
	canOverride := make(map[string]bool, len(overrideActors))
	for _, a := range overrideActors {
		canOverride[a] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health/liveness probes
			if r.URL.Path == "/health" || r.URL.Path == "/livez" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// constant-time comparison to prevent timing attacks
			var actor string
			valid := false
			for a, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					valid = true
					actor = a
					break
				}
			}
			if !valid {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			ctx = context.WithValue(ctx, OverrideKey, canOverride[actor])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorFromContext extracts the authenticated actor from context
func GetActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}

// GetOverrideFromContext reports whether the actor holds the gate override capability
func GetOverrideFromContext(ctx context.Context) bool {
	if v, ok := ctx.Value(OverrideKey).(bool); ok {
		return v
	}
	return false
}
