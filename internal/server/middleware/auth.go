// Package middleware provides HTTP middleware for actor authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// actorKey is the context key for storing the authenticated actor.
const actorKey ContextKey = "actor"

// TokenValidator is an interface for validating bearer tokens into actors.
// This allows the middleware to work with any token service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (engine.Actor, error)
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the
// authenticated actor to the request context. Token issuance happens outside
// this service; only validation lives here.
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor, err := tokens.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor extracts the authenticated actor from the request context.
func GetActor(r *http.Request) (engine.Actor, error) {
	actor, ok := r.Context().Value(actorKey).(engine.Actor)
	if !ok {
		return engine.Actor{}, fmt.Errorf("actor not found in request context")
	}
	return actor, nil
}

// WithActor returns a context carrying the given actor (for testing purposes).
func WithActor(ctx context.Context, actor engine.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
