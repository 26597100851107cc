package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"storyweek/internal/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens *auth.Tokens
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *auth.Tokens) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireParent requires a valid bearer token with the parent role
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return m.require(next, auth.RoleParent)
}

// RequireAuth requires a valid bearer token with either role. Child-device
// tokens reach only the child workbook surfaces routed through it.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.require(next, auth.RoleParent, auth.RoleChild)
}

func (m *Middleware) require(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token", "", nil)
			return
		}

		claims, err := m.tokens.Validate(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token", "", nil)
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			respondWithError(w, http.StatusForbidden, "Insufficient permissions", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// ClaimsFromContext retrieves the token claims from the request context
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
