// Package middleware provides HTTP middleware for the admin API: auth,
// request IDs, and rate limiting.
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// WithPrincipal stores the caller identity in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the caller identity from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// Auth returns middleware that accepts either an HS256 bearer token signed
// with jwtSecret or the static API key, in that order. With neither secret
// configured the middleware is a pass-through (development mode; config
// loading warns about it).
func Auth(jwtSecret []byte, apiKey string) func(http.Handler) http.Handler {
	apiKeyHash := sha256.Sum256([]byte(apiKey))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(jwtSecret) == 0 && apiKey == "" {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), "anonymous")))
				return
			}

			if auth := r.Header.Get("Authorization"); len(jwtSecret) > 0 && strings.HasPrefix(auth, "Bearer ") {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
					return jwtSecret, nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, ok := claims["sub"].(string); ok && sub != "" {
							next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), sub)))
							return
						}
					}
				}
			}

			if key := r.Header.Get("X-API-Key"); apiKey != "" && key != "" {
				keyHash := sha256.Sum256([]byte(key))
				if subtle.ConstantTimeCompare(keyHash[:], apiKeyHash[:]) == 1 {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), "api-key")))
					return
				}
			}

			writeUnauthorized(w)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": "missing or invalid credentials",
	})
}
