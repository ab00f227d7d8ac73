package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/log"
)

type ContextKey int

const (
	// SenderContextKey is the key used to store the verified sender
	// address in the request context.
	SenderContextKey ContextKey = iota
)

// NewWalletMiddleware verifies the wallet token on mutating requests
// and stores the sender address in the request context.
func NewWalletMiddleware(verifier *auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Error("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			sender, err := verifier.VerifyToken(bearerToken)
			if err != nil {
				log.Error("failed to verify wallet token: %v", err)
				http.Error(w, "failed to verify wallet token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SenderContextKey, sender)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Sender returns the verified sender address from the request context.
func Sender(r *http.Request) (string, bool) {
	sender, ok := r.Context().Value(SenderContextKey).(string)
	return sender, ok
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
