// ABOUTME: HTTP middleware that authenticates requests with a JWT
// ABOUTME: Tokens come from the Authorization header or, for websocket upgrades, the Auth query parameter

package auth

import (
	"errors"
	"net/http"
	"strings"
)

// QueryParam is the query parameter browsers use to pass a token on upgrade.
const QueryParam = "Auth"

// extractToken returns the request's token and an error message (empty if found).
func extractToken(r *http.Request) (string, string) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", "invalid authorization header format"
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			return "", "empty token"
		}
		return token, ""
	}

	if token := r.URL.Query().Get(QueryParam); token != "" {
		return token, ""
	}
	return "", "missing credentials"
}

// Middleware rejects requests without a valid token and stores the caller in
// the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractToken(r)
			if errMsg != "" {
				writeError(w, errMsg, http.StatusUnauthorized)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrExpiredToken) {
					msg = "token expired"
				}
				writeError(w, msg, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &User{ID: subject})))
		})
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
