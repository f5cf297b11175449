package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "token"

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const usernameKey contextKey = "username"

// unauthorizedBody matches the handler package's error envelope.
const unauthorizedBody = `{"error":"unauthorized","message":"valid authentication required"}`

// RequireAuth rejects requests without a valid session with 401 and otherwise
// puts the username in the request context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := usernameFromRequest(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(unauthorizedBody))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// OptionalAuth records the username when a valid session is present and lets
// every request through.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := usernameFromRequest(r, tokens); err == nil {
				r = r.WithContext(WithUsername(r.Context(), username))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns the signed-in username, or ("", false) for an
// anonymous request.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// usernameFromRequest reads the token from the session cookie, falling back to an
// "Authorization: Bearer" header for CLI and script clients.
func usernameFromRequest(r *http.Request, tokens *TokenService) (string, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			return tokens.Validate(token)
		}
	}
	return "", errors.New("auth: no session token")
}
