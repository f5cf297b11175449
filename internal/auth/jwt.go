// Package auth issues and checks the session tokens of the local workspace, hashes
// registry passwords and talks to GitHub for the optional OAuth sign-in.
//
// SESSION FLOW:
//  1. POST /api/auth/login (or the GitHub callback) identifies a registry account
//  2. The server signs a JWT whose subject is the account's username
//  3. The token goes back in an HttpOnly "token" cookie (and in the JSON body for
//     non-browser clients, which send it as "Authorization: Bearer <jwt>")
//  4. RequireAuth validates it on every mutating route and puts the username in
//     the request context
//
// The token is self-contained: HS256 over {sub, iss, iat, exp}. No session table.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in every session token.
const Issuer = "codesave"

// DefaultSessionTTL is used when the configuration does not set one.
const DefaultSessionTTL = 24 * time.Hour

// minSecretLength guards against toy secrets slipping into a real config.
const minSecretLength = 16

// Token errors. Callers only need to tell "expired" from "anything else".
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService signs and validates session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A non-positive ttl means DefaultSessionTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is how long a freshly issued token stays valid. The session cookie uses
// the same lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a session token for username with the configured lifetime.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, s.ttl)
}

// GenerateWithDuration signs a session token that expires after d.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	if username == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}
	now := s.now()

	c := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the username it was issued for.
//
// The parser pins HS256 (no "none", no RSA/HMAC confusion), requires an
// expiry and requires our issuer.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid || c.Subject == "" {
		return "", ErrTokenInvalid
	}
	return c.Subject, nil
}
