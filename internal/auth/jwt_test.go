package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

// newTestTokenService uses a fixed secret and a frozen clock.
func newTestTokenService(t *testing.T, now time.Time) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ts.now = func() time.Time { return now }
	return ts
}

var tokenNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
		wantTTL time.Duration
	}{
		{"short secret", "short", time.Hour, true, 0},
		{"exactly 16 chars", "this-is-16-chars", time.Hour, false, time.Hour},
		{"zero ttl uses default", testSecret, 0, false, DefaultSessionTTL},
		{"negative ttl uses default", testSecret, -time.Minute, false, DefaultSessionTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := NewTokenService(tt.secret, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ts.TTL() != tt.wantTTL {
				t.Errorf("TTL() = %v, want %v", ts.TTL(), tt.wantTTL)
			}
		})
	}
}

// =========================================================================
// GENERATE / VALIDATE
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t, tokenNow)

	token, err := ts.Generate("ada")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("token has %d dots, want 2 (header.payload.signature)", got)
	}
}

func TestGenerate_RejectsEmptySubject(t *testing.T) {
	ts := newTestTokenService(t, tokenNow)
	if _, err := ts.Generate(""); err == nil {
		t.Error("Generate(\"\") should fail")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, tokenNow)

	token, err := ts.Generate("ada")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "ada" {
		t.Errorf("Validate() = %q, want ada", got)
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t, tokenNow)
	token, _ := ts.Generate("ada")

	ts.now = func() time.Time { return tokenNow.Add(2 * time.Hour) }

	_, err := ts.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t, tokenNow)
	good, _ := ts.Generate("ada")

	other, err := NewTokenService("a-completely-different-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other.now = ts.now
	foreignSecret, _ := other.Generate("ada")

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ada",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(tokenNow.Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ada",
		Issuer:  Issuer,
	}).SignedString([]byte(testSecret))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "ada",
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(tokenNow.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"tampered signature", good[:len(good)-2] + "xx"},
		{"signed with another secret", foreignSecret},
		{"wrong issuer", wrongIssuer},
		{"no expiry", noExpiry},
		{"alg none", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Validate() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
