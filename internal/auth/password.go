package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for new registrations.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer input is rejected rather than
// silently truncated.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and checks registry passwords.
//
// The registry can hold two kinds of "password" values:
//   - a bcrypt hash ($2a$/$2b$/$2y$...), written by Register
//   - plain text, carried over from registries written by older clients
//
// Matches accepts both so an imported registry keeps working.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests in other packages: cost 4 (bcrypt.MinCost)
// keeps each hash in the millisecond range.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a bcrypt hash. A wrong password yields
// ErrPasswordMismatch; any other error means the hash itself is unusable.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Matches reports whether plaintext is the password for a stored registry value,
// which is either a bcrypt hash or a legacy plain-text password.
func (p *PasswordService) Matches(stored, plaintext string) bool {
	if IsHash(stored) {
		return p.Verify(stored, plaintext) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) == 1
}

// IsHash reports whether stored looks like a bcrypt hash.
func IsHash(stored string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}
