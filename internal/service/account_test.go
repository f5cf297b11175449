package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/auth"
	"github.com/sakif/codesave/internal/model"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestAccountService(t *testing.T, store *fakeStore) (*AccountService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc := NewAccountService(store, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), quietLogger())
	svc.now = func() time.Time { return testNow }
	return svc, tokens
}

func register(t *testing.T, svc *AccountService, username, email, password string) {
	t.Helper()
	if _, err := svc.Register(context.Background(), RegisterInput{
		Username: username, Email: email, Password: password,
	}); err != nil {
		t.Fatalf("setup: Register() error = %v", err)
	}
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Username: " ada ",
		Email:    "ada@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if profile.Username != "ada" || profile.Name != "ada" {
		t.Errorf("profile = %+v, want username and name ada", profile)
	}
	if len(store.accounts) != 1 {
		t.Fatalf("registry has %d accounts, want 1", len(store.accounts))
	}
	stored := store.accounts[0]
	if !auth.IsHash(stored.Password) {
		t.Errorf("stored password %q is not a bcrypt hash", stored.Password)
	}
	if !stored.JoinDate.Equal(testNow) {
		t.Errorf("JoinDate = %v, want %v", stored.JoinDate, testNow)
	}
	if store.user != nil {
		t.Error("Register() signed the user in")
	}
}

func TestRegister_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username", "ada", "other@example.com"},
		{"same email", "grace", "ada@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAccountService(t, newFakeStore())
			register(t, svc, "ada", "ada@example.com", "secret1")

			_, err := svc.Register(context.Background(), RegisterInput{
				Username: tt.username, Email: tt.email, Password: "secret1",
			})
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("error = %v, want ErrConflict", err)
			}
			if err.Error() != MsgAccountExists {
				t.Errorf("message = %q, want %q", err.Error(), MsgAccountExists)
			}
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		in        RegisterInput
		wantField string
	}{
		{"no username", RegisterInput{Email: "a@b.co", Password: "secret1"}, "username"},
		{"bad email", RegisterInput{Username: "ada", Email: "ada@example", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Username: "ada", Email: "a@b.co", Password: "12345"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAccountService(t, newFakeStore())
			_, err := svc.Register(context.Background(), tt.in)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want a validation AppError", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	svc, tokens := newTestAccountService(t, store)
	register(t, svc, "ada", "ada@example.com", "secret1")

	session, err := svc.Login(context.Background(), "ada", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if session.User.Username != "ada" || session.User.Email != "ada@example.com" {
		t.Errorf("User = %+v", session.User)
	}
	if store.user == nil || store.user.Username != "ada" {
		t.Error("Login() did not store the signed-in profile")
	}
	got, err := tokens.Validate(session.Token)
	if err != nil || got != "ada" {
		t.Errorf("token subject = %q (err %v), want ada", got, err)
	}
}

func TestLogin_LegacyPlainTextEntry(t *testing.T) {
	store := newFakeStore()
	store.accounts = []model.Account{{Username: "old", Password: "hunter2"}}
	svc, _ := newTestAccountService(t, store)

	session, err := svc.Login(context.Background(), "old", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Missing registry fields fall back individually.
	if session.User.Name != "old" {
		t.Errorf("Name = %q, want username fallback", session.User.Name)
	}
	if session.User.Email != "user@example.com" {
		t.Errorf("Email = %q, want fallback", session.User.Email)
	}
	if !session.User.JoinDate.Equal(testNow) {
		t.Errorf("JoinDate = %v, want now", session.User.JoinDate)
	}
}

func TestLogin_Failures(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)
	register(t, svc, "ada", "ada@example.com", "secret1")

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"wrong password", "ada", "secret2", apperror.ErrUnauthorized},
		{"unknown user", "grace", "secret1", apperror.ErrUnauthorized},
		{"empty password", "ada", "", apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if store.user != nil {
		t.Error("a failed login stored a profile")
	}
}

func TestLoginGitHub(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)
	gh := &auth.GitHubUser{ID: 7, Login: "octo", Name: "Octo Cat", Email: "octo@example.com", AvatarURL: "https://avatars/7"}

	first, err := svc.LoginGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	if first.User.Name != "Octo Cat" || first.User.Avatar == nil || *first.User.Avatar != "https://avatars/7" {
		t.Errorf("User = %+v", first.User)
	}
	if len(store.accounts) != 1 || store.accounts[0].Password != "" {
		t.Errorf("registry = %+v, want one password-less account", store.accounts)
	}

	if _, err := svc.LoginGitHub(context.Background(), gh); err != nil {
		t.Fatalf("second LoginGitHub() error = %v", err)
	}
	if len(store.accounts) != 1 {
		t.Errorf("second sign-in duplicated the account: %d entries", len(store.accounts))
	}

	// A GitHub-only account has no password to log in with.
	if _, err := svc.Login(context.Background(), "octo", "anything"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("password login for GitHub account: error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// PROFILE / PREFERENCES TESTS
// =========================================================================

func TestProfile_DefaultUser(t *testing.T) {
	svc, _ := newTestAccountService(t, newFakeStore())

	p := svc.Profile(context.Background())
	if p.Name != model.DefaultUserName || p.Email != model.DefaultUserEmail {
		t.Errorf("Profile() = %+v, want the default user", p)
	}
}

func TestUpdateProfile(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)
	register(t, svc, "ada", "ada@example.com", "secret1")
	if _, err := svc.Login(context.Background(), "ada", "secret1"); err != nil {
		t.Fatal(err)
	}

	name, bio := "  Ada Lovelace ", "engines"
	p, err := svc.UpdateProfile(context.Background(), ProfileUpdate{Name: &name, Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if p.Name != "Ada Lovelace" || p.Bio != "engines" || p.Username != "ada" {
		t.Errorf("profile = %+v", p)
	}
	if p.Email != "ada@example.com" {
		t.Errorf("Email = %q, untouched field changed", p.Email)
	}
	if store.accounts[0].Name != "Ada Lovelace" {
		t.Error("registry entry was not updated")
	}

	bad := "not-an-email"
	if _, err := svc.UpdateProfile(context.Background(), ProfileUpdate{Email: &bad}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad email: error = %v, want ErrValidation", err)
	}
}

func TestUpdatePreferences_KeyWisePatch(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)

	got := svc.UpdatePreferences(context.Background(), map[string]any{"fontSize": "large"})
	if got["fontSize"] != "large" {
		t.Errorf("fontSize = %v", got["fontSize"])
	}
	if got["autoSave"] != true {
		t.Errorf("autoSave = %v, want the default to survive", got["autoSave"])
	}

	got = svc.UpdatePreferences(context.Background(), map[string]any{"darkMode": true})
	if got["fontSize"] != "large" || got["darkMode"] != true {
		t.Errorf("second patch lost the first: %v", got)
	}

	reset := svc.ResetPreferences(context.Background())
	if reset["fontSize"] != "medium" || reset["darkMode"] != false {
		t.Errorf("ResetPreferences() = %v", reset)
	}
}

func TestValidateSession(t *testing.T) {
	svc, tokens := newTestAccountService(t, newFakeStore())
	token, _ := tokens.Generate("ada")

	if got, err := svc.ValidateSession(token); err != nil || got != "ada" {
		t.Errorf("ValidateSession() = %q, %v", got, err)
	}
	if _, err := svc.ValidateSession("junk"); err == nil {
		t.Error("ValidateSession(junk) error = nil")
	}
}
