package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/auth"
	"github.com/sakif/codesave/internal/model"
	"github.com/sakif/codesave/internal/validate"
)

// Messages shown on the sign-in form.
const (
	MsgAccountExists      = "Username or email already exists"
	MsgInvalidCredentials = "Invalid username or password"
)

// AccountStore is the persistence the account and settings flows need.
type AccountStore interface {
	LoadAccounts(ctx context.Context) []model.Account
	SaveAccounts(ctx context.Context, accounts []model.Account)
	LoadUser(ctx context.Context) model.UserProfile
	SaveUser(ctx context.Context, user model.UserProfile)
	LoadPreferences(ctx context.Context) model.Preferences
	SavePreferences(ctx context.Context, prefs model.Preferences)
}

// AccountService handles the local account registry, the signed-in profile
// and the preference bag.
//
// DEPENDENCIES:
//   - store      AccountStore           → registry, profile and preferences documents
//   - tokens     *auth.TokenService     → session JWTs
//   - passwords  *auth.PasswordService  → bcrypt for new registrations
//   - logger     *slog.Logger
//
// Unlike PasteService it keeps no in-memory copy: every call reads the store,
// so an import or a clear-all is picked up without a reload.
type AccountService struct {
	store     AccountStore
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex // serialises read-modify-write of the registry and profile
}

// NewAccountService wires an AccountService.
func NewAccountService(
	store AccountStore,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// Session is a signed-in profile plus its session token.
type Session struct {
	User  model.UserProfile
	Token string
}

// =========================================================================
// REGISTER / LOGIN
// =========================================================================

// Register adds an account to the registry. It does not sign the user in.
//
// The username and the email must both be unused; either clash yields a
// conflict with the same message so the form does not reveal which one exists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.UserProfile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" {
		return model.UserProfile{}, apperror.ValidationFailed("username", "Username is required")
	}
	if r := validate.Email(in.Email); !r.IsValid {
		return model.UserProfile{}, apperror.ValidationFailed("email", r.Error)
	}
	if r := validate.Password(in.Password); !r.IsValid {
		return model.UserProfile{}, apperror.ValidationFailed("password", r.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.store.LoadAccounts(ctx)
	if slices.ContainsFunc(accounts, func(a model.Account) bool {
		return a.Username == in.Username || a.Email == in.Email
	}) {
		return model.UserProfile{}, apperror.ConflictMessage(MsgAccountExists)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return model.UserProfile{}, apperror.ValidationFailed("password", err.Error())
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Username
	}
	account := model.Account{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Name:     name,
		JoinDate: model.NewTimestamp(s.now()),
	}
	s.store.SaveAccounts(ctx, append(accounts, account))

	s.logger.Info("account registered", slog.String("username", account.Username))
	return account.Profile(s.now()), nil
}

// Login checks the credentials against the registry. On success the account's
// profile becomes the stored profile and a session token is issued.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "Please enter username and password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.store.LoadAccounts(ctx)
	i := slices.IndexFunc(accounts, func(a model.Account) bool { return a.Username == username })
	if i < 0 || !s.passwords.Matches(accounts[i].Password, password) {
		s.logger.Warn("failed login", slog.String("username", username))
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	return s.signIn(ctx, accounts[i])
}

// LoginGitHub signs in with a GitHub identity. The GitHub login is the registry
// username; the first sign-in creates the account (without a password, so it
// can only be used through GitHub).
func (s *AccountService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*Session, error) {
	if gh == nil || gh.Login == "" {
		return nil, fmt.Errorf("service/account: GitHub user must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.store.LoadAccounts(ctx)
	i := slices.IndexFunc(accounts, func(a model.Account) bool { return a.Username == gh.Login })
	if i < 0 {
		account := model.Account{
			Username: gh.Login,
			Email:    gh.Email,
			Name:     gh.Name,
			JoinDate: model.NewTimestamp(s.now()),
			Bio:      gh.Bio,
			Location: gh.Location,
			Website:  gh.Blog,
		}
		accounts = append(accounts, account)
		i = len(accounts) - 1
		s.store.SaveAccounts(ctx, accounts)
		s.logger.Info("account created from GitHub", slog.String("username", gh.Login))
	}

	session, err := s.signIn(ctx, accounts[i])
	if err != nil {
		return nil, err
	}
	if gh.AvatarURL != "" {
		session.User.Avatar = model.StringPtr(gh.AvatarURL)
		s.store.SaveUser(ctx, session.User)
	}
	return session, nil
}

// signIn stores the account's profile and issues a token. Must be called with
// s.mu held.
func (s *AccountService) signIn(ctx context.Context, a model.Account) (*Session, error) {
	profile := a.Profile(s.now())
	token, err := s.tokens.Generate(profile.Username)
	if err != nil {
		return nil, fmt.Errorf("service/account: issuing session for %s: %w", a.Username, err)
	}
	s.store.SaveUser(ctx, profile)

	s.logger.Info("user signed in", slog.String("username", profile.Username))
	return &Session{User: profile, Token: token}, nil
}

// =========================================================================
// PROFILE
// =========================================================================

// ProfileUpdate lists the editable profile fields. A nil field is left alone.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Avatar   *string
	Bio      *string
	Location *string
	Website  *string
}

// Profile returns the stored profile (the default user until someone signs in).
func (s *AccountService) Profile(ctx context.Context) model.UserProfile {
	return s.store.LoadUser(ctx)
}

// UpdateProfile applies upd to the stored profile. The username cannot be
// changed here. Edits are mirrored into the registry entry of the same name so
// the next sign-in restores them.
func (s *AccountService) UpdateProfile(ctx context.Context, upd ProfileUpdate) (model.UserProfile, error) {
	if upd.Email != nil {
		if r := validate.Email(strings.TrimSpace(*upd.Email)); !r.IsValid {
			return model.UserProfile{}, apperror.ValidationFailed("email", r.Error)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.store.LoadUser(ctx)
	setTrimmed(&p.Name, upd.Name)
	setTrimmed(&p.Email, upd.Email)
	setTrimmed(&p.Bio, upd.Bio)
	setTrimmed(&p.Location, upd.Location)
	setTrimmed(&p.Website, upd.Website)
	if upd.Avatar != nil {
		p.Avatar = model.StringPtr(strings.TrimSpace(*upd.Avatar))
	}
	s.store.SaveUser(ctx, p)

	if p.Username != "" {
		accounts := s.store.LoadAccounts(ctx)
		if i := slices.IndexFunc(accounts, func(a model.Account) bool { return a.Username == p.Username }); i >= 0 {
			accounts[i].Name = p.Name
			accounts[i].Email = p.Email
			accounts[i].Bio = p.Bio
			accounts[i].Location = p.Location
			accounts[i].Website = p.Website
			s.store.SaveAccounts(ctx, accounts)
		}
	}

	s.logger.Info("profile updated", slog.String("username", p.Username))
	return p, nil
}

// =========================================================================
// PREFERENCES
// =========================================================================

// Preferences returns the merged preference bag.
func (s *AccountService) Preferences(ctx context.Context) model.Preferences {
	return s.store.LoadPreferences(ctx)
}

// UpdatePreferences patches the preference bag key by key: keys in patch
// overwrite, every other key keeps its value.
func (s *AccountService) UpdatePreferences(ctx context.Context, patch map[string]any) model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.store.LoadPreferences(ctx)
	for k, v := range patch {
		prefs[k] = v
	}
	s.store.SavePreferences(ctx, prefs)
	return prefs
}

// ResetPreferences restores the built-in defaults.
func (s *AccountService) ResetPreferences(ctx context.Context) model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := model.DefaultPreferences()
	s.store.SavePreferences(ctx, prefs)
	return prefs
}

// ValidateSession returns the username a token was issued for.
func (s *AccountService) ValidateSession(token string) (string, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("service/account: %w", err)
	}
	return username, nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
