package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeSession  = "session"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// minSecretLength matches what auth.NewTokenService accepts.
const minSecretLength = 16

// Config is the server and CLI configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Auth   AuthConfig   `yaml:"auth"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.IdleTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ShutdownTimeout, validation.Required),
	)
}

// SQLiteConfig holds the database location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds session and sign-in configuration.
//
// Mode controls whether mutating routes need a session:
//   - "disabled" (default): everything is open, suitable for a purely local vault.
//     Login still works, with a per-process secret.
//   - "session": mutating routes require a session cookie or Bearer token;
//     JWTSecret must be set.
//
// GitHub sign-in is offered when GitHub.ClientID is set.
type AuthConfig struct {
	Mode          string        `yaml:"mode"`
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
	GitHub        GitHubConfig  `yaml:"github"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeSession)),
		validation.Field(&c.JWTSecret,
			validation.When(c.Mode == AuthModeSession, validation.Required),
			validation.When(c.JWTSecret != "", validation.Length(minSecretLength, 0)),
		),
		validation.Field(&c.SessionTTL, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github: %w", err)
	}
	return nil
}

// Enabled reports whether sessions are enforced.
func (c *AuthConfig) Enabled() bool {
	return c.Mode == AuthModeSession
}

// GitHubConfig holds the GitHub OAuth app credentials.
type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// Enabled reports whether GitHub sign-in is configured.
func (c *GitHubConfig) Enabled() bool {
	return c.ClientID != ""
}

// Validate requires the secret and callback once a client id is set.
func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ClientSecret, validation.When(c.Enabled(), validation.Required)),
		validation.Field(&c.CallbackURL, validation.When(c.Enabled(), validation.Required)),
	)
}

// NewDefaultConfig returns a Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port:            8080,
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: 30 * time.Second,
			},
		},
		SQLite: SQLiteConfig{
			Path: "data/codesave.db",
		},
		Auth: AuthConfig{
			Mode:       AuthModeDisabled,
			SessionTTL: 24 * time.Hour,
		},
	}
}

// NewLogger builds the slog logger described by the app section.
func (c *AppConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
