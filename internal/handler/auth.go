package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/auth"
	"github.com/sakif/codesave/internal/model"
	"github.com/sakif/codesave/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler manages registration, password login, the GitHub OAuth flow
// and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → add an account to the local registry
//   - HandleLogin          → check credentials, issue the session cookie
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, map the GitHub user onto the registry
//   - HandleLogout         → clear the session cookie
//   - HandleMe             → return the signed-in user's profile
//
// DEPENDENCY CHAIN:
//   - accounts *service.AccountService → registry, profile, token issuing
//   - github   *auth.GitHubProvider    → OAuth code exchange (nil when GitHub is not configured)
//   - tokens   *auth.TokenService      → session lifetime for the cookie
type AuthHandler struct {
	accounts      *service.AccountService
	github        *auth.GitHubProvider
	tokens        *auth.TokenService
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(
	accounts *service.AccountService,
	github *auth.GitHubProvider,
	tokens *auth.TokenService,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		github:        github,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned by a successful login. The token is also set as
// an HttpOnly cookie; API clients can send it as a Bearer token instead.
type SessionResponse struct {
	User  model.UserProfile `json:"user"`
	Token string            `json:"token"`
}

// HandleRegister creates an account. It does not sign the user in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "...", "name": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	profile, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"username": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, SessionResponse{User: session.User, Token: session.Token})
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /api/auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived cookie and into the redirect.
// HandleGitHubCallback only accepts a callback carrying the same value.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Map the GitHub user onto the account registry and sign in
//  4. Set the session cookie and redirect to the app
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeBadRequest(w, "invalid OAuth state")
		return
	}
	if r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeBadRequest(w, "invalid OAuth state")
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeBadRequest(w, "missing OAuth code")
		return
	}
	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// --- Step 3: Sign in ---
	session, err := h.accounts.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.String("login", ghUser.Login),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	// --- Step 4: Session cookie and redirect ---
	h.setSessionCookie(w, session.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Sessions are stateless JWTs, so "logout" just deletes the cookie. The token
// stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleMe returns the profile of the user the session was issued for.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth puts the username in the context)
//
// The workspace stores one signed-in profile. A token issued to someone else
// (who has since been replaced by another sign-in) is rejected.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	profile := h.accounts.Profile(r.Context())
	if profile.Username != username {
		writeError(w, apperror.Unauthorized("session is no longer signed in"))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
