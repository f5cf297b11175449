package auth

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// gitHubUserURL is the "get the authenticated user" endpoint.
const gitHubUserURL = "https://api.github.com/user"

// GitHubUser is the part of GitHub's /user response the registry needs.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty when hidden in the user's GitHub settings
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	Blog      string `json:"blog"`
}

// GitHubProvider runs the OAuth 2.0 authorization-code flow against GitHub.
// The code is exchanged server-side, so the GitHub access token never reaches
// the browser.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewGitHubProvider configures the flow. callbackURL must equal the callback
// registered with the GitHub OAuth app.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL: gitHubUserURL,
	}
}

// AuthURL is where the browser is sent to approve the sign-in. state is echoed
// back on the callback and must match the value kept in the state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the GitHub user it belongs to.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if user.ID == 0 || user.Login == "" {
		return nil, fmt.Errorf("auth: GitHub returned an incomplete user")
	}
	return &user, nil
}
