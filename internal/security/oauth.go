package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ErrEmailNotVerified is returned when the provider marks the email as unverified
var ErrEmailNotVerified = errors.New("email address is not verified by the identity provider")

// OAuthConfig configures the external identity provider
type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether enough of the provider is configured to run the flow
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.AuthURL != "" && c.TokenURL != "" && c.UserInfoURL != ""
}

// ExternalIdentity is the profile returned by the identity provider
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// OAuthProvider runs the authorization-code flow against an external identity provider
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewOAuthProvider creates a new OAuth2 provider
func NewOAuthProvider(cfg OAuthConfig, httpClient *http.Client) (*OAuthProvider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client_id is required")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, errors.New("auth_url and token_url are required")
	}
	if cfg.UserInfoURL == "" {
		return nil, errors.New("userinfo_url is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	name := cfg.Provider
	if name == "" {
		name = "oauth"
	}

	return &OAuthProvider{
		name: name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
	}, nil
}

// Name returns the provider name
func (p *OAuthProvider) Name() string {
	return p.name
}

// NewState returns a random value binding the login redirect to its callback
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthCodeURL returns the provider's consent page URL
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's identity
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	client := p.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user info request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Sub   string `json:"sub"`
		ID    any    `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`

		// absent on providers that only return verified addresses
		EmailVerified *bool `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	identity := &ExternalIdentity{
		Subject: info.Sub,
		Email:   strings.TrimSpace(info.Email),
		Name:    strings.TrimSpace(info.Name),
	}
	if identity.Subject == "" && info.ID != nil {
		identity.Subject = fmt.Sprint(info.ID)
	}
	if identity.Name == "" {
		identity.Name = info.Login
	}
	if identity.Email == "" {
		return nil, errors.New("missing email in user info response")
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if identity.Name == "" {
		identity.Name = identity.Email
	}

	return identity, nil
}
