// google.go -- Google OAuth2 + OIDC provider implementation.
package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// googleIssuer is the OIDC discovery root for Google accounts.
const googleIssuer = "https://accounts.google.com"

// googleRevokeURL is used when the discovery document omits revocation_endpoint.
const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// GoogleScopes asks for basic profile and email only.
var GoogleScopes = []string{oidc.ScopeOpenID, "email", "profile"}

var _ Provider = (*GoogleProvider)(nil)

// GoogleProvider implements Provider using Google's OIDC discovery + OAuth2 code flow.
type GoogleProvider struct {
	config    *oauth2.Config
	provider  *oidc.Provider
	revokeURL string
}

// NewGoogleProvider creates a GoogleProvider by fetching Google's OIDC discovery document.
// Makes an outbound HTTP request to accounts.google.com at startup; returns an error if unreachable.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	return newGoogleProvider(ctx, googleIssuer, clientID, clientSecret, redirectURL)
}

// newGoogleProvider discovers endpoints from issuer.
func newGoogleProvider(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}

	var extra struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := p.Claims(&extra); err != nil {
		return nil, fmt.Errorf("reading google discovery claims: %w", err)
	}
	revokeURL := extra.RevocationEndpoint
	if revokeURL == "" {
		revokeURL = googleRevokeURL
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       GoogleScopes,
		},
		provider:  p,
		revokeURL: revokeURL,
	}, nil
}

// Name returns "google".
func (p *GoogleProvider) Name() string { return "google" }

// AuthCodeURL builds the Google consent page URL with state and PKCE S256 challenge embedded.
func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for an access token, proving possession of verifier.
func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return token, nil
}

// UserInfo calls the discovered userinfo endpoint with the access token.
func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*Claims, error) {
	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	var c struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := info.Claims(&c); err != nil {
		return nil, fmt.Errorf("extracting userinfo claims: %w", err)
	}

	return &Claims{
		Sub:           info.Subject,
		Name:          c.Name,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Picture:       c.Picture,
	}, nil
}

// Revoke posts the token to the revocation endpoint. Any non-200 response is an error.
func (p *GoogleProvider) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := oauth2.NewClient(ctx, nil).Do(req)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoking token: provider returned %d", resp.StatusCode)
	}
	return nil
}
