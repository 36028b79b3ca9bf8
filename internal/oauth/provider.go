// provider.go -- OAuth provider interface and shared types.
package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// Claims holds the identity returned by the provider's userinfo endpoint.
// Picture is a provider-hosted URL; empty string means not provided.
type Claims struct {
	Sub           string // provider-specific stable user ID (e.g. Google "sub")
	Name          string
	Email         string
	EmailVerified bool
	Picture       string
}

// Provider is an OAuth2 identity provider.
// The caller owns the anti-forgery state and the PKCE verifier: it generates both,
// passes them to AuthCodeURL, verifies the callback's state, and hands the same
// verifier to Exchange.
type Provider interface {
	// Name returns the provider identifier used in logs.
	Name() string

	// AuthCodeURL returns the consent page URL with state and the S256 challenge
	// for verifier embedded.
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for a token.
	// The verifier must be the one passed to AuthCodeURL.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)

	// UserInfo resolves an access token to identity claims.
	UserInfo(ctx context.Context, accessToken string) (*Claims, error)

	// Revoke asks the provider to invalidate the token.
	Revoke(ctx context.Context, accessToken string) error
}
