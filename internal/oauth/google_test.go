package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/oauth2"
)

// fakeIssuer serves a discovery document plus token, userinfo and revoke endpoints.
type fakeIssuer struct {
	*httptest.Server
	withRevoke bool
	revokeCode int

	mu        sync.Mutex
	codes     []string
	verifiers []string
	revoked   []string
}

func newFakeIssuer(t *testing.T, withRevoke bool) *fakeIssuer {
	t.Helper()
	f := &fakeIssuer{withRevoke: withRevoke, revokeCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]any{
			"issuer":                 f.URL,
			"authorization_endpoint": f.URL + "/auth",
			"token_endpoint":         f.URL + "/token",
			"userinfo_endpoint":      f.URL + "/userinfo",
			"jwks_uri":               f.URL + "/jwks",
		}
		if f.withRevoke {
			doc["revocation_endpoint"] = f.URL + "/revoke"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.codes = append(f.codes, r.PostForm.Get("code"))
		f.verifiers = append(f.verifiers, r.PostForm.Get("code_verifier"))
		f.mu.Unlock()
		if r.PostForm.Get("code") == "bad" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"1234","email":"ada@example.com","email_verified":true,"name":"Ada","picture":"https://img/ada.png"}`))
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.revoked = append(f.revoked, r.PostForm.Get("token"))
		code := f.revokeCode
		f.mu.Unlock()
		w.WriteHeader(code)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestProvider(t *testing.T, f *fakeIssuer) *GoogleProvider {
	t.Helper()
	p, err := newGoogleProvider(context.Background(), f.URL, "client-id", "client-secret", "http://localhost:8000/oauth2callback")
	if err != nil {
		t.Fatalf("newGoogleProvider: %v", err)
	}
	return p
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := newTestProvider(t, newFakeIssuer(t, true))

	verifier := oauth2.GenerateVerifier()
	u, err := url.Parse(p.AuthCodeURL("state-xyz", verifier))
	if err != nil {
		t.Fatalf("parsing auth url: %v", err)
	}
	q := u.Query()
	if u.Path != "/auth" {
		t.Errorf("path: expected /auth, got %q", u.Path)
	}
	for key, want := range map[string]string{
		"state":                 "state-xyz",
		"client_id":             "client-id",
		"redirect_uri":          "http://localhost:8000/oauth2callback",
		"response_type":         "code",
		"scope":                 "openid email profile",
		"code_challenge":        oauth2.S256ChallengeFromVerifier(verifier),
		"code_challenge_method": "S256",
	} {
		if got := q.Get(key); got != want {
			t.Errorf("%s: expected %q, got %q", key, want, got)
		}
	}
}

func TestGoogleProvider_ExchangeAndUserInfo(t *testing.T) {
	f := newFakeIssuer(t, true)
	p := newTestProvider(t, f)

	tok, err := p.Exchange(context.Background(), "good-code", "verifier-abc")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.AccessToken != "at-123" {
		t.Errorf("access token: expected at-123, got %q", tok.AccessToken)
	}
	if len(f.codes) != 1 || f.codes[0] != "good-code" {
		t.Errorf("token endpoint codes: unexpected %v", f.codes)
	}
	if len(f.verifiers) != 1 || f.verifiers[0] != "verifier-abc" {
		t.Errorf("token endpoint code_verifier: unexpected %v", f.verifiers)
	}

	c, err := p.UserInfo(context.Background(), tok.AccessToken)
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	want := Claims{Sub: "1234", Name: "Ada", Email: "ada@example.com", EmailVerified: true, Picture: "https://img/ada.png"}
	if *c != want {
		t.Errorf("claims: expected %+v, got %+v", want, *c)
	}
}

func TestGoogleProvider_ExchangeRejected(t *testing.T) {
	p := newTestProvider(t, newFakeIssuer(t, true))
	if _, err := p.Exchange(context.Background(), "bad", "verifier-abc"); err == nil {
		t.Error("expected error for rejected code, got nil")
	}
}

func TestGoogleProvider_UserInfoRejected(t *testing.T) {
	p := newTestProvider(t, newFakeIssuer(t, true))
	if _, err := p.UserInfo(context.Background(), "stale-token"); err == nil {
		t.Error("expected error for rejected token, got nil")
	}
}

func TestGoogleProvider_Revoke(t *testing.T) {
	f := newFakeIssuer(t, true)
	p := newTestProvider(t, f)

	if err := p.Revoke(context.Background(), "at-123"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if len(f.revoked) != 1 || f.revoked[0] != "at-123" {
		t.Errorf("revoked tokens: unexpected %v", f.revoked)
	}

	f.mu.Lock()
	f.revokeCode = http.StatusBadRequest
	f.mu.Unlock()
	if err := p.Revoke(context.Background(), "at-123"); err == nil {
		t.Error("expected error on non-200 revoke response, got nil")
	}
}

func TestGoogleProvider_RevokeEndpointFallback(t *testing.T) {
	p := newTestProvider(t, newFakeIssuer(t, false))
	if p.revokeURL != googleRevokeURL {
		t.Errorf("revokeURL: expected %q, got %q", googleRevokeURL, p.revokeURL)
	}
	if p.Name() != "google" {
		t.Errorf("Name: expected google, got %q", p.Name())
	}
}

func TestNewGoogleProvider_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := newGoogleProvider(context.Background(), srv.URL, "id", "secret", "http://x"); err == nil {
		t.Error("expected discovery error, got nil")
	}
}
