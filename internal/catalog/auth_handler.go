// auth_handler.go -- OAuth2 redirect, callback, revoke and clear handlers.
// Provider-specific logic lives in internal/oauth; identity is bound to the
// session later, by LoadVisitor, on the first request after the callback.
package catalog

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/MGallo-Code/bookshelf/internal/session"
	"golang.org/x/oauth2"
)

// Authorize handles GET /authorize -- generates the anti-forgery state and a PKCE
// verifier, stores both in the session, and redirects the browser to the provider's
// consent page with the S256 challenge.
// Already signed-in visitors go straight back to /library.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	if s.Authenticated() {
		http.Redirect(w, r, "/library", http.StatusFound)
		return
	}

	state, err := randomToken()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	verifier := oauth2.GenerateVerifier()
	s.Data.OAuthState = state
	s.Data.PKCEVerifier = verifier
	if !h.saveSession(w, r, s) {
		return
	}
	http.Redirect(w, r, h.IdP.AuthCodeURL(state, verifier), http.StatusFound)
}

// OAuthCallback handles GET /oauth2callback -- verifies state, exchanges the code with
// the stored PKCE verifier, stores the access token under a renewed session id and
// redirects to /library.
// A state mismatch leaves every identity field of the session untouched.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		logWarn(r, "oauth callback: provider returned error", "oauth_error", e, "provider", h.IdP.Name())
		h.errorPage(w, r, http.StatusUnauthorized, "Sign-in was cancelled or refused.")
		return
	}

	if err := verifyState(s, q.Get("state")); err != nil {
		logWarn(r, "oauth callback: state mismatch")
		h.errorPage(w, r, http.StatusUnauthorized, "Sign-in could not be verified. Please try again.")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.errorPage(w, r, http.StatusBadRequest, "Sign-in response was missing its code.")
		return
	}

	token, err := h.IdP.Exchange(r.Context(), code, s.Data.PKCEVerifier)
	if err != nil {
		logWarn(r, "oauth callback: exchange failed", "error", fmt.Errorf("%w: %w", ErrProvider, err), "provider", h.IdP.Name())
		h.errorPage(w, r, http.StatusBadGateway, "The sign-in provider is unavailable. Please try again later.")
		return
	}

	// State and verifier are single-use.
	s.Data.OAuthState = ""
	s.Data.PKCEVerifier = ""
	s.Data.Token = token.AccessToken
	if err := h.SM.Renew(r.Context(), w, s); err != nil {
		h.internalError(w, r, err)
		return
	}
	logInfo(r, "oauth callback: token stored", "provider", h.IdP.Name())
	http.Redirect(w, r, "/library", http.StatusFound)
}

// verifyState returns ErrAuthStateMismatch unless got equals the stored state.
// An empty stored state never matches.
func verifyState(s *session.Session, got string) error {
	want := s.Data.OAuthState
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrAuthStateMismatch
	}
	return nil
}

// Revoke handles GET /revoke -- revokes the provider token, then clears the session.
// Revocation failure is logged and never blocks the logout.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	if s.Data.Token == "" {
		http.Redirect(w, r, "/authorize", http.StatusFound)
		return
	}

	if err := h.IdP.Revoke(r.Context(), s.Data.Token); err != nil {
		logWarn(r, "token revoke failed", "error", fmt.Errorf("%w: %w", ErrProvider, err), "provider", h.IdP.Name())
	}
	h.clearSession(w, r, s)
	http.Redirect(w, r, "/library", http.StatusFound)
}

// Clear handles GET /clear -- drops all session state.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r, SessionFromContext(r.Context()))
	http.Redirect(w, r, "/library", http.StatusFound)
}

// clearSession wipes s; the cookie is expired and local data zeroed even if the
// backend delete fails.
func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request, s *session.Session) {
	uid := s.Data.UserID
	if err := h.SM.Clear(r.Context(), w, s); err != nil {
		logWarn(r, "failed to delete session record", "error", err)
	}
	logInfo(r, "session cleared", "cleared_user_id", uid)
}
