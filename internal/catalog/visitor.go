// visitor.go

// Session loading middleware and the request-scoped Visitor.
package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/MGallo-Code/bookshelf/internal/session"
)

// contextKey is unexported to prevent collisions with other packages using the same context.
type contextKey string

const sessionKey contextKey = "session"

// Visitor is the read-only identity view of the current session.
// The zero value and nil are both anonymous.
type Visitor struct {
	UserID   int64
	Username string
	Email    string
	Picture  string
}

// Authenticated reports whether a local user is bound to the visitor.
func (v *Visitor) Authenticated() bool {
	return v != nil && v.UserID != 0
}

// SessionFromContext returns the session LoadVisitor attached, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// VisitorFromContext returns the visitor for the request session.
// Returns an anonymous visitor if LoadVisitor hasn't run.
func VisitorFromContext(ctx context.Context) *Visitor {
	s := SessionFromContext(ctx)
	if s == nil || !s.Authenticated() {
		return &Visitor{}
	}
	return &Visitor{
		UserID:   s.Data.UserID,
		Username: s.Data.Username,
		Email:    s.Data.Email,
		Picture:  s.Data.Picture,
	}
}

// LoadVisitor loads the session and injects it into context.
// A session holding a provider token but no user yet is bootstrapped here: userinfo is
// fetched, the user is resolved, and identity fields plus a fresh CSRF token are saved.
// Provider or resolver failures leave the request anonymous; only a session backend
// failure ends the request with 500.
func (h *Handler) LoadVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.SM.Load(r)
		if err != nil {
			h.internalError(w, r, err)
			return
		}

		if s.Data.Token != "" && !s.Authenticated() {
			h.bootstrapIdentity(w, r, s)
		}

		ctx := context.WithValue(r.Context(), sessionKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bootstrapIdentity binds the local user for the session's access token.
func (h *Handler) bootstrapIdentity(w http.ResponseWriter, r *http.Request, s *session.Session) {
	claims, err := h.IdP.UserInfo(r.Context(), s.Data.Token)
	if err != nil {
		logWarn(r, "identity bootstrap: userinfo failed", "error", err, "provider", h.IdP.Name())
		return
	}

	user, err := h.Users.Resolve(r.Context(), reqLogger(r), claims)
	if errors.Is(err, ErrProvider) {
		logWarn(r, "identity bootstrap: claims refused", "error", err, "provider", h.IdP.Name())
		return
	}
	if err != nil {
		logError(r, "identity bootstrap: resolve user failed", "error", err)
		return
	}

	csrf, err := randomToken()
	if err != nil {
		logError(r, "identity bootstrap: csrf token", "error", err)
		return
	}

	s.Data.UserID = user.ID
	s.Data.Username = user.Name
	s.Data.Email = user.Email
	s.Data.Picture = user.ImageURL
	s.Data.CSRFToken = csrf

	// Identity is usable for this request even if persisting fails.
	if err := h.SM.Save(r.Context(), w, s); err != nil {
		logError(r, "identity bootstrap: saving session failed", "error", err)
		return
	}
	logInfo(r, "user logged in", "user_id", user.ID, "provider", h.IdP.Name())
}
