// Package session ties a browser cookie to server-side session data.
//
// The cookie carries only a random id plus an HMAC-SHA256 signature over it.
// Data lives in a Backend (Redis or process memory). The signing key is derived
// from random bytes drawn at process start, so restarting the process
// invalidates every outstanding cookie.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MGallo-Code/bookshelf/internal/store"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the session cookie name.
const CookieName = "bookshelf_session"

// hkdfInfo labels the derived cookie-signing key.
const hkdfInfo = "bookshelf session cookie v1"

// Backend stores session data by id.
// Satisfied by *store.RedisSessionStore and *MemoryBackend.
type Backend interface {
	// LoadSession returns store.ErrSessionNotFound when id has no live record.
	LoadSession(ctx context.Context, id string) (*store.SessionData, error)

	// SaveSession writes data under id, replacing the previous value, expiring after ttl.
	SaveSession(ctx context.Context, id string, data *store.SessionData, ttl time.Duration) error

	// DeleteSession removes id. Missing ids are not an error.
	DeleteSession(ctx context.Context, id string) error
}

// Session is the request-scoped handle on one browser session.
// Data is read and mutated directly; nothing persists until Manager.Save.
type Session struct {
	ID   string
	Data store.SessionData

	// isNew is true when no backend record existed at load time.
	isNew bool
}

// IsNew reports whether the session was created for this request.
func (s *Session) IsNew() bool { return s.isNew }

// Authenticated reports whether a local user id has been bound to the session.
func (s *Session) Authenticated() bool { return s.Data.UserID != 0 }

// Options configures cookie attributes and record lifetime.
type Options struct {
	TTL    time.Duration
	Secure bool
}

// Manager issues, verifies and persists sessions.
type Manager struct {
	backend Backend
	key     []byte
	opts    Options
}

// NewManager derives the cookie signing key from secret with HKDF-SHA256.
// secret should be at least 32 random bytes; see NewSecret.
func NewManager(backend Backend, secret []byte, opts Options) (*Manager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret too short: %d bytes", len(secret))
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return &Manager{backend: backend, key: key, opts: opts}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.opts.TTL }

// Load returns the session named by the request cookie, or a fresh unsaved one when
// the cookie is absent, badly signed, or points at no live record.
// Only backend infrastructure failures return an error.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, ok := m.verify(c.Value); ok {
			data, err := m.backend.LoadSession(r.Context(), id)
			switch {
			case err == nil:
				return &Session{ID: id, Data: *data}, nil
			case !errors.Is(err, store.ErrSessionNotFound):
				return nil, fmt.Errorf("loading session: %w", err)
			}
		}
	}
	return m.newSession()
}

// Save persists s and (re)issues the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	data := s.Data
	if err := m.backend.SaveSession(ctx, s.ID, &data, m.opts.TTL); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.isNew = false
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.opts.TTL.Seconds()),
	})
	return nil
}

// Renew moves s to a fresh id and saves it, deleting the previous record first.
// Called when a session gains credentials, so a cookie issued before login never
// becomes an authenticated one.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.isNew {
		if err := m.backend.DeleteSession(ctx, s.ID); err != nil {
			return fmt.Errorf("renewing session: %w", err)
		}
	}
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("generating session id: %w", err)
	}
	s.ID = id.String()
	return m.Save(ctx, w, s)
}

// Clear deletes the backend record, expires the cookie and zeroes every field of s,
// so the same request and any later one see an anonymous session.
// Local state is cleared even when the backend delete fails; the error is still returned.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, s *Session) error {
	err := m.backend.DeleteSession(ctx, s.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	s.Data = store.SessionData{}
	s.isNew = true
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// newSession allocates a session with a fresh random id.
func (m *Manager) newSession() (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	return &Session{ID: id.String(), isNew: true}, nil
}

// sign returns "<id>.<base64url(mac)>".
func (m *Manager) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(m.mac(id))
}

// verify checks the cookie signature and returns the embedded id.
func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, m.mac(id)) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write([]byte(id))
	return h.Sum(nil)
}
