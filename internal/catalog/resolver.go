// resolver.go -- maps provider identity claims to a local user row.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MGallo-Code/bookshelf/internal/oauth"
	"github.com/MGallo-Code/bookshelf/internal/store"
)

// UserStore is the user-table surface the resolver needs.
type UserStore interface {
	// GetUserByEmail returns store.ErrNotFound when no row holds email.
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)

	// CreateUser returns store.ErrDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, u *store.User) (int64, error)

	// UpdateUserProfile refreshes name and picture.
	UpdateUserProfile(ctx context.Context, id int64, name, imageURL string) error
}

// Resolver finds or creates the User for a verified email.
// Claims whose email the provider has not verified are refused.
type Resolver struct {
	users UserStore
}

// NewResolver returns a Resolver over users.
func NewResolver(users UserStore) *Resolver {
	return &Resolver{users: users}
}

// normalizeEmail trims and lower-cases so lookups and the UNIQUE index agree.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail returns the user holding email, or store.ErrNotFound.
func (res *Resolver) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	return res.users.GetUserByEmail(ctx, normalizeEmail(email))
}

// Resolve returns the user for c.Email, creating it on first login.
// Two concurrent first logins for one email converge on a single row: the loser of
// the insert race gets ErrDuplicateEmail and re-reads the winner's row.
// An existing user's name and picture are refreshed when the provider reports new values.
// log receives the request-scoped lines; nil means slog.Default().
func (res *Resolver) Resolve(ctx context.Context, log *slog.Logger, c *oauth.Claims) (*store.User, error) {
	if log == nil {
		log = slog.Default()
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no claims", ErrProvider)
	}
	email := normalizeEmail(c.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: claims carry no email", ErrProvider)
	}
	if !c.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", ErrProvider)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = email
	}

	u, err := res.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		res.refreshProfile(ctx, log, u, name, c.Picture)
		return u, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	nu := &store.User{Name: name, Email: email, ImageURL: c.Picture}
	id, err := res.users.CreateUser(ctx, nu)
	if err == nil {
		nu.ID = id
		log.Info("user created", "user_id", id)
		return nu, nil
	}
	if !errors.Is(err, store.ErrDuplicateEmail) {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	u, err = res.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("re-reading user after duplicate insert: %w", err)
	}
	return u, nil
}

// refreshProfile updates u in place and in the store; failure is non-fatal.
func (res *Resolver) refreshProfile(ctx context.Context, log *slog.Logger, u *store.User, name, picture string) {
	if u.Name == name && (picture == "" || u.ImageURL == picture) {
		return
	}
	if picture == "" {
		picture = u.ImageURL
	}
	if err := res.users.UpdateUserProfile(ctx, u.ID, name, picture); err != nil {
		log.Warn("failed to refresh user profile", "user_id", u.ID, "error", err)
		return
	}
	u.Name, u.ImageURL = name, picture
}
