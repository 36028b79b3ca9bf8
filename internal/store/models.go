// models.go -- Shared domain types for the store package.
// Used by the relational backends (Postgres, SQLite) and the Redis session backend.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by id/email matches no row,
// or when an owner-scoped update/delete matches nothing.
// Callers use errors.Is to distinguish a miss from an infrastructure failure.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by CreateUser when the users.email UNIQUE constraint fires.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrSessionNotFound is returned by session backends when the id has no live record.
var ErrSessionNotFound = errors.New("session not found")

// User represents a row in the users table.
// ImageURL is the provider avatar; empty means not provided.
type User struct {
	ID       int64
	Name     string
	Email    string
	ImageURL string
}

// Category represents a row in the categories table.
type Category struct {
	ID   int64
	Name string
}

// Book represents a row in the books table.
// UserID is the owner, fixed at creation.
type Book struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Image       string
	CategoryID  int64
	UserID      int64
	CreatedAt   time.Time
}

// SessionData is the JSON shape stored by session backends.
// Only identity display fields and the provider access token -- never passwords.
type SessionData struct {
	OAuthState   string `json:"oauth_state,omitempty"`
	PKCEVerifier string `json:"pkce_verifier,omitempty"`
	Token        string `json:"token,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Picture      string `json:"picture,omitempty"`
	CSRFToken    string `json:"csrf_token,omitempty"`
	Flash        string `json:"flash,omitempty"`
}
