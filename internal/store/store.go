// Package store handles all database and session-backend interactions.
//
// store.go -- backend selection.
// Postgres is the production store; SQLite serves local development and tests.
// Both satisfy Store and share the same error contract (ErrNotFound, ErrDuplicateEmail).
package store

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// Driver names returned by Store.Driver and accepted by migrations.FS.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Store is the full relational surface used by main and catalogctl.
// Handlers declare their own narrower interfaces.
type Store interface {
	Driver() string
	Migrate(ctx context.Context, migrationsFS fs.FS) error
	CheckHealth(ctx context.Context) error
	Close()

	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) (int64, error)
	UpdateUserProfile(ctx context.Context, id int64, name, imageURL string) error

	CreateCategory(ctx context.Context, name string) (int64, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateBook(ctx context.Context, b *Book) (int64, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	ListRecentBooks(ctx context.Context, limit int) ([]Book, error)
	ListBooksByCategory(ctx context.Context, categoryID int64) ([]Book, error)
	ListBooksByUser(ctx context.Context, userID int64) ([]Book, error)
	UpdateBook(ctx context.Context, b *Book) error
	DeleteBook(ctx context.Context, id, ownerID int64) error
}

// Open picks a backend from the URL scheme and returns a connected store.
// postgres:// and postgresql:// use pgxpool; sqlite://<path> and file:<path> use go-sqlite3.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "file:"))
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", databaseURL)
	}
}
