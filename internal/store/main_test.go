package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MGallo-Code/bookshelf/migrations"
)

// --- Helpers ---

// newSQLiteTestStore opens a fresh, migrated SQLite database in a temp dir.
// Closed automatically at test end.
func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(s.Close)

	mfs, err := migrations.FS(DriverSQLite)
	if err != nil {
		t.Fatalf("migrations.FS: %v", err)
	}
	if err := s.Migrate(ctx, mfs); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

// newPostgresTestStore connects to TEST_DATABASE_URL, migrates, and truncates catalog tables.
// Skips when the variable is unset (no compose stack running).
func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres tests")
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(s.Close)

	mfs, err := migrations.FS(DriverPostgres)
	if err != nil {
		t.Fatalf("migrations.FS: %v", err)
	}
	if err := s.Migrate(ctx, mfs); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE books, categories, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
	return s
}

// mustCreateUser inserts a user with the given email, fails the test on error.
func mustCreateUser(t *testing.T, s Store, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), &User{Name: "Test " + email, Email: email})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", email, err)
	}
	return id
}

// mustCreateCategory inserts a category, fails the test on error.
func mustCreateCategory(t *testing.T, s Store, name string) int64 {
	t.Helper()
	id, err := s.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return id
}

// mustCreateBook inserts a book owned by userID in categoryID.
func mustCreateBook(t *testing.T, s Store, title string, categoryID, userID int64) int64 {
	t.Helper()
	id, err := s.CreateBook(context.Background(), &Book{
		Title:       title,
		Author:      "Author of " + title,
		Description: "About " + title,
		Image:       "default_book.jpg",
		CategoryID:  categoryID,
		UserID:      userID,
	})
	if err != nil {
		t.Fatalf("CreateBook(%q): %v", title, err)
	}
	return id
}
