// sqlite.go -- database/sql + go-sqlite3 backend.
//
// Same contract as PostgresStore. WAL + busy_timeout keep concurrent handlers
// from tripping over each other; foreign keys are enabled per connection via DSN.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStore wraps a database/sql handle opened with the sqlite3 driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path and verifies it.
// Does not run migrations; call Migrate after opening.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Driver returns DriverSQLite.
func (s *SQLiteStore) Driver() string { return DriverSQLite }

// Close releases the database handle.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// CheckHealth pings the database.
func (s *SQLiteStore) CheckHealth(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, rolling back on any error.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// sqliteErr maps sql.ErrNoRows to ErrNotFound.
func sqliteErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	return errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// rowsAffectedOrNotFound turns a zero-row write into ErrNotFound.
func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

// GetUserByID fetches a user by primary key. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, image_url FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &u, nil
}

// GetUserByEmail fetches a user by unique email. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, image_url FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &u, nil
}

// CreateUser inserts a user and returns its id.
// Returns ErrDuplicateEmail when another row already holds the email.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, image_url) VALUES (?, ?, ?)",
		u.Name, u.Email, u.ImageURL)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return res.LastInsertId()
}

// UpdateUserProfile refreshes display fields after a later login.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id int64, name, imageURL string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, image_url = ? WHERE id = ?", name, imageURL, id)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// --- Categories ---

// CreateCategory inserts a category and returns its id.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("inserting category: %w", err)
	}
	return res.LastInsertId()
}

// GetCategory fetches a category by id. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &c, nil
}

// GetCategoryByName fetches a category by its unique name. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM categories WHERE name = ?", name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &c, nil
}

// ListCategories returns all categories ordered by id.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Books ---

const sqliteBookColumns = "book_id, title, author, description, image, category_id, user_id, created_at"

// CreateBook inserts a book and returns its id.
func (s *SQLiteStore) CreateBook(ctx context.Context, b *Book) (int64, error) {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (title, author, description, image, category_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Author, b.Description, b.Image, b.CategoryID, b.UserID, createdAt)
	if err != nil {
		return 0, fmt.Errorf("inserting book: %w", err)
	}
	return res.LastInsertId()
}

// GetBook fetches a book by id. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.db.QueryRowContext(ctx,
		"SELECT "+sqliteBookColumns+" FROM books WHERE book_id = ?", id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Image, &b.CategoryID, &b.UserID, &b.CreatedAt)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &b, nil
}

// ListBooks returns every book ordered by id.
func (s *SQLiteStore) ListBooks(ctx context.Context) ([]Book, error) {
	return s.queryBooks(ctx, "SELECT "+sqliteBookColumns+" FROM books ORDER BY book_id")
}

// ListRecentBooks returns up to limit books, newest first.
func (s *SQLiteStore) ListRecentBooks(ctx context.Context, limit int) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+sqliteBookColumns+" FROM books ORDER BY created_at DESC, book_id DESC LIMIT ?", limit)
}

// ListBooksByCategory returns books in a category ordered by id.
func (s *SQLiteStore) ListBooksByCategory(ctx context.Context, categoryID int64) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+sqliteBookColumns+" FROM books WHERE category_id = ? ORDER BY book_id", categoryID)
}

// ListBooksByUser returns books owned by a user ordered by id.
func (s *SQLiteStore) ListBooksByUser(ctx context.Context, userID int64) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+sqliteBookColumns+" FROM books WHERE user_id = ? ORDER BY book_id", userID)
}

// UpdateBook rewrites the mutable columns of b, scoped to b.UserID.
// Returns ErrNotFound if the book does not exist or belongs to someone else.
func (s *SQLiteStore) UpdateBook(ctx context.Context, b *Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = ?, author = ?, description = ?, image = ?, category_id = ?
		WHERE book_id = ? AND user_id = ?`,
		b.Title, b.Author, b.Description, b.Image, b.CategoryID, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteBook removes a book owned by ownerID.
// Returns ErrNotFound if nothing matched.
func (s *SQLiteStore) DeleteBook(ctx context.Context, id, ownerID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM books WHERE book_id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// queryBooks runs a multi-row book query and scans every row.
func (s *SQLiteStore) queryBooks(ctx context.Context, query string, args ...any) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Image, &b.CategoryID, &b.UserID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
