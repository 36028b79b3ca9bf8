// postgres.go -- pgxpool connection setup and queries.
// Creates a connection pool at startup, shared across all handlers.
// All queries use parameterized statements (no string concatenation).
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for UNIQUE constraint failures.
const pgUniqueViolation = "23505"

// PostgresStore is the store used by program to connect with Postgres db.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates and returns a verified connection pool
// to PostgreSQL wrapped in a store.
// Call once at startup from main.go...the returned store is safe for concurrent use.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	// Create a pool w/ database url, return if err
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	// Ping db to make sure connection works
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresStore{pool}, nil
}

// Driver returns DriverPostgres.
func (s *PostgresStore) Driver() string { return DriverPostgres }

// Close shuts down the connection pool and releases all resources.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CheckHealth pings the pool.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// pgErr maps pgx.ErrNoRows to ErrNotFound, passes everything else through.
func pgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- Users ---

// GetUserByID fetches a user by primary key. Returns ErrNotFound if absent.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, email, image_url FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL)
	if err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

// GetUserByEmail fetches a user by unique email. Returns ErrNotFound if absent.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, email, image_url FROM users WHERE email = $1", email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL)
	if err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

// CreateUser inserts a user and returns its id.
// Returns ErrDuplicateEmail when another row already holds the email.
func (s *PostgresStore) CreateUser(ctx context.Context, u *User) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO users (name, email, image_url) VALUES ($1, $2, $3) RETURNING id",
		u.Name, u.Email, u.ImageURL,
	).Scan(&id)
	if err != nil {
		var pgE *pgconn.PgError
		if errors.As(err, &pgE) && pgE.Code == pgUniqueViolation {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// UpdateUserProfile refreshes display fields after a later login.
func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id int64, name, imageURL string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET name = $2, image_url = $3 WHERE id = $1", id, name, imageURL)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Categories ---

// CreateCategory inserts a category and returns its id.
func (s *PostgresStore) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO categories (name) VALUES ($1) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting category: %w", err)
	}
	return id, nil
}

// GetCategory fetches a category by id. Returns ErrNotFound if absent.
func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx,
		"SELECT id, name FROM categories WHERE id = $1", id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, pgErr(err)
	}
	return &c, nil
}

// GetCategoryByName fetches a category by its unique name. Returns ErrNotFound if absent.
func (s *PostgresStore) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx,
		"SELECT id, name FROM categories WHERE name = $1", name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, pgErr(err)
	}
	return &c, nil
}

// ListCategories returns all categories ordered by id.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM categories ORDER BY id")
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

const pgBookColumns = "book_id, title, author, description, image, category_id, user_id, created_at"

// CreateBook inserts a book and returns its id.
// Owner and category must exist -- FK violations surface as raw errors.
func (s *PostgresStore) CreateBook(ctx context.Context, b *Book) (int64, error) {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO books (title, author, description, image, category_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING book_id`,
		b.Title, b.Author, b.Description, b.Image, b.CategoryID, b.UserID, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting book: %w", err)
	}
	return id, nil
}

// GetBook fetches a book by id. Returns ErrNotFound if absent.
func (s *PostgresStore) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.pool.QueryRow(ctx,
		"SELECT "+pgBookColumns+" FROM books WHERE book_id = $1", id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Image, &b.CategoryID, &b.UserID, &b.CreatedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	return &b, nil
}

// ListBooks returns every book ordered by id.
func (s *PostgresStore) ListBooks(ctx context.Context) ([]Book, error) {
	return s.queryBooks(ctx, "SELECT "+pgBookColumns+" FROM books ORDER BY book_id")
}

// ListRecentBooks returns up to limit books, newest first.
func (s *PostgresStore) ListRecentBooks(ctx context.Context, limit int) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+pgBookColumns+" FROM books ORDER BY created_at DESC, book_id DESC LIMIT $1", limit)
}

// ListBooksByCategory returns books in a category ordered by id.
func (s *PostgresStore) ListBooksByCategory(ctx context.Context, categoryID int64) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+pgBookColumns+" FROM books WHERE category_id = $1 ORDER BY book_id", categoryID)
}

// ListBooksByUser returns books owned by a user ordered by id.
func (s *PostgresStore) ListBooksByUser(ctx context.Context, userID int64) ([]Book, error) {
	return s.queryBooks(ctx,
		"SELECT "+pgBookColumns+" FROM books WHERE user_id = $1 ORDER BY book_id", userID)
}

// UpdateBook rewrites the mutable columns of b, scoped to b.UserID.
// Returns ErrNotFound if the book does not exist or belongs to someone else.
func (s *PostgresStore) UpdateBook(ctx context.Context, b *Book) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE books SET title = $3, author = $4, description = $5, image = $6, category_id = $7
		WHERE book_id = $1 AND user_id = $2`,
		b.ID, b.UserID, b.Title, b.Author, b.Description, b.Image, b.CategoryID)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBook removes a book owned by ownerID.
// Returns ErrNotFound if nothing matched.
func (s *PostgresStore) DeleteBook(ctx context.Context, id, ownerID int64) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM books WHERE book_id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// queryBooks runs a multi-row book query and scans every row.
func (s *PostgresStore) queryBooks(ctx context.Context, sql string, args ...any) ([]Book, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
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
