// stores.go
//
// Shared mock implementations of catalog.Store and catalog.Provider.
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MGallo-Code/bookshelf/internal/oauth"
	"github.com/MGallo-Code/bookshelf/internal/store"
	"golang.org/x/oauth2"
)

// MockStore implements catalog.Store for tests.
//
// Always stateful...Users, Categories and Books are maps, like a real store, and
// follow the real contract: ErrNotFound on misses, ErrDuplicateEmail on a taken
// email, owner-scoped UpdateBook/DeleteBook.
// Use *Err fields to inject errors for specific operations.
type MockStore struct {
	// Error injection...zero value means no error
	CheckHealthErr    error
	GetUserByEmailErr error
	CreateUserErr     error
	UpdateProfileErr  error
	GetCategoryErr    error
	ListErr           error // every List* method
	CreateBookErr     error
	GetBookErr        error
	UpdateBookErr     error
	DeleteBookErr     error

	Users      map[int64]*store.User
	Categories map[int64]*store.Category
	Books      map[int64]*store.Book

	// CreateUserCalls counts CreateUser attempts, including rejected duplicates.
	CreateUserCalls int

	nextID int64
	mu     sync.Mutex
}

// NewMockStore returns an empty MockStore ready for use.
func NewMockStore() *MockStore {
	return &MockStore{
		Users:      make(map[int64]*store.User),
		Categories: make(map[int64]*store.Category),
		Books:      make(map[int64]*store.Book),
	}
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// AddUser seeds a user and returns its id.
func (m *MockStore) AddUser(name, email string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.Users[id] = &store.User{ID: id, Name: name, Email: email}
	return id
}

// AddCategory seeds a category and returns its id.
func (m *MockStore) AddCategory(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.Categories[id] = &store.Category{ID: id, Name: name}
	return id
}

// AddBook seeds a book owned by userID and returns its id.
func (m *MockStore) AddBook(title string, categoryID, userID int64) int64 {
	id, _ := m.CreateBook(context.Background(), &store.Book{
		Title:       title,
		Author:      "Author of " + title,
		Description: "About " + title,
		Image:       "cover.jpg",
		CategoryID:  categoryID,
		UserID:      userID,
	})
	return id
}

// Book returns a copy of the stored book, or nil.
func (m *MockStore) Book(id int64) *store.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Books[id]
	if !ok {
		return nil
	}
	c := *b
	return &c
}

func (m *MockStore) CheckHealth(context.Context) error { return m.CheckHealthErr }

func (m *MockStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *MockStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	if m.GetUserByEmailErr != nil {
		return nil, m.GetUserByEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) CreateUser(_ context.Context, u *store.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateUserCalls++
	if m.CreateUserErr != nil {
		return 0, m.CreateUserErr
	}
	for _, existing := range m.Users {
		if existing.Email == u.Email {
			return 0, store.ErrDuplicateEmail
		}
	}
	id := m.id()
	c := *u
	c.ID = id
	m.Users[id] = &c
	return id, nil
}

func (m *MockStore) UpdateUserProfile(_ context.Context, id int64, name, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateProfileErr != nil {
		return m.UpdateProfileErr
	}
	u, ok := m.Users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Name, u.ImageURL = name, imageURL
	return nil
}

func (m *MockStore) GetCategory(_ context.Context, id int64) (*store.Category, error) {
	if m.GetCategoryErr != nil {
		return nil, m.GetCategoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (m *MockStore) ListCategories(context.Context) ([]store.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) CreateBook(_ context.Context, b *store.Book) (int64, error) {
	if m.CreateBookErr != nil {
		return 0, m.CreateBookErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[b.CategoryID]; !ok {
		return 0, errors.New("foreign key: category")
	}
	if _, ok := m.Users[b.UserID]; !ok {
		return 0, errors.New("foreign key: user")
	}
	id := m.id()
	c := *b
	c.ID = id
	if c.CreatedAt.IsZero() {
		// Monotonic per insert so "recent" ordering is deterministic.
		c.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Second)
	}
	m.Books[id] = &c
	return id, nil
}

func (m *MockStore) GetBook(_ context.Context, id int64) (*store.Book, error) {
	if m.GetBookErr != nil {
		return nil, m.GetBookErr
	}
	if b := m.Book(id); b != nil {
		return b, nil
	}
	return nil, store.ErrNotFound
}

// books returns copies of the books matching keep, ordered by id.
func (m *MockStore) books(keep func(*store.Book) bool) ([]store.Book, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Book
	for _, b := range m.Books {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) ListBooks(context.Context) ([]store.Book, error) {
	return m.books(func(*store.Book) bool { return true })
}

func (m *MockStore) ListRecentBooks(_ context.Context, limit int) ([]store.Book, error) {
	all, err := m.books(func(*store.Book) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockStore) ListBooksByCategory(_ context.Context, categoryID int64) ([]store.Book, error) {
	return m.books(func(b *store.Book) bool { return b.CategoryID == categoryID })
}

func (m *MockStore) ListBooksByUser(_ context.Context, userID int64) ([]store.Book, error) {
	return m.books(func(b *store.Book) bool { return b.UserID == userID })
}

func (m *MockStore) UpdateBook(_ context.Context, b *store.Book) error {
	if m.UpdateBookErr != nil {
		return m.UpdateBookErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.Books[b.ID]
	if !ok || cur.UserID != b.UserID {
		return store.ErrNotFound
	}
	cur.Title, cur.Author, cur.Description = b.Title, b.Author, b.Description
	cur.Image, cur.CategoryID = b.Image, b.CategoryID
	return nil
}

func (m *MockStore) DeleteBook(_ context.Context, id, ownerID int64) error {
	if m.DeleteBookErr != nil {
		return m.DeleteBookErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.Books[id]
	if !ok || cur.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(m.Books, id)
	return nil
}

// MockProvider implements catalog.Provider for tests.
// AuthCodeURL returns AuthURL with the state and S256 challenge appended; Exchange yields AccessToken;
// UserInfo yields Claims. Calls are recorded.
type MockProvider struct {
	// Error injection...zero value means no error
	ExchangeErr error
	UserInfoErr error
	RevokeErr   error

	AuthURL     string
	AccessToken string
	Claims      *oauth.Claims

	mu            sync.Mutex
	Codes         []string // codes passed to Exchange
	Verifiers     []string // PKCE verifiers passed to Exchange
	UserInfoCalls int
	Revoked       []string // tokens passed to Revoke
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) AuthCodeURL(state, verifier string) string {
	base := p.AuthURL
	if base == "" {
		base = "https://idp.example.com/auth"
	}
	return base + "?state=" + state + "&code_challenge=" + oauth2.S256ChallengeFromVerifier(verifier)
}

func (p *MockProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.mu.Lock()
	p.Codes = append(p.Codes, code)
	p.Verifiers = append(p.Verifiers, verifier)
	p.mu.Unlock()
	if p.ExchangeErr != nil {
		return nil, p.ExchangeErr
	}
	return &oauth2.Token{AccessToken: p.AccessToken, TokenType: "Bearer"}, nil
}

func (p *MockProvider) UserInfo(_ context.Context, accessToken string) (*oauth.Claims, error) {
	p.mu.Lock()
	p.UserInfoCalls++
	p.mu.Unlock()
	if p.UserInfoErr != nil {
		return nil, p.UserInfoErr
	}
	if p.Claims == nil {
		return nil, errors.New("no claims configured")
	}
	c := *p.Claims
	return &c, nil
}

func (p *MockProvider) Revoke(_ context.Context, accessToken string) error {
	p.mu.Lock()
	p.Revoked = append(p.Revoked, accessToken)
	p.mu.Unlock()
	return p.RevokeErr
}
