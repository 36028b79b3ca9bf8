// handler.go -- Handler struct and the interfaces it consumes.
package catalog

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MGallo-Code/bookshelf/internal/oauth"
	"github.com/MGallo-Code/bookshelf/internal/session"
	"github.com/MGallo-Code/bookshelf/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// Store defines database operations needed by catalog handlers.
// Satisfied by *store.PostgresStore and *store.SQLiteStore -- defined here (at consumer) per Go convention.
type Store interface {
	UserStore

	// CheckHealth pings the database.
	CheckHealth(ctx context.Context) error

	// GetUserByID returns store.ErrNotFound for unknown ids.
	GetUserByID(ctx context.Context, id int64) (*store.User, error)

	// GetCategory returns store.ErrNotFound for unknown ids.
	GetCategory(ctx context.Context, id int64) (*store.Category, error)
	ListCategories(ctx context.Context) ([]store.Category, error)

	// CreateBook inserts b and returns its id.
	CreateBook(ctx context.Context, b *store.Book) (int64, error)

	// GetBook returns store.ErrNotFound for unknown ids.
	GetBook(ctx context.Context, id int64) (*store.Book, error)
	ListBooks(ctx context.Context) ([]store.Book, error)
	ListRecentBooks(ctx context.Context, limit int) ([]store.Book, error)
	ListBooksByCategory(ctx context.Context, categoryID int64) ([]store.Book, error)
	ListBooksByUser(ctx context.Context, userID int64) ([]store.Book, error)

	// UpdateBook and DeleteBook only touch rows owned by the given user;
	// store.ErrNotFound when nothing matched.
	UpdateBook(ctx context.Context, b *store.Book) error
	DeleteBook(ctx context.Context, id, ownerID int64) error
}

// Sessions loads and persists the per-browser session.
// Satisfied by *session.Manager.
type Sessions interface {
	Load(r *http.Request) (*session.Session, error)
	Save(ctx context.Context, w http.ResponseWriter, s *session.Session) error
	Renew(ctx context.Context, w http.ResponseWriter, s *session.Session) error
	Clear(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// Provider is the identity provider surface used by the login flow.
// Satisfied by *oauth.GoogleProvider.
type Provider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*oauth.Claims, error)
	Revoke(ctx context.Context, accessToken string) error
}

// HealthChecker is any dependency that can report liveness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// recentBooksLimit is how many newest books the library page shows.
const recentBooksLimit = 6

// notOwnerFlash is shown after a rejected edit or delete.
const notOwnerFlash = "You were successfully logged in BUT you are not allowed to edit or delete the books of others! Add your own book here."

// Handler holds dependencies for every page, JSON and login handler.
type Handler struct {
	DB       Store
	SM       Sessions
	IdP      Provider
	Users    *Resolver
	Pages    *Pages
	SessHC   HealthChecker // session backend health
	DefImage string        // image used when a book form leaves it empty
	ImageDir string        // backs /images/{name}; empty serves only the generated default
}

// NewHandler wires a Handler; the resolver shares db.
func NewHandler(db Store, sm Sessions, idp Provider, pages *Pages, sessHC HealthChecker, defaultImage string) *Handler {
	return &Handler{
		DB:       db,
		SM:       sm,
		IdP:      idp,
		Users:    NewResolver(db),
		Pages:    pages,
		SessHC:   sessHC,
		DefImage: defaultImage,
	}
}

// saveSession persists s; failures are logged and reported so callers can 500.
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, s *session.Session) bool {
	if err := h.SM.Save(r.Context(), w, s); err != nil {
		h.internalError(w, r, err)
		return false
	}
	return true
}

// randomToken returns 32 bytes from crypto/rand, base64url without padding.
func randomToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating token with rand: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// idParam parses a positive integer route parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
