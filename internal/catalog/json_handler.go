// json_handler.go -- read-only JSON API mirroring the catalog pages.
package catalog

import (
	"errors"
	"net/http"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

// BookJSON is the wire shape of a book.
type BookJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id"`
	UserID      int64  `json:"user_id"`
	Image       string `json:"image"`
}

// CategoryJSON is a category with its books, as listed by /library.json.
type CategoryJSON struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Books []BookJSON `json:"books"`
}

// LibraryDump is the /library.json document.
type LibraryDump struct {
	Categories []CategoryJSON `json:"categories"`
}

// BookList is the {"Book": [...]} document.
type BookList struct {
	Book []BookJSON `json:"Book"`
}

// SingleBook is the {"Book": {...}} document.
type SingleBook struct {
	Book BookJSON `json:"Book"`
}

func toBookJSON(b store.Book) BookJSON {
	return BookJSON{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		CategoryID:  b.CategoryID,
		UserID:      b.UserID,
		Image:       b.Image,
	}
}

// toBookList never returns nil so empty lists encode as [].
func toBookList(books []store.Book) []BookJSON {
	out := make([]BookJSON, 0, len(books))
	for _, b := range books {
		out = append(out, toBookJSON(b))
	}
	return out
}

// LibraryJSON handles GET /library.json -- every category with its books.
func (h *Handler) LibraryJSON(w http.ResponseWriter, r *http.Request) {
	cats, err := h.DB.ListCategories(r.Context())
	if err != nil {
		jsonInternalError(w, r, err)
		return
	}
	books, err := h.DB.ListBooks(r.Context())
	if err != nil {
		jsonInternalError(w, r, err)
		return
	}

	byCat := make(map[int64][]store.Book, len(cats))
	for _, b := range books {
		byCat[b.CategoryID] = append(byCat[b.CategoryID], b)
	}
	dump := LibraryDump{Categories: make([]CategoryJSON, 0, len(cats))}
	for _, c := range cats {
		dump.Categories = append(dump.Categories, CategoryJSON{
			ID:    c.ID,
			Name:  c.Name,
			Books: toBookList(byCat[c.ID]),
		})
	}
	writeJSON(w, r, http.StatusOK, dump)
}

// CategoryBooksJSON handles GET /library/{id}/books.json.
func (h *Handler) CategoryBooksJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		jsonMessage(w, http.StatusNotFound, "not found")
		return
	}
	if _, err := h.DB.GetCategory(r.Context(), id); err != nil {
		jsonLookupFailed(w, r, err)
		return
	}
	books, err := h.DB.ListBooksByCategory(r.Context(), id)
	if err != nil {
		jsonInternalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, BookList{Book: toBookList(books)})
}

// UserBooksJSON handles GET /library/{id}/booksOfUser.json.
func (h *Handler) UserBooksJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		jsonMessage(w, http.StatusNotFound, "not found")
		return
	}
	if _, err := h.DB.GetUserByID(r.Context(), id); err != nil {
		jsonLookupFailed(w, r, err)
		return
	}
	books, err := h.DB.ListBooksByUser(r.Context(), id)
	if err != nil {
		jsonInternalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, BookList{Book: toBookList(books)})
}

// ShowBookJSON handles GET /library/{id}/{book_id}/book.json.
// 404 when the book is not in that category.
func (h *Handler) ShowBookJSON(w http.ResponseWriter, r *http.Request) {
	catID, ok1 := idParam(r, "id")
	bookID, ok2 := idParam(r, "book_id")
	if !ok1 || !ok2 {
		jsonMessage(w, http.StatusNotFound, "not found")
		return
	}
	b, err := h.DB.GetBook(r.Context(), bookID)
	if err != nil {
		jsonLookupFailed(w, r, err)
		return
	}
	if b.CategoryID != catID {
		jsonMessage(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, r, http.StatusOK, SingleBook{Book: toBookJSON(*b)})
}

func jsonLookupFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonMessage(w, http.StatusNotFound, "not found")
		return
	}
	jsonInternalError(w, r, err)
}
