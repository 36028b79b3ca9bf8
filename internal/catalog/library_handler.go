// library_handler.go -- read-only catalog pages.
package catalog

import (
	"errors"
	"net/http"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

// ShowLibrary handles GET / and GET /library -- every category plus the newest books.
func (h *Handler) ShowLibrary(w http.ResponseWriter, r *http.Request) {
	cats, err := h.DB.ListCategories(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	recent, err := h.DB.ListRecentBooks(r.Context(), recentBooksLimit)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "library.html", &page{Categories: cats, Books: recent})
}

// ShowCategory handles GET /library/{id}/books.
// Signed-in visitors also get their own books in the category listed separately.
func (h *Handler) ShowCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	cat, err := h.DB.GetCategory(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	books, err := h.DB.ListBooksByCategory(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	pg := &page{Category: cat, Books: books}
	if v := VisitorFromContext(r.Context()); v.Authenticated() {
		for _, b := range books {
			if b.UserID == v.UserID {
				pg.MyBooks = append(pg.MyBooks, b)
			}
		}
	}
	h.render(w, r, http.StatusOK, "category.html", pg)
}

// ShowBook handles GET /library/{id}/{book_id}.
// 404 when the book exists but belongs to another category.
func (h *Handler) ShowBook(w http.ResponseWriter, r *http.Request) {
	book, cat, ok := h.bookInCategory(w, r)
	if !ok {
		return
	}
	v := VisitorFromContext(r.Context())
	if !CanView(v, book) {
		h.notFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "book.html", &page{Book: book, Category: cat, CanEdit: CanMutate(v, book)})
}

// bookInCategory loads the {id}/{book_id} pair, writing a 404 or 500 on failure.
func (h *Handler) bookInCategory(w http.ResponseWriter, r *http.Request) (*store.Book, *store.Category, bool) {
	catID, ok1 := idParam(r, "id")
	bookID, ok2 := idParam(r, "book_id")
	if !ok1 || !ok2 {
		h.notFound(w, r)
		return nil, nil, false
	}
	book, err := h.DB.GetBook(r.Context(), bookID)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, nil, false
	}
	if book.CategoryID != catID {
		h.notFound(w, r)
		return nil, nil, false
	}
	cat, err := h.DB.GetCategory(r.Context(), catID)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, nil, false
	}
	return book, cat, true
}

// lookupFailed maps store.ErrNotFound to 404 and anything else to 500.
func (h *Handler) lookupFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.internalError(w, r, err)
}
