// book_handler.go -- add, edit and delete book pages.
//
// Every mutation route runs the same three-state check before doing anything:
// anonymous visitors go to /authorize, non-owners get a flash and land on
// /library/add_book with the store untouched, owners get the form or the write.
package catalog

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/MGallo-Code/bookshelf/internal/session"
	"github.com/MGallo-Code/bookshelf/internal/store"
)

// AddBook handles GET/POST /library/add_book.
// GET renders the empty form; POST validates, inserts owned by the visitor, and
// redirects to the new book's page.
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	v := VisitorFromContext(r.Context())
	if !v.Authenticated() {
		http.Redirect(w, r, "/authorize", http.StatusFound)
		return
	}

	if r.Method != http.MethodPost {
		h.renderBookForm(w, r, http.StatusOK, "/library/add_book", BookInput{}, nil)
		return
	}
	if !h.checkCSRF(w, r) {
		return
	}

	in := bookInputFromForm(r)
	b, problems, err := in.Validate(r.Context(), h.DB, h.DefImage)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if len(problems) > 0 {
		h.renderBookForm(w, r, http.StatusBadRequest, "/library/add_book", in, problems)
		return
	}

	b.UserID = v.UserID
	id, err := h.DB.CreateBook(r.Context(), b)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	logInfo(r, "book created", "book_id", id)
	http.Redirect(w, r, fmt.Sprintf("/library/%d/%d", b.CategoryID, id), http.StatusFound)
}

// EditBook handles GET/POST /library/{id}/edit.
// All fields are required on update, same as on create.
func (h *Handler) EditBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	action := fmt.Sprintf("/library/%d/edit", book.ID)

	if r.Method != http.MethodPost {
		h.renderBookForm(w, r, http.StatusOK, action, bookInputFromBook(book), nil)
		return
	}
	if !h.checkCSRF(w, r) {
		return
	}

	in := bookInputFromForm(r)
	upd, problems, err := in.Validate(r.Context(), h.DB, h.DefImage)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if len(problems) > 0 {
		h.renderBookForm(w, r, http.StatusBadRequest, action, in, problems)
		return
	}

	upd.ID = book.ID
	upd.UserID = book.UserID
	if err := h.DB.UpdateBook(r.Context(), upd); err != nil {
		// Owner-scoped update matched nothing: the book vanished since the check.
		h.lookupFailed(w, r, err)
		return
	}
	logInfo(r, "book updated", "book_id", book.ID)
	http.Redirect(w, r, fmt.Sprintf("/library/%d/%d", upd.CategoryID, upd.ID), http.StatusFound)
}

// DeleteBook handles GET/POST /library/{id}/delete.
// GET renders a confirmation; POST deletes exactly that book and redirects to /library.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "delete.html", &page{Book: book})
		return
	}
	if !h.checkCSRF(w, r) {
		return
	}

	if err := h.DB.DeleteBook(r.Context(), book.ID, book.UserID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	logInfo(r, "book deleted", "book_id", book.ID)
	http.Redirect(w, r, "/library", http.StatusFound)
}

// ownedBook runs the three-state check for {id}. It returns the book only for
// its owner; every other outcome has already been written to w.
func (h *Handler) ownedBook(w http.ResponseWriter, r *http.Request) (*store.Book, bool) {
	v := VisitorFromContext(r.Context())
	if !v.Authenticated() {
		http.Redirect(w, r, "/authorize", http.StatusFound)
		return nil, false
	}

	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	book, err := h.DB.GetBook(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}

	if err := authorizeMutation(v, book); err != nil {
		logInfo(r, "mutation rejected", "book_id", id, "owner_id", book.UserID, "error", err)
		s := SessionFromContext(r.Context())
		s.Data.Flash = notOwnerFlash
		if !h.saveSession(w, r, s) {
			return nil, false
		}
		http.Redirect(w, r, "/library/add_book", http.StatusFound)
		return nil, false
	}
	return book, true
}

// authorizeMutation returns ErrUnauthorized unless v owns b.
func authorizeMutation(v *Visitor, b *store.Book) error {
	if !CanMutate(v, b) {
		return ErrUnauthorized
	}
	return nil
}

// checkCSRF compares the form's csrf_token with the session's in constant time.
// Writes 403 and returns false on mismatch.
func (h *Handler) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	s := SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		logWarn(r, "failed to parse form", "error", err)
		h.errorPage(w, r, http.StatusBadRequest, "We could not read that form.")
		return false
	}
	if !validCSRF(s, r.PostFormValue("csrf_token")) {
		logWarn(r, "csrf check failed")
		h.errorPage(w, r, http.StatusForbidden, "This form has expired. Reload the page and try again.")
		return false
	}
	return true
}

func validCSRF(s *session.Session, provided string) bool {
	if s == nil || s.Data.CSRFToken == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.Data.CSRFToken), []byte(provided)) == 1
}

// renderBookForm renders book_form.html with the category choices.
func (h *Handler) renderBookForm(w http.ResponseWriter, r *http.Request, status int, action string, in BookInput, problems []string) {
	cats, err := h.DB.ListCategories(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, status, "book_form.html", &page{
		Action:     action,
		Form:       in,
		Errors:     problems,
		Categories: cats,
	})
}
