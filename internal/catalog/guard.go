// guard.go -- ownership checks for book views and mutations.
package catalog

import "github.com/MGallo-Code/bookshelf/internal/store"

// CanView reports whether v may read b. Every book is public.
func CanView(v *Visitor, b *store.Book) bool {
	return true
}

// CanMutate reports whether v may edit or delete b: only the owner may.
func CanMutate(v *Visitor, b *store.Book) bool {
	if b == nil || !v.Authenticated() {
		return false
	}
	return v.UserID == b.UserID
}
