// errors.go -- catalog error taxonomy.
//
// store.ErrNotFound maps to 404, ErrAuthStateMismatch to 401, ErrUnauthorized to
// a flash + redirect, ErrProvider to 502. Anything else is a 500.
package catalog

import "errors"

// ErrAuthStateMismatch is returned when the callback state does not match the session's.
var ErrAuthStateMismatch = errors.New("oauth state mismatch")

// ErrUnauthorized is returned when an authenticated visitor does not own the book.
var ErrUnauthorized = errors.New("not the owner of this book")

// ErrProvider wraps identity provider failures and unusable claims.
var ErrProvider = errors.New("identity provider error")
