// forms.go -- book form parsing and validation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

// BookInput is a submitted add/edit form, built once per request.
// Category keeps the raw value so a rejected form re-renders what was typed.
type BookInput struct {
	Title       string
	Author      string
	Description string
	Image       string
	Category    string
}

// bookInputFromForm reads a parsed form. author_editor is accepted as an alias for author.
func bookInputFromForm(r *http.Request) BookInput {
	author := r.PostFormValue("author")
	if strings.TrimSpace(author) == "" {
		author = r.PostFormValue("author_editor")
	}
	return BookInput{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Author:      strings.TrimSpace(author),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Image:       strings.TrimSpace(r.PostFormValue("image")),
		Category:    strings.TrimSpace(r.PostFormValue("category")),
	}
}

// bookInputFromBook pre-fills the edit form.
func bookInputFromBook(b *store.Book) BookInput {
	return BookInput{
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Image:       b.Image,
		Category:    strconv.FormatInt(b.CategoryID, 10),
	}
}

// categoryGetter resolves a category id; store.ErrNotFound for unknown ids.
type categoryGetter interface {
	GetCategory(ctx context.Context, id int64) (*store.Category, error)
}

// Validate checks required fields and the category reference.
// Returns the book fields to write, or user-facing problems. err is set only on store failure.
func (in BookInput) Validate(ctx context.Context, cats categoryGetter, defaultImage string) (*store.Book, []string, error) {
	var problems []string
	if in.Title == "" {
		problems = append(problems, "Title is required.")
	}
	if in.Author == "" {
		problems = append(problems, "Author is required.")
	}
	if in.Description == "" {
		problems = append(problems, "Description is required.")
	}

	var categoryID int64
	id, err := strconv.ParseInt(in.Category, 10, 64)
	if err != nil || id <= 0 {
		problems = append(problems, "Choose a category.")
	} else if _, err := cats.GetCategory(ctx, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("checking category: %w", err)
		}
		problems = append(problems, "Choose a category.")
	} else {
		categoryID = id
	}

	if len(problems) > 0 {
		return nil, problems, nil
	}

	image := in.Image
	if image == "" {
		image = defaultImage
	}
	return &store.Book{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Image:       image,
		CategoryID:  categoryID,
	}, nil, nil
}
