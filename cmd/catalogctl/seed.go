package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

// seedDoc is the seed file layout.
type seedDoc struct {
	Owner struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	} `json:"owner"`
	Categories []struct {
		Name  string `json:"name"`
		Books []struct {
			Title       string `json:"title"`
			Author      string `json:"author"`
			Description string `json:"description"`
			Image       string `json:"image"`
		} `json:"books"`
	} `json:"categories"`
}

type seedResult struct {
	Categories, NewCategories int
	Books, NewBooks           int
}

// seed loads doc from r into s. The owner is matched by normalized email, categories
// by name, and books by title within their category. Books without an image get
// defaultImage.
func seed(ctx context.Context, s store.Store, r io.Reader, defaultImage string) (seedResult, error) {
	var res seedResult
	var doc seedDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return res, fmt.Errorf("decoding seed file: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(doc.Owner.Email))
	if email == "" && hasBooks(&doc) {
		return res, errors.New("seed file has books but no owner email")
	}

	var ownerID int64
	if email != "" {
		id, err := seedOwner(ctx, s, doc.Owner.Name, email, doc.Owner.Picture)
		if err != nil {
			return res, err
		}
		ownerID = id
	}

	for _, c := range doc.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return res, errors.New("seed file has a category without a name")
		}
		cat, err := s.GetCategoryByName(ctx, name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			id, err := s.CreateCategory(ctx, name)
			if err != nil {
				return res, fmt.Errorf("creating category %q: %w", name, err)
			}
			cat = &store.Category{ID: id, Name: name}
			res.NewCategories++
		case err != nil:
			return res, fmt.Errorf("looking up category %q: %w", name, err)
		}
		res.Categories++

		existing, err := s.ListBooksByCategory(ctx, cat.ID)
		if err != nil {
			return res, fmt.Errorf("listing books in %q: %w", name, err)
		}
		have := make(map[string]bool, len(existing))
		for _, b := range existing {
			have[b.Title] = true
		}

		for _, b := range c.Books {
			res.Books++
			if have[b.Title] {
				continue
			}
			if b.Title == "" || b.Author == "" || b.Description == "" {
				return res, fmt.Errorf("book in %q needs title, author and description", name)
			}
			image := strings.TrimSpace(b.Image)
			if image == "" {
				image = defaultImage
			}
			if _, err := s.CreateBook(ctx, &store.Book{
				Title:       b.Title,
				Author:      b.Author,
				Description: b.Description,
				Image:       image,
				CategoryID:  cat.ID,
				UserID:      ownerID,
			}); err != nil {
				return res, fmt.Errorf("creating book %q: %w", b.Title, err)
			}
			have[b.Title] = true
			res.NewBooks++
		}
	}
	return res, nil
}

// seedOwner returns the id of the user with email, creating them if needed.
func seedOwner(ctx context.Context, s store.Store, name, email, picture string) (int64, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("looking up owner: %w", err)
	}
	if name == "" {
		name = email
	}
	id, err := s.CreateUser(ctx, &store.User{Name: name, Email: email, ImageURL: picture})
	if err != nil {
		return 0, fmt.Errorf("creating owner: %w", err)
	}
	return id, nil
}

func hasBooks(doc *seedDoc) bool {
	for _, c := range doc.Categories {
		if len(c.Books) > 0 {
			return true
		}
	}
	return false
}
