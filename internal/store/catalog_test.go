package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Both backends run the same suite; Postgres skips without TEST_DATABASE_URL.

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newSQLiteTestStore(t) })
}

func TestPostgresStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newPostgresTestStore(t) })
}

func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("creates and fetches user by id and email", func(t *testing.T) {
		s := open(t)
		id, err := s.CreateUser(ctx, &User{Name: "Ada", Email: "ada@example.com", ImageURL: "https://img/ada"})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if id <= 0 {
			t.Fatalf("id: expected positive, got %d", id)
		}

		byID, err := s.GetUserByID(ctx, id)
		if err != nil {
			t.Fatalf("GetUserByID: %v", err)
		}
		byEmail, err := s.GetUserByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		want := User{ID: id, Name: "Ada", Email: "ada@example.com", ImageURL: "https://img/ada"}
		if *byID != want {
			t.Errorf("GetUserByID: expected %+v, got %+v", want, *byID)
		}
		if *byEmail != want {
			t.Errorf("GetUserByEmail: expected %+v, got %+v", want, *byEmail)
		}
	})

	t.Run("duplicate email returns ErrDuplicateEmail", func(t *testing.T) {
		s := open(t)
		mustCreateUser(t, s, "dup@example.com")

		_, err := s.CreateUser(ctx, &User{Name: "Other", Email: "dup@example.com"})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("unknown user returns ErrNotFound", func(t *testing.T) {
		s := open(t)
		if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUserByEmail: expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetUserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUserByID: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("updates user profile", func(t *testing.T) {
		s := open(t)
		id := mustCreateUser(t, s, "profile@example.com")

		if err := s.UpdateUserProfile(ctx, id, "New Name", "https://img/new"); err != nil {
			t.Fatalf("UpdateUserProfile: %v", err)
		}
		u, err := s.GetUserByID(ctx, id)
		if err != nil {
			t.Fatalf("GetUserByID: %v", err)
		}
		if u.Name != "New Name" || u.ImageURL != "https://img/new" {
			t.Errorf("profile: expected refreshed fields, got %+v", u)
		}
		if err := s.UpdateUserProfile(ctx, 9999, "x", "y"); !errors.Is(err, ErrNotFound) {
			t.Errorf("unknown id: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("categories list in id order and lookup by name", func(t *testing.T) {
		s := open(t)
		fiction := mustCreateCategory(t, s, "Fiction")
		science := mustCreateCategory(t, s, "Science")

		cats, err := s.ListCategories(ctx)
		if err != nil {
			t.Fatalf("ListCategories: %v", err)
		}
		if len(cats) != 2 || cats[0].ID != fiction || cats[1].ID != science {
			t.Fatalf("ListCategories: unexpected result %+v", cats)
		}

		c, err := s.GetCategoryByName(ctx, "Science")
		if err != nil {
			t.Fatalf("GetCategoryByName: %v", err)
		}
		if c.ID != science {
			t.Errorf("GetCategoryByName: expected id %d, got %d", science, c.ID)
		}
		if _, err := s.GetCategory(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetCategory: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("book create, read and filtered listings", func(t *testing.T) {
		s := open(t)
		alice := mustCreateUser(t, s, "alice@example.com")
		bob := mustCreateUser(t, s, "bob@example.com")
		fiction := mustCreateCategory(t, s, "Fiction")
		science := mustCreateCategory(t, s, "Science")

		b1 := mustCreateBook(t, s, "Dune", fiction, alice)
		b2 := mustCreateBook(t, s, "Cosmos", science, bob)
		b3 := mustCreateBook(t, s, "Emma", fiction, bob)

		got, err := s.GetBook(ctx, b1)
		if err != nil {
			t.Fatalf("GetBook: %v", err)
		}
		if got.Title != "Dune" || got.CategoryID != fiction || got.UserID != alice {
			t.Errorf("GetBook: unexpected %+v", got)
		}
		if got.CreatedAt.IsZero() {
			t.Error("created_at was not set")
		}

		inFiction, err := s.ListBooksByCategory(ctx, fiction)
		if err != nil {
			t.Fatalf("ListBooksByCategory: %v", err)
		}
		if len(inFiction) != 2 || inFiction[0].ID != b1 || inFiction[1].ID != b3 {
			t.Errorf("ListBooksByCategory: unexpected %+v", inFiction)
		}

		ofBob, err := s.ListBooksByUser(ctx, bob)
		if err != nil {
			t.Fatalf("ListBooksByUser: %v", err)
		}
		if len(ofBob) != 2 || ofBob[0].ID != b2 || ofBob[1].ID != b3 {
			t.Errorf("ListBooksByUser: unexpected %+v", ofBob)
		}

		all, err := s.ListBooks(ctx)
		if err != nil {
			t.Fatalf("ListBooks: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("ListBooks: expected 3, got %d", len(all))
		}
	})

	t.Run("recent books newest first with limit", func(t *testing.T) {
		s := open(t)
		u := mustCreateUser(t, s, "recent@example.com")
		c := mustCreateCategory(t, s, "Recent")

		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var ids []int64
		for i := 0; i < 8; i++ {
			id, err := s.CreateBook(ctx, &Book{
				Title: "Book", Author: "A", Description: "D", Image: "i.jpg",
				CategoryID: c, UserID: u, CreatedAt: base.Add(time.Duration(i) * time.Hour),
			})
			if err != nil {
				t.Fatalf("CreateBook: %v", err)
			}
			ids = append(ids, id)
		}

		recent, err := s.ListRecentBooks(ctx, 6)
		if err != nil {
			t.Fatalf("ListRecentBooks: %v", err)
		}
		if len(recent) != 6 {
			t.Fatalf("ListRecentBooks: expected 6, got %d", len(recent))
		}
		if recent[0].ID != ids[7] || recent[5].ID != ids[2] {
			t.Errorf("ListRecentBooks: expected newest first, got first=%d last=%d", recent[0].ID, recent[5].ID)
		}
	})

	t.Run("book with unknown owner is rejected", func(t *testing.T) {
		s := open(t)
		c := mustCreateCategory(t, s, "Orphans")
		_, err := s.CreateBook(ctx, &Book{
			Title: "T", Author: "A", Description: "D", Image: "i", CategoryID: c, UserID: 4242,
		})
		if err == nil {
			t.Fatal("expected foreign key error for unknown owner, got nil")
		}
	})

	t.Run("update is scoped to owner", func(t *testing.T) {
		s := open(t)
		owner := mustCreateUser(t, s, "owner@example.com")
		other := mustCreateUser(t, s, "other@example.com")
		c := mustCreateCategory(t, s, "Scoped")
		id := mustCreateBook(t, s, "Original", c, owner)

		err := s.UpdateBook(ctx, &Book{ID: id, UserID: other, Title: "Hijacked", Author: "x", Description: "x", Image: "x", CategoryID: c})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("non-owner update: expected ErrNotFound, got %v", err)
		}

		err = s.UpdateBook(ctx, &Book{ID: id, UserID: owner, Title: "Edited", Author: "New", Description: "Desc", Image: "new.jpg", CategoryID: c})
		if err != nil {
			t.Fatalf("owner update: %v", err)
		}
		got, err := s.GetBook(ctx, id)
		if err != nil {
			t.Fatalf("GetBook: %v", err)
		}
		if got.Title != "Edited" || got.Author != "New" || got.Image != "new.jpg" || got.UserID != owner {
			t.Errorf("after update: unexpected %+v", got)
		}
	})

	t.Run("delete removes only the target book", func(t *testing.T) {
		s := open(t)
		owner := mustCreateUser(t, s, "deleter@example.com")
		c := mustCreateCategory(t, s, "Deletions")
		gone := mustCreateBook(t, s, "Gone", c, owner)
		kept := mustCreateBook(t, s, "Kept", c, owner)

		if err := s.DeleteBook(ctx, gone, owner+1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("non-owner delete: expected ErrNotFound, got %v", err)
		}
		if err := s.DeleteBook(ctx, gone, owner); err != nil {
			t.Fatalf("DeleteBook: %v", err)
		}
		if _, err := s.GetBook(ctx, gone); !errors.Is(err, ErrNotFound) {
			t.Errorf("deleted book: expected ErrNotFound, got %v", err)
		}
		rest, err := s.ListBooksByCategory(ctx, c)
		if err != nil {
			t.Fatalf("ListBooksByCategory: %v", err)
		}
		if len(rest) != 1 || rest[0].ID != kept {
			t.Errorf("remaining books: expected only %d, got %+v", kept, rest)
		}
		if err := s.DeleteBook(ctx, gone, owner); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("health check passes on open store", func(t *testing.T) {
		s := open(t)
		if err := s.CheckHealth(ctx); err != nil {
			t.Errorf("CheckHealth: %v", err)
		}
	})
}
