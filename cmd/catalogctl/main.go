// Command catalogctl administers the bookshelf database: schema migrations,
// reference-data seeding and category listing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/MGallo-Code/bookshelf/internal/store"
	"github.com/MGallo-Code/bookshelf/migrations"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each subcommand opens its own store.
func newRootCmd() *cobra.Command {
	var databaseURL string

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Administer the bookshelf catalog database",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// .env is optional, same as the server.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("loading .env: %w", err)
			}
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("no database: pass --database-url or set DATABASE_URL")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres:// or sqlite:// URL (default $DATABASE_URL)")

	open := func(cmd *cobra.Command) (store.Store, error) {
		s, err := store.Open(cmd.Context(), databaseURL)
		if err != nil {
			return nil, err
		}
		mfs, err := migrations.FS(s.Driver())
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := s.Migrate(cmd.Context(), mfs); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending schema migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := open(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", s.Driver())
				return nil
			},
		},
		newSeedCmd(open),
		&cobra.Command{
			Use:   "categories",
			Short: "List categories with their book counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := open(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				return listCategories(cmd.Context(), s, cmd.OutOrStdout())
			},
		},
	)
	return root
}

func newSeedCmd(open func(*cobra.Command) (store.Store, error)) *cobra.Command {
	var file, defaultImage string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load an owner, categories and books from a JSON file",
		Long: `Seed reads a JSON document of the form

  {"owner": {"name": "...", "email": "..."},
   "categories": [{"name": "...", "books": [{"title": "...", "author": "...",
                                             "description": "...", "image": "..."}]}]}

Existing categories, owners and same-titled books are reused, so seeding twice is harmless.
Books without an image get --default-image, like books added through the web form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening seed file: %w", err)
			}
			defer f.Close()

			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if defaultImage == "" {
				defaultImage = os.Getenv("DEFAULT_BOOK_IMAGE")
			}
			if defaultImage == "" {
				defaultImage = "default_book.jpg"
			}
			res, err := seed(cmd.Context(), s, f, defaultImage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories (%d new), %d books (%d new)\n",
				res.Categories, res.NewCategories, res.Books, res.NewBooks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.json", "seed document")
	cmd.Flags().StringVar(&defaultImage, "default-image", "", "image for books that name none (default $DEFAULT_BOOK_IMAGE or default_book.jpg)")
	return cmd
}

// listCategories writes one tab-aligned row per category.
func listCategories(ctx context.Context, s store.Store, out io.Writer) error {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBOOKS")
	for _, c := range cats {
		books, err := s.ListBooksByCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\n", c.ID, c.Name, len(books))
	}
	return tw.Flush()
}
