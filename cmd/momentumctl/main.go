package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"momentum/internal/app"
	"momentum/internal/config"
	"momentum/internal/render"
	"momentum/internal/service"
	"momentum/internal/storage"
)

var (
	// Flags for books command
	booksAll   bool
	booksQuery string

	// Flags for add command
	addTitle   string
	addAuthor  string
	addPages   int
	addInitial int

	// Flags for log command
	logDate string

	// Flags for heatmap command
	heatmapMonths int

	// Flags for export command
	exportOutput string
)

var rootCmd = &cobra.Command{
	Use:   "momentumctl",
	Short: "Momentum - track your reading progress",
	Long: `Command line access to the Momentum reading tracker.

Reads the same configuration as the server (STORAGE_BACKEND, SQLITE_PATH, CLICKHOUSE_*, TIMEZONE)
from the environment or a .env file.`,
	SilenceUsage: true,
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			views, err := t.ListBooks(ctx, service.ListFilter{Query: booksQuery, IncludeFinished: booksAll})
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Books(views))
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	Long: `Add a book to the library.

Examples:
  momentumctl add -t "Dune" -p 412
  momentumctl add -t "Emma" -a "Jane Austen" -p 474 -i 120   # already read up to page 120`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			book, err := t.AddBook(ctx, service.NewBook{
				Title:       addTitle,
				Author:      addAuthor,
				TotalPages:  addPages,
				InitialPage: addInitial,
			})
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Book(service.NewBookView(book)))
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log <book-id> <page>",
	Short: "Record the page reached in a book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("page must be a number: %q", args[1])
		}
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			book, err := t.LogProgress(ctx, service.Progress{BookID: args[0], Date: logDate, Page: page})
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Book(service.NewBookView(book)))
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a book and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			if err := t.DeleteBook(ctx, args[0]); err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), "Deleted "+args[0])
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reading statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			k, err := t.Overview(ctx)
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Overview(k))
		})
	},
}

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Show pages per day, week, month and year",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			c, err := t.Charts(ctx)
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Charts(c))
		})
	},
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show the month by day reading heatmap",
	RunE: func(cmd *cobra.Command, args []string) error {
		if heatmapMonths < 1 || heatmapMonths > 120 {
			return fmt.Errorf("months must be between 1 and 120")
		}
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			h, err := t.Heatmap(ctx, heatmapMonths)
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), render.New(cmd.OutOrStdout()).Heatmap(h))
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup of all books",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			if exportOutput == "" || exportOutput == "-" {
				return t.Export(ctx, cmd.OutOrStdout())
			}
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			if err := t.Export(ctx, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all books with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		return withTracker(func(ctx context.Context, t *service.Tracker) error {
			n, err := t.Import(ctx, f)
			if err != nil {
				return err
			}
			return printOut(cmd.OutOrStdout(), fmt.Sprintf("Imported %d books", n))
		})
	},
}

func init() {
	booksCmd.Flags().BoolVarP(&booksAll, "all", "a", false, "Include finished books")
	booksCmd.Flags().StringVarP(&booksQuery, "query", "q", "", "Filter by title or author")

	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Book title")
	addCmd.Flags().StringVarP(&addAuthor, "author", "a", "", "Book author")
	addCmd.Flags().IntVarP(&addPages, "pages", "p", 0, "Total number of pages")
	addCmd.Flags().IntVarP(&addInitial, "initial", "i", 0, "Page already reached before tracking")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("pages")

	logCmd.Flags().StringVarP(&logDate, "date", "d", "", "Day of the entry (YYYY-MM-DD, default today)")

	heatmapCmd.Flags().IntVarP(&heatmapMonths, "months", "m", 36, "Number of months to show")

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")

	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chartsCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore is replaced in tests
var openStore = func(ctx context.Context) (storage.Storage, *config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Only warnings and errors, the output is for the user
	logger, err := app.NewLogger("warn", "console")
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, cfg, logger, nil
}

// withTracker opens the configured storage, runs fn and closes the storage
func withTracker(fn func(ctx context.Context, t *service.Tracker) error) error {
	ctx := context.Background()
	store, cfg, logger, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, service.New(store, logger, service.WithLocation(cfg.Location)))
}

func printOut(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
