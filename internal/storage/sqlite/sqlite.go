package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"momentum/internal/calendar"
	"momentum/internal/models"
	"momentum/internal/storage"
	"momentum/migrations"
)

// timeLayout is fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteDB stores books in a local SQLite file
type SQLiteDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// DefaultPath returns ~/.local/share/momentum/momentum.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "momentum", "momentum.db"), nil
}

// NewSQLiteDB opens (and creates if needed) the database file at path
func NewSQLiteDB(path string, logger *zap.Logger) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	// One writer at a time; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	return &SQLiteDB{db: db, logger: logger}, nil
}

// Initialize applies the embedded migrations
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	provider, err := migrations.NewProvider("sqlite", s.db)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("Applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration))
	}
	return nil
}

// LoadBooks returns all books with their history, ordered by creation time
func (s *SQLiteDB) LoadBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, total_pages, initial_page, created_at FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	index := make(map[string]int)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		index[book.ID] = len(books)
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	cps, err := s.db.QueryContext(ctx, `SELECT book_id, date, page FROM checkpoints ORDER BY book_id, date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer cps.Close()

	for cps.Next() {
		var bookID string
		cp, err := scanCheckpoint(cps, &bookID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[bookID]; ok {
			books[i].History = append(books[i].History, cp)
		}
	}
	if err := cps.Err(); err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	return books, nil
}

// GetBook returns one book with its history
func (s *SQLiteDB) GetBook(ctx context.Context, id string) (models.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, total_pages, initial_page, created_at FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Book{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, date, page FROM checkpoints WHERE book_id = ? ORDER BY date`, id)
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to get checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID string
		cp, err := scanCheckpoint(rows, &bookID)
		if err != nil {
			return models.Book{}, err
		}
		book.History = append(book.History, cp)
	}
	if err := rows.Err(); err != nil {
		return models.Book{}, fmt.Errorf("failed to get checkpoints: %w", err)
	}
	return book, nil
}

// UpsertBook upserts the book row and rewrites its checkpoints in one transaction
func (s *SQLiteDB) UpsertBook(ctx context.Context, book models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBook(ctx, tx, book); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteBook removes the book and its checkpoints
func (s *SQLiteDB) DeleteBook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete checkpoints: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

// ReplaceAllBooks clears both tables and inserts books in one transaction
func (s *SQLiteDB) ReplaceAllBooks(ctx context.Context, books []models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints`); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("failed to clear books: %w", err)
	}
	for _, book := range books {
		if err := insertBook(ctx, tx, book); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func insertBook(ctx context.Context, tx *sql.Tx, book models.Book) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, total_pages, initial_page, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			total_pages = excluded.total_pages,
			initial_page = excluded.initial_page,
			created_at = excluded.created_at
	`, book.ID, book.Title, book.Author, book.TotalPages, book.InitialPage,
		book.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE book_id = ?`, book.ID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}

	if len(book.History) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO checkpoints (book_id, date, page) VALUES (?, ?, ?)
		ON CONFLICT(book_id, date) DO UPDATE SET page = excluded.page
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint insert: %w", err)
	}
	defer stmt.Close()

	for _, cp := range book.History {
		if _, err := stmt.ExecContext(ctx, book.ID, cp.Date.String(), cp.Page); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (models.Book, error) {
	var (
		book      models.Book
		createdAt string
	)
	err := row.Scan(&book.ID, &book.Title, &book.Author, &book.TotalPages, &book.InitialPage, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, err
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to scan book: %w", err)
	}
	book.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	return book, nil
}

func scanCheckpoint(row scanner, bookID *string) (models.Checkpoint, error) {
	var (
		date string
		cp   models.Checkpoint
	)
	if err := row.Scan(bookID, &date, &cp.Page); err != nil {
		return models.Checkpoint{}, fmt.Errorf("failed to scan checkpoint: %w", err)
	}
	d, err := calendar.Parse(date)
	if err != nil {
		return models.Checkpoint{}, fmt.Errorf("failed to parse checkpoint date: %w", err)
	}
	cp.Date = d
	return cp, nil
}
