package storage

import (
	"context"
	"errors"

	"momentum/internal/models"
)

// ErrNotFound is returned when a book id does not exist
var ErrNotFound = errors.New("book not found")

// Storage defines the interface for persisting the book list.
// Every backend stores a book together with its full checkpoint history.
type Storage interface {
	// Book operations
	LoadBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (models.Book, error)
	UpsertBook(ctx context.Context, book models.Book) error
	DeleteBook(ctx context.Context, id string) error

	// ReplaceAllBooks swaps the whole book list in one step (used by import)
	ReplaceAllBooks(ctx context.Context, books []models.Book) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
