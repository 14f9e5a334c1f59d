package stubs

import (
	"context"
	"sort"
	"sync"

	"momentum/internal/models"
	"momentum/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
// and for running without a database (STORAGE_BACKEND=memory)
type MockDB struct {
	mu    sync.RWMutex
	books map[string]models.Book
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books: make(map[string]models.Book),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// LoadBooks returns copies of all books ordered by creation time
func (m *MockDB) LoadBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]models.Book, 0, len(m.books))
	for _, book := range m.books {
		books = append(books, book.Clone())
	}

	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.Before(books[j].CreatedAt)
		}
		return books[i].ID < books[j].ID
	})

	return books, nil
}

// GetBook returns a copy of the book with the given id
func (m *MockDB) GetBook(ctx context.Context, id string) (models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	return book.Clone(), nil
}

// UpsertBook inserts or replaces a book
func (m *MockDB) UpsertBook(ctx context.Context, book models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.books[book.ID] = book.Clone()
	return nil
}

// DeleteBook removes a book and its history
func (m *MockDB) DeleteBook(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

// ReplaceAllBooks drops every stored book and stores the given ones
func (m *MockDB) ReplaceAllBooks(ctx context.Context, books []models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.books = make(map[string]models.Book, len(books))
	for _, book := range books {
		m.books[book.ID] = book.Clone()
	}
	return nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
