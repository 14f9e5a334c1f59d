package stubs

import (
	"context"
	"sync"
	"testing"
	"time"

	"momentum/internal/calendar"
	"momentum/internal/models"
	"momentum/internal/storage"
	"momentum/internal/storage/storagetest"
)

func TestMockDB_Suite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		db := NewMockDB()
		if err := db.Initialize(context.Background()); err != nil {
			t.Fatalf("Failed to initialize database: %v", err)
		}
		return db
	})
}

func TestMockDB_UpsertBookStoresCopy(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	book := models.Book{
		ID:         "b1",
		Title:      "Test Book",
		TotalPages: 100,
		CreatedAt:  time.Now(),
		History: []models.Checkpoint{
			{Date: calendar.MustParse("2024-01-01"), Page: 10},
		},
	}
	if err := db.UpsertBook(ctx, book); err != nil {
		t.Fatalf("Failed to save book: %v", err)
	}

	// Mutating the caller's slice must not leak into the store
	book.History[0].Page = 50

	stored, err := db.GetBook(ctx, "b1")
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if stored.History[0].Page != 10 {
		t.Errorf("Expected stored page 10, got %d", stored.History[0].Page)
	}
}

func TestMockDB_ConcurrentWrites(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			book := models.Book{
				ID:         string(rune('a' + i)),
				Title:      "Book",
				TotalPages: 100,
				CreatedAt:  time.Now(),
			}
			if err := db.UpsertBook(ctx, book); err != nil {
				t.Errorf("Failed to save book: %v", err)
			}
			if _, err := db.LoadBooks(ctx); err != nil {
				t.Errorf("Failed to load books: %v", err)
			}
		}(i)
	}
	wg.Wait()

	books, err := db.LoadBooks(ctx)
	if err != nil {
		t.Fatalf("Failed to load books: %v", err)
	}
	if len(books) != 20 {
		t.Errorf("Expected 20 books, got %d", len(books))
	}
}
