// Package storagetest holds the behaviour every storage backend must share.
// Backend test files call Run with a constructor for a fresh, empty store.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/calendar"
	"momentum/internal/models"
	"momentum/internal/storage"
)

// Factory returns an empty, initialized store. Cleanup is the caller's job via t.Cleanup.
type Factory func(t *testing.T) storage.Storage

// Run executes the shared storage suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyLoad", func(t *testing.T) {
		s := newStore(t)
		books, err := s.LoadBooks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := sampleBook("b1", "Dune", 1)

		require.NoError(t, s.UpsertBook(ctx, want))

		got, err := s.GetBook(ctx, "b1")
		require.NoError(t, err)
		AssertBookEqual(t, want, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetBook(context.Background(), "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SaveOverwritesHistory", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		book := sampleBook("b1", "Dune", 1)
		require.NoError(t, s.UpsertBook(ctx, book))

		book.Title = "Dune Messiah"
		book.UpsertCheckpoint(calendar.MustParse("2024-01-02"), 55)
		book.RemoveCheckpoint(calendar.MustParse("2024-01-01"))
		require.NoError(t, s.UpsertBook(ctx, book))

		got, err := s.GetBook(ctx, "b1")
		require.NoError(t, err)
		AssertBookEqual(t, book, got)
	})

	t.Run("LoadOrdersByCreation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.UpsertBook(ctx, sampleBook("late", "Late", 3)))
		require.NoError(t, s.UpsertBook(ctx, sampleBook("early", "Early", 1)))
		require.NoError(t, s.UpsertBook(ctx, sampleBook("mid", "Mid", 2)))

		books, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "early", books[0].ID)
		assert.Equal(t, "mid", books[1].ID)
		assert.Equal(t, "late", books[2].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.UpsertBook(ctx, sampleBook("b1", "Dune", 1)))
		require.NoError(t, s.UpsertBook(ctx, sampleBook("b2", "Emma", 2)))

		require.NoError(t, s.DeleteBook(ctx, "b1"))
		assert.ErrorIs(t, s.DeleteBook(ctx, "b1"), storage.ErrNotFound)

		books, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "b2", books[0].ID)

		_, err = s.GetBook(ctx, "b1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ReplaceAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.UpsertBook(ctx, sampleBook("old", "Old", 1)))

		replacement := []models.Book{sampleBook("n1", "New 1", 2), sampleBook("n2", "New 2", 3)}
		require.NoError(t, s.ReplaceAllBooks(ctx, replacement))

		books, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		AssertBookEqual(t, replacement[0], books[0])
		AssertBookEqual(t, replacement[1], books[1])

		require.NoError(t, s.ReplaceAllBooks(ctx, nil))
		books, err = s.LoadBooks(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("ReturnedBooksAreCopies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.UpsertBook(ctx, sampleBook("b1", "Dune", 1)))

		got, err := s.GetBook(ctx, "b1")
		require.NoError(t, err)
		got.History[0].Page = 999

		again, err := s.GetBook(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, 30, again.History[0].Page)
	})
}

// AssertBookEqual compares two books field by field. Timestamps compare by instant and an
// empty history equals a nil one.
func AssertBookEqual(t *testing.T, want, got models.Book) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Author, got.Author)
	assert.Equal(t, want.TotalPages, got.TotalPages)
	assert.Equal(t, want.InitialPage, got.InitialPage)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s, got %s", want.CreatedAt, got.CreatedAt)
	if len(want.History) == 0 {
		assert.Empty(t, got.History)
		return
	}
	assert.Equal(t, want.History, got.History)
}

func sampleBook(id, title string, day int) models.Book {
	return models.Book{
		ID:          id,
		Title:       title,
		Author:      "Frank Herbert",
		TotalPages:  412,
		InitialPage: 10,
		CreatedAt:   time.Date(2024, time.January, day, 9, 30, 0, 0, time.UTC),
		History: []models.Checkpoint{
			{Date: calendar.MustParse("2024-01-01"), Page: 30},
			{Date: calendar.MustParse("2024-01-03"), Page: 80},
		},
	}
}
