package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"momentum/internal/calendar"
	"momentum/internal/models"
	"momentum/internal/storage"
	"momentum/internal/storage/storagetest"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := NewSQLiteDB(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Initialize(context.Background()))
	return db
}

func TestSQLiteDB_Suite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return setupTestDB(t)
	})
}

func TestSQLiteDB_InitializeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Initialize(context.Background()))
}

func TestSQLiteDB_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewSQLiteDB(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Initialize(ctx))

	book := models.Book{
		ID:         "b1",
		Title:      "Dune",
		TotalPages: 412,
		CreatedAt:  time.Date(2024, 1, 1, 8, 0, 0, 123456789, time.UTC),
		History:    []models.Checkpoint{{Date: calendar.MustParse("2024-01-02"), Page: 40}},
	}
	require.NoError(t, db.UpsertBook(ctx, book))
	require.NoError(t, db.Close())

	reopened, err := NewSQLiteDB(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Initialize(ctx))

	got, err := reopened.GetBook(ctx, "b1")
	require.NoError(t, err)
	storagetest.AssertBookEqual(t, book, got)
}

func TestSQLiteDB_CreatedAtKeepsInstant(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC+3", 3*60*60)
	created := time.Date(2024, 5, 1, 23, 30, 0, 0, loc)
	require.NoError(t, db.UpsertBook(ctx, models.Book{ID: "b1", Title: "T", TotalPages: 10, CreatedAt: created}))

	got, err := db.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/tmp/momentum-home")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/momentum-home/.local/share/momentum/momentum.db", path)
}
