package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/calendar"
	"momentum/internal/models"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExportLayout(t *testing.T) {
	books := []models.Book{{
		ID:          "b1",
		Title:       "Dune",
		Author:      "Frank Herbert",
		TotalPages:  412,
		InitialPage: 5,
		CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		History:     []models.Checkpoint{{Date: calendar.MustParse("2024-01-02"), Page: 40}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, books))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"version\": 1,\n  \"books\": ["), out)
	assert.Contains(t, out, `"date": "2024-01-02"`)
	assert.Contains(t, out, `"initialPage": 5`)
}

func TestExportEmptyWritesArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []any{}, doc["books"])
}

func TestExportImportRoundTrip(t *testing.T) {
	books := []models.Book{
		{
			ID:          "b1",
			Title:       "Dune",
			TotalPages:  412,
			InitialPage: 12,
			CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			History: []models.Checkpoint{
				{Date: calendar.MustParse("2024-01-02"), Page: 40},
				{Date: calendar.MustParse("2024-01-05"), Page: 90},
			},
		},
		{ID: "b2", Title: "Emma", Author: "Jane Austen", TotalPages: 300, CreatedAt: now},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, books))

	imported, err := Import(&buf, now)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, books[0], imported[0])
	assert.Equal(t, "Jane Austen", imported[1].Author)
	assert.Empty(t, imported[1].History)
}

func TestImportNormalizes(t *testing.T) {
	input := `{
		"version": 1,
		"books": [
			{
				"title": "  ",
				"totalPages": "250",
				"initialPage": 400,
				"createdAt": "not a time",
				"history": [
					{"date": "2024-03-05T21:10:00.000Z", "page": "80"},
					{"date": "2024-03-01", "page": 9999},
					{"date": "2024-03-05", "page": 90},
					{"date": "05.03.2024", "page": 10},
					{"date": "2024-02-30", "page": 10},
					{"page": 10},
					"junk"
				]
			},
			42,
			{"id": "keep", "title": "T", "totalPages": 0, "history": {"not": "an array"}}
		]
	}`

	books, err := Import(strings.NewReader(input), now)
	require.NoError(t, err)
	require.Len(t, books, 2)

	b := books[0]
	_, err = uuid.Parse(b.ID)
	assert.NoError(t, err, "missing id gets a generated uuid")
	assert.Equal(t, models.DefaultTitle, b.Title)
	assert.Equal(t, 250, b.TotalPages)
	assert.Equal(t, 250, b.InitialPage)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, []models.Checkpoint{
		{Date: calendar.MustParse("2024-03-01"), Page: 250},
		{Date: calendar.MustParse("2024-03-05"), Page: 90},
	}, b.History)

	k := books[1]
	assert.Equal(t, "keep", k.ID)
	assert.Equal(t, 1, k.TotalPages)
	assert.Empty(t, k.History)
}

func TestImportTotalPagesBounds(t *testing.T) {
	input := `{"books": [
		{"id": "a", "totalPages": 250000},
		{"id": "b", "totalPages": "abc"},
		{"id": "c", "totalPages": 12.9},
		{"id": "d", "totalPages": "99999999999999999999999"}
	]}`

	books, err := Import(strings.NewReader(input), now)
	require.NoError(t, err)
	require.Len(t, books, 4)
	assert.Equal(t, models.MaxPages, books[0].TotalPages)
	assert.Equal(t, 1, books[1].TotalPages)
	assert.Equal(t, 12, books[2].TotalPages)
	assert.Equal(t, models.MaxPages, books[3].TotalPages)
}

func TestImportMissingBooks(t *testing.T) {
	books, err := Import(strings.NewReader(`{"version": 1}`), now)
	require.NoError(t, err)
	assert.Empty(t, books)

	books, err = Import(strings.NewReader(`{"books": "nope"}`), now)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestImportRejectsNonObject(t *testing.T) {
	for _, input := range []string{"", "not json", "[1, 2]", `"text"`} {
		_, err := Import(strings.NewReader(input), now)
		assert.ErrorIs(t, err, ErrInvalidDocument, input)
	}
}
