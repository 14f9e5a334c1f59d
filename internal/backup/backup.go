// Package backup reads and writes the portable JSON document holding the whole book list.
//
// Export writes {"version": 1, "books": [...]} indented. Import accepts loosely typed input
// (numbers as strings, timestamps on checkpoint dates, missing fields) and normalizes it into
// valid books; it only fails when the input is not a JSON object.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"momentum/internal/calendar"
	"momentum/internal/models"
)

// FormatVersion is written into every export.
const FormatVersion = 1

// ErrInvalidDocument is returned when the input is not a JSON object.
var ErrInvalidDocument = errors.New("invalid backup document")

// Document is the exported file layout.
type Document struct {
	Version int           `json:"version"`
	Books   []models.Book `json:"books"`
}

// Export writes books as an indented backup document.
func Export(w io.Writer, books []models.Book) error {
	if books == nil {
		books = []models.Book{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Version: FormatVersion, Books: books}); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Import parses a backup document and normalizes every book. now fills in missing
// creation times.
func Import(r io.Reader, now time.Time) ([]models.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	books := make([]models.Book, 0)
	for _, raw := range lenientArray(doc.Books) {
		var rb rawBook
		if err := json.Unmarshal(raw, &rb); err != nil {
			// Non-object entries are dropped
			continue
		}
		books = append(books, rb.toBook(now))
	}
	return books, nil
}

// lenientArray splits a JSON array into its elements; anything else reads as empty.
func lenientArray(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

type rawDocument struct {
	Books json.RawMessage `json:"books"`
}

type rawBook struct {
	ID          flexString      `json:"id"`
	Title       flexString      `json:"title"`
	Author      flexString      `json:"author"`
	TotalPages  flexInt         `json:"totalPages"`
	InitialPage flexInt         `json:"initialPage"`
	CreatedAt   flexString      `json:"createdAt"`
	History     json.RawMessage `json:"history"`
}

type rawCheckpoint struct {
	Date flexString `json:"date"`
	Page flexInt    `json:"page"`
}

func (rb rawBook) toBook(now time.Time) models.Book {
	book := models.Book{
		ID:          strings.TrimSpace(string(rb.ID)),
		Title:       string(rb.Title),
		Author:      string(rb.Author),
		TotalPages:  rb.TotalPages.or(1),
		InitialPage: rb.InitialPage.or(0),
		CreatedAt:   now,
	}
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	if t, err := time.Parse(time.RFC3339Nano, string(rb.CreatedAt)); err == nil {
		book.CreatedAt = t
	}

	for _, raw := range lenientArray(rb.History) {
		var rc rawCheckpoint
		if err := json.Unmarshal(raw, &rc); err != nil {
			continue
		}
		date := string(rc.Date)
		if len(date) > len(calendar.Layout) {
			date = date[:len(calendar.Layout)]
		}
		d, err := calendar.Parse(date)
		if err != nil {
			continue
		}
		book.History = append(book.History, models.Checkpoint{Date: d, Page: rc.Page.or(0)})
	}

	models.Normalize(&book)
	return book
}

// flexString accepts a JSON string, number or bool; anything else reads as empty.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	switch v := bytes.TrimSpace(b); {
	case len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9')):
		*s = flexString(v)
	case string(v) == "true" || string(v) == "false":
		*s = flexString(v)
	default:
		*s = ""
	}
	return nil
}

// flexInt accepts a JSON number or a string with a leading integer ("12", "12 pages", 12.7).
type flexInt struct {
	value int
	ok    bool
}

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		str = string(bytes.TrimSpace(b))
	}
	n.value, n.ok = leadingInt(str)
	return nil
}

func (n flexInt) or(fallback int) int {
	if !n.ok {
		return fallback
	}
	return n.value
}

// leadingInt parses an optional sign followed by digits at the start of s.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// Overflow: saturate, the caller clamps anyway
		if s[0] == '-' {
			return -models.MaxPages, true
		}
		return models.MaxPages, true
	}
	return v, true
}
