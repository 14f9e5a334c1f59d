package models

import (
	"slices"
	"strings"
)

// DefaultTitle is used for books stored without a title
const DefaultTitle = "Untitled"

// Normalize brings a book loaded from any store into canonical form: total pages within
// [1, MaxPages], initial page and checkpoint pages clamped to the book, one checkpoint per
// date (last one wins) sorted ascending, and checkpoints without a date dropped.
func Normalize(b *Book) {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		b.Title = DefaultTitle
	}
	b.Author = strings.TrimSpace(b.Author)
	b.TotalPages = ClampInt(b.TotalPages, 1, MaxPages)
	b.InitialPage = b.ClampPage(b.InitialPage)
	b.History = NormalizeHistory(b.History, b.TotalPages)
}

// NormalizeHistory dedupes by date (later entries win), clamps pages to totalPages and sorts
// ascending. Checkpoints with a zero date are dropped.
func NormalizeHistory(history []Checkpoint, totalPages int) []Checkpoint {
	out := make([]Checkpoint, 0, len(history))
	index := make(map[string]int, len(history))
	for _, c := range history {
		if c.Date.IsZero() {
			continue
		}
		c.Page = ClampInt(c.Page, 0, max(totalPages, 0))
		key := c.Date.String()
		if i, ok := index[key]; ok {
			out[i] = c
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Checkpoint) int { return a.Date.Compare(b.Date) })
	return out
}
