package models

import (
	"slices"

	"momentum/internal/calendar"
)

// ClampPage bounds page into [0, TotalPages]
func (b *Book) ClampPage(page int) int {
	return ClampInt(page, 0, max(b.TotalPages, 0))
}

// StartPage returns the clamped initial page
func (b *Book) StartPage() int {
	return b.ClampPage(b.InitialPage)
}

// UpsertCheckpoint writes or overwrites the checkpoint for date, keeping history sorted.
// The caller clamps page beforehand.
func (b *Book) UpsertCheckpoint(date calendar.Date, page int) {
	i, found := slices.BinarySearchFunc(b.History, date, func(c Checkpoint, d calendar.Date) int {
		return c.Date.Compare(d)
	})
	if found {
		b.History[i].Page = page
		return
	}
	b.History = slices.Insert(b.History, i, Checkpoint{Date: date, Page: page})
}

// RemoveCheckpoint deletes the checkpoint for date and reports whether one existed
func (b *Book) RemoveCheckpoint(date calendar.Date) bool {
	i := slices.IndexFunc(b.History, func(c Checkpoint) bool { return c.Date == date })
	if i < 0 {
		return false
	}
	b.History = slices.Delete(b.History, i, i+1)
	return true
}

// CheckpointOn returns the checkpoint stored for date, if any
func (b *Book) CheckpointOn(date calendar.Date) (Checkpoint, bool) {
	for _, c := range b.History {
		if c.Date == date {
			return c, true
		}
	}
	return Checkpoint{}, false
}

// LatestPage returns the watermark over the initial page and every checkpoint
func (b *Book) LatestPage() int {
	latest := b.StartPage()
	for _, c := range b.History {
		latest = max(latest, b.ClampPage(c.Page))
	}
	return latest
}

// LatestPageBefore returns the watermark over the initial page and checkpoints strictly
// before date. New entries for date must not go below it.
func (b *Book) LatestPageBefore(date calendar.Date) int {
	latest := b.StartPage()
	for _, c := range b.History {
		if c.Date.Before(date) {
			latest = max(latest, b.ClampPage(c.Page))
		}
	}
	return latest
}

// EarliestPageAfter returns the page of the first checkpoint strictly after date.
// ok is false when no later checkpoint exists.
func (b *Book) EarliestPageAfter(date calendar.Date) (page int, ok bool) {
	var first *Checkpoint
	for i := range b.History {
		c := &b.History[i]
		if c.Date.After(date) && (first == nil || c.Date.Before(first.Date)) {
			first = c
		}
	}
	if first == nil {
		return 0, false
	}
	return b.ClampPage(first.Page), true
}

// LastEntryDate returns the most recent checkpoint date, or the zero date
func (b *Book) LastEntryDate() calendar.Date {
	var last calendar.Date
	for _, c := range b.History {
		if last.IsZero() || c.Date.After(last) {
			last = c.Date
		}
	}
	return last
}

// IsFinished reports whether the watermark reached the last page
func (b *Book) IsFinished() bool {
	return b.TotalPages > 0 && b.LatestPage() >= b.TotalPages
}

// State classifies the book as finished, in progress or not started
func (b *Book) State() State {
	switch {
	case b.IsFinished():
		return StateFinished
	case len(b.History) > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

// ProgressPercent returns the rounded completion percentage, capped at 100
func (b *Book) ProgressPercent() int {
	if b.TotalPages <= 0 {
		return 0
	}
	pct := (b.LatestPage()*100 + b.TotalPages/2) / b.TotalPages
	return min(pct, 100)
}

// RecentHistory returns up to n checkpoints, newest first
func (b *Book) RecentHistory(n int) []Checkpoint {
	out := slices.Clone(b.History)
	slices.SortFunc(out, func(a, c Checkpoint) int { return c.Date.Compare(a.Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Clone returns a deep copy of the book
func (b Book) Clone() Book {
	b.History = slices.Clone(b.History)
	return b
}
