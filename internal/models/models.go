package models

import (
	"time"

	"momentum/internal/calendar"
)

// MaxPages is the largest page count a book may declare
const MaxPages = 100000

// Book represents a tracked book and its reading history
type Book struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	TotalPages  int          `json:"totalPages"`
	InitialPage int          `json:"initialPage"`
	CreatedAt   time.Time    `json:"createdAt"`
	History     []Checkpoint `json:"history"`
}

// Checkpoint records the cumulative page reached by a date
type Checkpoint struct {
	Date calendar.Date `json:"date"`
	Page int           `json:"page"`
}

// State is the reading state of a book
type State string

const (
	StateFinished   State = "finished"
	StateInProgress State = "in_progress"
	StateNotStarted State = "not_started"
)

// ClampInt bounds v into [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
