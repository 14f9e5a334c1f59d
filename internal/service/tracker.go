// Package service implements the tracker use cases on top of a storage backend:
// adding books, logging progress, listing and the statistics views.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"momentum/internal/backup"
	"momentum/internal/calendar"
	"momentum/internal/models"
	"momentum/internal/stats"
	"momentum/internal/storage"
	"momentum/internal/validation"
)

// RecentHistoryRows is the number of checkpoints shown in a book view.
const RecentHistoryRows = 12

// Tracker is the application service shared by the bot, the HTTP API and the CLI.
type Tracker struct {
	store     storage.Storage
	logger    *zap.Logger
	validator *validation.Validator
	loc       *time.Location
	now       func() time.Time

	// mu serializes read-modify-write cycles on books
	mu sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the time zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// New creates a tracker on top of store.
func New(store storage.Storage, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		logger:    logger,
		validator: validation.New(),
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today returns the current calendar day in the configured location.
func (t *Tracker) Today() calendar.Date {
	return calendar.FromTime(t.now().In(t.loc))
}

// NewBook is the input for AddBook.
type NewBook struct {
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"max=500"`
	TotalPages  int    `json:"totalPages" validate:"min=1,max=100000"`
	InitialPage int    `json:"initialPage" validate:"gte=0,ltefield=TotalPages"`
}

// AddBook validates the input and stores a new book with an empty history.
func (t *Tracker) AddBook(ctx context.Context, in NewBook) (models.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if err := t.validator.Validate(in); err != nil {
		return models.Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	book := models.Book{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Author:      in.Author,
		TotalPages:  in.TotalPages,
		InitialPage: in.InitialPage,
		CreatedAt:   t.now().UTC(),
	}
	if err := t.store.UpsertBook(ctx, book); err != nil {
		return models.Book{}, fmt.Errorf("failed to add book: %w", err)
	}

	t.logger.Info("Book added",
		zap.String("book_id", book.ID),
		zap.String("title", book.Title),
		zap.Int("total_pages", book.TotalPages))
	return book, nil
}

// Progress is the input for LogProgress. An empty Date means today.
type Progress struct {
	BookID string `json:"bookId" validate:"required"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Page   int    `json:"page"`
}

// LogProgress records "read up to page" for a day. The page is clamped to the book, then
// must lie between the watermark before the day and the next later checkpoint. Rejections
// are *BoundError values wrapping ErrPageBelowPrevious or ErrPageAboveNext.
func (t *Tracker) LogProgress(ctx context.Context, in Progress) (models.Book, error) {
	if err := t.validator.Validate(in); err != nil {
		return models.Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	today := t.Today()
	date := today
	if in.Date != "" {
		d, err := calendar.Parse(in.Date)
		if err != nil {
			return models.Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		date = d
	}
	if date.After(today) {
		return models.Book{}, ErrFutureDate
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	book, err := t.getBook(ctx, in.BookID)
	if err != nil {
		return models.Book{}, err
	}

	page := book.ClampPage(in.Page)
	if prev := book.LatestPageBefore(date); page < prev {
		return models.Book{}, &BoundError{Err: ErrPageBelowPrevious, Limit: prev}
	}
	if next, ok := book.EarliestPageAfter(date); ok && page > next {
		return models.Book{}, &BoundError{Err: ErrPageAboveNext, Limit: next}
	}

	wasFinished := book.IsFinished()
	book.UpsertCheckpoint(date, page)
	if err := t.store.UpsertBook(ctx, book); err != nil {
		return models.Book{}, fmt.Errorf("failed to save progress: %w", err)
	}

	t.logger.Info("Progress logged",
		zap.String("book_id", book.ID),
		zap.String("date", date.String()),
		zap.Int("page", page))
	if !wasFinished && book.IsFinished() {
		t.logger.Info("Book finished", zap.String("book_id", book.ID), zap.String("title", book.Title))
	}
	return book, nil
}

// SuggestPage returns the page to prefill when logging for date: the existing entry on that
// day, otherwise the latest page for today or the watermark before an earlier day.
func (t *Tracker) SuggestPage(ctx context.Context, bookID string, date calendar.Date) (int, error) {
	book, err := t.getBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if cp, ok := book.CheckpointOn(date); ok {
		return book.ClampPage(cp.Page), nil
	}
	if date == t.Today() {
		return book.LatestPage(), nil
	}
	return book.LatestPageBefore(date), nil
}

// DeleteBook removes a book with its whole history.
func (t *Tracker) DeleteBook(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}
	t.logger.Info("Book deleted", zap.String("book_id", id))
	return nil
}

// GetBook returns the progress view of one book.
func (t *Tracker) GetBook(ctx context.Context, id string) (BookView, error) {
	book, err := t.getBook(ctx, id)
	if err != nil {
		return BookView{}, err
	}
	return NewBookView(book), nil
}

// BookView is a book plus its derived progress fields.
type BookView struct {
	models.Book
	LatestPage      int                 `json:"latestPage"`
	ProgressPercent int                 `json:"progressPercent"`
	State           models.State        `json:"state"`
	LastEntry       string              `json:"lastEntry,omitempty"`
	RecentHistory   []models.Checkpoint `json:"recentHistory"`
}

// NewBookView derives the progress fields for book.
func NewBookView(book models.Book) BookView {
	v := BookView{
		Book:            book,
		LatestPage:      book.LatestPage(),
		ProgressPercent: book.ProgressPercent(),
		State:           book.State(),
		RecentHistory:   book.RecentHistory(RecentHistoryRows),
	}
	if last := book.LastEntryDate(); !last.IsZero() {
		v.LastEntry = last.String()
	}
	return v
}

// ListFilter narrows ListBooks.
type ListFilter struct {
	Query           string
	IncludeFinished bool
}

// ListBooks returns books ordered by most recent entry, then newest first. Finished books
// are hidden unless requested; Query matches title or author case-insensitively.
func (t *Tracker) ListBooks(ctx context.Context, filter ListFilter) ([]BookView, error) {
	books, err := t.loadBooks(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(books, func(a, b models.Book) int {
		if c := b.LastEntryDate().Compare(a.LastEntryDate()); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	views := make([]BookView, 0, len(books))
	for _, book := range books {
		if !filter.IncludeFinished && book.IsFinished() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(book.Title+" "+book.Author), query) {
			continue
		}
		views = append(views, NewBookView(book))
	}
	return views, nil
}

// Overview computes the KPI panel for today.
func (t *Tracker) Overview(ctx context.Context) (stats.KPIs, error) {
	books, err := t.loadBooks(ctx)
	if err != nil {
		return stats.KPIs{}, err
	}
	return stats.ComputeKPIs(stats.Compute(books), books, t.Today()), nil
}

// Charts computes every chart series for today.
func (t *Tracker) Charts(ctx context.Context) (stats.Charts, error) {
	books, err := t.loadBooks(ctx)
	if err != nil {
		return stats.Charts{}, err
	}
	return stats.BuildCharts(stats.DailyPages(books), t.Today()), nil
}

// Heatmap lays out the month-by-day heatmap. months <= 0 means the default 36.
func (t *Tracker) Heatmap(ctx context.Context, months int) (stats.Heatmap, error) {
	if months <= 0 {
		months = stats.HeatmapMonths
	}
	books, err := t.loadBooks(ctx)
	if err != nil {
		return stats.Heatmap{}, err
	}
	agg := stats.Compute(books)
	return stats.BuildHeatmap(agg.Daily, agg.ByBook, t.Today(), months), nil
}

// Export writes the backup document of all books to w.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	books, err := t.loadBooks(ctx)
	if err != nil {
		return err
	}
	return backup.Export(w, books)
}

// Import replaces all books with the normalized contents of a backup document and returns
// the number of imported books.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (int, error) {
	books, err := backup.Import(r, t.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.ReplaceAllBooks(ctx, books); err != nil {
		return 0, fmt.Errorf("failed to import books: %w", err)
	}
	t.logger.Info("Books imported", zap.Int("count", len(books)))
	return len(books), nil
}

// ExportBytes is Export into memory.
func (t *Tracker) ExportBytes(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Export(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tracker) getBook(ctx context.Context, id string) (models.Book, error) {
	book, err := t.store.GetBook(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Book{}, ErrBookNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to load book: %w", err)
	}
	models.Normalize(&book)
	return book, nil
}

func (t *Tracker) loadBooks(ctx context.Context) ([]models.Book, error) {
	books, err := t.store.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	for i := range books {
		models.Normalize(&books[i])
	}
	return books, nil
}
