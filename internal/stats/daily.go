// Package stats turns per-book page checkpoints into daily reading totals and everything
// derived from them: period rollups, streaks, KPIs and chart series.
//
// Every function here is pure. Callers pass the book list and the reference day explicitly;
// nothing reads the wall clock or shared state.
package stats

import (
	"slices"

	"momentum/internal/calendar"
	"momentum/internal/models"
)

// Daily maps a calendar day to the pages read that day. Missing days read as 0.
type Daily map[calendar.Date]int

// ByBook maps a calendar day to the pages read per book title that day.
type ByBook map[calendar.Date]map[string]int

// Total returns the lifetime number of pages in the map.
func (d Daily) Total() int {
	total := 0
	for _, pages := range d {
		total += pages
	}
	return total
}

// SumRange sums the inclusive day range [from, to]. Missing days count 0.
func (d Daily) SumRange(from, to calendar.Date) int {
	total := 0
	for day := from; !day.After(to); day = day.AddDays(1) {
		total += d[day]
	}
	return total
}

// ActiveDates returns the days with a positive total, ascending.
func (d Daily) ActiveDates() []calendar.Date {
	dates := make([]calendar.Date, 0, len(d))
	for day, pages := range d {
		if pages > 0 {
			dates = append(dates, day)
		}
	}
	slices.SortFunc(dates, calendar.Date.Compare)
	return dates
}

// ActiveDays counts days with a positive total.
func (d Daily) ActiveDays() int {
	n := 0
	for _, pages := range d {
		if pages > 0 {
			n++
		}
	}
	return n
}

// DailyPages sums the forward progress of every book per day.
func DailyPages(books []models.Book) Daily {
	daily := make(Daily)
	for i := range books {
		walkDeltas(&books[i], func(day calendar.Date, delta int) {
			daily[day] += delta
		})
	}
	return daily
}

// DailyPagesByBook is DailyPages broken out per book title. Books sharing a title share a
// bucket.
func DailyPagesByBook(books []models.Book) ByBook {
	out := make(ByBook)
	for i := range books {
		title := books[i].Title
		if title == "" {
			title = models.DefaultTitle
		}
		walkDeltas(&books[i], func(day calendar.Date, delta int) {
			perBook, ok := out[day]
			if !ok {
				perBook = make(map[string]int)
				out[day] = perBook
			}
			perBook[title] += delta
		})
	}
	return out
}

// walkDeltas applies the watermark rule to one book: checkpoints are visited in date order,
// only the amount a checkpoint raises the running maximum counts as read, and regressive or
// equal checkpoints contribute nothing.
func walkDeltas(book *models.Book, emit func(day calendar.Date, delta int)) {
	history := slices.Clone(book.History)
	slices.SortStableFunc(history, func(a, b models.Checkpoint) int { return a.Date.Compare(b.Date) })

	prev := book.StartPage()
	for _, c := range history {
		page := book.ClampPage(c.Page)
		if delta := page - prev; delta > 0 {
			emit(c.Date, delta)
		}
		prev = max(prev, page)
	}
}
