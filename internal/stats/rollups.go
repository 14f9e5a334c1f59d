package stats

import (
	"momentum/internal/calendar"
	"momentum/internal/models"
)

// WeekTotals maps the Monday starting a week to the pages read that week.
type WeekTotals map[calendar.Date]int

// MonthTotals maps a month to the pages read that month.
type MonthTotals map[calendar.Month]int

// YearTotals maps a year to the pages read that year.
type YearTotals map[int]int

// ComputeWeekTotals groups the daily map by Monday-start weeks.
func ComputeWeekTotals(daily Daily) WeekTotals {
	out := make(WeekTotals)
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		out[day.StartOfWeek()] += pages
	}
	return out
}

// ComputeMonthTotals groups the daily map by calendar month.
func ComputeMonthTotals(daily Daily) MonthTotals {
	out := make(MonthTotals)
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		out[day.MonthOf()] += pages
	}
	return out
}

// ComputeYearTotals groups the daily map by calendar year.
func ComputeYearTotals(daily Daily) YearTotals {
	out := make(YearTotals)
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		out[day.Year] += pages
	}
	return out
}

// Aggregate bundles the daily maps and their rollups for one book list.
type Aggregate struct {
	Daily  Daily
	ByBook ByBook
	Weeks  WeekTotals
	Months MonthTotals
	Years  YearTotals
}

// Compute runs the aggregator and all rollups once.
func Compute(books []models.Book) Aggregate {
	daily := DailyPages(books)
	return Aggregate{
		Daily:  daily,
		ByBook: DailyPagesByBook(books),
		Weeks:  ComputeWeekTotals(daily),
		Months: ComputeMonthTotals(daily),
		Years:  ComputeYearTotals(daily),
	}
}

// maxValue returns the largest value in m, or 0 for an empty map.
func maxValue[K comparable](m map[K]int) int {
	best := 0
	for _, v := range m {
		best = max(best, v)
	}
	return best
}

// countAbove counts values strictly greater than threshold.
func countAbove[K comparable](m map[K]int, threshold int) int {
	n := 0
	for _, v := range m {
		if v > threshold {
			n++
		}
	}
	return n
}
