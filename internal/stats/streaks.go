package stats

import "momentum/internal/calendar"

// Streaks holds the current and longest runs of consecutive reading days.
type Streaks struct {
	Current int `json:"currentStreak"`
	Longest int `json:"longestStreak"`
}

// CurrentIsLongest reports whether an ongoing streak is also the record.
func (s Streaks) CurrentIsLongest() bool {
	return s.Current > 0 && s.Current == s.Longest
}

// DayTotal pairs a day with its page count.
type DayTotal struct {
	Date  calendar.Date `json:"date"`
	Pages int           `json:"pages"`
}

// ComputeStreaks walks back from today for the current streak and scans all active days for
// the longest one. A day with 0 pages today means the current streak is 0.
func ComputeStreaks(daily Daily, today calendar.Date) Streaks {
	var s Streaks

	for day := today; daily[day] > 0; day = day.AddDays(-1) {
		s.Current++
	}

	run := 0
	var prev calendar.Date
	for _, day := range daily.ActiveDates() {
		if !prev.IsZero() && calendar.DaysBetween(prev, day) == 1 {
			run++
		} else {
			run = 1
		}
		s.Longest = max(s.Longest, run)
		prev = day
	}

	return s
}

// BestDay returns the day with the most pages. Ties go to the most recent day.
// ok is false when nothing was read.
func BestDay(daily Daily) (best DayTotal, ok bool) {
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		if !ok || pages > best.Pages || (pages == best.Pages && day.After(best.Date)) {
			best = DayTotal{Date: day, Pages: pages}
			ok = true
		}
	}
	return best, ok
}

// LastActiveDay returns the most recent day with a positive total.
func LastActiveDay(daily Daily) (last DayTotal, ok bool) {
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		if !ok || day.After(last.Date) {
			last = DayTotal{Date: day, Pages: pages}
			ok = true
		}
	}
	return last, ok
}

// BestWeek returns the highest weekly total.
func BestWeek(weeks WeekTotals) int {
	return maxValue(weeks)
}

// BestMonth returns the highest monthly total.
func BestMonth(months MonthTotals) int {
	return maxValue(months)
}
