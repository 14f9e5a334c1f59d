package stats

import (
	"momentum/internal/calendar"
	"momentum/internal/models"
)

// activeYearThreshold is stricter than the other "active" checks: a year needs more than a
// single page to count, so a lone stray entry does not create an active year.
const activeYearThreshold = 1

// KPIs is the fixed set of headline metrics shown on the dashboard.
type KPIs struct {
	Today     int `json:"today"`
	Yesterday int `json:"yesterday"`
	ThisWeek  int `json:"thisWeek"`
	ThisMonth int `json:"thisMonth"`
	ThisYear  int `json:"thisYear"`

	Last7Days     int     `json:"last7Days"`
	Last30Days    int     `json:"last30Days"`
	AvgLast7Days  float64 `json:"avgLast7Days"`
	AvgLast30Days float64 `json:"avgLast30Days"`

	TotalPages   int `json:"totalPages"`
	ActiveDays   int `json:"activeDays"`
	ActiveWeeks  int `json:"activeWeeks"`
	ActiveMonths int `json:"activeMonths"`
	ActiveYears  int `json:"activeYears"`

	AvgPerActiveDay   float64 `json:"avgPerActiveDay"`
	AvgPerActiveMonth float64 `json:"avgPerActiveMonth"`
	AvgPerActiveYear  float64 `json:"avgPerActiveYear"`

	Streaks    Streaks   `json:"streaks"`
	BestDay    *DayTotal `json:"bestDay,omitempty"`
	BestWeek   int       `json:"bestWeek"`
	BestMonth  int       `json:"bestMonth"`
	LastActive *DayTotal `json:"lastActive,omitempty"`

	Library Library `json:"library"`
}

// Library summarizes the whole bookshelf independently of the daily map.
type Library struct {
	TotalPages     int     `json:"totalPages"`
	CurrentPages   int     `json:"currentPages"`
	RemainingPages int     `json:"remainingPages"`
	ProgressPct    float64 `json:"progressPct"`

	Books      int `json:"books"`
	Finished   int `json:"finished"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
}

// ComputeKPIs derives every dashboard metric from the aggregate, the book list and today.
func ComputeKPIs(agg Aggregate, books []models.Book, today calendar.Date) KPIs {
	daily := agg.Daily
	k := KPIs{
		Today:     daily[today],
		Yesterday: daily[today.AddDays(-1)],
		ThisWeek:  agg.Weeks[today.StartOfWeek()],
		ThisMonth: agg.Months[today.MonthOf()],
		ThisYear:  agg.Years[today.Year],

		Last7Days:  daily.SumRange(today.AddDays(-6), today),
		Last30Days: daily.SumRange(today.AddDays(-29), today),

		TotalPages:   daily.Total(),
		ActiveDays:   daily.ActiveDays(),
		ActiveWeeks:  countAbove(agg.Weeks, 0),
		ActiveMonths: countAbove(agg.Months, 0),

		Streaks:   ComputeStreaks(daily, today),
		BestWeek:  BestWeek(agg.Weeks),
		BestMonth: BestMonth(agg.Months),

		Library: ComputeLibrary(books),
	}

	k.AvgLast7Days = float64(k.Last7Days) / 7
	k.AvgLast30Days = float64(k.Last30Days) / 30
	k.AvgPerActiveDay = ratio(k.TotalPages, k.ActiveDays)
	k.AvgPerActiveMonth = ratio(k.TotalPages, k.ActiveMonths)

	pagesInActiveYears := 0
	for _, pages := range agg.Years {
		if pages > activeYearThreshold {
			k.ActiveYears++
			pagesInActiveYears += pages
		}
	}
	k.AvgPerActiveYear = ratio(pagesInActiveYears, k.ActiveYears)

	if best, ok := BestDay(daily); ok {
		k.BestDay = &best
	}
	if last, ok := LastActiveDay(daily); ok {
		k.LastActive = &last
	}

	return k
}

// ComputeLibrary sums capacity and position over all books and counts their states.
func ComputeLibrary(books []models.Book) Library {
	var lib Library
	lib.Books = len(books)

	for i := range books {
		b := &books[i]
		switch b.State() {
		case models.StateFinished:
			lib.Finished++
		case models.StateInProgress:
			lib.InProgress++
		default:
			lib.NotStarted++
		}

		lib.TotalPages += b.TotalPages
		if b.TotalPages <= 0 {
			continue
		}
		current := min(b.LatestPage(), b.TotalPages)
		lib.CurrentPages += current
		lib.RemainingPages += max(0, b.TotalPages-current)
	}

	if lib.TotalPages > 0 {
		lib.ProgressPct = float64(lib.CurrentPages) / float64(lib.TotalPages) * 100
	}
	return lib
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
