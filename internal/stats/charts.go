package stats

import (
	"momentum/internal/calendar"
)

// Series is one chart: parallel labels and values, plus the bucket keys the labels were
// derived from (YYYY-MM-DD, YYYY-MM or YYYY).
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Keys   []string  `json:"keys,omitempty"`
}

func (s *Series) add(key, label string, value float64) {
	s.Keys = append(s.Keys, key)
	s.Labels = append(s.Labels, label)
	s.Values = append(s.Values, value)
}

// Sum returns the sum of all values.
func (s Series) Sum() float64 {
	total := 0.0
	for _, v := range s.Values {
		total += v
	}
	return total
}

// Last returns the final value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// Max returns the largest value, or 0 for an empty series.
func (s Series) Max() float64 {
	best := 0.0
	for _, v := range s.Values {
		best = max(best, v)
	}
	return best
}

// MeanPositive averages the strictly positive values.
func (s Series) MeanPositive() float64 {
	total, n := 0.0, 0
	for _, v := range s.Values {
		if v > 0 {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Mean averages all values.
func (s Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.Values))
}

// LastDays returns the pages per day for the n days ending today, oldest first.
func LastDays(daily Daily, today calendar.Date, n int) Series {
	var s Series
	for i := n - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		s.add(day.String(), DayLabel(day), float64(daily[day]))
	}
	return s
}

// LastWeeks returns the pages per Monday-start week for the n weeks ending with the current one.
func LastWeeks(daily Daily, today calendar.Date, n int) Series {
	weeks := ComputeWeekTotals(daily)
	var s Series
	for _, start := range weekStarts(today, n) {
		s.add(start.String(), DayLabel(start), float64(weeks[start]))
	}
	return s
}

// LastMonths returns the pages per month for the n months ending with the current one.
func LastMonths(daily Daily, today calendar.Date, n int) Series {
	months := ComputeMonthTotals(daily)
	var s Series
	for _, m := range monthRange(today, n) {
		s.add(m.String(), MonthLabel(m), float64(months[m]))
	}
	return s
}

// LastYears returns the pages per calendar year for the n years ending with the current one.
func LastYears(daily Daily, today calendar.Date, n int) Series {
	years := ComputeYearTotals(daily)
	var s Series
	for i := n - 1; i >= 0; i-- {
		y := today.Year - i
		s.add(YearLabel(y), YearLabel(y), float64(years[y]))
	}
	return s
}

// CumulativeMonths returns the running lifetime total at the end of each of the last n
// months. The first point is seeded with everything read outside the window, so the final
// point always equals the lifetime total.
func CumulativeMonths(daily Daily, today calendar.Date, n int) Series {
	months := ComputeMonthTotals(daily)
	window := monthRange(today, n)

	inWindow := 0
	for _, m := range window {
		inWindow += months[m]
	}

	run := max(0, daily.Total()-inWindow)
	var s Series
	for _, m := range window {
		run += months[m]
		s.add(m.String(), MonthLabel(m), float64(run))
	}
	return s
}

// MovingAverage returns the trailing window-day average for each of the last days days.
// Near the start of the range the window shrinks instead of padding with zeros.
func MovingAverage(daily Daily, today calendar.Date, days, window int) Series {
	raw := LastDays(daily, today, days)
	var s Series
	for i := range raw.Values {
		from := max(0, i-window+1)
		total := 0.0
		for _, v := range raw.Values[from : i+1] {
			total += v
		}
		s.add(raw.Keys[i], raw.Labels[i], total/float64(i+1-from))
	}
	return s
}

// ActiveDaysPerWeek counts the days with reading in each of the last n weeks.
func ActiveDaysPerWeek(daily Daily, today calendar.Date, n int) Series {
	var s Series
	for _, start := range weekStarts(today, n) {
		active, _ := weekActivity(daily, start)
		s.add(start.String(), DayLabel(start), float64(active))
	}
	return s
}

// IntensityPerWeek returns the pages per active day in each of the last n weeks.
func IntensityPerWeek(daily Daily, today calendar.Date, n int) Series {
	var s Series
	for _, start := range weekStarts(today, n) {
		active, pages := weekActivity(daily, start)
		s.add(start.String(), DayLabel(start), ratio(pages, active))
	}
	return s
}

// WeekdayAverages returns the average pages per active day for each weekday, Monday first.
func WeekdayAverages(daily Daily) Series {
	var sums, counts [7]int
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		idx := (int(day.Weekday()) + 6) % 7
		sums[idx] += pages
		counts[idx]++
	}

	var s Series
	for i, name := range WeekdayNames {
		s.Labels = append(s.Labels, name)
		s.Values = append(s.Values, ratio(sums[i], counts[i]))
	}
	return s
}

// WorkdayWeekend compares the average pages per active day on Monday to Friday with
// Saturday and Sunday.
func WorkdayWeekend(daily Daily) Series {
	var workSum, workDays, weekendSum, weekendDays int
	for day, pages := range daily {
		if pages <= 0 {
			continue
		}
		if day.IsWeekend() {
			weekendSum += pages
			weekendDays++
		} else {
			workSum += pages
			workDays++
		}
	}

	return Series{
		Labels: []string{"Workdays", "Weekend"},
		Values: []float64{ratio(workSum, workDays), ratio(weekendSum, weekendDays)},
	}
}

// weekStarts returns the Mondays of the n weeks ending with today's week, oldest first.
func weekStarts(today calendar.Date, n int) []calendar.Date {
	out := make([]calendar.Date, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDays(-7*i).StartOfWeek())
	}
	return out
}

// monthRange returns the n months ending with today's month, oldest first.
func monthRange(today calendar.Date, n int) []calendar.Month {
	current := today.MonthOf()
	out := make([]calendar.Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, current.Add(-i))
	}
	return out
}

func weekActivity(daily Daily, start calendar.Date) (activeDays, pages int) {
	for i := 0; i < 7; i++ {
		if v := daily[start.AddDays(i)]; v > 0 {
			activeDays++
			pages += v
		}
	}
	return activeDays, pages
}
