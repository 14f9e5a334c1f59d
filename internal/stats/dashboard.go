package stats

import "momentum/internal/calendar"

// Standard chart windows.
const (
	RecentDays        = 12
	MonthDays         = 30
	RecentWeeks       = 12
	RecentMonths      = 12
	RecentYears       = 5
	CumulativeWindow  = 24
	AverageRangeDays  = 60
	AverageWindowDays = 7
	HeatmapMonths     = 36
)

// Charts bundles every standard series for one reference day.
type Charts struct {
	Days12            Series `json:"days12"`
	Days30            Series `json:"days30"`
	Weeks12           Series `json:"weeks12"`
	Months12          Series `json:"months12"`
	Years5            Series `json:"years5"`
	CumulativeMonths  Series `json:"cumulativeMonths"`
	MovingAverage7    Series `json:"movingAverage7"`
	ActiveDaysPerWeek Series `json:"activeDaysPerWeek"`
	IntensityPerWeek  Series `json:"intensityPerWeek"`
	Weekdays          Series `json:"weekdays"`
	WorkdayWeekend    Series `json:"workdayWeekend"`

	// Summary values shown next to the charts.
	LifetimePages      int     `json:"lifetimePages"`
	CurrentAverage7    float64 `json:"currentAverage7"`
	AvgActiveDaysWeek  float64 `json:"avgActiveDaysPerWeek"`
	AvgIntensityWeek   float64 `json:"avgIntensityPerWeek"`
	AvgPerActiveDayAll float64 `json:"avgPerActiveDay"`
}

// BuildCharts computes all standard chart series.
func BuildCharts(daily Daily, today calendar.Date) Charts {
	c := Charts{
		Days12:            LastDays(daily, today, RecentDays),
		Days30:            LastDays(daily, today, MonthDays),
		Weeks12:           LastWeeks(daily, today, RecentWeeks),
		Months12:          LastMonths(daily, today, RecentMonths),
		Years5:            LastYears(daily, today, RecentYears),
		CumulativeMonths:  CumulativeMonths(daily, today, CumulativeWindow),
		MovingAverage7:    MovingAverage(daily, today, AverageRangeDays, AverageWindowDays),
		ActiveDaysPerWeek: ActiveDaysPerWeek(daily, today, RecentWeeks),
		IntensityPerWeek:  IntensityPerWeek(daily, today, RecentWeeks),
		Weekdays:          WeekdayAverages(daily),
		WorkdayWeekend:    WorkdayWeekend(daily),
		LifetimePages:     daily.Total(),
	}

	c.CurrentAverage7 = c.MovingAverage7.Last()
	c.AvgActiveDaysWeek = c.ActiveDaysPerWeek.Mean()
	c.AvgIntensityWeek = c.IntensityPerWeek.MeanPositive()
	c.AvgPerActiveDayAll = ratio(c.LifetimePages, daily.ActiveDays())
	return c
}
