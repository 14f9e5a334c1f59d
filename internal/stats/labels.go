package stats

import (
	"fmt"
	"strconv"

	"momentum/internal/calendar"
)

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// WeekdayNames lists weekdays Monday first, matching WeekdayAverages.
var WeekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayLabel formats a day as DD.MM.
func DayLabel(d calendar.Date) string {
	return fmt.Sprintf("%02d.%02d", d.Day, int(d.Month))
}

// LongDayLabel formats a day as DD.MM.YYYY.
func LongDayLabel(d calendar.Date) string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

// MonthLabel formats a month as "Jan '24".
func MonthLabel(m calendar.Month) string {
	return fmt.Sprintf("%s '%02d", monthAbbrev[m.Month-1], m.Year%100)
}

// YearLabel formats a year.
func YearLabel(y int) string {
	return strconv.Itoa(y)
}
