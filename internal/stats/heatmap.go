package stats

import (
	"momentum/internal/calendar"
)

// HeatmapColumns is the number of day-of-month columns per row.
const HeatmapColumns = 31

// HeatmapCell is one day-of-month slot. Valid is false for days that do not exist in the
// row's month (e.g. April 31); such cells are never a reading day, not even a zero one.
type HeatmapCell struct {
	Day   int            `json:"day"`
	Date  string         `json:"date,omitempty"`
	Valid bool           `json:"valid"`
	Pages int            `json:"pages"`
	Books map[string]int `json:"books,omitempty"`
}

// HeatmapRow is one month of the heatmap.
type HeatmapRow struct {
	Month string        `json:"month"`
	Label string        `json:"label"`
	Cells []HeatmapCell `json:"cells"`
}

// Heatmap is a grid of months (oldest first) by day of month.
type Heatmap struct {
	Rows   []HeatmapRow `json:"rows"`
	MaxDay int          `json:"maxDay"`
}

// BuildHeatmap lays out the last months months ending with today's month. Cells carry the
// per-book breakdown for tooltips when byBook has entries for that day.
func BuildHeatmap(daily Daily, byBook ByBook, today calendar.Date, months int) Heatmap {
	var h Heatmap
	for _, m := range monthRange(today, months) {
		row := HeatmapRow{
			Month: m.String(),
			Label: MonthLabel(m),
			Cells: make([]HeatmapCell, 0, HeatmapColumns),
		}
		for day := 1; day <= HeatmapColumns; day++ {
			cell := HeatmapCell{Day: day}
			if m.Contains(day) {
				date := calendar.Date{Year: m.Year, Month: m.Month, Day: day}
				cell.Valid = true
				cell.Date = date.String()
				cell.Pages = daily[date]
				if books := byBook[date]; len(books) > 0 {
					cell.Books = books
				}
				h.MaxDay = max(h.MaxDay, cell.Pages)
			}
			row.Cells = append(row.Cells, cell)
		}
		h.Rows = append(h.Rows, row)
	}
	return h
}
