// Package render formats tracker views as terminal text with lipgloss. The same output is
// used by the CLI and, without colors, inside Telegram <pre> blocks.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"momentum/internal/service"
	"momentum/internal/stats"
)

// BarWidth is the width of the longest bar in a series chart.
const BarWidth = 30

var (
	barRunes  = []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}
	heatRunes = []string{"░", "▒", "▓", "█"}
)

// Renderer holds the styles bound to one output.
type Renderer struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	bar   lipgloss.Style
	muted lipgloss.Style
	box   lipgloss.Style
}

// New creates a renderer for w. Colors are only emitted when w is a color terminal.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		label: r.NewStyle().Foreground(lipgloss.Color("241")),
		value: r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		bar:   r.NewStyle().Foreground(lipgloss.Color("62")),
		muted: r.NewStyle().Foreground(lipgloss.Color("238")),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// Plain creates a renderer that never emits escape codes.
func Plain() *Renderer {
	return New(io.Discard)
}

// Overview renders the KPI panel.
func (r *Renderer) Overview(k stats.KPIs) string {
	periods := r.pairs([][2]string{
		{"Today", fmt.Sprint(k.Today)},
		{"Yesterday", fmt.Sprint(k.Yesterday)},
		{"This week", fmt.Sprint(k.ThisWeek)},
		{"This month", fmt.Sprint(k.ThisMonth)},
		{"This year", fmt.Sprint(k.ThisYear)},
		{"Last 7 days", fmt.Sprintf("%d (%s/day)", k.Last7Days, formatFloat(k.AvgLast7Days))},
		{"Last 30 days", fmt.Sprintf("%d (%s/day)", k.Last30Days, formatFloat(k.AvgLast30Days))},
	})

	streak := fmt.Sprintf("%d days", k.Streaks.Current)
	if k.Streaks.Current > 0 && k.Streaks.CurrentIsLongest() {
		streak += " (record)"
	}
	records := [][2]string{
		{"Current streak", streak},
		{"Longest streak", fmt.Sprintf("%d days", k.Streaks.Longest)},
		{"Best week", fmt.Sprint(k.BestWeek)},
		{"Best month", fmt.Sprint(k.BestMonth)},
	}
	if k.BestDay != nil {
		records = append(records, [2]string{"Best day", fmt.Sprintf("%d on %s", k.BestDay.Pages, stats.LongDayLabel(k.BestDay.Date))})
	}
	if k.LastActive != nil {
		records = append(records, [2]string{"Last active", fmt.Sprintf("%s (%d)", stats.LongDayLabel(k.LastActive.Date), k.LastActive.Pages)})
	}

	totals := r.pairs([][2]string{
		{"Total pages", fmt.Sprint(k.TotalPages)},
		{"Active days", fmt.Sprint(k.ActiveDays)},
		{"Per active day", formatFloat(k.AvgPerActiveDay)},
		{"Per active month", formatFloat(k.AvgPerActiveMonth)},
		{"Per active year", formatFloat(k.AvgPerActiveYear)},
	})

	lib := k.Library
	library := r.pairs([][2]string{
		{"Books", fmt.Sprintf("%d (%d finished, %d reading, %d not started)", lib.Books, lib.Finished, lib.InProgress, lib.NotStarted)},
		{"Pages", fmt.Sprintf("%d / %d (%s%%)", lib.CurrentPages, lib.TotalPages, formatFloat(lib.ProgressPct))},
		{"Remaining", fmt.Sprint(lib.RemainingPages)},
	})

	return lipgloss.JoinVertical(lipgloss.Left,
		r.title.Render("Reading overview"),
		r.box.Render("Pages\n"+periods),
		r.box.Render("Records\n"+r.pairs(records)),
		r.box.Render("Totals\n"+totals),
		r.box.Render("Library\n"+library),
	)
}

// Series renders a chart as one horizontal bar per bucket, followed by summary.
func (r *Renderer) Series(title string, s stats.Series, summary string) string {
	var b strings.Builder
	b.WriteString(r.title.Render(title))
	b.WriteString("\n")

	labelWidth := 0
	for _, l := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}

	peak := s.Max()
	for i, v := range s.Values {
		label := ""
		if i < len(s.Labels) {
			label = s.Labels[i]
		}
		b.WriteString(r.label.Render(fmt.Sprintf("%-*s", labelWidth, label)))
		b.WriteString(" ")
		if bar := Bar(v, peak, BarWidth); bar != "" {
			b.WriteString(r.bar.Render(bar))
			b.WriteString(" ")
		}
		b.WriteString(r.value.Render(formatFloat(v)))
		b.WriteString("\n")
	}
	if summary != "" {
		b.WriteString(r.muted.Render(summary))
		b.WriteString("\n")
	}
	return b.String()
}

// Charts renders the standard chart set.
func (r *Renderer) Charts(c stats.Charts) string {
	sections := []string{
		r.Series("Last 12 days", c.Days12, fmt.Sprintf("sum %s", formatFloat(c.Days12.Sum()))),
		r.Series("Last 12 weeks", c.Weeks12, fmt.Sprintf("sum %s", formatFloat(c.Weeks12.Sum()))),
		r.Series("Last 12 months", c.Months12, fmt.Sprintf("sum %s", formatFloat(c.Months12.Sum()))),
		r.Series("Last 5 years", c.Years5, fmt.Sprintf("lifetime %d", c.LifetimePages)),
		r.Series("Cumulative pages", c.CumulativeMonths, fmt.Sprintf("lifetime %d", c.LifetimePages)),
		r.Series("7-day average", c.MovingAverage7, fmt.Sprintf("current %s/day", formatFloat(c.CurrentAverage7))),
		r.Series("Active days per week", c.ActiveDaysPerWeek, fmt.Sprintf("average %s", formatFloat(c.AvgActiveDaysWeek))),
		r.Series("Pages per active day, by week", c.IntensityPerWeek, fmt.Sprintf("average %s", formatFloat(c.AvgIntensityWeek))),
		r.Series("Average by weekday", c.Weekdays, fmt.Sprintf("overall %s per active day", formatFloat(c.AvgPerActiveDayAll))),
		r.Series("Workdays vs weekend", c.WorkdayWeekend, ""),
	}
	return strings.Join(sections, "\n")
}

// Heatmap renders months as rows and days of the month as columns.
func (r *Renderer) Heatmap(h stats.Heatmap) string {
	labelWidth := 0
	for _, row := range h.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
	}

	var b strings.Builder
	b.WriteString(r.title.Render("Daily pages by month"))
	b.WriteString("\n")

	header := make([]byte, stats.HeatmapColumns)
	for i := range header {
		header[i] = ' '
		if day := i + 1; day == 1 || day%5 == 0 {
			header[i] = byte('0' + day%10)
		}
	}
	b.WriteString(strings.Repeat(" ", labelWidth+1))
	b.WriteString(r.label.Render(string(header)))
	b.WriteString("\n")

	for _, row := range h.Rows {
		b.WriteString(r.label.Render(fmt.Sprintf("%-*s", labelWidth, row.Label)))
		b.WriteString(" ")
		for _, cell := range row.Cells {
			switch {
			case !cell.Valid:
				b.WriteString(" ")
			case cell.Pages == 0:
				b.WriteString(r.muted.Render("·"))
			default:
				b.WriteString(r.bar.Render(HeatRune(cell.Pages, h.MaxDay)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(r.muted.Render(fmt.Sprintf("· none  %s up to %d pages", strings.Join(heatRunes, ""), h.MaxDay)))
	b.WriteString("\n")
	return b.String()
}

// Books renders the book list.
func (r *Renderer) Books(views []service.BookView) string {
	if len(views) == 0 {
		return r.muted.Render("No books yet.") + "\n"
	}

	var b strings.Builder
	for _, v := range views {
		b.WriteString(r.bookLine(v))
		b.WriteString("\n")
	}
	return b.String()
}

// Book renders one book with its recent history.
func (r *Renderer) Book(v service.BookView) string {
	var b strings.Builder
	b.WriteString(r.bookLine(v))
	b.WriteString("\n")
	b.WriteString(r.label.Render(fmt.Sprintf("id %s, started at page %d", v.ID, v.InitialPage)))
	b.WriteString("\n")
	for _, cp := range v.RecentHistory {
		b.WriteString(fmt.Sprintf("  %s  %s\n", r.label.Render(stats.LongDayLabel(cp.Date)), r.value.Render(fmt.Sprint(cp.Page))))
	}
	return b.String()
}

func (r *Renderer) bookLine(v service.BookView) string {
	title := v.Title
	if v.Author != "" {
		title += " by " + v.Author
	}
	progress := fmt.Sprintf("%d/%d (%d%%)", v.LatestPage, v.TotalPages, v.ProgressPercent)
	line := r.value.Render(title) + "  " + r.bar.Render(Bar(float64(v.ProgressPercent), 100, 10)) + " " + progress
	if v.LastEntry != "" {
		line += r.muted.Render("  last " + v.LastEntry)
	}
	return line
}

func (r *Renderer) pairs(rows [][2]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, r.label.Render(fmt.Sprintf("%-*s", width, row[0]))+"  "+r.value.Render(row[1]))
	}
	return strings.Join(lines, "\n")
}

// Bar draws value relative to peak using eighth-block runes, at most width cells wide.
// Positive values always get at least the thinnest block.
func Bar(value, peak float64, width int) string {
	if value <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	eighths := int(math.Round(value / peak * float64(width*8)))
	eighths = max(1, min(eighths, width*8))
	full, rest := eighths/8, eighths%8
	bar := strings.Repeat("█", full)
	if rest > 0 {
		bar += barRunes[rest-1]
	}
	return bar
}

// HeatRune picks the shade for pages relative to the busiest day.
func HeatRune(pages, maxDay int) string {
	if pages <= 0 || maxDay <= 0 {
		return "·"
	}
	idx := int(math.Ceil(float64(pages)/float64(maxDay)*float64(len(heatRunes)))) - 1
	return heatRunes[max(0, min(idx, len(heatRunes)-1))]
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
