package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "sunday goes back to monday", in: "2024-01-07", want: "2024-01-01"},
		{name: "monday is its own week start", in: "2024-01-08", want: "2024-01-08"},
		{name: "wednesday", in: "2024-01-10", want: "2024-01-08"},
		{name: "saturday", in: "2024-01-13", want: "2024-01-08"},
		{name: "crosses year boundary", in: "2025-01-01", want: "2024-12-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.in).StartOfWeek()
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAddDays(t *testing.T) {
	d := MustParse("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2023-12-31", MustParse("2024-01-01").AddDays(-1).String())
}

func TestAddMonthsClampsDay(t *testing.T) {
	assert.Equal(t, "2024-02-29", MustParse("2024-03-31").AddMonths(-1).String())
	assert.Equal(t, "2023-02-28", MustParse("2023-03-31").AddMonths(-1).String())
	assert.Equal(t, "2023-12-15", MustParse("2024-01-15").AddMonths(-1).String())
	assert.Equal(t, "2025-01-31", MustParse("2024-01-31").AddMonths(12).String())
	assert.Equal(t, "2021-10-19", MustParse("2024-10-19").AddMonths(-36).String())
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 1, DaysBetween(MustParse("2024-01-01"), MustParse("2024-01-02")))
	assert.Equal(t, 366, DaysBetween(MustParse("2024-01-01"), MustParse("2025-01-01")))
	assert.Equal(t, -3, DaysBetween(MustParse("2024-03-04"), MustParse("2024-03-01")))
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2024-1-01", "2024-02-30", "24-01-01", "2024/01/01"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(wrapper{Date: New(2024, time.March, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-05"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2023-12-31"}`), &w))
	assert.Equal(t, New(2023, time.December, 31), w.Date)
}

func TestCompare(t *testing.T) {
	a := MustParse("2024-01-31")
	b := MustParse("2024-02-01")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestMonth(t *testing.T) {
	m := Month{Year: 2024, Month: time.January}
	assert.Equal(t, "2023-12", m.Add(-1).String())
	assert.Equal(t, "2025-01", m.Add(12).String())
	assert.Equal(t, "2021-02", m.Add(-35).String())
	assert.Equal(t, 29, Month{Year: 2024, Month: time.February}.Days())
	assert.Equal(t, 30, Month{Year: 2024, Month: time.April}.Days())
	assert.False(t, Month{Year: 2024, Month: time.April}.Contains(31))
	assert.True(t, Month{Year: 2024, Month: time.May}.Contains(31))
}

func TestWeekend(t *testing.T) {
	assert.True(t, MustParse("2024-01-06").IsWeekend())
	assert.True(t, MustParse("2024-01-07").IsWeekend())
	assert.False(t, MustParse("2024-01-08").IsWeekend())
}
