package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name    string
		daily   Daily
		today   string
		current int
		longest int
	}{
		{
			name: "gap resets run",
			daily: Daily{
				d("2024-01-01"): 5,
				d("2024-01-02"): 3,
				d("2024-01-03"): 0,
				d("2024-01-04"): 2,
			},
			today:   "2024-01-04",
			current: 1,
			longest: 2,
		},
		{
			name:    "empty map",
			daily:   Daily{},
			today:   "2024-01-04",
			current: 0,
			longest: 0,
		},
		{
			name: "nothing today means no current streak",
			daily: Daily{
				d("2024-01-02"): 1,
				d("2024-01-03"): 1,
			},
			today:   "2024-01-04",
			current: 0,
			longest: 2,
		},
		{
			name: "run across month boundary",
			daily: Daily{
				d("2024-02-28"): 1,
				d("2024-02-29"): 1,
				d("2024-03-01"): 1,
			},
			today:   "2024-03-01",
			current: 3,
			longest: 3,
		},
		{
			name: "future entries do not extend current streak",
			daily: Daily{
				d("2024-01-04"): 1,
				d("2024-01-05"): 1,
			},
			today:   "2024-01-04",
			current: 1,
			longest: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeStreaks(tt.daily, d(tt.today))
			assert.Equal(t, tt.current, s.Current)
			assert.Equal(t, tt.longest, s.Longest)
		})
	}
}

func TestCurrentIsLongest(t *testing.T) {
	assert.True(t, Streaks{Current: 3, Longest: 3}.CurrentIsLongest())
	assert.False(t, Streaks{Current: 1, Longest: 3}.CurrentIsLongest())
	assert.False(t, Streaks{}.CurrentIsLongest())
}

func TestBestDayPrefersMostRecentTie(t *testing.T) {
	daily := Daily{
		d("2024-02-01"): 10,
		d("2024-02-10"): 10,
		d("2024-02-05"): 3,
	}

	best, ok := BestDay(daily)
	require.True(t, ok)
	assert.Equal(t, 10, best.Pages)
	assert.Equal(t, d("2024-02-10"), best.Date)
}

func TestBestDayEmpty(t *testing.T) {
	_, ok := BestDay(Daily{})
	assert.False(t, ok)
}

func TestLastActiveDay(t *testing.T) {
	daily := Daily{
		d("2024-02-01"): 10,
		d("2024-03-10"): 4,
		d("2024-03-11"): 0,
	}

	last, ok := LastActiveDay(daily)
	require.True(t, ok)
	assert.Equal(t, d("2024-03-10"), last.Date)
	assert.Equal(t, 4, last.Pages)

	_, ok = LastActiveDay(Daily{})
	assert.False(t, ok)
}

func TestBestWeekAndMonth(t *testing.T) {
	daily := Daily{
		d("2024-01-01"): 5,
		d("2024-01-02"): 5,
		d("2024-01-08"): 7,
		d("2024-02-01"): 30,
	}

	assert.Equal(t, 30, BestWeek(ComputeWeekTotals(daily)))
	assert.Equal(t, 30, BestMonth(ComputeMonthTotals(daily)))
	assert.Equal(t, 0, BestWeek(WeekTotals{}))
}
