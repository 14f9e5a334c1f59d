package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/models"
)

func TestBuildHeatmapLayout(t *testing.T) {
	h := BuildHeatmap(Daily{}, ByBook{}, d("2024-04-15"), HeatmapMonths)

	require.Len(t, h.Rows, HeatmapMonths)
	assert.Equal(t, "2021-05", h.Rows[0].Month)
	assert.Equal(t, "2024-04", h.Rows[len(h.Rows)-1].Month)
	assert.Equal(t, "Apr '24", h.Rows[len(h.Rows)-1].Label)

	for _, row := range h.Rows {
		require.Len(t, row.Cells, HeatmapColumns, row.Month)
	}
	assert.Zero(t, h.MaxDay)
}

func TestBuildHeatmapInvalidCells(t *testing.T) {
	h := BuildHeatmap(Daily{}, ByBook{}, d("2024-04-15"), 3)

	feb, mar, apr := h.Rows[0], h.Rows[1], h.Rows[2]
	require.Equal(t, "2024-02", feb.Month)

	// Leap year February has 29 days.
	assert.True(t, feb.Cells[28].Valid)
	assert.False(t, feb.Cells[29].Valid)
	assert.False(t, feb.Cells[30].Valid)
	assert.Empty(t, feb.Cells[30].Date)

	assert.True(t, mar.Cells[30].Valid)
	assert.Equal(t, "2024-03-31", mar.Cells[30].Date)

	assert.True(t, apr.Cells[29].Valid)
	assert.False(t, apr.Cells[30].Valid, "April 31 does not exist")
}

func TestBuildHeatmapValuesAndTooltips(t *testing.T) {
	books := []models.Book{
		book("Dune", 500, 0, "2024-03-10", 40, "2024-03-11", 60),
		book("Emma", 300, 0, "2024-03-11", 15),
	}
	agg := Compute(books)

	h := BuildHeatmap(agg.Daily, agg.ByBook, d("2024-03-20"), 1)

	require.Len(t, h.Rows, 1)
	cells := h.Rows[0].Cells
	assert.Equal(t, 40, cells[9].Pages)
	assert.Equal(t, map[string]int{"Dune": 40}, cells[9].Books)
	assert.Equal(t, 35, cells[10].Pages)
	assert.Equal(t, map[string]int{"Dune": 20, "Emma": 15}, cells[10].Books)
	assert.Zero(t, cells[11].Pages)
	assert.Nil(t, cells[11].Books)
	assert.Equal(t, 40, h.MaxDay)
}
