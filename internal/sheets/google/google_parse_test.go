package google

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestParseEntryRows(t *testing.T) {
	values := [][]interface{}{
		{"id", "amount", "category", "date", "note"},
		{"a", 200.0, "Food", "2024-01-02", "Lunch"},
		{"b", "12,5x", "Travel", "2024-01-20"},
		{"", 5.0, "Bills", "2024-01-01"},
		{"c", nil, "Other", "bad date", nil},
	}

	got := parseEntryRows(values)
	require.Len(t, got, 3)

	assert.Equal(t, core.Entry{ID: "a", Amount: 200, Category: core.Food, Date: core.NewDate(2024, 1, 2), Note: "Lunch"}, got[0])
	assert.True(t, math.IsNaN(float64(got[1].Amount)))
	assert.Equal(t, "", got[1].Note)
	assert.Equal(t, core.Amount(0), got[2].Amount)
	assert.Equal(t, "bad date", got[2].Date.String())
}

func TestEntryRowsHeaderAndNonFinite(t *testing.T) {
	rows := entryRows([]core.Entry{
		{ID: "a", Amount: core.Amount(math.NaN()), Category: core.Food, Date: core.NewDate(2024, 1, 2)},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, entryHeader, rows[0])
	assert.Equal(t, []any{"a", "NaN", "Food", "2024-01-02", ""}, rows[1])
}

func TestParseCurrency(t *testing.T) {
	assert.Equal(t, "USD", parseCurrency([][]interface{}{{"currency", "USD"}}))
	assert.Equal(t, "", parseCurrency([][]interface{}{{"something", "USD"}}))
	assert.Equal(t, "", parseCurrency(nil))
}
