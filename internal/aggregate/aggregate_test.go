package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"expenses/internal/core"
	"expenses/internal/filter"
)

func entry(amount float64, cat core.Category, date string) core.Entry {
	return core.Entry{Amount: core.Amount(amount), Category: cat, Date: core.LegacyDate(date)}
}

func TestTotals(t *testing.T) {
	entries := []core.Entry{
		entry(200, core.Food, "2024-01-02"),
		entry(1200, core.Travel, "2024-01-20"),
		entry(math.NaN(), core.Food, "2024-01-03"),
		entry(0.1, core.Other, "2023-12-31"),
		entry(0.2, core.Other, "bad"),
	}
	assert.Equal(t, 1400.3, Total(entries))
	assert.Equal(t, 1400.0, PeriodTotal(entries, time.Date(2024, 1, 25, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.1, PeriodTotal(entries, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.0, Total(nil))
}

func TestByCategoryFirstSeenOrder(t *testing.T) {
	entries := []core.Entry{
		entry(5, core.Bills, "2024-01-01"),
		entry(10, core.Food, "2024-01-02"),
		entry(7, core.Bills, "2024-01-03"),
		entry(math.Inf(1), core.Food, "2024-01-04"),
	}
	assert.Equal(t, []core.CategorySlice{
		{Category: core.Bills, Amount: 12},
		{Category: core.Food, Amount: 10},
	}, ByCategory(entries))
	assert.Empty(t, ByCategory(nil))
}

func TestByTrailingMonth(t *testing.T) {
	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entries := []core.Entry{
		entry(10, core.Food, "2024-03-01"),
		entry(5, core.Food, "2024-03-31"),
		entry(20, core.Food, "2023-10-05"),
		entry(99, core.Food, "2023-09-30"),
		entry(1, core.Food, "2024-04-01"),
		entry(3, core.Food, "nope"),
	}

	got := ByTrailingMonth(entries, ref, 0)
	assert.Equal(t, []core.TimeBucket{
		{Label: "Oct", Key: "2023-10", Amount: 20},
		{Label: "Nov", Key: "2023-11", Amount: 0},
		{Label: "Dec", Key: "2023-12", Amount: 0},
		{Label: "Jan", Key: "2024-01", Amount: 0},
		{Label: "Feb", Key: "2024-02", Amount: 0},
		{Label: "Mar", Key: "2024-03", Amount: 15},
	}, got)

	assert.Len(t, ByTrailingMonth(nil, ref, 12), 12)
	assert.Len(t, ByTrailingMonth(nil, ref, -3), DefaultWindow)
}

func TestByTrailingMonthEndOfMonthReference(t *testing.T) {
	ref := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	got := ByTrailingMonth(nil, ref, 2)
	assert.Equal(t, "2024-02", got[0].Key)
	assert.Equal(t, "2024-03", got[1].Key)
}

func TestDashboardScenario(t *testing.T) {
	entries := []core.Entry{
		entry(200, core.Food, "2024-01-02"),
		entry(1200, core.Travel, "2024-01-20"),
	}
	ref := time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1400.0, Total(entries))
	assert.Equal(t, 1400.0, PeriodTotal(entries, ref))

	sorted := filter.SortForDisplay(entries)
	assert.Equal(t, []core.CategorySlice{
		{Category: core.Travel, Amount: 1200},
		{Category: core.Food, Amount: 200},
	}, ByCategory(sorted))

	series := ByTrailingMonth(entries, ref, DefaultWindow)
	assert.Equal(t, 1400.0, series[len(series)-1].Amount)
	for _, b := range series[:len(series)-1] {
		assert.Zero(t, b.Amount)
	}
}
