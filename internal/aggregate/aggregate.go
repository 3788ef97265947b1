// Package aggregate derives totals and chart series from entry lists.
//
// All functions are pure. Amounts go through core.Amount.Value, so malformed
// legacy values count as zero, and entries with unparseable dates never land
// in a date-bounded result.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// DefaultWindow is the number of trailing months in the trend series.
const DefaultWindow = 6

// Total sums every entry.
func Total(entries []core.Entry) float64 {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount.Decimal())
	}
	return sum.InexactFloat64()
}

// PeriodTotal sums the entries dated in the calendar month of ref.
func PeriodTotal(entries []core.Entry, ref time.Time) float64 {
	sum := decimal.Zero
	for _, e := range entries {
		if e.Date.InMonth(ref) {
			sum = sum.Add(e.Amount.Decimal())
		}
	}
	return sum.InexactFloat64()
}

// ByCategory sums amounts per category in the order each category is first
// seen. Categories without entries are omitted.
func ByCategory(entries []core.Entry) []core.CategorySlice {
	index := make(map[core.Category]int)
	sums := make([]decimal.Decimal, 0, len(core.Categories()))
	out := make([]core.CategorySlice, 0, len(core.Categories()))
	for _, e := range entries {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategorySlice{Category: e.Category})
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(e.Amount.Decimal())
	}
	for i := range out {
		out[i].Amount = sums[i].InexactFloat64()
	}
	return out
}

// ByTrailingMonth returns windowSize chronological monthly buckets ending
// with the month of ref. Empty months are kept with a zero amount; entries
// outside the window are dropped. A non-positive windowSize means
// DefaultWindow.
func ByTrailingMonth(entries []core.Entry, ref time.Time, windowSize int) []core.TimeBucket {
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]core.TimeBucket, windowSize)
	sums := make([]decimal.Decimal, windowSize)
	index := make(map[string]int, windowSize)
	for i := 0; i < windowSize; i++ {
		m := first.AddDate(0, i-windowSize+1, 0)
		key := core.MonthKey(m)
		buckets[i] = core.TimeBucket{Label: m.Format("Jan"), Key: key}
		sums[i] = decimal.Zero
		index[key] = i
	}

	for _, e := range entries {
		i, ok := index[e.Date.MonthKey()]
		if !ok {
			continue
		}
		sums[i] = sums[i].Add(e.Amount.Decimal())
	}
	for i := range buckets {
		buckets[i].Amount = sums[i].InexactFloat64()
	}
	return buckets
}
