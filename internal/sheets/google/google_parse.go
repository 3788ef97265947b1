package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"expenses/internal/core"
)

const currencyLabel = "currency"

var entryHeader = []any{"id", "amount", "category", "date", "note"}

// entryRows converts entries into sheet rows, header first. Non-finite and
// legacy amounts are written as text so they survive the JSON transport.
func entryRows(entries []core.Entry) [][]any {
	rows := make([][]any, 0, len(entries)+1)
	rows = append(rows, entryHeader)
	for _, e := range entries {
		var amount any = float64(e.Amount)
		if f := float64(e.Amount); math.IsNaN(f) || math.IsInf(f, 0) {
			amount = e.StoredAmount()
		}
		rows = append(rows, []any{e.ID, amount, string(e.Category), e.Date.String(), e.Note})
	}
	return rows
}

// parseEntryRows reads the values matrix of the entries sheet. The header row
// and rows without an id are skipped; missing trailing cells read as empty.
func parseEntryRows(values [][]interface{}) []core.Entry {
	entries := make([]core.Entry, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		id := safeGet(cols, 0)
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "id") {
			continue
		}
		e := core.Entry{
			ID:       id,
			Category: core.Category(safeGet(cols, 2)),
			Date:     core.LegacyDate(safeGet(cols, 3)),
			Note:     safeGet(cols, 4),
		}
		e.SetStoredAmount(safeGet(cols, 1))
		entries = append(entries, e)
	}
	return entries
}

// parseCurrency expects a single "currency | <code>" row.
func parseCurrency(values [][]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	cols := toStrings(values[0])
	if !strings.EqualFold(safeGet(cols, 0), currencyLabel) {
		return ""
	}
	return safeGet(cols, 1)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch t := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
