package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 1, 5), d)
	assert.Equal(t, "2024-01-05", d.String())

	d, err = ParseDate("2024-03-10T18:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 3, 10), d)

	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyDate)

	for _, bad := range []string{"2024-02-30", "yesterday", "05/01/2024"} {
		_, err = ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateEndOfDayAndMonth(t *testing.T) {
	d := NewDate(2024, 1, 31)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999_000_000, time.UTC), d.EndOfDay())
	assert.True(t, d.InMonth(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, d.InMonth(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01", d.MonthKey())
	assert.False(t, LegacyDate("garbage").InMonth(time.Now()))
}

func TestEntryJSONToleratesLegacyValues(t *testing.T) {
	raw := `{"entries":[
		{"id":"a","amount":"12.5","category":"Food","date":"2024-01-02"},
		{"id":"b","amount":"lots","category":"Bills","date":"not a date","note":"x"},
		{"id":"c","amount":null,"category":"Other","date":"2024-02-01T10:00:00Z"}
	],"currency":"USD"}`

	var state LedgerState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Len(t, state.Entries, 3)

	assert.Equal(t, 12.5, state.Entries[0].Amount.Value())
	assert.Equal(t, "", state.Entries[0].Note)
	assert.True(t, math.IsNaN(float64(state.Entries[1].Amount)))
	assert.Equal(t, 0.0, state.Entries[1].Amount.Value())
	assert.False(t, state.Entries[1].Date.Valid())
	assert.Equal(t, "not a date", state.Entries[1].Date.String())
	assert.Equal(t, 0.0, state.Entries[2].Amount.Value())
	assert.Equal(t, NewDate(2024, 2, 1), state.Entries[2].Date)

	out, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"date":"not a date"`)
	assert.Contains(t, string(out), `"amount":0`)
	assert.Contains(t, string(out), `"amount":"lots"`)
}

func TestEntryJSONToleratesMistypedScalars(t *testing.T) {
	raw := `[
		{"id":7,"amount":3,"category":7,"date":"2024-01-02","note":true},
		{"id":"b","amount":{"v":1},"category":null,"date":"2024-01-03","note":["x"]}
	]`

	var entries []Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "7", entries[0].ID)
	assert.Equal(t, Category("7"), entries[0].Category)
	assert.False(t, entries[0].Category.Valid())
	assert.Equal(t, "true", entries[0].Note)
	assert.Equal(t, 3.0, entries[0].Amount.Value())

	assert.Equal(t, Category(""), entries[1].Category)
	assert.Equal(t, "", entries[1].Note)
	assert.Equal(t, 0.0, entries[1].Amount.Value())
	text, ok := entries[1].LegacyAmount()
	assert.True(t, ok)
	assert.Equal(t, `{"v":1}`, text)
}

func TestEntryKeepsLegacyAmountUntilReplaced(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","amount":"abc","category":"Food","date":"2024-01-02"}`), &e))
	assert.Equal(t, "abc", e.StoredAmount())

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"amount":"abc"`)

	var again Entry
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, "abc", again.StoredAmount())
	assert.Equal(t, Food, again.Category)
	assert.Equal(t, NewDate(2024, 1, 2), again.Date)

	fresh, err := NewEntry(e.ID, EntryInput{Amount: "4", Category: "Food", Date: "2024-01-02"})
	require.NoError(t, err)
	_, ok := fresh.LegacyAmount()
	assert.False(t, ok)
	assert.Equal(t, "4", fresh.StoredAmount())
}

func TestSetStoredAmount(t *testing.T) {
	tests := []struct {
		text   string
		value  float64
		stored string
	}{
		{"12.5", 12.5, "12.5"},
		{"  ", 0, "0"},
		{"abc", 0, "abc"},
		{"NaN", 0, "NaN"},
		{"1e400", 0, "1e400"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var e Entry
			e.SetStoredAmount(tt.text)
			assert.Equal(t, tt.value, e.Amount.Value())
			assert.Equal(t, tt.stored, e.StoredAmount())
		})
	}
}

func TestZeroYearDateRoundTrips(t *testing.T) {
	d := LegacyDate("0001-01-01")
	assert.True(t, d.Valid())
	assert.Equal(t, "0001-01-01", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"0001-01-01"`, string(out))

	assert.False(t, Date{}.Valid())
	assert.Equal(t, "", Date{}.String())
}

func TestNewEntry(t *testing.T) {
	e, err := NewEntry("id-1", EntryInput{Amount: "100", Category: "Food", Date: "2024-01-01", Note: "  a  "})
	require.NoError(t, err)
	assert.Equal(t, Entry{ID: "id-1", Amount: 100, Category: Food, Date: NewDate(2024, 1, 1), Note: "a"}, e)

	_, err = NewEntry("id-2", EntryInput{Amount: "-3", Category: "Fod", Date: "2024-13-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"amount", "category", "date"}, verr.FieldNames())
	assert.Contains(t, err.Error(), `did you mean "Food"?`)

	_, err = NewEntry("id-3", EntryInput{Amount: "5", Category: "Food"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date is required", verr.Fields[0].Error())
}

func TestNewEntryNoteLengthCountsCharacters(t *testing.T) {
	in := EntryInput{Amount: "5", Category: "Food", Date: "2024-01-01", Note: strings.Repeat("🍔", maxNoteLength)}
	_, err := NewEntry("id-1", in)
	require.NoError(t, err)

	in.Note += "x"
	_, err = NewEntry("id-2", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"note"}, verr.FieldNames())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("food")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "Food"?`)

	_, err = ParseCategory("Groceries and more")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestPaletteFallbacks(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, "#FFD166", p.Color(Food))
	assert.Equal(t, FallbackColor, p.Color(Category("Pets")))
	assert.Equal(t, FallbackIcon, Palette{}.Icon(Travel))
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{ID: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `entry "x" not found`, err.Error())
}

func TestLedgerStateClone(t *testing.T) {
	s := LedgerState{Entries: []Entry{{ID: "a"}}}
	c := s.Clone()
	c.Entries[0].ID = "b"
	assert.Equal(t, "a", s.Entries[0].ID)
	assert.Equal(t, DefaultCurrency, c.Currency)
}
