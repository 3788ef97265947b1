package core

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food     Category = "Food"
	Travel   Category = "Travel"
	Shopping Category = "Shopping"
	Bills    Category = "Bills"
	Other    Category = "Other"
)

const (
	// DateLayout is the calendar date format used by entries and filters.
	DateLayout = "2006-01-02"

	// DefaultCurrency is the display currency of a ledger that was never saved.
	DefaultCurrency = "INR"

	maxNoteLength = 500
)

type (
	Category string

	// Date is a calendar date without time-of-day semantics, stored at UTC midnight.
	// Persisted values that cannot be parsed are kept verbatim in raw so that
	// snapshots round-trip; such dates report Valid() == false.
	Date struct {
		time.Time
		raw   string
		valid bool
	}

	// Amount is a currency-agnostic magnitude. Legacy snapshots may carry
	// malformed values, which decode to NaN and aggregate as 0.
	Amount float64

	// Entry is one ledger record. A malformed persisted amount is kept in
	// amountText and written back unchanged until the entry is replaced.
	Entry struct {
		ID       string   `json:"id"`
		Amount   Amount   `json:"amount"`
		Category Category `json:"category"`
		Date     Date     `json:"date"`
		Note     string   `json:"note"`

		amountText string
	}

	// EntryInput carries raw form values; the ledger owns coercion and validation.
	EntryInput struct {
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Date     string `json:"date"`
		Note     string `json:"note"`
	}

	// LedgerState is the durable snapshot: every entry plus the display currency.
	LedgerState struct {
		Entries  []Entry `json:"entries"`
		Currency string  `json:"currency"`
	}
)

var (
	ErrEmptyDate   = errors.New("empty date")
	ErrInvalidDate = errors.New("invalid date")
)

// Categories returns the enumerated categories in display order.
func Categories() []Category {
	return []Category{Food, Travel, Shopping, Bills, Other}
}

// Valid reports whether c belongs to the enumerated set.
func (c Category) Valid() bool {
	switch c {
	case Food, Travel, Shopping, Bills, Other:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), valid: true}
}

// ParseDate parses a YYYY-MM-DD date. RFC 3339 timestamps are accepted and
// truncated to their calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t, valid: true}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, ErrInvalidDate
}

// Valid reports whether the date holds a real calendar date.
func (d Date) Valid() bool {
	return d.valid
}

// String returns the YYYY-MM-DD form, or the verbatim legacy value for
// unparseable dates.
func (d Date) String() string {
	if !d.valid {
		return d.raw
	}
	return d.Format(DateLayout)
}

// EndOfDay returns the last millisecond of the date.
func (d Date) EndOfDay() time.Time {
	return d.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// InMonth reports whether the date falls in the calendar month of ref.
func (d Date) InMonth(ref time.Time) bool {
	if !d.Valid() {
		return false
	}
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}

// MonthKey returns the YYYY-MM bucket key of the date.
func (d Date) MonthKey() string {
	if !d.Valid() {
		return ""
	}
	return MonthKey(d.Time)
}

// MonthKey returns the YYYY-MM key of t's calendar month.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on bad content: unparseable values are kept raw.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*d = Date{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	*d = LegacyDate(s)
	return nil
}

// LegacyDate parses s like ParseDate but keeps unparseable input verbatim.
func LegacyDate(s string) Date {
	parsed, err := ParseDate(s)
	if err != nil {
		return Date{raw: s}
	}
	return parsed
}

// Value returns the amount with NaN and infinities coerced to 0.
func (a Amount) Value() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Value(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else
// decodes to NaN instead of failing the whole snapshot.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*a = 0
		return nil
	case strings.HasPrefix(s, `"`):
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount(math.NaN())
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = Amount(math.NaN())
		return nil
	}
	*a = Amount(f)
	return nil
}

// NewEntry validates raw input and builds an entry carrying the given identity.
// Every invalid field is reported in a single *ValidationError.
func NewEntry(id string, in EntryInput) (Entry, error) {
	verr := &ValidationError{}

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		verr.Add("amount", "must be a positive number")
	}

	category, err := ParseCategory(in.Category)
	if err != nil {
		verr.Add("category", err.Error())
	}

	date, err := ParseDate(in.Date)
	if errors.Is(err, ErrEmptyDate) {
		verr.Add("date", "is required")
	} else if err != nil {
		verr.Add("date", "must be a valid YYYY-MM-DD calendar date")
	}

	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		verr.Add("note", "is too long (max 500 characters)")
	}

	if err := verr.Err(); err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:       id,
		Amount:   amount,
		Category: category,
		Date:     date,
		Note:     note,
	}, nil
}

// Clone returns a deep copy of the state with defaults applied.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{
		Entries:  make([]Entry, len(s.Entries)),
		Currency: s.Currency,
	}
	copy(out.Entries, s.Entries)
	if strings.TrimSpace(out.Currency) == "" {
		out.Currency = DefaultCurrency
	}
	return out
}

// EmptyState is the snapshot used when nothing was persisted yet.
func EmptyState() LedgerState {
	return LedgerState{Entries: []Entry{}, Currency: DefaultCurrency}
}
