// Package filter narrows and orders entry lists for display.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"expenses/internal/core"
)

// Spec restricts a list by category and an inclusive date range.
// Zero-valued fields are inactive.
type Spec struct {
	Category core.Category
	From     core.Date
	To       core.Date
}

// Apply returns the entries matching spec, preserving input order.
// A nil spec returns entries itself.
func Apply(entries []core.Entry, spec *Spec) []core.Entry {
	if spec == nil {
		return entries
	}
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if spec.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Match reports whether e satisfies every active constraint.
func (s *Spec) Match(e core.Entry) bool {
	if s == nil {
		return true
	}
	if s.Category != "" && e.Category != s.Category {
		return false
	}
	if !s.bounded() {
		return true
	}
	if !e.Date.Valid() {
		return false
	}
	if s.From.Valid() && e.Date.Before(s.From.Time) {
		return false
	}
	if s.To.Valid() && e.Date.After(s.To.EndOfDay()) {
		return false
	}
	return true
}

// Active reports whether any constraint is set.
func (s *Spec) Active() bool {
	return s != nil && (s.Category != "" || s.bounded())
}

// Key renders the filter as a stable cache key.
func (s *Spec) Key() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s", s.Category, s.From.String(), s.To.String())
}

func (s *Spec) bounded() bool {
	return s.From.Valid() || s.To.Valid()
}

// ParseSpec builds a Spec from raw query or form values. It returns nil when
// every value is blank.
func ParseSpec(category, from, to string) (*Spec, error) {
	category = strings.TrimSpace(category)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if category == "" && from == "" && to == "" {
		return nil, nil
	}

	verr := &core.ValidationError{}
	spec := &Spec{}
	if category != "" {
		c, err := core.ParseCategory(category)
		if err != nil {
			verr.Add("category", err.Error())
		}
		spec.Category = c
	}
	if from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			verr.Add("from", "must be a valid YYYY-MM-DD calendar date")
		}
		spec.From = d
	}
	if to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			verr.Add("to", "must be a valid YYYY-MM-DD calendar date")
		}
		spec.To = d
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}

// SortForDisplay returns a copy of entries ordered by descending date.
// Ties keep their input order; entries with unparseable dates go last.
func SortForDisplay(entries []core.Entry) []core.Entry {
	out := make([]core.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case !a.Valid():
			return false
		case !b.Valid():
			return true
		default:
			return a.After(b.Time)
		}
	})
	return out
}
