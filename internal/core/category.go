package core

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// FallbackColor is used for categories missing from the palette.
	FallbackColor = "#cbd5e1"
	// FallbackIcon is used for categories missing from the palette.
	FallbackIcon = "🔖"

	maxSuggestionDistance = 3
)

// Style is the visual identity of a category.
type Style struct {
	Color string `yaml:"color" json:"color"`
	Icon  string `yaml:"icon" json:"icon"`
}

// Palette maps categories to their style. It is injected into the chart
// layout engine and the renderer rather than hardcoded there.
type Palette map[Category]Style

// DefaultPalette returns the built-in category styles.
func DefaultPalette() Palette {
	return Palette{
		Food:     {Color: "#FFD166", Icon: "🍔"},
		Travel:   {Color: "#06b6d4", Icon: "✈️"},
		Shopping: {Color: "#f472b6", Icon: "🛍️"},
		Bills:    {Color: "#60a5fa", Icon: "💡"},
		Other:    {Color: "#a78bfa", Icon: "🔖"},
	}
}

// Color returns the category colour or FallbackColor.
func (p Palette) Color(c Category) string {
	if s, ok := p[c]; ok && s.Color != "" {
		return s.Color
	}
	return FallbackColor
}

// Icon returns the category icon or FallbackIcon.
func (p Palette) Icon(c Category) string {
	if s, ok := p[c]; ok && s.Icon != "" {
		return s.Icon
	}
	return FallbackIcon
}

// ParseCategory matches s exactly against the enumerated set.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("is required")
	}
	c := Category(s)
	if c.Valid() {
		return c, nil
	}
	names := make([]string, 0, 5)
	for _, known := range Categories() {
		names = append(names, string(known))
	}
	msg := fmt.Sprintf("%q is not one of %s", s, strings.Join(names, ", "))
	if suggestion, ok := SuggestCategory(s); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return "", fmt.Errorf("%s", msg)
}

// SuggestCategory returns the enumerated category closest to s by edit
// distance, ignoring case.
func SuggestCategory(s string) (Category, bool) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return "", false
	}
	best := Category("")
	bestDist := maxSuggestionDistance + 1
	for _, c := range Categories() {
		dist := levenshtein.ComputeDistance(in, strings.ToLower(string(c)))
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
