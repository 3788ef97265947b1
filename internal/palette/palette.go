// Package palette loads category colours and icons from a YAML file.
//
// The file maps category names to a style:
//
//	Food:
//	  color: "#ff9900"
//	  icon: "🍕"
//	Pets:
//	  color: "#22c55e"
//
// Entries are merged over core.DefaultPalette; a style that leaves a field
// blank keeps the default value for that field.
package palette

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"expenses/internal/core"
)

// Load reads path and merges it over the default palette. An empty path
// returns the defaults.
func Load(path string) (core.Palette, error) {
	if strings.TrimSpace(path) == "" {
		return core.DefaultPalette(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette file: %w", err)
	}
	return Parse(data)
}

// Parse merges YAML palette data over the default palette.
func Parse(data []byte) (core.Palette, error) {
	var overrides map[string]core.Style
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}

	p := core.DefaultPalette()
	for name, style := range overrides {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("parse palette: empty category name")
		}
		cat := core.Category(name)
		merged := p[cat]
		if style.Color != "" {
			merged.Color = style.Color
		}
		if style.Icon != "" {
			merged.Icon = style.Icon
		}
		p[cat] = merged
	}
	return p, nil
}
