// Package chart computes renderer-agnostic geometry for the category pie and
// the monthly trend bars.
package chart

import (
	"fmt"
	"math"

	"expenses/internal/core"
)

const (
	// LabelMargin is the distance between the pie rim and a wedge label anchor.
	LabelMargin = 18.0
	// MinBarScale is the smallest value the bar chart scales against.
	MinBarScale = 10.0
	// BarWidthRatio is the share of each band occupied by its bar.
	BarWidthRatio = 0.6
	// BarLabelOffset is the distance between the canvas bottom and bar labels.
	BarLabelOffset = 6.0

	PlaceholderText = "No data"
)

// Default drawing surfaces.
const (
	PieWidth   = 200.0
	PieHeight  = 200.0
	PieRadius  = 80.0
	BarWidth   = 300.0
	BarHeight  = 120.0
	BarPadding = 20.0
)

// PieCenter is the centre of the default pie canvas.
var PieCenter = Point{X: PieWidth / 2, Y: PieHeight / 2}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Wedge is one pie slice. Angles are in radians, clockwise in screen
// coordinates, starting at -π/2 (twelve o'clock).
type Wedge struct {
	Category   core.Category `json:"category"`
	Value      float64       `json:"value"`
	StartAngle float64       `json:"start_angle"`
	EndAngle   float64       `json:"end_angle"`
	Start      Point         `json:"start"`
	End        Point         `json:"end"`
	LargeArc   bool          `json:"large_arc"`
	Color      string        `json:"color"`
	LabelAt    Point         `json:"label_at"`
	Label      string        `json:"label"`
}

// Placeholder is drawn instead of wedges when there is nothing to show.
type Placeholder struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Text   string  `json:"text"`
}

type Pie struct {
	Center      Point        `json:"center"`
	Radius      float64      `json:"radius"`
	Wedges      []Wedge      `json:"wedges"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
}

// Full reports whether the single wedge covers the whole circle. An SVG arc
// cannot draw that, so renderers should fall back to a circle.
func (w Wedge) Full() bool {
	return w.EndAngle-w.StartAngle >= 2*math.Pi-1e-9
}

type Bar struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	LabelAt Point   `json:"label_at"`
}

// PieLayout lays out one wedge per slice, in slice order. Wedge spans are
// proportional to value over the total; a zero total is treated as 1.
func PieLayout(slices []core.CategorySlice, center Point, radius float64, palette core.Palette) Pie {
	pie := Pie{Center: center, Radius: radius, Wedges: []Wedge{}}
	if len(slices) == 0 {
		pie.Placeholder = &Placeholder{
			Center: center,
			Radius: radius,
			Color:  core.FallbackColor,
			Text:   PlaceholderText,
		}
		return pie
	}

	total := 0.0
	for _, s := range slices {
		total += finite(s.Amount)
	}
	if total == 0 {
		total = 1
	}

	angle := -math.Pi / 2
	for _, s := range slices {
		v := finite(s.Amount)
		span := v / total * 2 * math.Pi
		end := angle + span
		mid := angle + span/2
		pie.Wedges = append(pie.Wedges, Wedge{
			Category:   s.Category,
			Value:      v,
			StartAngle: angle,
			EndAngle:   end,
			Start:      polar(center, radius, angle),
			End:        polar(center, radius, end),
			LargeArc:   span > math.Pi,
			Color:      palette.Color(s.Category),
			LabelAt:    polar(center, radius+LabelMargin, mid),
			Label:      fmt.Sprintf("%s (%d)", s.Category, int64(math.Round(v))),
		})
		angle = end
	}
	return pie
}

// BarLayout lays out one bar per bucket across equal bands of the canvas.
// Heights scale against the largest bucket, or MinBarScale when every bucket
// is smaller, and are clamped to the drawable height.
func BarLayout(buckets []core.TimeBucket, width, height, padding float64) []Bar {
	bars := make([]Bar, 0, len(buckets))
	if len(buckets) == 0 {
		return bars
	}

	drawable := math.Max(height-2*padding, 0)
	band := (width - 2*padding) / float64(len(buckets))
	barWidth := band * BarWidthRatio
	gap := band - barWidth

	scale := MinBarScale
	for _, b := range buckets {
		scale = math.Max(scale, finite(b.Amount))
	}

	for i, b := range buckets {
		v := finite(b.Amount)
		h := v / scale * drawable
		h = math.Min(math.Max(h, 0), drawable)
		x := padding + float64(i)*(barWidth+gap) + gap/2
		bars = append(bars, Bar{
			Key:     b.Key,
			Label:   b.Label,
			Value:   v,
			X:       x,
			Y:       height - padding - h,
			Width:   barWidth,
			Height:  h,
			LabelAt: Point{X: x + barWidth/2, Y: height - BarLabelOffset},
		})
	}
	return bars
}

func polar(c Point, r, angle float64) Point {
	return Point{X: c.X + r*math.Cos(angle), Y: c.Y + r*math.Sin(angle)}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
