package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

const eps = 1e-9

func TestPieLayoutEmpty(t *testing.T) {
	pie := PieLayout(nil, PieCenter, PieRadius, core.DefaultPalette())
	assert.Empty(t, pie.Wedges)
	require.NotNil(t, pie.Placeholder)
	assert.Equal(t, PlaceholderText, pie.Placeholder.Text)
	assert.Equal(t, Point{X: 100, Y: 100}, pie.Placeholder.Center)
	assert.Equal(t, 80.0, pie.Placeholder.Radius)
}

func TestPieLayoutSpans(t *testing.T) {
	slices := []core.CategorySlice{
		{Category: core.Travel, Amount: 1200},
		{Category: core.Food, Amount: 200},
		{Category: core.Category("Pets"), Amount: 200},
	}
	pie := PieLayout(slices, PieCenter, PieRadius, core.DefaultPalette())
	require.Len(t, pie.Wedges, 3)
	assert.Nil(t, pie.Placeholder)

	sum := 0.0
	for i, w := range pie.Wedges {
		sum += w.EndAngle - w.StartAngle
		if i > 0 {
			assert.InDelta(t, pie.Wedges[i-1].EndAngle, w.StartAngle, eps)
		}
	}
	assert.InDelta(t, 2*math.Pi, sum, eps)
	assert.InDelta(t, -math.Pi/2, pie.Wedges[0].StartAngle, eps)

	travel := pie.Wedges[0]
	assert.True(t, travel.LargeArc)
	assert.Equal(t, "#06b6d4", travel.Color)
	assert.Equal(t, "Travel (1200)", travel.Label)
	assert.InDelta(t, 100, travel.Start.X, eps)
	assert.InDelta(t, 20, travel.Start.Y, eps)

	assert.False(t, pie.Wedges[1].LargeArc)
	assert.Equal(t, core.FallbackColor, pie.Wedges[2].Color)
}

func TestPieLayoutLabelAnchor(t *testing.T) {
	slices := []core.CategorySlice{
		{Category: core.Food, Amount: 1},
		{Category: core.Bills, Amount: 1},
	}
	pie := PieLayout(slices, PieCenter, PieRadius, core.DefaultPalette())

	// First half circle: mid angle is 0, so the label sits right of centre.
	assert.InDelta(t, 100+80+LabelMargin, pie.Wedges[0].LabelAt.X, eps)
	assert.InDelta(t, 100, pie.Wedges[0].LabelAt.Y, eps)
	assert.False(t, pie.Wedges[0].LargeArc)
}

func TestPieLayoutZeroTotal(t *testing.T) {
	slices := []core.CategorySlice{{Category: core.Food, Amount: 0}}
	pie := PieLayout(slices, PieCenter, PieRadius, core.DefaultPalette())
	require.Len(t, pie.Wedges, 1)
	assert.Equal(t, pie.Wedges[0].StartAngle, pie.Wedges[0].EndAngle)
	assert.Equal(t, "Food (0)", pie.Wedges[0].Label)
}

func TestPieLayoutSingleWedgeIsFull(t *testing.T) {
	pie := PieLayout([]core.CategorySlice{{Category: core.Food, Amount: 5}}, PieCenter, PieRadius, core.DefaultPalette())
	assert.True(t, pie.Wedges[0].Full())
	assert.True(t, pie.Wedges[0].LargeArc)
}

func TestBarLayout(t *testing.T) {
	buckets := []core.TimeBucket{
		{Label: "Oct", Key: "2023-10", Amount: 0},
		{Label: "Nov", Key: "2023-11", Amount: 50},
		{Label: "Dec", Key: "2023-12", Amount: 100},
		{Label: "Jan", Key: "2024-01", Amount: 25},
		{Label: "Feb", Key: "2024-02", Amount: math.NaN()},
		{Label: "Mar", Key: "2024-03", Amount: 100},
	}
	bars := BarLayout(buckets, BarWidth, BarHeight, BarPadding)
	require.Len(t, bars, 6)

	band := (300.0 - 40) / 6
	for i, b := range bars {
		assert.GreaterOrEqual(t, b.Height, 0.0)
		assert.LessOrEqual(t, b.Height, 80.0)
		assert.InDelta(t, 120-20-b.Height, b.Y, eps)
		assert.InDelta(t, band*0.6, b.Width, eps)
		assert.InDelta(t, 20+float64(i)*band+band*0.2, b.X, eps)
		assert.InDelta(t, b.X+b.Width/2, b.LabelAt.X, eps)
		assert.Equal(t, 114.0, b.LabelAt.Y)
		assert.Equal(t, buckets[i].Label, b.Label)
	}
	assert.InDelta(t, 80, bars[2].Height, eps)
	assert.InDelta(t, 40, bars[1].Height, eps)
	assert.Zero(t, bars[4].Height)
}

func TestBarLayoutMinimumScale(t *testing.T) {
	bars := BarLayout([]core.TimeBucket{{Amount: 5}, {Amount: 0}}, BarWidth, BarHeight, BarPadding)
	assert.InDelta(t, 40, bars[0].Height, eps)
	assert.Zero(t, bars[1].Height)
}

func TestBarLayoutEmpty(t *testing.T) {
	assert.Empty(t, BarLayout(nil, BarWidth, BarHeight, BarPadding))
}
