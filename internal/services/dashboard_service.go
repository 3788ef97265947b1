package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"expenses/internal/aggregate"
	"expenses/internal/cache"
	"expenses/internal/chart"
	"expenses/internal/core"
	"expenses/internal/filter"
	"expenses/internal/format"
)

// EmptyListText is shown in place of an empty entry list.
const EmptyListText = "No expenses yet."

// SnapshotSource is satisfied by *ledger.Store.
type SnapshotSource interface {
	Snapshot() (core.LedgerState, uint64)
}

// EntryView is an entry decorated for display.
type EntryView struct {
	core.Entry
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	AmountText string `json:"amount_text"`
}

type Summary struct {
	Count           int     `json:"count"`
	Total           float64 `json:"total"`
	PeriodTotal     float64 `json:"period_total"`
	TotalText       string  `json:"total_text"`
	PeriodTotalText string  `json:"period_total_text"`
	Period          string  `json:"period"`
}

type Charts struct {
	Categories []core.CategorySlice `json:"categories"`
	Trend      []core.TimeBucket    `json:"trend"`
	Pie        chart.Pie            `json:"pie"`
	Bars       []chart.Bar          `json:"bars"`
}

// Dashboard is everything the ledger page shows: the filtered list plus
// totals and charts computed over the whole ledger.
type Dashboard struct {
	Revision uint64       `json:"revision"`
	Currency string       `json:"currency"`
	Filter   *filter.Spec `json:"-"`
	Entries  []EntryView  `json:"entries"`
	Summary  Summary      `json:"summary"`
	Charts   Charts       `json:"charts"`
}

// BuildDashboard derives the dashboard from a snapshot. Entries are sorted
// for display first; the filter only narrows the list, while totals and
// charts use every entry. ref selects the current period and the last month
// of the trend.
func BuildDashboard(state core.LedgerState, revision uint64, spec *filter.Spec, ref time.Time, palette core.Palette) *Dashboard {
	sorted := filter.SortForDisplay(state.Entries)
	visible := filter.Apply(sorted, spec)

	views := make([]EntryView, len(visible))
	for i, e := range visible {
		views[i] = EntryView{
			Entry:      e,
			Icon:       palette.Icon(e.Category),
			Color:      palette.Color(e.Category),
			AmountText: format.Format(e.Amount.Value(), state.Currency),
		}
	}

	total := aggregate.Total(sorted)
	period := aggregate.PeriodTotal(sorted, ref)
	categories := aggregate.ByCategory(sorted)
	trend := aggregate.ByTrailingMonth(sorted, ref, aggregate.DefaultWindow)

	return &Dashboard{
		Revision: revision,
		Currency: state.Currency,
		Filter:   spec,
		Entries:  views,
		Summary: Summary{
			Count:           len(sorted),
			Total:           total,
			PeriodTotal:     period,
			TotalText:       format.Format(total, state.Currency),
			PeriodTotalText: format.Format(period, state.Currency),
			Period:          core.MonthKey(ref),
		},
		Charts: Charts{
			Categories: categories,
			Trend:      trend,
			Pie:        chart.PieLayout(categories, chart.PieCenter, chart.PieRadius, palette),
			Bars:       chart.BarLayout(trend, chart.BarWidth, chart.BarHeight, chart.BarPadding),
		},
	}
}

// DashboardService memoizes dashboards per ledger revision, filter and
// period, and collapses concurrent builds of the same key.
type DashboardService struct {
	source  SnapshotSource
	palette core.Palette
	cache   cache.Cache[*Dashboard]
	group   singleflight.Group
	now     func() time.Time
}

func NewDashboardService(source SnapshotSource, palette core.Palette, c cache.Cache[*Dashboard]) *DashboardService {
	if palette == nil {
		palette = core.DefaultPalette()
	}
	return &DashboardService{
		source:  source,
		palette: palette,
		cache:   c,
		now:     time.Now,
	}
}

// Palette returns the palette used for charts and list icons.
func (s *DashboardService) Palette() core.Palette {
	return s.palette
}

// Dashboard returns the current dashboard for spec. Callers must not modify
// the result: it may be shared with other requests.
func (s *DashboardService) Dashboard(ctx context.Context, spec *filter.Spec) (*Dashboard, error) {
	state, revision := s.source.Snapshot()
	ref := s.now()
	key := fmt.Sprintf("%d|%s|%s", revision, spec.Key(), core.MonthKey(ref))

	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		d := BuildDashboard(state, revision, spec, ref, s.palette)
		if s.cache != nil {
			s.cache.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Dashboard built",
		"revision", revision,
		"filter", spec.Key(),
		"shared", shared)
	return v.(*Dashboard), nil
}
