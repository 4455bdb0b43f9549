package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/store"
)

// DefaultCurveWindow is the rolling window for the win-rate curve.
const DefaultCurveWindow = 5

// Report contains precomputed data for stats rendering.
type Report struct {
	Entries []model.HistoryEntry
	Summary Summary
	PerLang []LangSummary
	Curve   []float64
}

// BuildReport loads history and prepares data for stats rendering.
func BuildReport(ctx context.Context, history store.History, cfg model.StatsConfig) (Report, error) {
	entries, err := history.LoadAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load history: %w", err)
	}
	return NewReport(entries, cfg), nil
}

// NewReport builds a Report from already loaded entries.
func NewReport(entries []model.HistoryEntry, cfg model.StatsConfig) Report {
	entries = Filter(entries, cfg)
	return Report{
		Entries: entries,
		Summary: Summarize(entries),
		PerLang: ByLanguage(entries),
		Curve:   MovingAverage(WinSeries(entries), DefaultCurveWindow),
	}
}
