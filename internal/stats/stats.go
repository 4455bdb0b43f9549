// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/hangman/internal/i18n"
	"github.com/verte-zerg/hangman/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a run of history entries.
type Summary struct {
	Played        int
	Wins          int
	Losses        int
	Timeouts      int
	WinRate       float64
	CurrentStreak int
	BestStreak    int
}

// LangSummary is a Summary for one language.
type LangSummary struct {
	Lang model.Language
	Summary
}

// Summarize computes totals and win streaks. Entries are oldest first.
func Summarize(entries []model.HistoryEntry) Summary {
	var s Summary
	s.Played = len(entries)
	streak := 0
	for _, e := range entries {
		if e.Result == model.ResultWin {
			s.Wins++
			streak++
			if streak > s.BestStreak {
				s.BestStreak = streak
			}
			continue
		}
		s.Losses++
		if e.Reason == model.ReasonTimeout {
			s.Timeouts++
		}
		streak = 0
	}
	s.CurrentStreak = streak
	if s.Played > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Played)
	}
	return s
}

// ByLanguage summarizes entries per language in model.Languages order.
// Entries recorded without a language are counted as English.
func ByLanguage(entries []model.HistoryEntry) []LangSummary {
	groups := lo.GroupBy(entries, func(e model.HistoryEntry) model.Language {
		if e.Lang == "" {
			return model.LangEN
		}
		return e.Lang
	})
	out := make([]LangSummary, 0, len(groups))
	for _, lang := range model.Languages {
		group, ok := groups[lang]
		if !ok {
			continue
		}
		out = append(out, LangSummary{Lang: lang, Summary: Summarize(group)})
	}
	return out
}

// Filter applies the language and last-N filters.
func Filter(entries []model.HistoryEntry, cfg model.StatsConfig) []model.HistoryEntry {
	out := entries
	if cfg.Lang != "" {
		out = lo.Filter(out, func(e model.HistoryEntry, _ int) bool {
			return e.Lang == cfg.Lang || (e.Lang == "" && cfg.Lang == model.LangEN)
		})
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out
}

// WinSeries maps entries to 1 for a win and 0 for a loss.
func WinSeries(entries []model.HistoryEntry) []float64 {
	return lo.Map(entries, func(e model.HistoryEntry, _ int) float64 {
		if e.Result == model.ResultWin {
			return 1
		}
		return 0
	})
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the summary block, a per-language table and a
// rolling win-rate sparkline no wider than width.
func RenderSummary(w io.Writer, report Report, lang model.Language, width int) error {
	if report.Summary.Played == 0 {
		_, err := fmt.Fprintln(w, i18n.T(lang, i18n.HistoryEmpty))
		return err
	}
	s := report.Summary
	lines := []string{
		i18n.T(lang, i18n.Title),
		fmt.Sprintf("%s: %d", i18n.T(lang, i18n.Played), s.Played),
		fmt.Sprintf("%s: %d / %s: %d", i18n.T(lang, i18n.Win), s.Wins, i18n.T(lang, i18n.Loss), s.Losses),
		fmt.Sprintf("%s: %.1f%%", i18n.T(lang, i18n.WinRate), s.WinRate*100),
		fmt.Sprintf("%s: %d", i18n.T(lang, i18n.Streak), s.CurrentStreak),
		fmt.Sprintf("%s: %d", i18n.T(lang, i18n.BestStreak), s.BestStreak),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if len(report.PerLang) > 1 {
		headers := []string{i18n.T(lang, i18n.Language), i18n.T(lang, i18n.Played), i18n.T(lang, i18n.Win), i18n.T(lang, i18n.WinRate)}
		rows := make([][]string, 0, len(report.PerLang))
		for _, ls := range report.PerLang {
			rows = append(rows, []string{
				i18n.LanguageName(lang, ls.Lang),
				fmt.Sprintf("%d", ls.Played),
				fmt.Sprintf("%d", ls.Wins),
				fmt.Sprintf("%.1f%%", ls.WinRate*100),
			})
		}
		for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}

	curve := report.Curve
	if width > 0 && len(curve) > width {
		curve = curve[len(curve)-width:]
	}
	if len(curve) > 1 {
		if _, err := fmt.Fprintf(w, "%s\n[%s]\n", i18n.T(lang, i18n.WinRate), Sparkline(curve)); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistory prints entries as a table, oldest first.
func RenderHistory(w io.Writer, entries []model.HistoryEntry, lang model.Language) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, i18n.T(lang, i18n.HistoryEmpty))
		return err
	}
	headers := []string{"#", i18n.T(lang, i18n.Word), i18n.T(lang, i18n.Result), i18n.T(lang, i18n.Language), ""}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		note := ""
		if e.Reason == model.ReasonTimeout {
			note = i18n.T(lang, i18n.TimeUp)
		}
		entryLang := e.Lang
		if entryLang == "" {
			entryLang = model.LangEN
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Word,
			i18n.ResultLabel(lang, e.Result),
			string(entryLang),
			note,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true}) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
