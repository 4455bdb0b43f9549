// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Language is a supported word language tag.
type Language string

// Supported languages.
const (
	LangEN Language = "en"
	LangES Language = "es"
	LangFR Language = "fr"
)

// Languages lists the supported languages in display order.
var Languages = []Language{LangEN, LangES, LangFR}

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Languages {
		if l == lang {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unknown language %q (available: en, es, fr)", s)
}

// Next returns the language after l, wrapping around.
func (l Language) Next() Language {
	for i, cand := range Languages {
		if cand == l {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return LangEN
}

// Result is the persisted outcome of a round.
type Result string

// Round results.
const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
)

// LossReason explains a loss.
type LossReason string

// Loss reasons. Wins carry no reason.
const (
	ReasonAttempts LossReason = "attempts"
	ReasonTimeout  LossReason = "timeout"
)

// HistoryEntry records one concluded round.
type HistoryEntry struct {
	Word    string     `json:"word"`
	Result  Result     `json:"result"`
	Reason  LossReason `json:"reason,omitempty"`
	Lang    Language   `json:"lang,omitempty"`
	EndedAt *time.Time `json:"endedAt,omitempty"`
}

// Config defines play settings.
type Config struct {
	Lang     Language
	Attempts int
	Seconds  int
	Source   string
	WordURL  string
	Retries  int
	DBPath   string
	LogLevel string
}

// StatsConfig defines filters for history and stats output.
type StatsConfig struct {
	Lang Language
	Last int
}
