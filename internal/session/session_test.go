package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/store"
	"github.com/verte-zerg/hangman/internal/words"
)

type queueSource struct {
	words []string
	langs []model.Language
	err   error
}

func (q *queueSource) FetchWord(_ context.Context, lang model.Language) (string, error) {
	q.langs = append(q.langs, lang)
	if q.err != nil {
		return "", q.err
	}
	word := q.words[0]
	q.words = q.words[1:]
	return word, nil
}

func newController(t *testing.T, list ...string) (*Controller, *store.Memory, *queueSource) {
	t.Helper()
	src := &queueSource{words: list}
	hist := store.NewMemory()
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := New(src, hist, WithClock(func() time.Time { return fixed }))
	return c, hist, src
}

func loadAll(t *testing.T, hist *store.Memory) []model.HistoryEntry {
	t.Helper()
	entries, err := hist.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	return entries
}

func TestWinAppendsOneEntry(t *testing.T) {
	c, hist, _ := newController(t, "cat")
	var cues []Cue
	c.OnCue(func(cue Cue) { cues = append(cues, cue) })
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, r := range "cat" {
		c.Guess(r)
	}
	c.Guess('x')
	c.Tick(c.Round())

	entries := loadAll(t, hist)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", entries)
	}
	if entries[0].Word != "cat" || entries[0].Result != model.ResultWin || entries[0].Lang != model.LangEN {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[0].EndedAt == nil {
		t.Fatalf("expected end timestamp")
	}
	if len(cues) != 1 || cues[0].Kind != CueWin {
		t.Fatalf("expected one win cue, got %+v", cues)
	}
}

func TestTimeoutAppendsLoss(t *testing.T) {
	c, hist, _ := newController(t, "owl")
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	round := c.Round()
	for i := 0; i < engine.DefaultSeconds+5; i++ {
		c.Tick(round)
	}
	entries := loadAll(t, hist)
	if len(entries) != 1 || entries[0].Result != model.ResultLoss || entries[0].Reason != model.ReasonTimeout {
		t.Fatalf("expected single timeout loss, got %+v", entries)
	}
}

func TestStaleTickIgnored(t *testing.T) {
	c, _, _ := newController(t, "cat", "dog")
	ctx := context.Background()
	_ = c.Fetch(ctx)
	old := c.Round()
	_ = c.Fetch(ctx)
	if c.Tick(old) {
		t.Fatalf("expected tick for previous round to be ignored")
	}
	if got := c.Snapshot().SecondsRemaining; got != engine.DefaultSeconds {
		t.Fatalf("stale tick changed countdown to %d", got)
	}
	if !c.Tick(c.Round()) {
		t.Fatalf("expected current tick to apply")
	}
}

func TestStaleFetchDiscarded(t *testing.T) {
	c, _, _ := newController(t)
	first := c.BeginFetch(model.LangEN)
	second := c.SetLanguage(model.LangES)

	if err := c.CompleteFetch(second, "perro", nil); err != nil {
		t.Fatalf("complete current: %v", err)
	}
	if err := c.CompleteFetch(first, "cat", nil); !errors.Is(err, ErrStaleTicket) {
		t.Fatalf("expected stale ticket, got %v", err)
	}
	if c.Snapshot().Length != len("perro") || c.Round() != 1 {
		t.Fatalf("stale fetch replaced the round: %+v", c.Snapshot())
	}
}

func TestFetchErrorKeepsRound(t *testing.T) {
	c, _, src := newController(t, "cat")
	ctx := context.Background()
	_ = c.Fetch(ctx)
	c.Guess('c')

	src.err = &words.FetchError{Lang: model.LangEN, Status: 500}
	err := c.Fetch(ctx)
	var fetchErr *words.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if c.Round() != 1 || c.Snapshot().Mask != "c _ _" {
		t.Fatalf("failed fetch touched the round: %+v", c.Snapshot())
	}
	if c.Pending() || c.LastError() == nil {
		t.Fatalf("expected fetch to settle with an error")
	}
}

func TestNewWordKeepsHistoryRestartClears(t *testing.T) {
	c, hist, src := newController(t, "a", "b", "c")
	ctx := context.Background()
	_ = c.Fetch(ctx)
	c.Guess('a')

	tk := c.NewWord()
	word, err := c.Resolve(ctx, tk)
	if err := c.CompleteFetch(tk, word, err); err != nil {
		t.Fatalf("new word: %v", err)
	}
	if len(loadAll(t, hist)) != 1 {
		t.Fatalf("new word must keep history")
	}

	tk, err = c.Restart(ctx)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if len(loadAll(t, hist)) != 0 {
		t.Fatalf("restart must clear history")
	}
	word, err = c.Resolve(ctx, tk)
	if err := c.CompleteFetch(tk, word, err); err != nil {
		t.Fatalf("restart fetch: %v", err)
	}
	if c.Round() != 3 || len(src.words) != 0 {
		t.Fatalf("expected third round, got %d", c.Round())
	}
}

func TestSetLanguageFetchesInLanguage(t *testing.T) {
	c, hist, src := newController(t, "chat")
	tk := c.SetLanguage(model.LangFR)
	word, err := c.Resolve(context.Background(), tk)
	if err := c.CompleteFetch(tk, word, err); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Language() != model.LangFR || src.langs[0] != model.LangFR {
		t.Fatalf("expected fr fetch, got %v", src.langs)
	}
	for i := 0; i < engine.DefaultAttempts; i++ {
		c.Guess(rune('m' + i))
	}
	entries := loadAll(t, hist)
	if len(entries) != 1 || entries[0].Lang != model.LangFR || entries[0].Reason != model.ReasonAttempts {
		t.Fatalf("expected fr attempts loss, got %+v", entries)
	}
}

func TestInvalidWordFromSource(t *testing.T) {
	c, _, _ := newController(t, "r2d2")
	err := c.Fetch(context.Background())
	var invalid *engine.InvalidWordError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidWordError, got %v", err)
	}
	if c.Round() != 0 {
		t.Fatalf("expected no round")
	}
}

func TestSessionIDAssigned(t *testing.T) {
	a, _, _ := newController(t)
	b, _, _ := newController(t)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct session ids, got %q and %q", a.ID(), b.ID())
	}
}
