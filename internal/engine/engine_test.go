package engine

import (
	"errors"
	"testing"
)

func newRound(t *testing.T, word string) (*Engine, *[]Concluded) {
	t.Helper()
	e := New()
	var events []Concluded
	e.Subscribe(func(c Concluded) {
		events = append(events, c)
	})
	if err := e.StartRound(word); err != nil {
		t.Fatalf("start round %q: %v", word, err)
	}
	return e, &events
}

func TestStartRoundResetsState(t *testing.T) {
	e, _ := newRound(t, "cat")
	e.Guess('x')
	e.UseHint()
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	if err := e.StartRound("Dog"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := e.Snapshot()
	if snap.Round != 2 {
		t.Fatalf("expected round 2, got %d", snap.Round)
	}
	if snap.RemainingAttempts != DefaultAttempts || snap.SecondsRemaining != DefaultSeconds {
		t.Fatalf("expected fresh counters, got %d attempts %d seconds", snap.RemainingAttempts, snap.SecondsRemaining)
	}
	if snap.HintConsumed || snap.Over || len(snap.Guessed) != 0 {
		t.Fatalf("expected clean round, got %+v", snap)
	}
	if snap.Mask != "_ _ _" {
		t.Fatalf("expected lowercase word mask, got %q", snap.Mask)
	}
}

func TestStartRoundRejectsInvalidWords(t *testing.T) {
	for _, word := range []string{"", "   ", "co-op", "r2d2", "two words"} {
		e := New()
		err := e.StartRound(word)
		var invalid *InvalidWordError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidWordError for %q, got %v", word, err)
		}
		if e.Round() != 0 {
			t.Fatalf("expected no round for %q", word)
		}
	}
}

func TestStartRoundAcceptsAccentedLetters(t *testing.T) {
	e := New()
	if err := e.StartRound("Árbol"); err != nil {
		t.Fatalf("expected accented word to be valid: %v", err)
	}
	if !e.Guess('á') || e.Mask() != "á _ _ _ _" {
		t.Fatalf("unexpected mask %q", e.Mask())
	}
}

func TestIdleEngineIgnoresIntents(t *testing.T) {
	e := New()
	if e.Guess('a') || e.Tick() || e.UseHint() {
		t.Fatalf("expected idle engine to ignore intents")
	}
	if e.Mask() != "" {
		t.Fatalf("expected empty mask, got %q", e.Mask())
	}
}

func TestCatScenario(t *testing.T) {
	e, events := newRound(t, "cat")
	masks := []string{e.Mask()}
	for _, r := range "cat" {
		e.Guess(r)
		masks = append(masks, e.Mask())
	}
	expected := []string{"_ _ _", "c _ _", "c a _", "c a t"}
	for i, want := range expected {
		if masks[i] != want {
			t.Fatalf("mask %d: expected %q, got %q", i, want, masks[i])
		}
	}
	if e.Outcome() != OutcomeWin {
		t.Fatalf("expected win, got %v", e.Outcome())
	}
	if len(*events) != 1 || (*events)[0].Word != "cat" || (*events)[0].Outcome != OutcomeWin {
		t.Fatalf("expected one win event, got %+v", *events)
	}
	if e.RemainingAttempts() != DefaultAttempts {
		t.Fatalf("correct guesses must not cost attempts")
	}
}

func TestDogAttemptsExhausted(t *testing.T) {
	e, events := newRound(t, "dog")
	for i, r := range "xyzqwv" {
		if !e.Guess(r) {
			t.Fatalf("guess %c rejected", r)
		}
		if got, want := e.RemainingAttempts(), DefaultAttempts-i-1; got != want {
			t.Fatalf("after %d wrong guesses expected %d attempts, got %d", i+1, want, got)
		}
	}
	if !e.Over() || e.Outcome() != OutcomeLossAttempts {
		t.Fatalf("expected loss(attempts), got %v", e.Outcome())
	}
	if len(*events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(*events))
	}
	if e.Guess('d') {
		t.Fatalf("expected guesses to be ignored after the round ended")
	}
	if e.RemainingAttempts() != 0 {
		t.Fatalf("attempts must not go below zero")
	}
	if e.Snapshot().Word != "dog" {
		t.Fatalf("expected word revealed after the round ended")
	}
}

func TestTimeoutAfterSixtyTicks(t *testing.T) {
	e, events := newRound(t, "owl")
	e.Guess('z')
	for i := 0; i < DefaultSeconds-1; i++ {
		e.Tick()
		if e.Over() {
			t.Fatalf("round ended early at tick %d", i+1)
		}
	}
	if e.SecondsRemaining() != 1 {
		t.Fatalf("expected 1 second left, got %d", e.SecondsRemaining())
	}
	e.Tick()
	if e.Outcome() != OutcomeLossTimeout {
		t.Fatalf("expected loss(timeout), got %v", e.Outcome())
	}
	if e.RemainingAttempts() != DefaultAttempts-1 {
		t.Fatalf("timeout must not touch attempts")
	}
	if e.Tick() || e.SecondsRemaining() != 0 {
		t.Fatalf("expected ticks after timeout to be ignored")
	}
	if len(*events) != 1 || (*events)[0].Outcome != OutcomeLossTimeout {
		t.Fatalf("expected one timeout event, got %+v", *events)
	}
}

func TestRepeatedGuessIsNoop(t *testing.T) {
	e, _ := newRound(t, "cat")
	e.Guess('x')
	before := e.Snapshot()
	if e.Guess('x') || e.Guess('X') {
		t.Fatalf("expected repeated guess to be rejected")
	}
	after := e.Snapshot()
	if before.RemainingAttempts != after.RemainingAttempts || len(before.Guessed) != len(after.Guessed) {
		t.Fatalf("repeated guess changed state: %+v -> %+v", before, after)
	}
	if after.HintConsumed {
		t.Fatalf("repeated guess must not consume the hint")
	}
}

func TestNonLetterGuessIsNoop(t *testing.T) {
	e, _ := newRound(t, "cat")
	if e.Guess('1') || e.Guess(' ') {
		t.Fatalf("expected non-letters to be ignored")
	}
	if e.RemainingAttempts() != DefaultAttempts {
		t.Fatalf("non-letter cost an attempt")
	}
}

func TestHintRevealsFirstLetterOnce(t *testing.T) {
	e, _ := newRound(t, "owl")
	if !e.UseHint() {
		t.Fatalf("expected hint to apply")
	}
	snap := e.Snapshot()
	if len(snap.Guessed) != 1 || snap.Guessed[0] != 'o' {
		t.Fatalf("expected 'o' revealed, got %q", string(snap.Guessed))
	}
	if snap.RemainingAttempts != DefaultAttempts || !snap.HintConsumed {
		t.Fatalf("unexpected state after hint: %+v", snap)
	}
	if e.UseHint() {
		t.Fatalf("expected second hint to be a no-op")
	}
	if len(e.Snapshot().Guessed) != 1 {
		t.Fatalf("second hint changed guesses")
	}
}

func TestHintOnGuessedFirstLetterRevealsNothingNew(t *testing.T) {
	e, _ := newRound(t, "owl")
	e.Guess('o')
	if !e.UseHint() {
		t.Fatalf("expected hint to be consumed")
	}
	if e.Mask() != "o _ _" {
		t.Fatalf("expected mask to stay o _ _, got %q", e.Mask())
	}
	if !e.HintConsumed() || e.RemainingAttempts() != DefaultAttempts {
		t.Fatalf("unexpected state after hint: %+v", e.Snapshot())
	}
	if len(e.Snapshot().Guessed) != 1 {
		t.Fatalf("hint duplicated a guessed letter: %q", string(e.Snapshot().Guessed))
	}
}

func TestHintWinsSingleLetterWord(t *testing.T) {
	e, events := newRound(t, "a")
	e.UseHint()
	if e.Outcome() != OutcomeWin || len(*events) != 1 {
		t.Fatalf("expected hint to win, got %v with %d events", e.Outcome(), len(*events))
	}
}

func TestWinCheckedBeforeAttempts(t *testing.T) {
	e := New(WithAttempts(1))
	var events []Concluded
	e.Subscribe(func(c Concluded) { events = append(events, c) })
	if err := e.StartRound("ab"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Guess('a')
	e.Guess('b')
	if e.Outcome() != OutcomeWin {
		t.Fatalf("expected win, got %v", e.Outcome())
	}

	if err := e.StartRound("ab"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	e.remaining = 0
	e.guessed['a'] = struct{}{}
	e.guessed['b'] = struct{}{}
	e.evaluate()
	if e.Outcome() != OutcomeWin {
		t.Fatalf("expected win to take priority when both conditions hold, got %v", e.Outcome())
	}
	if len(events) != 2 {
		t.Fatalf("expected one event per round, got %d", len(events))
	}
}

func TestHintAfterRoundOverIsNoop(t *testing.T) {
	e, _ := newRound(t, "a")
	e.Guess('a')
	if e.UseHint() || e.HintConsumed() {
		t.Fatalf("expected hint to be ignored after the round ended")
	}
}

func TestCustomBudgets(t *testing.T) {
	e := New(WithAttempts(3), WithRoundSeconds(5), WithAttempts(0))
	if err := e.StartRound("go"); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := e.Snapshot()
	if snap.MaxAttempts != 3 || snap.SecondsRemaining != 5 {
		t.Fatalf("expected 3 attempts and 5 seconds, got %+v", snap)
	}
}

func TestWrongLettersInOrder(t *testing.T) {
	e, _ := newRound(t, "cat")
	for _, r := range "zcya" {
		e.Guess(r)
	}
	if got := string(e.WrongLetters()); got != "zy" {
		t.Fatalf("expected wrong letters zy, got %q", got)
	}
}

func TestOutcomeMapping(t *testing.T) {
	cases := []struct {
		outcome Outcome
		result  string
		reason  string
	}{
		{OutcomeWin, "Win", ""},
		{OutcomeLossAttempts, "Loss", "attempts"},
		{OutcomeLossTimeout, "Loss", "timeout"},
	}
	for _, c := range cases {
		if string(c.outcome.Result()) != c.result || string(c.outcome.Reason()) != c.reason {
			t.Fatalf("%v: expected %s/%s, got %s/%s", c.outcome, c.result, c.reason, c.outcome.Result(), c.outcome.Reason())
		}
	}
}
