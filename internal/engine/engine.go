// Package engine implements the Hangman round state machine.
//
// The engine never reads the clock and performs no I/O. Time enters only
// through Tick, words only through StartRound, and terminal outcomes leave
// only through subscribers registered with Subscribe.
package engine

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/verte-zerg/hangman/internal/model"
)

// Round defaults.
const (
	DefaultAttempts = 6
	DefaultSeconds  = 60
)

// Placeholder hides an unrevealed letter in the mask.
const Placeholder = "_"

// Outcome is the terminal state of a round.
type Outcome int

// Outcomes. OutcomeNone means the round is still running (or never started).
const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLossAttempts
	OutcomeLossTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLossAttempts:
		return "loss(attempts)"
	case OutcomeLossTimeout:
		return "loss(timeout)"
	default:
		return "none"
	}
}

// Result maps the outcome to its persisted form.
func (o Outcome) Result() model.Result {
	if o == OutcomeWin {
		return model.ResultWin
	}
	return model.ResultLoss
}

// Reason returns the loss reason, empty for wins.
func (o Outcome) Reason() model.LossReason {
	switch o {
	case OutcomeLossAttempts:
		return model.ReasonAttempts
	case OutcomeLossTimeout:
		return model.ReasonTimeout
	default:
		return ""
	}
}

// Concluded is delivered to subscribers exactly once per finished round.
type Concluded struct {
	Round   uint64
	Word    string
	Outcome Outcome
}

// Snapshot is a read-only copy of the engine state for renderers.
type Snapshot struct {
	Round             uint64
	Active            bool
	Over              bool
	Outcome           Outcome
	Mask              string
	Word              string
	Length            int
	Guessed           []rune
	Wrong             []rune
	RemainingAttempts int
	MaxAttempts       int
	SecondsRemaining  int
	RoundSeconds      int
	HintConsumed      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAttempts sets the wrong-guess budget per round.
func WithAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithRoundSeconds sets the countdown length per round.
func WithRoundSeconds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.roundSeconds = n
		}
	}
}

// Engine owns all round state.
type Engine struct {
	maxAttempts  int
	roundSeconds int

	word      []rune
	guessed   map[rune]struct{}
	order     []rune
	remaining int
	seconds   int
	hintUsed  bool
	over      bool
	outcome   Outcome
	round     uint64

	subscribers []func(Concluded)
}

// New returns an idle engine. No round is active until StartRound succeeds.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxAttempts:  DefaultAttempts,
		roundSeconds: DefaultSeconds,
		guessed:      map[rune]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn to receive round conclusions.
func (e *Engine) Subscribe(fn func(Concluded)) {
	e.subscribers = append(e.subscribers, fn)
}

// StartRound resets the round state and installs word as the target.
func (e *Engine) StartRound(word string) error {
	normalized, err := NormalizeWord(word)
	if err != nil {
		return err
	}
	e.word = []rune(normalized)
	e.guessed = map[rune]struct{}{}
	e.order = nil
	e.remaining = e.maxAttempts
	e.seconds = e.roundSeconds
	e.hintUsed = false
	e.over = false
	e.outcome = OutcomeNone
	e.round++
	return nil
}

// NormalizeWord lower-cases word and checks that it is a non-empty run of letters.
func NormalizeWord(word string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return "", &InvalidWordError{Word: word, Reason: "empty"}
	}
	for _, r := range normalized {
		if !unicode.IsLetter(r) {
			return "", &InvalidWordError{Word: word, Reason: "contains non-letter " + strconv.QuoteRune(r)}
		}
	}
	return normalized, nil
}

// Guess records letter. It reports whether state changed.
func (e *Engine) Guess(letter rune) bool {
	if !e.active() {
		return false
	}
	letter = unicode.ToLower(letter)
	if !unicode.IsLetter(letter) {
		return false
	}
	if _, seen := e.guessed[letter]; seen {
		return false
	}
	e.reveal(letter)
	if !lo.Contains(e.word, letter) && e.remaining > 0 {
		e.remaining--
	}
	e.evaluate()
	return true
}

// Tick consumes one second of the countdown. It reports whether state changed.
func (e *Engine) Tick() bool {
	if !e.active() {
		return false
	}
	if e.seconds > 0 {
		e.seconds--
	}
	if e.seconds == 0 {
		e.conclude(OutcomeLossTimeout)
	}
	return true
}

// UseHint reveals the first letter of the word once per round. When that
// letter is already guessed the hint is still consumed.
func (e *Engine) UseHint() bool {
	if !e.active() || e.hintUsed {
		return false
	}
	if first := e.word[0]; !e.Guessed(first) {
		e.reveal(first)
	}
	e.hintUsed = true
	e.evaluate()
	return true
}

// Mask renders the word with unrevealed letters replaced by Placeholder.
func (e *Engine) Mask() string {
	parts := lo.Map(e.word, func(r rune, _ int) string {
		if _, ok := e.guessed[r]; ok {
			return string(r)
		}
		return Placeholder
	})
	return strings.Join(parts, " ")
}

// Round returns the current round number. It is zero before the first round.
func (e *Engine) Round() uint64 { return e.round }

// Over reports whether the current round reached a terminal outcome.
func (e *Engine) Over() bool { return e.over }

// Outcome returns the terminal outcome of the current round.
func (e *Engine) Outcome() Outcome { return e.outcome }

// RemainingAttempts returns the wrong guesses left.
func (e *Engine) RemainingAttempts() int { return e.remaining }

// SecondsRemaining returns the countdown value.
func (e *Engine) SecondsRemaining() int { return e.seconds }

// HintConsumed reports whether this round's hint was used.
func (e *Engine) HintConsumed() bool { return e.hintUsed }

// Guessed reports whether letter was already guessed this round.
func (e *Engine) Guessed(letter rune) bool {
	_, ok := e.guessed[unicode.ToLower(letter)]
	return ok
}

// WrongLetters returns the missed letters in guess order.
func (e *Engine) WrongLetters() []rune {
	return lo.Filter(e.order, func(r rune, _ int) bool {
		return !lo.Contains(e.word, r)
	})
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Round:             e.round,
		Active:            e.active(),
		Over:              e.over,
		Outcome:           e.outcome,
		Mask:              e.Mask(),
		Length:            len(e.word),
		Guessed:           append([]rune(nil), e.order...),
		Wrong:             e.WrongLetters(),
		RemainingAttempts: e.remaining,
		MaxAttempts:       e.maxAttempts,
		SecondsRemaining:  e.seconds,
		RoundSeconds:      e.roundSeconds,
		HintConsumed:      e.hintUsed,
	}
	if e.over {
		snap.Word = string(e.word)
	}
	return snap
}

func (e *Engine) active() bool {
	return len(e.word) > 0 && !e.over
}

func (e *Engine) reveal(letter rune) {
	e.guessed[letter] = struct{}{}
	e.order = append(e.order, letter)
}

// evaluate applies terminal conditions: win before attempts exhausted.
func (e *Engine) evaluate() {
	switch {
	case e.solved():
		e.conclude(OutcomeWin)
	case e.remaining == 0:
		e.conclude(OutcomeLossAttempts)
	}
}

func (e *Engine) solved() bool {
	return lo.EveryBy(e.word, func(r rune) bool {
		_, ok := e.guessed[r]
		return ok
	})
}

func (e *Engine) conclude(outcome Outcome) {
	if e.over {
		return
	}
	e.over = true
	e.outcome = outcome
	event := Concluded{Round: e.round, Word: string(e.word), Outcome: outcome}
	for _, fn := range e.subscribers {
		fn(event)
	}
}
