// Package session binds the round engine to a word source and a history
// store. It owns the selected language and the fetch generation, and turns
// presentation intents into engine calls.
//
// A Controller is not safe for concurrent use. The terminal front end calls
// it from the Bubble Tea update loop; the HTTP front end guards it with a
// mutex and runs Resolve outside that mutex.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/store"
)

// ErrStaleTicket is returned when a fetch completes after a newer one began.
var ErrStaleTicket = errors.New("stale fetch result discarded")

// WordSource yields one word per call. Implementations must be safe to call
// concurrently with the controller.
type WordSource interface {
	FetchWord(ctx context.Context, lang model.Language) (string, error)
}

// Ticket identifies one word fetch. Only the most recent ticket is applied.
type Ticket struct {
	Gen  uint64
	Lang model.Language
}

// Cue is a presentation-only notification derived from a round conclusion.
type Cue struct {
	Kind  CueKind
	Entry model.HistoryEntry
}

// CueKind selects the feedback a presentation plays.
type CueKind int

// Cue kinds.
const (
	CueWin CueKind = iota + 1
	CueLoss
)

func (k CueKind) String() string {
	switch k {
	case CueWin:
		return "win"
	case CueLoss:
		return "loss"
	default:
		return "none"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLanguage sets the starting language.
func WithLanguage(lang model.Language) Option {
	return func(c *Controller) {
		if lang != "" {
			c.lang = lang
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithEngineOptions configures the underlying engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *Controller) { c.engineOpts = append(c.engineOpts, opts...) }
}

// Controller drives one player's game.
type Controller struct {
	id         string
	eng        *engine.Engine
	engineOpts []engine.Option
	source     WordSource
	history    store.History
	lang       model.Language
	roundLang  model.Language
	gen        uint64
	pending    bool
	lastErr    error
	cues       []func(Cue)
	log        zerolog.Logger
	now        func() time.Time
}

// New returns a controller with no active round. Call BeginFetch or Fetch to
// start the first one.
func New(source WordSource, history store.History, opts ...Option) *Controller {
	c := &Controller{
		id:      uuid.NewString(),
		source:  source,
		history: history,
		lang:    model.LangEN,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = store.NewMemory()
	}
	c.log = c.log.With().Str("session", c.id).Logger()
	c.eng = engine.New(c.engineOpts...)
	c.eng.Subscribe(c.onConcluded)
	return c
}

// ID returns the session identifier used in logs.
func (c *Controller) ID() string { return c.id }

// Language returns the selected language.
func (c *Controller) Language() model.Language { return c.lang }

// Pending reports whether a fetch is in flight.
func (c *Controller) Pending() bool { return c.pending }

// LastError returns the error from the most recent fetch or storage call.
func (c *Controller) LastError() error { return c.lastErr }

// Snapshot returns the engine state.
func (c *Controller) Snapshot() engine.Snapshot { return c.eng.Snapshot() }

// Round returns the current round number.
func (c *Controller) Round() uint64 { return c.eng.Round() }

// OnCue registers fn for round conclusion cues.
func (c *Controller) OnCue(fn func(Cue)) {
	c.cues = append(c.cues, fn)
}

// BeginFetch starts a fetch for lang and invalidates any fetch in flight.
func (c *Controller) BeginFetch(lang model.Language) Ticket {
	c.gen++
	c.pending = true
	c.log.Debug().Uint64("gen", c.gen).Str("lang", string(lang)).Msg("fetch started")
	return Ticket{Gen: c.gen, Lang: lang}
}

// Resolve asks the word source for the ticket's word. It reads no controller
// state besides the source and may run outside the caller's lock.
func (c *Controller) Resolve(ctx context.Context, t Ticket) (string, error) {
	return c.source.FetchWord(ctx, t.Lang)
}

// CompleteFetch applies a fetch result. A stale ticket returns
// ErrStaleTicket and changes nothing. A failed fetch leaves the current
// round untouched and returns the error for display.
func (c *Controller) CompleteFetch(t Ticket, word string, fetchErr error) error {
	if t.Gen != c.gen {
		c.log.Debug().Uint64("gen", t.Gen).Uint64("current", c.gen).Msg("discarding stale fetch")
		return ErrStaleTicket
	}
	c.pending = false
	if fetchErr != nil {
		c.lastErr = fetchErr
		c.log.Warn().Err(fetchErr).Str("lang", string(t.Lang)).Msg("word fetch failed")
		return fetchErr
	}
	if err := c.eng.StartRound(word); err != nil {
		c.lastErr = err
		c.log.Warn().Err(err).Msg("rejected word")
		return err
	}
	c.lastErr = nil
	c.roundLang = t.Lang
	c.log.Info().Uint64("round", c.eng.Round()).Str("lang", string(t.Lang)).Int("len", len([]rune(word))).Msg("round started")
	return nil
}

// Fetch runs a full fetch synchronously for the selected language.
func (c *Controller) Fetch(ctx context.Context) error {
	t := c.BeginFetch(c.lang)
	word, err := c.Resolve(ctx, t)
	return c.CompleteFetch(t, word, err)
}

// Guess forwards a letter to the engine.
func (c *Controller) Guess(letter rune) bool {
	return c.eng.Guess(letter)
}

// UseHint forwards a hint request to the engine.
func (c *Controller) UseHint() bool {
	return c.eng.UseHint()
}

// Tick advances the countdown of round. Ticks scheduled for an earlier
// round are ignored.
func (c *Controller) Tick(round uint64) bool {
	if round != c.eng.Round() {
		return false
	}
	return c.eng.Tick()
}

// NewWord starts a fetch in the selected language. History is kept.
func (c *Controller) NewWord() Ticket {
	return c.BeginFetch(c.lang)
}

// Restart clears the history and starts a fetch. The fetch starts even when
// clearing fails.
func (c *Controller) Restart(ctx context.Context) (Ticket, error) {
	err := c.ClearHistory(ctx)
	return c.BeginFetch(c.lang), err
}

// ClearHistory removes every recorded round.
func (c *Controller) ClearHistory(ctx context.Context) error {
	if err := c.history.Clear(ctx); err != nil {
		c.lastErr = fmt.Errorf("failed to clear history: %w", err)
		c.log.Error().Err(err).Msg("history clear failed")
		return err
	}
	c.log.Info().Msg("history cleared")
	return nil
}

// SetLanguage selects lang and starts a fetch in it.
func (c *Controller) SetLanguage(lang model.Language) Ticket {
	c.lang = lang
	return c.BeginFetch(lang)
}

// History returns the recorded rounds oldest first.
func (c *Controller) History(ctx context.Context) ([]model.HistoryEntry, error) {
	return c.history.LoadAll(ctx)
}

func (c *Controller) onConcluded(ev engine.Concluded) {
	ended := c.now().UTC()
	entry := model.HistoryEntry{
		Word:    ev.Word,
		Result:  ev.Outcome.Result(),
		Reason:  ev.Outcome.Reason(),
		Lang:    c.roundLang,
		EndedAt: &ended,
	}
	c.log.Info().Uint64("round", ev.Round).Str("outcome", ev.Outcome.String()).Msg("round concluded")
	if err := c.history.Append(context.Background(), entry); err != nil {
		c.lastErr = fmt.Errorf("failed to record round: %w", err)
		c.log.Error().Err(err).Msg("history append failed")
	}
	kind := CueLoss
	if ev.Outcome == engine.OutcomeWin {
		kind = CueWin
	}
	for _, fn := range c.cues {
		fn(Cue{Kind: kind, Entry: entry})
	}
}
