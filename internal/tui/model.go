// Package tui provides the Bubble Tea Hangman interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/i18n"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/session"
)

const (
	defaultFetchTimeout = 15 * time.Second
	historyRows         = 6
)

// tickMsg is one countdown second for a specific round.
type tickMsg struct {
	round uint64
}

// wordMsg delivers a fetch result for a ticket.
type wordMsg struct {
	ticket session.Ticket
	word   string
	err    error
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	maskStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	winStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	gallowsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).PaddingRight(4)
	panelStyle   = lipgloss.NewStyle().Padding(1, 2)
)

// Option configures a Model.
type Option func(*Model)

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithStorageStatus reports whether history is memory-only.
func WithStorageStatus(degraded func() bool) Option {
	return func(m *Model) { m.degraded = degraded }
}

// WithFetchTimeout bounds a single word fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// Model implements the Bubble Tea game UI.
type Model struct {
	ctrl         *session.Controller
	keys         keyMap
	help         help.Model
	spinner      spinner.Model
	history      table.Model
	entries      []model.HistoryEntry
	cue          *session.Cue
	errMsg       string
	degraded     func() bool
	fetchTimeout time.Duration
	log          zerolog.Logger

	width  int
	height int
}

// NewModel constructs a game model around ctrl.
func NewModel(ctrl *session.Controller, opts ...Option) *Model {
	m := &Model{
		ctrl:         ctrl,
		keys:         newKeyMap(ctrl.Language()),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(infoStyle)),
		fetchTimeout: defaultFetchTimeout,
		log:          zerolog.Nop(),
		degraded:     func() bool { return false },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.history = newHistoryTable(ctrl.Language())
	ctrl.OnCue(m.onCue)
	m.refreshHistory()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.startFetch(m.ctrl.BeginFetch(m.ctrl.Language()))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case wordMsg:
		return m, m.applyWord(msg)
	case tickMsg:
		return m, m.applyTick(msg)
	case spinner.TickMsg:
		if !m.ctrl.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Hint):
		m.ctrl.UseHint()
		return nil
	case key.Matches(msg, m.keys.NewWord):
		return m.startFetch(m.ctrl.NewWord())
	case key.Matches(msg, m.keys.Restart):
		ticket, err := m.ctrl.Restart(context.Background())
		if err != nil {
			m.errMsg = i18n.T(m.ctrl.Language(), i18n.StorageFailed)
		}
		m.refreshHistory()
		return m.startFetch(ticket)
	case key.Matches(msg, m.keys.Language):
		lang := m.ctrl.Language().Next()
		ticket := m.ctrl.SetLanguage(lang)
		m.keys = newKeyMap(lang)
		m.history = newHistoryTable(lang)
		m.refreshHistory()
		return m.startFetch(ticket)
	case key.Matches(msg, m.keys.Next):
		if m.ctrl.Snapshot().Over && !m.ctrl.Pending() {
			return m.startFetch(m.ctrl.NewWord())
		}
		return nil
	}
	if msg.Type != tea.KeyRunes {
		return nil
	}
	for _, r := range msg.Runes {
		if unicode.IsLetter(r) {
			m.ctrl.Guess(r)
		}
	}
	return nil
}

func (m *Model) startFetch(t session.Ticket) tea.Cmd {
	m.errMsg = ""
	ctrl := m.ctrl
	timeout := m.fetchTimeout
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		word, err := ctrl.Resolve(ctx, t)
		return wordMsg{ticket: t, word: word, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) applyWord(msg wordMsg) tea.Cmd {
	err := m.ctrl.CompleteFetch(msg.ticket, msg.word, msg.err)
	switch {
	case errors.Is(err, session.ErrStaleTicket):
		return nil
	case err != nil:
		m.errMsg = fmt.Sprintf("%s: %v", i18n.T(m.ctrl.Language(), i18n.FetchFailed), err)
		return nil
	}
	m.cue = nil
	return tickCmd(m.ctrl.Round())
}

func (m *Model) applyTick(msg tickMsg) tea.Cmd {
	if msg.round != m.ctrl.Round() {
		return nil
	}
	m.ctrl.Tick(msg.round)
	if m.ctrl.Snapshot().Over {
		return nil
	}
	return tickCmd(msg.round)
}

func tickCmd(round uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{round: round}
	})
}

func (m *Model) onCue(c session.Cue) {
	m.cue = &c
	m.log.Debug().Str("cue", c.Kind.String()).Str("word", c.Entry.Word).Msg("cue")
	m.refreshHistory()
}

func (m *Model) refreshHistory() {
	entries, err := m.ctrl.History(context.Background())
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load history")
		m.errMsg = i18n.T(m.ctrl.Language(), i18n.StorageFailed)
		return
	}
	m.entries = entries
	m.history.SetRows(historyRowsFor(entries, m.ctrl.Language()))
	m.history.GotoBottom()
}

func newHistoryTable(lang model.Language) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: i18n.T(lang, i18n.Word), Width: 16},
		{Title: i18n.T(lang, i18n.Result), Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(historyRows),
	)
	t.SetStyles(historyTableStyles())
	return t
}

func historyRowsFor(entries []model.HistoryEntry, lang model.Language) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			e.Word,
			i18n.ResultLabel(lang, e.Result),
		})
	}
	return rows
}

func historyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell
	return styles
}

// View implements tea.Model.
func (m *Model) View() string {
	lang := m.ctrl.Language()
	snap := m.ctrl.Snapshot()

	header := titleStyle.Render(fmt.Sprintf("%s · %s", i18n.T(lang, i18n.Title), i18n.LanguageName(lang, lang)))
	board := lipgloss.JoinHorizontal(lipgloss.Top,
		gallowsStyle.Render(renderGallows(snap.MaxAttempts-snap.RemainingAttempts, snap.MaxAttempts)),
		m.renderBoard(snap, lang),
	)

	sections := []string{header, "", board, ""}
	if status := m.renderStatus(snap, lang); status != "" {
		sections = append(sections, status, "")
	}
	sections = append(sections, i18n.T(lang, i18n.History))
	if len(m.entries) == 0 {
		sections = append(sections, infoStyle.Render(i18n.T(lang, i18n.HistoryEmpty)))
	} else {
		sections = append(sections, m.history.View())
	}
	sections = append(sections, "", m.help.View(m.keys))

	content := panelStyle.Render(strings.Join(sections, "\n"))
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderBoard(snap engine.Snapshot, lang model.Language) string {
	if snap.Round == 0 {
		return infoStyle.Render(strings.Repeat(engine.Placeholder+" ", 5))
	}
	hint := i18n.T(lang, i18n.Hint)
	if snap.HintConsumed {
		hint = i18n.T(lang, i18n.HintUsed)
	}
	lines := []string{
		maskStyle.Render(snap.Mask),
		"",
		infoStyle.Render(fmt.Sprintf("%s: %d/%d", i18n.T(lang, i18n.Attempts), snap.RemainingAttempts, snap.MaxAttempts)),
		infoStyle.Render(fmt.Sprintf("%s: %s", i18n.T(lang, i18n.Time), i18n.Countdown(snap.SecondsRemaining))),
		infoStyle.Render(hint),
	}
	if len(snap.Wrong) > 0 {
		letters := make([]string, len(snap.Wrong))
		for i, r := range snap.Wrong {
			letters[i] = string(r)
		}
		lines = append(lines, wrongStyle.Render(fmt.Sprintf("%s: %s", i18n.T(lang, i18n.Wrong), strings.Join(letters, " "))))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus(snap engine.Snapshot, lang model.Language) string {
	var lines []string
	if m.ctrl.Pending() {
		lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), i18n.T(lang, i18n.Loading)))
	}
	if snap.Over && m.cue != nil {
		lines = append(lines, renderCue(*m.cue, snap, lang))
	}
	if m.errMsg != "" {
		lines = append(lines, errStyle.Render(m.errMsg))
	}
	if m.degraded() {
		lines = append(lines, errStyle.Render(i18n.T(lang, i18n.StorageFailed)))
	}
	return strings.Join(lines, "\n")
}

func renderCue(c session.Cue, snap engine.Snapshot, lang model.Language) string {
	var banner string
	switch {
	case c.Kind == session.CueWin:
		banner = winStyle.Render(i18n.T(lang, i18n.YouWin))
	case snap.Outcome == engine.OutcomeLossTimeout:
		banner = lossStyle.Render(i18n.T(lang, i18n.TimeUp))
	default:
		banner = lossStyle.Render(i18n.T(lang, i18n.YouLose))
	}
	return fmt.Sprintf("%s %s: %s\n%s", banner, i18n.T(lang, i18n.WordWas), snap.Word, infoStyle.Render(i18n.T(lang, i18n.PlayAgain)))
}
