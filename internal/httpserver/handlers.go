package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/i18n"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/session"
	"github.com/verte-zerg/hangman/internal/stats"
	"github.com/verte-zerg/hangman/internal/words"
)

type stateResponse struct {
	Session           string         `json:"session"`
	Lang              model.Language `json:"lang"`
	Round             uint64         `json:"round"`
	Pending           bool           `json:"pending"`
	Active            bool           `json:"active"`
	Over              bool           `json:"over"`
	Result            model.Result   `json:"result,omitempty"`
	Reason            string         `json:"reason,omitempty"`
	Mask              string         `json:"mask"`
	Length            int            `json:"length"`
	Word              string         `json:"word,omitempty"`
	Guessed           []string       `json:"guessed"`
	Wrong             []string       `json:"wrong"`
	RemainingAttempts int            `json:"remainingAttempts"`
	MaxAttempts       int            `json:"maxAttempts"`
	SecondsRemaining  int            `json:"secondsRemaining"`
	HintConsumed      bool           `json:"hintConsumed"`
	StorageDegraded   bool           `json:"storageDegraded"`
	Error             string         `json:"error,omitempty"`
}

// stateLocked builds the response. s.mu must be held.
func (s *Server) stateLocked() stateResponse {
	snap := s.ctrl.Snapshot()
	toStrings := func(r rune, _ int) string { return string(r) }
	resp := stateResponse{
		Session:           s.ctrl.ID(),
		Lang:              s.ctrl.Language(),
		Round:             snap.Round,
		Pending:           s.ctrl.Pending(),
		Active:            snap.Active,
		Over:              snap.Over,
		Mask:              snap.Mask,
		Length:            snap.Length,
		Word:              snap.Word,
		Guessed:           lo.Map(snap.Guessed, toStrings),
		Wrong:             lo.Map(snap.Wrong, toStrings),
		RemainingAttempts: snap.RemainingAttempts,
		MaxAttempts:       snap.MaxAttempts,
		SecondsRemaining:  snap.SecondsRemaining,
		HintConsumed:      snap.HintConsumed,
		StorageDegraded:   s.degraded(),
	}
	if snap.Over {
		resp.Result = snap.Outcome.Result()
		resp.Reason = string(snap.Outcome.Reason())
	}
	if err := s.ctrl.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.stateLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

type guessReq struct {
	Letter string `json:"letter"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	letter, size := utf8.DecodeRuneInString(req.Letter)
	if size == 0 || size != len(req.Letter) || !unicode.IsLetter(letter) {
		writeError(w, http.StatusBadRequest, "invalid_letter")
		return
	}
	s.intent(w, func() { s.ctrl.Guess(letter) })
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	s.intent(w, func() { s.ctrl.UseHint() })
}

// intent applies fn under the lock and stops the countdown once the round ends.
func (s *Server) intent(w http.ResponseWriter, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl.Round() == 0 {
		writeError(w, http.StatusConflict, "no_round")
		return
	}
	fn()
	if s.ctrl.Snapshot().Over {
		s.stopCountdownLocked()
	}
	writeJSON(w, http.StatusOK, s.stateLocked())
}

func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	state, err := s.fetch(r.Context(), s.ctrl.NewWord)
	s.writeFetch(w, state, err)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var clearErr error
	state, err := s.fetch(r.Context(), func() session.Ticket {
		ticket, err := s.ctrl.Restart(r.Context())
		clearErr = err
		return ticket
	})
	if clearErr != nil {
		s.log.Error().Err(clearErr).Msg("restart could not clear history")
	}
	s.writeFetch(w, state, err)
}

type langReq struct {
	Lang string `json:"lang"`
}

func (s *Server) handleLang(w http.ResponseWriter, r *http.Request) {
	var req langReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	lang, err := model.ParseLanguage(req.Lang)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_lang", Message: err.Error()})
		return
	}
	state, err := s.fetch(r.Context(), func() session.Ticket { return s.ctrl.SetLanguage(lang) })
	s.writeFetch(w, state, err)
}

func (s *Server) writeFetch(w http.ResponseWriter, state stateResponse, err error) {
	var fetchErr *words.FetchError
	var invalid *engine.InvalidWordError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, state)
	case errors.Is(err, session.ErrStaleTicket):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "superseded", Message: err.Error()})
	case errors.As(err, &fetchErr), errors.As(err, &invalid):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "fetch_failed", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "fetch_failed", Message: err.Error()})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var cfg model.StatsConfig
	if raw := r.URL.Query().Get("lang"); raw != "" {
		lang, err := model.ParseLanguage(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_lang")
			return
		}
		cfg.Lang = lang
	}
	last, err := parseLast(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_last")
		return
	}
	cfg.Last = last

	s.mu.Lock()
	entries, err := s.ctrl.History(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("load history")
		writeError(w, http.StatusInternalServerError, "history_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats.Filter(entries, cfg))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.ctrl.ClearHistory(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("clear history")
		writeError(w, http.StatusInternalServerError, "history_unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	lang, err := s.labelLang(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_lang")
		return
	}
	labels := i18n.Labels(lang)
	for _, l := range model.Languages {
		labels["lang."+string(l)] = i18n.LanguageName(lang, l)
	}
	writeJSON(w, http.StatusOK, labels)
}
