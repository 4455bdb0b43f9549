// Package httpserver exposes one player's game as a small JSON API.
//
// Routes:
//
//	GET    /health    liveness
//	GET    /state     current round snapshot
//	POST   /guess     {"letter":"a"}
//	POST   /hint      reveal one letter
//	POST   /word      fetch a new word, history kept
//	POST   /restart   clear history and fetch a new word
//	POST   /lang      {"lang":"es"} switch language and fetch
//	GET    /history   recorded rounds, ?lang=xx&last=N
//	DELETE /history   clear recorded rounds
//	GET    /labels    display text, ?lang=xx
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/session"
)

const (
	defaultRateLimit    = 10
	defaultBurst        = 20
	defaultFetchTimeout = 15 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithRateLimit sets the allowed intents per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTickInterval replaces the one-second countdown period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.tickEvery = d
		}
	}
}

// WithStorageStatus reports whether history is memory-only.
func WithStorageStatus(degraded func() bool) Option {
	return func(s *Server) { s.degraded = degraded }
}

// Server serializes access to one session controller.
type Server struct {
	r        *chi.Mux
	log      zerolog.Logger
	limiter  *rate.Limiter
	degraded func() bool

	tickEvery    time.Duration
	fetchTimeout time.Duration

	mu         sync.Mutex
	ctrl       *session.Controller
	baseCtx    context.Context
	stopAll    context.CancelFunc
	stopTicker context.CancelFunc
	wg         sync.WaitGroup
}

// New constructs a Server, installs middleware, and registers routes.
func New(ctrl *session.Controller, opts ...Option) *Server {
	baseCtx, stop := context.WithCancel(context.Background())
	s := &Server{
		r:            chi.NewRouter(),
		log:          zerolog.Nop(),
		limiter:      rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		degraded:     func() bool { return false },
		tickEvery:    time.Second,
		fetchTimeout: defaultFetchTimeout,
		ctrl:         ctrl,
		baseCtx:      baseCtx,
		stopAll:      stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	ctrl.OnCue(func(c session.Cue) {
		s.log.Info().Str("session", ctrl.ID()).Stringer("cue", c.Kind).Str("word", c.Entry.Word).Msg("round concluded")
	})

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.requestLogger)
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/state", s.handleState)
	s.r.Get("/history", s.handleHistory)
	s.r.Get("/labels", s.handleLabels)

	s.r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/guess", s.handleGuess)
		r.Post("/hint", s.handleHint)
		r.Post("/word", s.handleWord)
		r.Post("/restart", s.handleRestart)
		r.Post("/lang", s.handleLang)
		r.Delete("/history", s.handleClearHistory)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

// Start fetches the first word. A failure is logged and left for the
// player to retry with POST /word.
func (s *Server) Start(ctx context.Context) {
	if _, err := s.fetch(ctx, s.ctrl.NewWord); err != nil {
		s.log.Warn().Err(err).Msg("initial word fetch failed")
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("session", s.ctrl.ID()).Msg("serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the countdown and waits for it to exit.
func (s *Server) Close() {
	s.stopAll()
	s.wg.Wait()
}

// fetch runs the begin step under the lock, resolves the word without it,
// and applies the result under the lock again.
func (s *Server) fetch(ctx context.Context, begin func() session.Ticket) (stateResponse, error) {
	s.mu.Lock()
	ticket := begin()
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	word, fetchErr := s.ctrl.Resolve(fetchCtx, ticket)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.CompleteFetch(ticket, word, fetchErr); err != nil {
		return s.stateLocked(), err
	}
	s.startCountdownLocked(s.ctrl.Round())
	return s.stateLocked(), nil
}

// startCountdownLocked replaces any running countdown. s.mu must be held.
func (s *Server) startCountdownLocked(round uint64) {
	s.stopCountdownLocked()
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.stopTicker = cancel
	s.wg.Add(1)
	go s.countdown(ctx, round)
}

// stopCountdownLocked cancels the running countdown. s.mu must be held.
func (s *Server) stopCountdownLocked() {
	if s.stopTicker != nil {
		s.stopTicker()
		s.stopTicker = nil
	}
}

func (s *Server) countdown(ctx context.Context, round uint64) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.ctrl.Tick(round)
		done := s.ctrl.Round() != round || s.ctrl.Snapshot().Over
		if done {
			s.stopCountdownLocked()
		}
		s.mu.Unlock()
		if done {
			return
		}
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func parseLast(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("last")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("last must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) labelLang(r *http.Request) (model.Language, error) {
	if raw := r.URL.Query().Get("lang"); raw != "" {
		return model.ParseLanguage(raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Language(), nil
}
