package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/session"
	"github.com/verte-zerg/hangman/internal/store"
	"github.com/verte-zerg/hangman/internal/words"
)

type langSource struct {
	mu    sync.Mutex
	words map[model.Language]string
	fail  bool
}

func (l *langSource) FetchWord(_ context.Context, lang model.Language) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return "", &words.FetchError{Lang: lang, Status: http.StatusServiceUnavailable}
	}
	return l.words[lang], nil
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *langSource, *store.Memory) {
	t.Helper()
	src := &langSource{words: map[model.Language]string{
		model.LangEN: "cat",
		model.LangES: "perro",
		model.LangFR: "chat",
	}}
	hist := store.NewMemory()
	ctrl := session.New(src, hist, session.WithEngineOptions(engine.WithRoundSeconds(30)))
	srv := New(ctrl, append([]Option{WithRateLimit(0, 0)}, opts...)...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts, src, hist
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK || body["ok"] != true {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestGuessBeforeRoundConflicts(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, body := do(t, ts, http.MethodPost, "/guess", `{"letter":"a"}`)
	if resp.StatusCode != http.StatusConflict || body["error"] != "no_round" {
		t.Fatalf("expected no_round conflict, got %d %v", resp.StatusCode, body)
	}
}

func TestPlayRoundToWin(t *testing.T) {
	ts, _, hist := newTestServer(t)
	resp, state := do(t, ts, http.MethodPost, "/word", "")
	if resp.StatusCode != http.StatusOK || state["mask"] != "_ _ _" {
		t.Fatalf("unexpected new word response %d %v", resp.StatusCode, state)
	}
	if state["word"] != nil {
		t.Fatalf("word must stay hidden while the round is active")
	}
	for _, letter := range []string{"c", "x", "a", "t"} {
		resp, state = do(t, ts, http.MethodPost, "/guess", `{"letter":"`+letter+`"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("guess %s: status %d", letter, resp.StatusCode)
		}
	}
	if state["over"] != true || state["result"] != "Win" || state["word"] != "cat" {
		t.Fatalf("expected win, got %v", state)
	}
	if state["remainingAttempts"] != float64(engine.DefaultAttempts-1) {
		t.Fatalf("expected one miss, got %v", state["remainingAttempts"])
	}
	entries, _ := hist.LoadAll(context.Background())
	if len(entries) != 1 || entries[0].Word != "cat" {
		t.Fatalf("expected recorded win, got %v", entries)
	}
}

func TestInvalidGuessRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/word", "")
	for _, body := range []string{`{"letter":"ab"}`, `{"letter":"1"}`, `{"letter":""}`, `nope`} {
		resp, _ := do(t, ts, http.MethodPost, "/guess", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestHintOncePerRound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/word", "")
	_, state := do(t, ts, http.MethodPost, "/hint", "")
	if state["mask"] != "c _ _" || state["hintConsumed"] != true {
		t.Fatalf("unexpected hint state %v", state)
	}
	_, state = do(t, ts, http.MethodPost, "/hint", "")
	if state["mask"] != "c _ _" {
		t.Fatalf("second hint changed the mask: %v", state)
	}
}

func TestLanguageSwitch(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, state := do(t, ts, http.MethodPost, "/lang", `{"lang":"es"}`)
	if resp.StatusCode != http.StatusOK || state["lang"] != "es" || state["length"] != float64(5) {
		t.Fatalf("unexpected lang response %d %v", resp.StatusCode, state)
	}
	resp, body := do(t, ts, http.MethodPost, "/lang", `{"lang":"de"}`)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "invalid_lang" {
		t.Fatalf("expected invalid_lang, got %d %v", resp.StatusCode, body)
	}
	_, labels := do(t, ts, http.MethodGet, "/labels", "")
	if labels["title"] != "Ahorcado" || labels["lang.fr"] != "Francés" {
		t.Fatalf("expected spanish labels, got %v", labels)
	}
	_, labels = do(t, ts, http.MethodGet, "/labels?lang=fr", "")
	if labels["title"] != "Pendu" {
		t.Fatalf("expected french labels, got %v", labels)
	}
}

func TestFetchFailureKeepsRound(t *testing.T) {
	ts, src, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/word", "")
	do(t, ts, http.MethodPost, "/guess", `{"letter":"c"}`)

	src.mu.Lock()
	src.fail = true
	src.mu.Unlock()
	resp, body := do(t, ts, http.MethodPost, "/word", "")
	if resp.StatusCode != http.StatusBadGateway || body["error"] != "fetch_failed" {
		t.Fatalf("expected 502 fetch_failed, got %d %v", resp.StatusCode, body)
	}
	_, state := do(t, ts, http.MethodGet, "/state", "")
	if state["mask"] != "c _ _" || state["round"] != float64(1) || state["error"] == nil {
		t.Fatalf("round changed after failed fetch: %v", state)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	var entries []model.HistoryEntry
	_ = json.NewDecoder(resp.Body).Decode(&entries)
	_ = resp.Body.Close()
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty JSON array, got %v", entries)
	}

	do(t, ts, http.MethodPost, "/word", "")
	for _, l := range "xyzqvw" {
		do(t, ts, http.MethodPost, "/guess", `{"letter":"`+string(l)+`"}`)
	}
	resp, err = ts.Client().Get(ts.URL + "/history?last=1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	_ = json.NewDecoder(resp.Body).Decode(&entries)
	_ = resp.Body.Close()
	if len(entries) != 1 || entries[0].Result != model.ResultLoss || entries[0].Reason != model.ReasonAttempts {
		t.Fatalf("expected attempts loss, got %v", entries)
	}

	if r, _ := do(t, ts, http.MethodGet, "/history?last=-2", ""); r.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative last, got %d", r.StatusCode)
	}
	if r, _ := do(t, ts, http.MethodDelete, "/history", ""); r.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", r.StatusCode)
	}
	resp, err = ts.Client().Get(ts.URL + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	entries = nil
	_ = json.NewDecoder(resp.Body).Decode(&entries)
	_ = resp.Body.Close()
	if len(entries) != 0 {
		t.Fatalf("expected cleared history, got %v", entries)
	}
}

func TestRestartClearsHistory(t *testing.T) {
	ts, _, hist := newTestServer(t)
	do(t, ts, http.MethodPost, "/word", "")
	do(t, ts, http.MethodPost, "/hint", "")
	do(t, ts, http.MethodPost, "/guess", `{"letter":"a"}`)
	do(t, ts, http.MethodPost, "/guess", `{"letter":"t"}`)
	if entries, _ := hist.LoadAll(context.Background()); len(entries) != 1 {
		t.Fatalf("expected one entry before restart, got %v", entries)
	}
	resp, state := do(t, ts, http.MethodPost, "/restart", "")
	if resp.StatusCode != http.StatusOK || state["round"] != float64(2) || state["over"] != false {
		t.Fatalf("unexpected restart response %d %v", resp.StatusCode, state)
	}
	if entries, _ := hist.LoadAll(context.Background()); len(entries) != 0 {
		t.Fatalf("expected history cleared, got %v", entries)
	}
}

func TestCountdownTimesOut(t *testing.T) {
	src := &langSource{words: map[model.Language]string{model.LangEN: "owl"}}
	hist := store.NewMemory()
	ctrl := session.New(src, hist, session.WithEngineOptions(engine.WithRoundSeconds(3)))
	srv := New(ctrl, WithTickInterval(5*time.Millisecond), WithRateLimit(0, 0))
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	do(t, ts, http.MethodPost, "/word", "")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, state := do(t, ts, http.MethodGet, "/state", "")
		if state["over"] == true {
			if state["reason"] != "timeout" || state["secondsRemaining"] != float64(0) {
				t.Fatalf("expected timeout, got %v", state)
			}
			entries, _ := hist.LoadAll(context.Background())
			if len(entries) != 1 || entries[0].Reason != model.ReasonTimeout {
				t.Fatalf("expected one timeout entry, got %v", entries)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("round did not time out")
}

func TestRateLimit(t *testing.T) {
	ts, _, _ := newTestServer(t, WithRateLimit(0.001, 1))
	if r, _ := do(t, ts, http.MethodPost, "/word", ""); r.StatusCode != http.StatusOK {
		t.Fatalf("expected first intent allowed, got %d", r.StatusCode)
	}
	r, body := do(t, ts, http.MethodPost, "/hint", "")
	if r.StatusCode != http.StatusTooManyRequests || body["error"] != "rate_limited" {
		t.Fatalf("expected 429, got %d %v", r.StatusCode, body)
	}
	if r, _ := do(t, ts, http.MethodGet, "/state", ""); r.StatusCode != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", r.StatusCode)
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	src := &langSource{words: map[model.Language]string{model.LangEN: "cat"}}
	srv := New(session.New(src, store.NewMemory()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
