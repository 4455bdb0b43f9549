// Package words fetches random words from a remote provider.
package words

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/model"
)

// DefaultBaseURL is the public random word provider.
const DefaultBaseURL = "https://random-word-api.herokuapp.com/word"

const (
	defaultRetries = 3
	defaultBackoff = 250 * time.Millisecond
	defaultTimeout = 10 * time.Second
)

var errEmptyResponse = errors.New("provider returned no words")

// FetchError reports a word that could not be obtained.
type FetchError struct {
	Lang   model.Language
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch %s word: unexpected status %d", e.Lang, e.Status)
	}
	return fmt.Sprintf("failed to fetch %s word: %v", e.Lang, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches one word per call from a JSON array endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetries sets how many words are requested before giving up on invalid ones.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the pause between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a Client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		retries: defaultRetries,
		backoff: defaultBackoff,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL builds the request URL for lang. English uses the bare endpoint.
func (c *Client) URL(lang model.Language) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid word provider url: %w", err)
	}
	if lang != model.LangEN && lang != "" {
		q := u.Query()
		q.Set("lang", string(lang))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchWord returns one lowercase word for lang. Words that fail validation
// are discarded and another is requested.
func (c *Client) FetchWord(ctx context.Context, lang model.Language) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		word, err := c.fetchOnce(ctx, lang)
		if err == nil {
			return word, nil
		}
		var invalid *engine.InvalidWordError
		if !errors.As(err, &invalid) {
			return "", err
		}
		lastErr = err
		c.log.Warn().Err(err).Str("lang", string(lang)).Int("attempt", attempt).Msg("discarding invalid word")
		if attempt < c.retries {
			if err := sleep(ctx, c.backoff); err != nil {
				return "", &FetchError{Lang: lang, Err: err}
			}
		}
	}
	return "", &FetchError{Lang: lang, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, lang model.Language) (string, error) {
	target, err := c.URL(lang)
	if err != nil {
		return "", &FetchError{Lang: lang, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return "", &FetchError{Lang: lang, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{Lang: lang, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Lang: lang, Status: resp.StatusCode}
	}
	var payload []string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &FetchError{Lang: lang, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(payload) == 0 {
		return "", &FetchError{Lang: lang, Err: errEmptyResponse}
	}
	word, err := engine.NormalizeWord(Fold(payload[0]))
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("lang", string(lang)).Int("len", len([]rune(word))).Msg("fetched word")
	return word, nil
}

// ligatures have no decomposition, so they are spelled out before folding.
var ligatures = strings.NewReplacer("œ", "oe", "Œ", "OE", "æ", "ae", "Æ", "AE", "ß", "ss")

// Fold strips diacritics and expands ligatures so every letter is reachable
// from a-z keys.
func Fold(word string) string {
	word = ligatures.Replace(word)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, word)
	if err != nil {
		return word
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
