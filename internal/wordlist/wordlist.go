// Package wordlist loads word lists from files and serves random words
// from them without network access.
package wordlist

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/words"
)

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var list []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return list, nil
}

// Source picks words uniformly from <dir>/<lang>.txt. Lists are loaded on
// first use and cached.
type Source struct {
	dir string

	mu    sync.Mutex
	rnd   *rand.Rand
	lists map[model.Language][]string
}

// NewSource returns a Source reading lists from dir.
func NewSource(dir string) *Source {
	return &Source{
		dir:   dir,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		lists: map[model.Language][]string{},
	}
}

// Path returns the list file used for lang.
func (s *Source) Path(lang model.Language) string {
	return filepath.Join(s.dir, string(lang)+".txt")
}

// FetchWord returns a random folded, lower-cased word for lang.
func (s *Source) FetchWord(ctx context.Context, lang model.Language) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(lang)
	if err != nil {
		return "", &words.FetchError{Lang: lang, Err: err}
	}
	return list[s.rnd.Intn(len(list))], nil
}

func (s *Source) load(lang model.Language) ([]string, error) {
	if list, ok := s.lists[lang]; ok {
		return list, nil
	}
	raw, err := LoadWords(s.Path(lang))
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	filter := FilterForLang(string(lang))
	list := make([]string, 0, len(raw))
	for _, word := range raw {
		word = words.Fold(strings.ToLower(word))
		if filter(word) {
			list = append(list, word)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("word list %s has no usable words", s.Path(lang))
	}
	s.lists[lang] = list
	return list, nil
}
