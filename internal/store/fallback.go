package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/hangman/internal/model"
)

// Fallback serves a primary History until it reports a StorageError, then
// continues from an in-memory copy for the rest of the process.
type Fallback struct {
	mu       sync.Mutex
	primary  History
	mem      *Memory
	cache    []model.HistoryEntry
	degraded bool
	log      zerolog.Logger
}

// NewFallback wraps primary. A nil primary starts degraded.
func NewFallback(ctx context.Context, primary History, log zerolog.Logger) *Fallback {
	f := &Fallback{primary: primary, log: log}
	if primary == nil {
		f.degraded = true
		f.mem = NewMemory()
		return f
	}
	entries, err := primary.LoadAll(ctx)
	if err != nil {
		f.degrade("load", err)
		return f
	}
	f.cache = entries
	return f
}

// Degraded reports whether history is memory-only.
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

// Append writes to the primary store, or to memory once degraded.
func (f *Fallback) Append(ctx context.Context, entry model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.degraded {
		err := f.primary.Append(ctx, entry)
		if err == nil {
			f.cache = append(f.cache, entry)
			return nil
		}
		if !isStorage(err) {
			return err
		}
		f.degrade("append", err)
	}
	return f.mem.Append(ctx, entry)
}

// LoadAll reads from the primary store, or from memory once degraded.
func (f *Fallback) LoadAll(ctx context.Context) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.degraded {
		entries, err := f.primary.LoadAll(ctx)
		if err == nil {
			f.cache = entries
			return entries, nil
		}
		if !isStorage(err) {
			return nil, err
		}
		f.degrade("load", err)
	}
	return f.mem.LoadAll(ctx)
}

// Clear empties the primary store, or memory once degraded.
func (f *Fallback) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.degraded {
		err := f.primary.Clear(ctx)
		if err == nil {
			f.cache = nil
			return nil
		}
		if !isStorage(err) {
			return err
		}
		f.degrade("clear", err)
	}
	return f.mem.Clear(ctx)
}

// degrade must be called with f.mu held.
func (f *Fallback) degrade(op string, err error) {
	f.log.Warn().Err(err).Str("op", op).Int("entries", len(f.cache)).Msg("history storage unavailable, keeping history in memory")
	f.degraded = true
	f.mem = NewMemory(f.cache...)
}

func isStorage(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
