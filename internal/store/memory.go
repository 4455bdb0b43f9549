package store

import (
	"context"
	"sync"

	"github.com/verte-zerg/hangman/internal/model"
)

// Memory is an in-process History.
type Memory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
}

// NewMemory returns a Memory seeded with entries.
func NewMemory(entries ...model.HistoryEntry) *Memory {
	return &Memory{entries: append([]model.HistoryEntry(nil), entries...)}
}

// Append records entry.
func (m *Memory) Append(_ context.Context, entry model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// LoadAll returns a copy of all entries, oldest first.
func (m *Memory) LoadAll(_ context.Context) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.HistoryEntry{}, m.entries...), nil
}

// Clear drops all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}
