// Package store handles history persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/hangman/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryKey is the key-value slot holding the history snapshot.
const HistoryKey = "hangman.history"

// History is the load/append/clear lifecycle used by the session.
type History interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
	LoadAll(ctx context.Context) ([]model.HistoryEntry, error)
	Clear(ctx context.Context) error
}

// Store keeps the history as one JSON snapshot in a SQLite key-value table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, &StorageError{Op: "migrate", Err: err}
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll returns the history oldest first. A missing key is an empty history.
func (s *Store) LoadAll(ctx context.Context) ([]model.HistoryEntry, error) {
	entries, err := loadSnapshot(ctx, s.db)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return entries, nil
}

// Append adds entry and rewrites the whole snapshot.
func (s *Store) Append(ctx context.Context, entry model.HistoryEntry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	entries, err := loadSnapshot(ctx, tx)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	entries = append(entries, entry)
	payload, err := json.Marshal(entries)
	if err != nil {
		return &StorageError{Op: "append", Err: fmt.Errorf("failed to encode history: %w", err)}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		HistoryKey, string(payload),
	); err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	if err = tx.Commit(); err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	return nil
}

// Clear removes the history key.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, HistoryKey); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadSnapshot(ctx context.Context, q queryer) ([]model.HistoryEntry, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, HistoryKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}
