// Package store persists reader state in Badger: per-user reader
// settings and per-job playback positions. Values are JSON; keys are
// plain prefixed strings so job-scoped data can be dropped with one
// prefix scan.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/readalongapp/readalong-server/internal/errors"
)

const (
	settingsPrefix  = "settings:"
	positionsPrefix = "pos:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw database for maintenance tooling.
func (s *Store) DB() *badger.DB {
	return s.db
}

func settingsKey(userKey string) []byte {
	return []byte(settingsPrefix + userKey)
}

func positionKey(jobID, mediaID string) []byte {
	return []byte(positionsPrefix + jobID + ":" + mediaID)
}

// setJSON stores a JSON-encoded value.
func (s *Store) setJSON(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// getJSON loads a JSON-encoded value. Returns a not-found domain error
// for missing keys.
func (s *Store) getJSON(key []byte, out any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.NotFoundf("key %q not found", key)
	}
	return err
}

// dropPrefix deletes every key under a prefix in one transaction per
// batch.
func (s *Store) dropPrefix(prefix []byte) error {
	return s.db.DropPrefix(prefix)
}
