// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("store: closed")

// Key prefixes. The user id is terminated by a NUL byte so "u1" never
// matches the keys of "u10".
const (
	prefixRead    = "notif:read:"
	prefixCleared = "notif:cleared:"
)

// Config configures the BadgerDB-backed store.
type Config struct {
	// Path is the database directory. Empty opens an in-memory database.
	Path string

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Retention is the TTL of each read or cleared marker.
	Retention time.Duration

	// GCRatio is passed to RunValueLogGC.
	GCRatio float64
}

// DefaultConfig keeps markers for 30 days, matching how long the live
// package remembers them in memory.
func DefaultConfig() Config {
	return Config{
		Retention: 30 * 24 * time.Hour,
		GCRatio:   0.5,
	}
}

// record is the value stored under each marker key.
type record struct {
	At time.Time `json:"at"`
}

// Store persists per-user notification read flags and cleared ids. It
// implements live.NotificationBacking.
type Store struct {
	db  *badger.DB
	cfg Config
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ live.NotificationBacking = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	def := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.GCRatio <= 0 || cfg.GCRatio >= 1 {
		cfg.GCRatio = def.GCRatio
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.Path == "").
		Bool("sync_writes", cfg.SyncWrites).
		Msg("notification state store opened")

	return &Store{db: db, cfg: cfg, now: time.Now}, nil
}

func userPrefix(prefix, userID string) []byte {
	return []byte(prefix + userID + "\x00")
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// LoadNotificationState returns the user's unexpired read and cleared ids in
// key order.
func (s *Store) LoadNotificationState(userID string) (live.NotificationState, error) {
	var st live.NotificationState
	if err := s.checkOpen(); err != nil {
		return st, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if st.Read, err = scanIDs(txn, userPrefix(prefixRead, userID)); err != nil {
			return err
		}
		st.Cleared, err = scanIDs(txn, userPrefix(prefixCleared, userID))
		return err
	})
	metrics.RecordStoreOp("load", err)
	if err != nil {
		return live.NotificationState{}, fmt.Errorf("load notification state: %w", err)
	}
	return st, nil
}

func scanIDs(txn *badger.Txn, prefix []byte) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		ids = append(ids, string(key[len(prefix):]))
	}
	return ids, nil
}

// SaveNotificationRead records ids as read by userID.
func (s *Store) SaveNotificationRead(userID string, ids []string) error {
	err := s.put(prefixRead, userID, ids)
	metrics.RecordStoreOp("read", err)
	return err
}

// SaveNotificationCleared records ids as cleared by userID.
func (s *Store) SaveNotificationCleared(userID string, ids []string) error {
	err := s.put(prefixCleared, userID, ids)
	metrics.RecordStoreOp("clear", err)
	return err
}

func (s *Store) put(prefix, userID string, ids []string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	val, err := json.Marshal(record{At: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	base := userPrefix(prefix, userID)
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if id == "" {
			continue
		}
		key := append(append([]byte{}, base...), id...)
		if err := wb.SetEntry(badger.NewEntry(key, val).WithTTL(s.cfg.Retention)); err != nil {
			return fmt.Errorf("write %s marker: %w", prefix, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush %s markers: %w", prefix, err)
	}
	return nil
}

// RunGC reclaims value log space and returns how many files were rewritten.
// In-memory databases have nothing to collect.
func (s *Store) RunGC() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if s.cfg.Path == "" {
		return 0, nil
	}

	rewrites := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			metrics.RecordStoreOp("gc", err)
			return rewrites, fmt.Errorf("run GC: %w", err)
		}
		rewrites++
	}
	metrics.RecordStoreOp("gc", nil)
	return rewrites, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("notification state store closed")
	return nil
}
