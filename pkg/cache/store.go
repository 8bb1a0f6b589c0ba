// Package cache is a small disk-backed key-value store with per-entry
// expiry. telegrid uses it to carry table rows across restarts.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when StoreConfig.DefaultTTL is zero.
const DefaultTTL = time.Hour

// StoreConfig holds configuration for a cache Store.
type StoreConfig struct {
	// Dir is the directory holding one file per entry. It is created on
	// demand.
	Dir string

	// DefaultTTL is the lifetime of entries written with Put. Negative
	// means entries never expire.
	DefaultTTL time.Duration

	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

// Stats counts store activity.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

// envelope is the on-disk form of one entry.
type envelope struct {
	Key     string          `json:"key"`
	Created time.Time       `json:"created"`
	TTL     time.Duration   `json:"ttl_ns"` // <= 0 never expires
	Data    json.RawMessage `json:"data"`
}

func (e envelope) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.Created) > e.TTL
}

// Store is a directory of JSON entries keyed by a hash of their key.
// Writes are atomic via temp-file-then-rename. It is safe for concurrent
// use within one process.
type Store struct {
	cfg StoreConfig

	mu    sync.Mutex
	stats Stats
}

// NewStore creates the cache directory and returns a Store over it.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Dir, err)
	}
	return &Store{cfg: cfg}, nil
}

// Get returns the JSON stored under key. Missing, corrupt and expired
// entries are misses; expired entries are removed.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		s.stats.Misses++
		return nil, false
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key {
		s.stats.Misses++
		return nil, false
	}
	if e.expired(s.cfg.Now()) {
		_ = os.Remove(path)
		s.stats.Misses++
		return nil, false
	}
	s.stats.Hits++
	return e.Data, true
}

// Put stores a JSON document under key with the default TTL.
func (s *Store) Put(key string, data []byte) error {
	return s.PutWithTTL(key, data, s.cfg.DefaultTTL)
}

// PutWithTTL stores a JSON document under key. A ttl of zero or less never
// expires.
func (s *Store) PutWithTTL(key string, data []byte, ttl time.Duration) error {
	if !json.Valid(data) {
		return fmt.Errorf("cache: value for %q is not JSON", key)
	}
	raw, err := json.Marshal(envelope{
		Key:     key,
		Created: s.cfg.Now(),
		TTL:     ttl,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("cache: marshal %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWrite(s.path(key), raw, s.cfg.Dir); err != nil {
		return fmt.Errorf("cache: write %q: %w", key, err)
	}
	s.stats.Writes++
	return nil
}

// Delete removes key. Removing a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every entry and leftover temp file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: clear read dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			_ = os.Remove(filepath.Join(s.cfg.Dir, name))
		}
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) path(key string) string {
	return filepath.Join(s.cfg.Dir, hashKey(key)+".json")
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
