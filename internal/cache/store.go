// Package cache is a TTL-based JSON file store for provider reference
// data (projects, clients) and the client mapping. Each store is one
// file `<dir>/<store>.json` shaped as
// {"expires": <epoch-seconds>, "<store>": <payload>}.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// DefaultTTL is the cache lifetime used when callers do not override
// it (12 hours).
const DefaultTTL = 12 * time.Hour

// Store reads and writes cache documents under a directory.
type Store struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// NewStore creates a Store rooted at dir. The directory is created on
// first Set.
func NewStore(dir string, log *slog.Logger) *Store {
	return &Store{dir: dir, log: log, now: time.Now}
}

// Get returns the cached payload for store, or ok=false on a miss.
// A missing file, an unparseable file, and an expired document are all
// misses; expiry is compared against the absolute `expires` stamp.
func (s *Store) Get(store string) (json.RawMessage, bool) {
	b, err := os.ReadFile(s.path(store))
	if err != nil {
		return nil, false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		s.log.Warn("problem retrieving cache store", slog.String("store", store), slog.String("error", err.Error()))
		return nil, false
	}
	var expires int64
	if err := json.Unmarshal(doc["expires"], &expires); err != nil {
		s.log.Warn("cache store missing expiry", slog.String("store", store))
		return nil, false
	}
	if s.now().Unix() > expires {
		return nil, false
	}
	payload, ok := doc[store]
	if !ok {
		return nil, false
	}
	return payload, true
}

// Set overwrites the store's document with payload, stamped with a new
// absolute expiry now+ttl.
func (s *Store) Set(store string, payload any, ttl time.Duration) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", store, err)
	}
	doc := map[string]json.RawMessage{
		"expires": json.RawMessage(fmt.Sprintf("%d", s.now().Add(ttl).Unix())),
		store:     raw,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cache: marshal envelope: %w", err)
	}
	if err := atomic.WriteFile(s.path(store), bytes.NewReader(b)); err != nil {
		return fmt.Errorf("cache: write %s: %w", store, err)
	}
	return nil
}

// Flush removes the named store files. Missing files are not an error.
func (s *Store) Flush(stores ...string) {
	for _, store := range stores {
		if err := os.Remove(s.path(store)); err == nil {
			s.log.Debug("flushed cache store", slog.String("store", store))
		}
	}
}

func (s *Store) path(store string) string {
	return filepath.Join(s.dir, store+".json")
}

// Index reads a cached ID-keyed collection, treating a stale or
// mismatched payload shape as a miss.
func Index[T any](s *Store, store string) (map[string]T, bool) {
	raw, ok := s.Get(store)
	if !ok {
		return nil, false
	}
	var out map[string]T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}
