// Package cursor persists the incremental-sync resume point: the start
// time of the furthest successfully logged entry.
package cursor

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

// Store owns the data.json document {"last_logged": "<RFC3339|''>"}.
type Store struct {
	path string
	log  *slog.Logger
}

func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Read returns the last logged time. ok is false when the file does
// not exist or last_logged is the empty string.
func (s *Store) Read() (time.Time, bool, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cursor: read: %w", err)
	}

	var doc struct {
		LastLogged string `json:"last_logged"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return time.Time{}, false, fmt.Errorf("cursor: parse: %w", err)
	}
	if doc.LastLogged == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, doc.LastLogged)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cursor: parse last_logged: %w", err)
	}
	s.log.Debug("read last logged date", slog.Time("last_logged", t))
	return t, true, nil
}

// Write persists t advanced by exactly one second, so the next run's
// lower-bound query strictly excludes the boundary entry. Unknown
// sibling fields in the document are preserved.
func (s *Store) Write(t time.Time) error {
	next := t.Add(time.Second).UTC()

	doc := map[string]json.RawMessage{}
	if b, err := os.ReadFile(s.path); err == nil {
		// Best effort: an unreadable document is replaced outright.
		_ = json.Unmarshal(b, &doc)
	}
	stamped, err := json.Marshal(next.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cursor: marshal: %w", err)
	}
	doc["last_logged"] = stamped

	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("cursor: marshal document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("cursor: create dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("cursor: write: %w", err)
	}
	s.log.Info("set last logged date", slog.Time("last_logged", next))
	return nil
}
