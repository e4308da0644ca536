package cache

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("projects", map[string]string{"1": "Website"}, DefaultTTL))

	raw, ok := s.Get("projects")
	require.True(t, ok)
	assert.JSONEq(t, `{"1":"Website"}`, string(raw))
}

func TestGetMissOnAbsentFile(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Get("projects")
	assert.False(t, ok)
}

func TestGetMissOnExpiredDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("clients", map[string]string{"c1": "Acme"}, time.Hour))

	// Move the clock one second past expiry.
	s.now = func() time.Time { return time.Now().Add(time.Hour + time.Second) }
	_, ok := s.Get("clients")
	assert.False(t, ok)
}

func TestGetMissOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.json"), []byte("{not json"), 0o644))

	_, ok := s.Get("mapping")
	assert.False(t, ok)
}

func TestGetMissOnMissingExpiry(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.json"), []byte(`{"mapping":{}}`), 0o644))

	_, ok := s.Get("mapping")
	assert.False(t, ok)
}

func TestFlushRemovesOnlyNamedStores(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("projects", map[string]string{}, DefaultTTL))
	require.NoError(t, s.Set("mapping", map[string]string{}, DefaultTTL))

	s.Flush("projects", "nonexistent")

	_, ok := s.Get("projects")
	assert.False(t, ok)
	_, ok = s.Get("mapping")
	assert.True(t, ok)
}

func TestIndex(t *testing.T) {
	s := newTestStore(t)
	type item struct {
		Name string `json:"name"`
	}
	require.NoError(t, s.Set("projects", map[string]item{"1": {Name: "Website"}}, DefaultTTL))

	got, ok := Index[item](s, "projects")
	require.True(t, ok)
	assert.Equal(t, "Website", got["1"].Name)

	// Shape mismatch reads as a miss.
	require.NoError(t, s.Set("projects", []string{"not", "a", "map"}, DefaultTTL))
	_, ok = Index[item](s, "projects")
	assert.False(t, ok)
}
