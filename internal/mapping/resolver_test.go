package mapping

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jirify/internal/cache"
)

type fakeSearcher struct {
	issues map[string]string
	err    error
	calls  int
}

func (f *fakeSearcher) ClientIssues(ctx context.Context) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(t.TempDir(), discardLogger())
}

func writeNicknames(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nicknames.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveIsCaseAndWhitespaceInsensitive(t *testing.T) {
	searcher := &fakeSearcher{issues: map[string]string{"Acme Corp": "PROJ-4"}}
	r := Build(context.Background(), newTestCache(t), searcher, "", discardLogger())

	for _, name := range []string{"Acme Corp", "acme corp", "  ACME CORP  "} {
		key, ok := r.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, "PROJ-4", key)
	}

	_, ok := r.Resolve("Globex")
	assert.False(t, ok)
}

func TestNicknameOverridesSearchResult(t *testing.T) {
	searcher := &fakeSearcher{issues: map[string]string{"Acme": "PROJ-4"}}
	nicknames := writeNicknames(t, `{"Acme": "PROJ-99", "Shortname": "PROJ-7"}`)
	r := Build(context.Background(), newTestCache(t), searcher, nicknames, discardLogger())

	key, ok := r.Resolve("Acme")
	require.True(t, ok)
	assert.Equal(t, "PROJ-99", key, "nickname wins on collision")

	key, ok = r.Resolve("Shortname")
	require.True(t, ok)
	assert.Equal(t, "PROJ-7", key)
}

func TestSearchFailureDegradesToNicknamesOnly(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("401 unauthorized")}
	nicknames := writeNicknames(t, `{"Acme": "PROJ-4"}`)
	r := Build(context.Background(), newTestCache(t), searcher, nicknames, discardLogger())

	key, ok := r.Resolve("Acme")
	require.True(t, ok)
	assert.Equal(t, "PROJ-4", key)
	assert.Equal(t, 1, r.Len())
}

func TestBuildUsesCacheOnSecondRun(t *testing.T) {
	cacheStore := newTestCache(t)
	searcher := &fakeSearcher{issues: map[string]string{"Acme": "PROJ-4"}}

	Build(context.Background(), cacheStore, searcher, "", discardLogger())
	r := Build(context.Background(), cacheStore, searcher, "", discardLogger())

	assert.Equal(t, 1, searcher.calls, "second build must hit the cache")
	key, ok := r.Resolve("Acme")
	require.True(t, ok)
	assert.Equal(t, "PROJ-4", key)
}

func TestResolveClientNamedAfterItsOwnKey(t *testing.T) {
	// A client whose display name equals its issue key must still
	// resolve via presence, not be treated as a miss.
	searcher := &fakeSearcher{issues: map[string]string{"PROJ-4": "PROJ-4"}}
	r := Build(context.Background(), newTestCache(t), searcher, "", discardLogger())

	key, ok := r.Resolve("PROJ-4")
	require.True(t, ok)
	assert.Equal(t, "PROJ-4", key)
}

func TestMissingNicknamesFileIsFine(t *testing.T) {
	searcher := &fakeSearcher{issues: map[string]string{"Acme": "PROJ-4"}}
	r := Build(context.Background(), newTestCache(t), searcher, filepath.Join(t.TempDir(), "absent.json"), discardLogger())
	assert.Equal(t, 1, r.Len())
}
