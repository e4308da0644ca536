// Package mapping builds and resolves the client-name → issue-key
// lookup table. The base mapping comes from an issue-tracker search
// for Client issues; a manual nickname file is overlaid on top, with
// nicknames winning on collision. The merged table is cached for 12
// hours.
package mapping

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"jirify/internal/cache"
)

// store is the cache store name for the merged mapping.
const store = "mapping"

// Searcher is the issue-tracker query used to build the base mapping
// (display name → issue key).
type Searcher interface {
	ClientIssues(ctx context.Context) (map[string]string, error)
}

// Resolver answers client-name lookups against a mapping built once
// per run. It is read-only after Build.
type Resolver struct {
	byName map[string]string // keys case-folded and trimmed
	log    *slog.Logger
}

// Build constructs a Resolver from the cache, or rebuilds the mapping
// from the issue tracker on a miss. nicknamesPath may point at a flat
// JSON object of client-name-or-key → issue-key pairs; a missing file
// is fine. If the tracker search fails, the mapping degrades to
// nickname-only; that is reported but not fatal.
func Build(ctx context.Context, cacheStore *cache.Store, searcher Searcher, nicknamesPath string, log *slog.Logger) *Resolver {
	var merged map[string]string

	if raw, ok := cacheStore.Get(store); ok {
		if err := json.Unmarshal(raw, &merged); err != nil {
			merged = nil
		}
	}

	if merged == nil {
		log.Info("refreshing client mapping from issue tracker")
		base, err := searcher.ClientIssues(ctx)
		if err != nil {
			log.Warn("client issue search failed, using nicknames only", slog.String("error", err.Error()))
			base = map[string]string{}
		}

		merged = base
		for name, key := range loadNicknames(nicknamesPath, log) {
			merged[name] = key
		}

		if err := cacheStore.Set(store, merged, cache.DefaultTTL); err != nil {
			log.Warn("could not cache client mapping", slog.String("error", err.Error()))
		}
	}

	r := &Resolver{byName: make(map[string]string, len(merged)), log: log}
	for name, key := range merged {
		r.byName[normalize(name)] = key
	}
	return r
}

// Resolve returns the issue key for a client display name. Lookup is
// case- and whitespace-insensitive and uses a presence check, so a
// client whose display name happens to equal its own issue key still
// resolves.
func (r *Resolver) Resolve(clientName string) (string, bool) {
	key, ok := r.byName[normalize(clientName)]
	return key, ok
}

// Len reports the number of mapped clients.
func (r *Resolver) Len() int { return len(r.byName) }

// Pairs returns a copy of the normalized mapping.
func (r *Resolver) Pairs() map[string]string {
	out := make(map[string]string, len(r.byName))
	for name, key := range r.byName {
		out[name] = key
	}
	return out
}

func loadNicknames(path string, log *slog.Logger) map[string]string {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("could not read nicknames file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	}
	var nicknames map[string]string
	if err := json.Unmarshal(b, &nicknames); err != nil {
		log.Warn("could not parse nicknames file", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return nicknames
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
