// Package app wires adapters and use cases.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"jirify/internal/adapter/clockify"
	"jirify/internal/adapter/mysql"
	"jirify/internal/adapter/toggl"
	"jirify/internal/cache"
	"jirify/internal/config"
	"jirify/internal/cursor"
	"jirify/internal/jira"
	"jirify/internal/mapping"
	"jirify/internal/migrate"
	"jirify/internal/ports"
	"jirify/internal/timezone"
	"jirify/internal/usecase"
)

// Flush is the cache invalidation request for a run, merged from the
// config directive and the CLI flags.
type Flush struct {
	Service bool // provider reference data (projects, clients)
	Jira    bool // client mapping
}

// FromDirective translates a config flush value into a Flush.
func FromDirective(directive string) Flush {
	switch directive {
	case config.FlushService:
		return Flush{Service: true}
	case config.FlushJira:
		return Flush{Jira: true}
	case config.FlushAll:
		return Flush{Service: true, Jira: true}
	default:
		return Flush{}
	}
}

// App holds the long-lived collaborators of a jirify invocation.
type App struct {
	log    *slog.Logger
	out    io.Writer
	cfg    config.Config
	cache  *cache.Store
	cursor *cursor.Store
	prov   ports.Provider
	jira   *jira.Client
	audit  ports.AuditSink
}

func New(log *slog.Logger, out io.Writer, cfg config.Config) (*App, error) {
	cacheStore := cache.NewStore(cfg.CacheDir(), log)
	loc := timezone.Resolve(cfg.Timezone, log)

	var prov ports.Provider
	switch cfg.Service {
	case config.ServiceToggl:
		prov = toggl.NewClient(cfg.Toggl.BaseURL, cfg.Toggl.Token, cfg.Toggl.Workspace, cacheStore, loc, log)
	case config.ServiceClockify:
		prov = clockify.NewClient(cfg.Clockify.BaseURL, cfg.Clockify.Token, cfg.Clockify.Workspace, cfg.Clockify.UserID, cacheStore, loc, log)
	default:
		return nil, fmt.Errorf("unknown service %q", cfg.Service)
	}

	var audit ports.AuditSink = mysql.NopSink{}
	if cfg.MySQLDSN != "" {
		// Run migrations before opening the sink for use.
		if err := migrate.Run(context.Background(), cfg.MySQLDSN, log); err != nil {
			return nil, err
		}
		sink, err := mysql.NewSink(context.Background(), cfg.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		audit = sink
	}

	return &App{
		log:    log,
		out:    out,
		cfg:    cfg,
		cache:  cacheStore,
		cursor: cursor.NewStore(cfg.DataFile(), log),
		prov:   prov,
		jira:   jira.NewClient(cfg.Jira.Endpoint, cfg.Jira.Email, cfg.Jira.Token, cfg.Jira.ProjectKey, log),
		audit:  audit,
	}, nil
}

// LogTime runs one synchronization pass.
func (a *App) LogTime(ctx context.Context, opts usecase.RunOptions, flush Flush) error {
	a.applyFlush(flush)

	uc := &usecase.SyncUseCase{
		Log:              a.log,
		Out:              a.out,
		Provider:         a.prov,
		Jira:             a.jira,
		Mapping:          mapping.Build(ctx, a.cache, a.jira, a.cfg.NicknamesFile(), a.log),
		Cursor:           a.cursor,
		Audit:            a.audit,
		RoundUp:          a.cfg.RoundUp,
		SendDescriptions: a.cfg.SendDescriptions,
	}
	return uc.Run(ctx, opts)
}

// Test rebuilds the client mapping and prints the resolved pairs, as a
// connectivity check.
func (a *App) Test(ctx context.Context, flush Flush) error {
	a.applyFlush(flush)
	resolver := mapping.Build(ctx, a.cache, a.jira, a.cfg.NicknamesFile(), a.log)
	fmt.Fprintf(a.out, "Resolved %d client mappings.\n", resolver.Len())
	for name, key := range resolver.Pairs() {
		fmt.Fprintf(a.out, "  %s -> %s\n", name, key)
	}
	return nil
}

// applyFlush merges the config directive with the request and removes
// the affected cache stores before the run.
func (a *App) applyFlush(flush Flush) {
	directive := FromDirective(a.cfg.Flush)
	if flush.Service || directive.Service {
		a.cache.Flush("projects", "clients")
	}
	if flush.Jira || directive.Jira {
		a.cache.Flush("mapping")
	}
}

// Close releases the audit sink connection if one was opened.
func (a *App) Close() error {
	if sink, ok := a.audit.(*mysql.Sink); ok {
		return sink.Close()
	}
	return nil
}
