// Package usecase contains the sync engine: one run turns provider
// time entries into Jira worklog postings and advances the cursor.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jirify/internal/domain"
	"jirify/internal/ports"
)

// ErrInvalidDate marks an unparseable start/end boundary. The run is
// aborted before any fetch is attempted.
var ErrInvalidDate = errors.New("invalid date")

// RoundQuantum is the round-up granularity in seconds (15 minutes).
const RoundQuantum = 900

// flexible layouts accepted for --start_date / --end_date values.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SyncUseCase coordinates fetching entries from the provider and
// posting worklogs to Jira. Report lines for the operator go to Out;
// structured logging goes to Log.
type SyncUseCase struct {
	Log      *slog.Logger
	Out      io.Writer
	Provider ports.Provider
	Jira     ports.WorklogPoster
	Mapping  ports.IssueResolver
	Cursor   ports.CursorStore
	Audit    ports.AuditSink

	RoundUp          bool
	SendDescriptions bool

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// RunOptions are the per-invocation arguments of a sync run.
type RunOptions struct {
	StartDate string // flexible date expression, empty = cursor/midnight
	EndDate   string // flexible date expression, empty = open-ended
	DryRun    bool
}

// Run executes one synchronization pass: resolve the window, fetch
// projects/clients/entries, process entries in provider order, then
// persist the furthest successfully logged start time.
func (uc *SyncUseCase) Run(ctx context.Context, opts RunOptions) error {
	if uc.Provider == nil || uc.Jira == nil || uc.Mapping == nil || uc.Cursor == nil {
		return errors.New("usecase not initialized: missing dependencies")
	}
	runID := uuid.NewString()
	log := uc.Log.With(slog.String("run_id", runID))

	start, end, hasEnd, err := uc.resolveWindow(opts)
	if err != nil {
		return err
	}
	uc.line("🕒 Using start date %s", start.Format(time.RFC3339))
	if hasEnd {
		uc.line("🕒 Using end date %s", end.Format(time.RFC3339))
	}

	projects, err := uc.Provider.Projects(ctx)
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}
	clients, err := uc.Provider.Clients(ctx)
	if err != nil {
		return fmt.Errorf("fetching clients: %w", err)
	}
	entries, err := uc.Provider.Entries(ctx, start, end, hasEnd)
	if err != nil {
		return fmt.Errorf("fetching entries: %w", err)
	}
	log.Info("fetched time entries", slog.Int("count", len(entries)))

	if len(entries) == 0 {
		uc.line("⚪ No entries found.")
	}

	var lastLogged, dryLastLogged time.Time

	// Entries are processed strictly in provider order.
	for _, entry := range entries {
		project, ok := projects[entry.ProjectID]
		if !ok {
			uc.line("❌ Unknown project %q for entry %s - skipping.", entry.ProjectID, quoted(entry.Description))
			continue
		}
		if project.ClientID == "" {
			uc.line("❕ Skipping log for %s", joinNonEmpty(quoted(entry.Description), project.Name, "(no client assigned)."))
			continue
		}

		// Never log in-progress work.
		if entry.Running {
			continue
		}

		client, ok := clients[project.ClientID]
		if !ok {
			uc.line("❌ Unknown client %q for project %s - skipping.", project.ClientID, project.Name)
			continue
		}

		duration := entry.DurationSec
		if duration == 0 {
			uc.line("❌ Invalid duration string for %s: %s", client.Name, entry.RawDuration)
		}
		if uc.RoundUp {
			duration = RoundUp(duration, RoundQuantum)
		}

		issueKey, ok := uc.Mapping.Resolve(client.Name)
		if !ok {
			uc.line("❌ Could not find a Worklog match for client %q", client.Name)
			uc.audit(ctx, domain.WorklogRecord{
				RunID: runID, ClientName: client.Name, Seconds: duration,
				Started: entry.Start, Outcome: domain.OutcomeNoMatch,
			})
			continue
		}

		description := entry.Description
		if !uc.SendDescriptions {
			description = ""
		}
		descOut := ""
		if entry.Description != "" {
			descOut = " - " + quoted(entry.Description)
		}

		record := domain.WorklogRecord{
			RunID: runID, ClientName: client.Name, IssueKey: issueKey,
			Seconds: duration, Started: entry.Start,
		}

		if opts.DryRun {
			if entry.Start.After(dryLastLogged) {
				dryLastLogged = entry.Start
			}
			uc.line("✅ Would have logged %s for %s%s", FriendlyDuration(duration), client.Name, descOut)
			record.Outcome = domain.OutcomeDryRun
			uc.audit(ctx, record)
			continue
		}

		posted, err := uc.Jira.PostWorklog(ctx, issueKey, duration, description, entry.Start)
		if err != nil {
			log.Warn("worklog request failed", slog.String("issue", issueKey), slog.String("error", err.Error()))
		}
		if posted {
			uc.line("✅ Logged %s for %s%s", FriendlyDuration(duration), client.Name, descOut)
			if entry.Start.After(lastLogged) {
				lastLogged = entry.Start
			}
			record.Outcome = domain.OutcomeLogged
		} else {
			uc.line("❌ Error logging %s for %s%s", FriendlyDuration(duration), client.Name, descOut)
			record.Outcome = domain.OutcomeFailed
		}
		uc.audit(ctx, record)
	}

	if !lastLogged.IsZero() {
		if err := uc.Cursor.Write(lastLogged); err != nil {
			return fmt.Errorf("persisting cursor: %w", err)
		}
		uc.line("📆 Setting last logged date to %s", lastLogged.Add(time.Second).UTC().Format(time.RFC3339))
	} else if !opts.DryRun {
		uc.line("\n🤷 No new entries with clients found - nothing sent to Jira.")
	}
	if opts.DryRun && !dryLastLogged.IsZero() {
		uc.line("Would have set last logged date to %s", dryLastLogged.Format(time.RFC3339))
	}

	uc.line("\n👋 All done! Bye!")
	return nil
}

// resolveWindow turns the option strings into absolute UTC instants.
// An omitted start falls back to the cursor, then to midnight UTC of
// the current day.
func (uc *SyncUseCase) resolveWindow(opts RunOptions) (start, end time.Time, hasEnd bool, err error) {
	if opts.StartDate != "" {
		start, err = parseFlexible(opts.StartDate)
		if err != nil {
			uc.line("❌ Invalid start date supplied: %s", opts.StartDate)
			return time.Time{}, time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, opts.StartDate)
		}
	} else {
		cursor, ok, err := uc.Cursor.Read()
		if err != nil {
			uc.Log.Warn("could not read cursor", slog.String("error", err.Error()))
		}
		if ok {
			uc.line("📆 Getting last logged date...")
			start = cursor
		} else {
			now := uc.now()
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	if opts.EndDate != "" {
		end, err = parseFlexible(opts.EndDate)
		if err != nil {
			uc.line("❌ Invalid end date supplied: %s", opts.EndDate)
			return time.Time{}, time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, opts.EndDate)
		}
		hasEnd = true
	}
	return start, end, hasEnd, nil
}

func (uc *SyncUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc *SyncUseCase) line(format string, args ...any) {
	if uc.Out == nil {
		return
	}
	fmt.Fprintf(uc.Out, format+"\n", args...)
}

func (uc *SyncUseCase) audit(ctx context.Context, rec domain.WorklogRecord) {
	if uc.Audit != nil {
		uc.Audit.RecordWorklog(ctx, rec)
	}
}

// RoundUp rounds value up to the nearest multiple of quantum. Zero is
// unaffected.
func RoundUp(value, quantum int64) int64 {
	if value > 0 {
		value = value - (value % quantum) + quantum
	}
	return value
}

// FriendlyDuration renders whole seconds as "1h 30m" style output.
func FriendlyDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func parseFlexible(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func quoted(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("%q", s)
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
