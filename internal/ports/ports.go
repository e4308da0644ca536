package ports

import (
	"context"
	"time"

	"jirify/internal/domain"
)

// Provider defines methods to fetch reference data and time entries
// from a time-tracking service (Toggl or Clockify). Projects and
// Clients are indexed by provider ID for O(1) lookup during the entry
// loop. Entries are returned in provider order, already normalized
// into domain.TimeEntry.
type Provider interface {
	Projects(ctx context.Context) (map[string]domain.Project, error)
	Clients(ctx context.Context) (map[string]domain.Client, error)
	Entries(ctx context.Context, start, end time.Time, hasEnd bool) ([]domain.TimeEntry, error)
}

// WorklogPoster posts a worklog against an issue-tracker issue.
// ok reports whether the tracker accepted the worklog (HTTP 201);
// err is reserved for transport-level failures.
type WorklogPoster interface {
	PostWorklog(ctx context.Context, issueKey string, seconds int64, description string, started time.Time) (bool, error)
}

// IssueResolver resolves a client display name to an issue key.
type IssueResolver interface {
	Resolve(clientName string) (string, bool)
}

// CursorStore persists the "last successfully logged" start time
// across runs.
type CursorStore interface {
	Read() (time.Time, bool, error)
	Write(t time.Time) error
}

// AuditSink records the outcome of every posting attempt. Recording is
// best-effort; implementations must not fail the run.
type AuditSink interface {
	RecordWorklog(ctx context.Context, rec domain.WorklogRecord)
}
