package domain

import "time"

// Outcomes for a worklog posting attempt.
const (
	OutcomeLogged  = "logged"
	OutcomeDryRun  = "dry_run"
	OutcomeFailed  = "failed"
	OutcomeNoMatch = "no_match"
)

// WorklogRecord is the audit trail row for one posting attempt.
type WorklogRecord struct {
	RunID      string
	ClientName string
	IssueKey   string // empty when no mapping was found
	Seconds    int64
	Started    time.Time
	Outcome    string
}
