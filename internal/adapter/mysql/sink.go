// Package mysql records worklog posting outcomes in a MySQL table for
// reporting. The sink is an observer: recording failures are logged
// and never fail the sync run.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"jirify/internal/domain"
)

// Sink implements ports.AuditSink by inserting one row per posting
// attempt.
type Sink struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSink opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewSink(ctx context.Context, dsn string, log *slog.Logger) (*Sink, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Sink{db: db, log: log}, nil
}

// RecordWorklog inserts one audit row. Errors are logged, not
// propagated; the sync run must not depend on the audit trail.
func (s *Sink) RecordWorklog(ctx context.Context, rec domain.WorklogRecord) {
	const q = `
INSERT INTO worklog_audit
  (run_id, client_name, issue_key, seconds, started, outcome, recorded_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?);
`
	var issueKey any
	if rec.IssueKey != "" {
		issueKey = rec.IssueKey
	}
	if _, err := s.db.ExecContext(
		ctx,
		q,
		rec.RunID,
		rec.ClientName,
		issueKey,
		rec.Seconds,
		rec.Started.UTC(),
		rec.Outcome,
		time.Now().UTC(),
	); err != nil {
		s.log.Warn("audit insert failed",
			slog.String("run_id", rec.RunID),
			slog.String("client", rec.ClientName),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the underlying DB. Not wired via interface to keep
// ports minimal.
func (s *Sink) Close() error { return s.db.Close() }

// NopSink discards audit records; used when no DSN is configured.
type NopSink struct{}

func (NopSink) RecordWorklog(context.Context, domain.WorklogRecord) {}
