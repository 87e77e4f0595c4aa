package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"repodump/internal/config"
	"repodump/models"
)

// Run summarises one completed download batch.
type Run struct {
	ID         int64     `json:"id"`
	Platform   string    `json:"platform"`
	Username   string    `json:"username"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// IssueRecord is one persisted download issue.
type IssueRecord struct {
	ID      int64     `json:"id"`
	RunID   int64     `json:"run_id"`
	Repo    string    `json:"repo"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Store persists run outcomes so past batches can be inspected.
// Implementations exist for SQLite (default) and MySQL.
type Store interface {
	// SaveRun records a run and its issues, returning the new run ID.
	SaveRun(ctx context.Context, run Run, issues []models.Issue) (int64, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// IssuesForRun returns the issues recorded for one run.
	IssuesForRun(ctx context.Context, runID int64) ([]IssueRecord, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// Driver returns the backend name: "sqlite" or "mysql".
	Driver() string
}

// New returns a Store matching cfg.Driver. SQLite is the default when the
// driver is empty.
func New(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported history driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}

// store implements the Store queries over database/sql; both backends share
// it, differing only in schema DDL and connection setup.
type store struct {
	db     *sql.DB
	driver string
}

func (s *store) Driver() string { return s.driver }

func (s *store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *store) Close() error { return s.db.Close() }

func (s *store) SaveRun(ctx context.Context, run Run, issues []models.Issue) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (platform, username, started_at, finished_at, total, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Platform, run.Username, run.StartedAt, run.FinishedAt,
		run.Total, run.Succeeded, run.Failed)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolving run id: %w", err)
	}

	for _, issue := range issues {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_issues (run_id, repo, kind, message, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, issue.Repo.FullName(), string(issue.Kind), issue.Message, issue.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("inserting issue for %s: %w", issue.Repo.FullName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

func (s *store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, platform, username, started_at, finished_at, total, succeeded, failed
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Platform, &r.Username, &r.StartedAt,
			&r.FinishedAt, &r.Total, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *store) IssuesForRun(ctx context.Context, runID int64) ([]IssueRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, repo, kind, message, created_at
		 FROM run_issues WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing issues for run %d: %w", runID, err)
	}
	defer rows.Close()

	var issues []IssueRecord
	for rows.Next() {
		var rec IssueRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Repo, &rec.Kind,
			&rec.Message, &rec.At); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		issues = append(issues, rec)
	}
	return issues, rows.Err()
}
