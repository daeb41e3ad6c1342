package cronsched

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// sqliteStore is the embedded relational job store. It opens the database
// in write-ahead-logging mode so stats/window reads never block the
// execution-path updates, exactly as internal/memory/sqlite.go does for the
// teacher's chunk store. Concurrent access is serialised by WAL +
// busy_timeout at the database layer, not by a Go-level mutex.
type sqliteStore struct {
	db       *sqlx.DB
	initOnce sync.Once
	initErr  error
}

func newSQLiteStore(dsn string) (*sqliteStore, error) {
	db, err := sqlx.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) init() error {
	s.initOnce.Do(func() {
		s.initErr = s.migrate()
	})
	return s.initErr
}

func (s *sqliteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cron_jobs (
			id TEXT PRIMARY KEY,
			cron_expression TEXT,
			specific_time INTEGER,
			identifier TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('active','paused','cancelled','completed')),
			next_run INTEGER NOT NULL,
			last_run INTEGER,
			last_error TEXT,
			run_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			CHECK ((cron_expression IS NULL) != (specific_time IS NULL))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cron_jobs_identifier ON cron_jobs(identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_cron_jobs_status_next_run ON cron_jobs(status, next_run)`,
		`CREATE INDEX IF NOT EXISTS idx_cron_jobs_run_count ON cron_jobs(run_count)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	slog.Info("cronsched: store initialised")
	return nil
}

func (s *sqliteStore) upsert(job *Job) error {
	_, err := s.db.Exec(`INSERT INTO cron_jobs
		(id, cron_expression, specific_time, identifier, status, next_run, last_run, last_error, run_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			cron_expression = excluded.cron_expression,
			specific_time = excluded.specific_time,
			status = excluded.status,
			next_run = excluded.next_run,
			last_run = excluded.last_run,
			last_error = excluded.last_error,
			run_count = excluded.run_count,
			updated_at = excluded.updated_at`,
		job.ID, job.CronExpression, job.SpecificTime, job.Identifier, job.Status,
		job.NextRun, job.LastRun, job.LastError, job.RunCount, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.Identifier, err)
	}
	return nil
}

func (s *sqliteStore) updateStatus(identifier string, status Status, updatedAt int64) (bool, error) {
	res, err := s.db.Exec(`UPDATE cron_jobs SET status = ?, updated_at = ? WHERE identifier = ?`,
		status, updatedAt, identifier)
	if err != nil {
		return false, fmt.Errorf("update status %s: %w", identifier, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// applyPostExecution is gated on the row still having status = 'active' when
// the update runs (spec §4.2, the "gate on status=active" read-modify-write
// guard).
func (s *sqliteStore) applyPostExecution(identifier string, lastRun int64, lastError *string, nextRun int64, runCount int64, status Status, updatedAt int64) (bool, error) {
	res, err := s.db.Exec(`UPDATE cron_jobs
		SET last_run = ?, last_error = ?, next_run = ?, run_count = ?, status = ?, updated_at = ?
		WHERE identifier = ? AND status = 'active'`,
		lastRun, lastError, nextRun, runCount, status, updatedAt, identifier)
	if err != nil {
		return false, fmt.Errorf("apply post execution %s: %w", identifier, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *sqliteStore) getByIdentifier(identifier string) (*Job, bool, error) {
	var job Job
	err := s.db.Get(&job, `SELECT * FROM cron_jobs WHERE identifier = ?`, identifier)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get job %s: %w", identifier, err)
	}
	return &job, true, nil
}

// windowQuery returns active jobs due at or before windowEndMS, including
// those already past due (next_run <= nowMS) — a lapsed next_run is armed
// with zero delay rather than excluded, so a job that falls due while the
// process is stopped is picked back up on the next load instead of being
// stranded forever (SPEC_FULL.md §10.3). nowMS is accepted for symmetry with
// callers and future use but does not bound the query from below.
func (s *sqliteStore) windowQuery(nowMS, windowEndMS int64, limit int) ([]*Job, error) {
	var jobs []*Job
	err := s.db.Select(&jobs, `SELECT * FROM cron_jobs
		WHERE status = 'active' AND next_run <= ?
		ORDER BY next_run ASC
		LIMIT ?`, windowEndMS, limit)
	if err != nil {
		return nil, fmt.Errorf("window query: %w", err)
	}
	return jobs, nil
}

func (s *sqliteStore) countByStatus() (StatusCounts, error) {
	var rows []struct {
		Status Status `db:"status"`
		N      int64  `db:"n"`
	}
	if err := s.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM cron_jobs GROUP BY status`); err != nil {
		return StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}
	var out StatusCounts
	for _, r := range rows {
		switch r.Status {
		case StatusActive:
			out.Active = r.N
		case StatusPaused:
			out.Paused = r.N
		case StatusCancelled:
			out.Cancelled = r.N
		case StatusCompleted:
			out.Completed = r.N
		}
	}
	return out, nil
}

func (s *sqliteStore) countActive() (int64, error) {
	return s.scalarCount(`SELECT COUNT(*) FROM cron_jobs WHERE status = 'active'`)
}

func (s *sqliteStore) countCompleted() (int64, error) {
	return s.scalarCount(`SELECT COUNT(*) FROM cron_jobs WHERE status = 'completed'`)
}

func (s *sqliteStore) sumRunCount() (int64, error) {
	var total sql.NullInt64
	if err := s.db.Get(&total, `SELECT SUM(run_count) FROM cron_jobs`); err != nil {
		return 0, fmt.Errorf("sum run_count: %w", err)
	}
	return total.Int64, nil
}

func (s *sqliteStore) countActiveDueBy(windowEndMS int64) (int64, error) {
	return s.scalarCount(`SELECT COUNT(*) FROM cron_jobs WHERE status = 'active' AND next_run <= ?`, windowEndMS)
}

func (s *sqliteStore) scalarCount(query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.Get(&n, query, args...); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return n, nil
}

func (s *sqliteStore) deleteTerminal(status Status, updatedAtCutoffMS int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM cron_jobs WHERE status = ? AND updated_at < ?`, status, updatedAtCutoffMS)
	if err != nil {
		return 0, fmt.Errorf("delete terminal %s: %w", status, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *sqliteStore) close() error {
	return s.db.Close()
}
