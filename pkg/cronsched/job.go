package cronsched

import "github.com/google/uuid"

// Status is the job state-machine variable (spec §3).
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Job is the durable representation of a scheduled job (spec §3). Exactly
// one of CronExpression and SpecificTime is non-null.
type Job struct {
	ID             string  `db:"id"`
	Identifier     string  `db:"identifier"`
	CronExpression *string `db:"cron_expression"`
	SpecificTime   *int64  `db:"specific_time"`
	Status         Status  `db:"status"`
	NextRun        int64   `db:"next_run"`
	LastRun        *int64  `db:"last_run"`
	LastError      *string `db:"last_error"`
	RunCount       int64   `db:"run_count"`
	CreatedAt      int64   `db:"created_at"`
	UpdatedAt      int64   `db:"updated_at"`
}

// IsRecurring reports whether the job is driven by a cron expression rather
// than a one-shot timestamp.
func (j *Job) IsRecurring() bool {
	return j.CronExpression != nil
}

// JobHandler is the callback invoked when a job fires. Handlers live only
// in the process that registered them and are never persisted — a restart
// requires re-registering every handler before Start.
type JobHandler func(identifier string) error

// RunLogEntry is an in-memory, non-persisted record of a single firing.
// Bounded to the last maxRunLogEntries per Scheduler (spec §4 supplement).
type RunLogEntry struct {
	TsMS       int64
	Identifier string
	Status     string // "ok" or "error"
	Error      string
}

func newJobID() string {
	return uuid.NewString()
}
