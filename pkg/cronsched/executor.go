package cronsched

import (
	"log/slog"
	"time"
)

// runFiring executes one firing of identifier: retry loop, gated
// post-execution update, next-state computation, and timer re-arm (spec
// §4.4). It is invoked from a timer callback and, for a manual trigger,
// from TriggerNow.
func (s *Scheduler) runFiring(identifier string) {
	handler, ok := s.registry.get(identifier)
	if !ok {
		// Benign miss: the process restarted without re-registering this
		// identifier's handler. Do not mutate the record, do not re-arm.
		slog.Warn("cronsched: no handler registered for due job", "identifier", identifier)
		return
	}

	cfg := s.getCfg()
	attempts, err := executeWithRetry(func() error {
		return handler(identifier)
	}, cfg.Retry, time.Sleep)

	if attempts > 1 {
		slog.Info("cronsched: job retried", "identifier", identifier, "attempts", attempts, "success", err == nil)
	}

	var lastErrStr *string
	if err != nil {
		s.recordRun(identifier, err)
		msg := err.Error()
		lastErrStr = &msg
		if cfg.OnError != nil {
			cfg.OnError(identifier, err)
		} else {
			s.errSink.emit(identifier, err)
		}
	} else {
		s.recordRun(identifier, nil)
	}

	// run_count advances unconditionally on forward progress — a handler's
	// ultimate failure does not prevent advancement of next_run. This is a
	// deliberate choice (forward progress over stalling a recurring job
	// forever on one misbehaving handler), carried from the source and
	// documented here per spec §9 Open Question 1.
	s.advanceAfterFiring(identifier, lastErrStr)
}

// advanceAfterFiring reads the current record gated on status = 'active'.
// If the gate fails — the job was paused or cancelled while executing — it
// does not update timings and does not re-arm, preserving pause/cancel
// semantics against a concurrently running execution (spec §4.4 step 4).
func (s *Scheduler) advanceAfterFiring(identifier string, lastErr *string) {
	job, ok, err := s.store.getByIdentifier(identifier)
	if err != nil {
		slog.Error("cronsched: failed to read job for post-execution update", "identifier", identifier, "error", err)
		return
	}
	if !ok || job.Status != StatusActive {
		return
	}

	now := s.clock.NowMS()
	var nextRun int64
	var status Status

	if job.IsRecurring() {
		next, err := cronNext(*job.CronExpression, now)
		if err != nil {
			slog.Error("cronsched: failed to compute next run", "identifier", identifier, "error", err)
			return
		}
		nextRun = next
		status = StatusActive
	} else {
		status = StatusCompleted
		nextRun = *job.SpecificTime // kept for audit; no re-arm follows
	}

	runCount := job.RunCount + 1
	applied, err := s.store.applyPostExecution(identifier, now, lastErr, nextRun, runCount, status, now)
	if err != nil {
		slog.Error("cronsched: failed to apply post-execution update", "identifier", identifier, "error", err)
		return
	}
	if !applied {
		// Lost the gate race: status changed between the read above and
		// the write (pause/cancel landed first). Leave the timer cleared.
		return
	}

	s.timers.remove(identifier)
	if status == StatusActive && nextRun <= now+s.getCfg().LookAheadWindow.Milliseconds() {
		s.armTimer(identifier, nextRun, now)
	}
}

func (s *Scheduler) recordRun(identifier string, err error) {
	entry := RunLogEntry{TsMS: s.clock.NowMS(), Identifier: identifier}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	} else {
		entry.Status = "ok"
	}

	s.runLogMu.Lock()
	defer s.runLogMu.Unlock()
	s.runLog = append(s.runLog, entry)
	if len(s.runLog) > maxRunLogEntries {
		s.runLog = s.runLog[len(s.runLog)-maxRunLogEntries:]
	}
}

const maxRunLogEntries = 200
