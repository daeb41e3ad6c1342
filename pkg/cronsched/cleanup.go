package cronsched

import (
	"context"
	"log/slog"
	"time"
)

// CleanupCounts reports how many rows a cleanup pass deleted per terminal
// status.
type CleanupCounts struct {
	Completed int64
	Cancelled int64
}

func (s *Scheduler) cleanupLoop(ctx context.Context) {
	for {
		interval := s.getCfg().AutoCleanup.Interval
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if !s.getCfg().AutoCleanup.Enabled {
				continue
			}
			if _, err := s.TriggerAutoCleanup(); err != nil {
				// Retention is best-effort: log and continue, never block
				// the refresh loop or executor (spec §4.6).
				slog.Warn("cronsched: cleanup tick failed", "error", err)
			}
		}
	}
}

// CleanupOldJobs deletes completed jobs whose updated_at is older than
// olderThanDays days. Returns the row count.
func (s *Scheduler) CleanupOldJobs(olderThanDays int) (int64, error) {
	return s.cleanupByStatus(StatusCompleted, olderThanDays)
}

// CleanupCompletedJobs is an alias of CleanupOldJobs kept for the
// vocabulary spec §4.5 uses alongside it.
func (s *Scheduler) CleanupCompletedJobs(olderThanDays int) (int64, error) {
	return s.cleanupByStatus(StatusCompleted, olderThanDays)
}

func (s *Scheduler) cleanupByStatus(status Status, olderThanDays int) (int64, error) {
	if err := s.ensureInit(); err != nil {
		return 0, err
	}
	cutoff := s.clock.NowMS() - int64(olderThanDays)*24*60*60*1000
	n, err := s.store.deleteTerminal(status, cutoff)
	if err != nil {
		return 0, newErr(KindStore, "cleanup", err)
	}
	return n, nil
}

// CleanupAllOldJobs deletes completed jobs older than completedDays and
// cancelled jobs older than cancelledDays in one bounded pass.
func (s *Scheduler) CleanupAllOldJobs(completedDays, cancelledDays int) (CleanupCounts, error) {
	completed, err := s.cleanupByStatus(StatusCompleted, completedDays)
	if err != nil {
		return CleanupCounts{}, err
	}
	cancelled, err := s.cleanupByStatus(StatusCancelled, cancelledDays)
	if err != nil {
		return CleanupCounts{Completed: completed}, err
	}
	return CleanupCounts{Completed: completed, Cancelled: cancelled}, nil
}

// TriggerAutoCleanup runs one cleanup pass using the scheduler's configured
// retention thresholds — the manual trigger spec §4.6 calls for alongside
// the periodic loop.
func (s *Scheduler) TriggerAutoCleanup() (CleanupCounts, error) {
	cfg := s.getCfg()
	return s.CleanupAllOldJobs(
		int(cfg.AutoCleanup.CompletedJobsRetention.Hours()/24),
		int(cfg.AutoCleanup.CancelledJobsRetention.Hours()/24),
	)
}
