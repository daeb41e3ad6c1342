package cronsched

import (
	"log/slog"
	"time"
)

// loadChunk is the chunk-loading protocol (spec §4.3), invoked on start, on
// resume, and on every refresh tick:
//  1. snapshot now, compute window_end;
//  2. clear every timer currently armed;
//  3. query the store for active jobs due at or before window_end (including
//     jobs already past due — see windowQuery), limited to chunkSize;
//  4. arm a fresh timer per returned identifier that has a registered
//     handler, re-sampling "now" per timer so earlier entries do not drift.
func (s *Scheduler) loadChunk() {
	cfg := s.getCfg()
	now := s.clock.NowMS()
	windowEnd := now + cfg.LookAheadWindow.Milliseconds()

	s.timers.clear()

	jobs, err := s.store.windowQuery(now, windowEnd, cfg.ChunkSize)
	if err != nil {
		slog.Error("cronsched: chunk load failed", "error", err)
		return
	}

	for _, job := range jobs {
		if _, ok := s.registry.get(job.Identifier); !ok {
			continue
		}
		s.armTimer(job.Identifier, job.NextRun, s.clock.NowMS())
	}

	slog.Debug("cronsched: chunk loaded", "due", len(jobs), "armed", s.timers.size())
}

// armTimer arms a timer for identifier to fire at nextRunMS, with delay
// max(0, nextRunMS - nowMS) (spec §4.3 step 4, and the resolved
// window-asymmetry rule in SPEC_FULL.md §10.3: a next_run at or before now
// is armed immediately rather than skipped).
func (s *Scheduler) armTimer(identifier string, nextRunMS int64, nowMS int64) {
	delay := time.Duration(nextRunMS-nowMS) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	s.timers.arm(identifier, delay, func() {
		s.runFiring(identifier)
	})
}
