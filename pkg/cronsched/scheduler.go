package cronsched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the public facade: schedule, cancel, pause, resume, get,
// stats, cleanup, start, stop, destroy (spec §4.5).
type Scheduler struct {
	cfg atomic.Pointer[Config]

	store    jobStore
	timers   *timerSet
	registry *handlerRegistry
	clock    Clock
	errSink  *rateLimitedSink
	watcher  *configWatcher

	runLogMu sync.Mutex
	runLog   []RunLogEntry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	eg      *errgroup.Group
}

// Option configures optional Scheduler behaviour at construction time.
type Option func(*Scheduler)

// WithClock overrides the Clock used for all "now" computations — intended
// for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithConfigWatch enables hot-reload of the tunable subset of Config
// (chunkSize, refreshInterval, lookAheadWindow, retry, cleanup retention)
// by watching configPath for changes.
func WithConfigWatch(configPath string) Option {
	return func(s *Scheduler) {
		w, err := newConfigWatcher(configPath, func(newCfg Config) {
			s.applyHotReload(newCfg)
		})
		if err != nil {
			slog.Warn("cronsched: config hot-reload disabled", "error", err)
			return
		}
		s.watcher = w
	}
}

// New constructs a Scheduler against the given config. The store is opened
// lazily on the first operation that needs it (init auto-heal, spec §7);
// callers that want initialisation errors up front should call Start
// immediately.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	store, err := newSQLiteStore(cfg.DB)
	if err != nil {
		return nil, newErr(KindStore, "new", err)
	}

	s := &Scheduler{
		store:    store,
		timers:   newTimerSet(),
		registry: newHandlerRegistry(),
		clock:    systemClock{},
		errSink:  newRateLimitedSink(),
	}
	s.cfg.Store(&cfg)

	for _, opt := range opts {
		opt(s)
	}
	if s.watcher != nil {
		s.watcher.start()
	}
	return s, nil
}

func (s *Scheduler) getCfg() *Config {
	return s.cfg.Load()
}

// applyHotReload merges the hot-reloadable fields of newCfg into the live
// config. db and onError are left untouched — db changes require a fresh
// store handle (a restart), and onError is a Go callback, not a
// serialisable config field.
func (s *Scheduler) applyHotReload(newCfg Config) {
	cur := *s.getCfg()
	cur.ChunkSize = newCfg.ChunkSize
	cur.RefreshInterval = newCfg.RefreshInterval
	cur.LookAheadWindow = newCfg.LookAheadWindow
	cur.Retry = newCfg.Retry
	cur.AutoCleanup = newCfg.AutoCleanup
	if err := cur.validate(); err != nil {
		slog.Warn("cronsched: rejected hot-reloaded config", "error", err)
		return
	}
	s.cfg.Store(&cur)
	slog.Info("cronsched: config hot-reloaded")
}

// ensureInit runs the store's idempotent schema initialisation. Any
// operation invoked before init auto-heals by initialising once and
// retrying (spec §7 NOT_INITIALISED); sqliteStore's sync.Once makes a
// second call free.
func (s *Scheduler) ensureInit() error {
	if err := s.store.init(); err != nil {
		return newErr(KindNotInitialised, "init", err)
	}
	return nil
}

// Start is idempotent: ensures initialisation, runs one chunk-load pass,
// and starts the refresh loop and the cleanup loop. The cleanup loop skips
// its pass on any tick where AutoCleanup.Enabled is false.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := s.ensureInit(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	s.cancel = cancel
	s.eg = eg

	s.loadChunk()

	eg.Go(func() error {
		s.refreshLoop(ctx)
		return nil
	})
	// The cleanup loop always runs; whether it does any work each tick is
	// decided inside the loop against the live config, so a later
	// hot-reload that flips AutoCleanup.Enabled on takes effect without a
	// restart.
	eg.Go(func() error {
		s.cleanupLoop(ctx)
		return nil
	})

	s.running = true
	slog.Info("cronsched: scheduler started")
	return nil
}

// Stop is idempotent: stops both background loops and cancels all pending
// timers. Handlers already running are allowed to run to completion; their
// post-execution update still executes best-effort.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	_ = s.eg.Wait()
	s.timers.clear()
	s.running = false
	slog.Info("cronsched: scheduler stopped")
}

// Destroy stops the scheduler, closes the store, and drops the handler
// registry. The Scheduler must not be used afterward.
func (s *Scheduler) Destroy() error {
	s.Stop()
	if s.watcher != nil {
		s.watcher.stop()
	}
	s.errSink.stop()
	s.registry.clear()
	if err := s.store.close(); err != nil {
		return newErr(KindStore, "destroy", err)
	}
	return nil
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	for {
		interval := s.getCfg().RefreshInterval
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.loadChunk()
		}
	}
}

// Schedule registers handler under identifier and upserts a record with
// status active, run_count 0, last_run none. Rescheduling an existing
// identifier replaces its prior scheduling state. If the job is due within
// the look-ahead window, it is armed immediately rather than waiting for
// the next refresh tick. If the engine is not running, Start is called.
func (s *Scheduler) Schedule(input ScheduleInput, identifier string, handler JobHandler) (string, error) {
	if identifier == "" {
		return "", newErr(KindConfig, "schedule", fmt.Errorf("identifier must not be empty"))
	}
	if err := s.ensureInit(); err != nil {
		return "", err
	}

	now := s.clock.NowMS()
	resolved, err := input.resolve(now)
	if err != nil {
		return "", err
	}

	existing, found, err := s.store.getByIdentifier(identifier)
	if err != nil {
		return "", newErr(KindStore, "schedule", err)
	}

	id := newJobID()
	if found {
		id = existing.ID
	}

	job := &Job{
		ID:             id,
		Identifier:     identifier,
		CronExpression: resolved.cronExpr,
		SpecificTime:   resolved.specificTime,
		Status:         StatusActive,
		NextRun:        resolved.nextRun,
		RunCount:       0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if found {
		job.CreatedAt = existing.CreatedAt
	}

	if err := s.store.upsert(job); err != nil {
		return "", newErr(KindStore, "schedule", err)
	}

	s.registry.set(identifier, handler)

	cfg := s.getCfg()
	if resolved.nextRun <= now+cfg.LookAheadWindow.Milliseconds() {
		s.armTimer(identifier, resolved.nextRun, now)
	}

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		if err := s.Start(); err != nil {
			return "", err
		}
	}

	return id, nil
}

// RegisterHandler re-attaches handler to an already-persisted job without
// touching its schedule, status, or run-count — the recovery path after a
// process restart, where the job rows already survived in the store but the
// in-memory handler registry started empty. Schedule is unsuitable here: it
// always resets run_count to 0 and, for a one-shot job whose specific_time
// has already lapsed, resolve rejects the timestamp as being in the past.
// RegisterHandler only registers the handler and arms a timer if the job is
// active and due within the look-ahead window (lapsed next_run included, per
// the windowQuery rule in SPEC_FULL.md §10.3), leaving the persisted record
// untouched. Returns false if identifier has no persisted job.
func (s *Scheduler) RegisterHandler(identifier string, handler JobHandler) (bool, error) {
	if err := s.ensureInit(); err != nil {
		return false, err
	}
	job, ok, err := s.store.getByIdentifier(identifier)
	if err != nil {
		return false, newErr(KindStore, "register-handler", err)
	}
	if !ok {
		return false, nil
	}

	s.registry.set(identifier, handler)

	if job.Status == StatusActive {
		now := s.clock.NowMS()
		cfg := s.getCfg()
		if job.NextRun <= now+cfg.LookAheadWindow.Milliseconds() {
			s.armTimer(identifier, job.NextRun, now)
		}
	}
	return true, nil
}

// Cancel transitions identifier to cancelled, cancels its pending timer,
// and drops its handler. Idempotent: returns whether a row was affected.
func (s *Scheduler) Cancel(identifier string) (bool, error) {
	if err := s.ensureInit(); err != nil {
		return false, err
	}
	affected, err := s.store.updateStatus(identifier, StatusCancelled, s.clock.NowMS())
	if err != nil {
		return false, newErr(KindStore, "cancel", err)
	}
	s.timers.cancel(identifier)
	s.registry.delete(identifier)
	return affected, nil
}

// Pause transitions identifier to paused and cancels its pending timer. The
// handler is retained in the registry so a later Resume does not require
// re-registration.
func (s *Scheduler) Pause(identifier string) (bool, error) {
	if err := s.ensureInit(); err != nil {
		return false, err
	}
	affected, err := s.store.updateStatus(identifier, StatusPaused, s.clock.NowMS())
	if err != nil {
		return false, newErr(KindStore, "pause", err)
	}
	s.timers.cancel(identifier)
	return affected, nil
}

// Resume transitions identifier back to active and triggers a chunk load so
// that, if the job is due within the window, it is armed.
func (s *Scheduler) Resume(identifier string) (bool, error) {
	if err := s.ensureInit(); err != nil {
		return false, err
	}
	affected, err := s.store.updateStatus(identifier, StatusActive, s.clock.NowMS())
	if err != nil {
		return false, newErr(KindStore, "resume", err)
	}
	if affected {
		s.loadChunk()
	}
	return affected, nil
}

// Get returns a job's full durable record.
func (s *Scheduler) Get(identifier string) (*Job, bool, error) {
	if err := s.ensureInit(); err != nil {
		return nil, false, err
	}
	job, ok, err := s.store.getByIdentifier(identifier)
	if err != nil {
		return nil, false, newErr(KindStore, "get", err)
	}
	return job, ok, nil
}

// GetJobStatus is a thin wrapper over Get.
func (s *Scheduler) GetJobStatus(identifier string) (Status, bool, error) {
	job, ok, err := s.Get(identifier)
	if err != nil || !ok {
		return "", ok, err
	}
	return job.Status, true, nil
}

// GetJobRunCount is a thin wrapper over Get.
func (s *Scheduler) GetJobRunCount(identifier string) (int64, bool, error) {
	job, ok, err := s.Get(identifier)
	if err != nil || !ok {
		return 0, ok, err
	}
	return job.RunCount, true, nil
}

// GetActiveJobsCount reports the number of active jobs.
func (s *Scheduler) GetActiveJobsCount() (int64, error) {
	if err := s.ensureInit(); err != nil {
		return 0, err
	}
	n, err := s.store.countActive()
	if err != nil {
		return 0, newErr(KindStore, "stats", err)
	}
	return n, nil
}

// GetCompletedJobsCount reports the number of completed jobs.
func (s *Scheduler) GetCompletedJobsCount() (int64, error) {
	if err := s.ensureInit(); err != nil {
		return 0, err
	}
	n, err := s.store.countCompleted()
	if err != nil {
		return 0, newErr(KindStore, "stats", err)
	}
	return n, nil
}

// GetTotalRunsCount sums run_count across every job.
func (s *Scheduler) GetTotalRunsCount() (int64, error) {
	if err := s.ensureInit(); err != nil {
		return 0, err
	}
	n, err := s.store.sumRunCount()
	if err != nil {
		return 0, newErr(KindStore, "stats", err)
	}
	return n, nil
}

// GetJobsInWindow returns up to limit active jobs due at or before
// windowEndMS, including any already past due.
func (s *Scheduler) GetJobsInWindow(windowEndMS int64, limit int) ([]*Job, error) {
	if err := s.ensureInit(); err != nil {
		return nil, err
	}
	jobs, err := s.store.windowQuery(s.clock.NowMS(), windowEndMS, limit)
	if err != nil {
		return nil, newErr(KindStore, "window", err)
	}
	return jobs, nil
}

// GetJobStats returns the full aggregate snapshot (spec §4.2/4.5).
func (s *Scheduler) GetJobStats() (Stats, error) {
	if err := s.ensureInit(); err != nil {
		return Stats{}, err
	}
	byStatus, err := s.store.countByStatus()
	if err != nil {
		return Stats{}, newErr(KindStore, "stats", err)
	}
	totalRuns, err := s.store.sumRunCount()
	if err != nil {
		return Stats{}, newErr(KindStore, "stats", err)
	}
	now := s.clock.NowMS()
	windowEnd := now + s.getCfg().LookAheadWindow.Milliseconds()
	due, err := s.store.countActiveDueBy(windowEnd)
	if err != nil {
		return Stats{}, newErr(KindStore, "stats", err)
	}
	return Stats{
		ByStatus:       byStatus,
		ActiveCount:    byStatus.Active,
		CompletedCount: byStatus.Completed,
		TotalRuns:      totalRuns,
		ActiveDue:      due,
	}, nil
}

// TriggerNow manually triggers identifier. force=false only runs if the job
// is currently due (next_run <= now); force=true always runs. Goes through
// the same retry + gated post-execution path as a timer firing (spec §4.5
// supplemental operation, grounded on the teacher's RunJob).
func (s *Scheduler) TriggerNow(identifier string, force bool) (ran bool, reason string, err error) {
	if err := s.ensureInit(); err != nil {
		return false, "", err
	}
	job, ok, err := s.store.getByIdentifier(identifier)
	if err != nil {
		return false, "", newErr(KindStore, "trigger", err)
	}
	if !ok {
		return false, "not-found", nil
	}
	if _, hasHandler := s.registry.get(identifier); !hasHandler {
		return false, "no-handler", nil
	}
	if !force && job.NextRun > s.clock.NowMS() {
		return false, "not-due", nil
	}
	s.runFiring(identifier)
	return true, "", nil
}

// RecentRuns returns up to limit recent run-log entries, most recent first,
// optionally filtered to one identifier. The run log is in-memory only and
// does not survive a restart (spec §4 supplement).
func (s *Scheduler) RecentRuns(identifier string, limit int) []RunLogEntry {
	if limit <= 0 {
		limit = 20
	}
	s.runLogMu.Lock()
	defer s.runLogMu.Unlock()

	var out []RunLogEntry
	for i := len(s.runLog) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.runLog[i]
		if identifier == "" || entry.Identifier == identifier {
			out = append(out, entry)
		}
	}
	return out
}
