package cronsched

import "sync"

// The source this system is modelled on exposes a default singleton bound
// to a fixed store path (spec §9 design notes, "process-global facade").
// That binding is an external collaborator and out of this package's
// scope — but a lazy, explicitly-initialised convenience handle is
// idiomatic enough to keep, so long as it is opt-in and never constructed
// implicitly.
var (
	defaultOnce sync.Once
	defaultSched *Scheduler
	defaultErr  error
)

// InitDefault constructs the process-wide default Scheduler exactly once;
// later calls return the same instance (and the same error, if the first
// call failed). Most callers should prefer constructing their own
// Scheduler with New.
func InitDefault(cfg Config, opts ...Option) (*Scheduler, error) {
	defaultOnce.Do(func() {
		defaultSched, defaultErr = New(cfg, opts...)
	})
	return defaultSched, defaultErr
}

// Default returns the scheduler constructed by InitDefault, or nil if
// InitDefault has not been called yet.
func Default() *Scheduler {
	return defaultSched
}
