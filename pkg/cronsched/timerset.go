package cronsched

import (
	"sync"
	"time"
)

// timerSet is the in-memory mapping from job identifier to a pending
// one-shot timer. It is the only mechanism by which the executor is
// invoked; every scheduling decision reduces to "arm a timer" or "cancel a
// timer" (spec §4.3). All mutation of the timer set is serialised by mu; the
// handler registry is guarded by its own separate lock.
type timerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[string]*time.Timer)}
}

// arm replaces any existing timer for identifier with one that fires fn
// after delay.
func (t *timerSet) arm(identifier string, delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[identifier]; ok {
		existing.Stop()
	}
	t.timers[identifier] = time.AfterFunc(delay, fn)
}

// cancel stops and removes the timer for identifier, if any.
func (t *timerSet) cancel(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[identifier]; ok {
		timer.Stop()
		delete(t.timers, identifier)
	}
}

// remove drops the bookkeeping entry for identifier without stopping the
// timer — used by the executor right after its own timer fires, since the
// timer has already run to completion.
func (t *timerSet) remove(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, identifier)
}

// clear stops and removes every pending timer. Used at the start of every
// chunk-load pass and on stop/destroy.
func (t *timerSet) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

// size returns the number of currently armed timers.
func (t *timerSet) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
