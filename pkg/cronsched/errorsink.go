package cronsched

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrorFunc is invoked with (identifier, error) when a firing's handler
// exhausts its retries (spec §6 "onError").
type ErrorFunc func(identifier string, err error)

// rateLimitedSink is the default error sink used when no ErrorFunc is
// configured. It throttles log emission per identifier with a token
// bucket so a chronically-failing recurring job cannot flood logs —
// adapted from internal/gateway/ratelimit.go's sync.Map + limiterEntry +
// periodic cleanupLoop pattern, generalised from per-user keys to per-job
// identifiers.
type rateLimitedSink struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	r        rate.Limit
	burst    int

	stopOnce sync.Once
	stopCh   chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimitedSink allows at most one log line per identifier per minute
// (burst of 1), with stale entries swept every 5 minutes.
func newRateLimitedSink() *rateLimitedSink {
	s := &rateLimitedSink{
		limiters: make(map[string]*limiterEntry),
		r:        rate.Every(time.Minute),
		burst:    1,
		stopCh:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *rateLimitedSink) emit(identifier string, err error) {
	if !s.allow(identifier) {
		return
	}
	slog.Error("cronsched: handler failed", "identifier", identifier, "error", err)
}

func (s *rateLimitedSink) allow(identifier string) bool {
	s.mu.Lock()
	entry, ok := s.limiters[identifier]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.r, s.burst)}
		s.limiters[identifier] = entry
	}
	entry.lastSeen = time.Now()
	s.mu.Unlock()
	return entry.limiter.Allow()
}

func (s *rateLimitedSink) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			s.mu.Lock()
			for id, e := range s.limiters {
				if e.lastSeen.Before(cutoff) {
					delete(s.limiters, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *rateLimitedSink) stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
