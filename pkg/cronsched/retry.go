package cronsched

import "time"

// RetryConfig controls exponential-backoff retry of a single firing's
// handler invocations (spec §4.4). MaxAttempts = 1 disables retries
// entirely — this is the spec's chosen convention; there is no separate
// "disabled" flag.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig matches the defaults in spec §6.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// backoffDelay computes min(maxDelay, baseDelay * 2^(attempt-1)) for the
// 1-indexed attempt that just failed, ahead of the next attempt.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay << uint(attempt-1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	return delay
}

// sleeper abstracts time.Sleep so tests can run the retry loop without
// actually waiting out backoff delays.
type sleeper func(time.Duration)

// executeWithRetry runs fn up to cfg.MaxAttempts times, sleeping an
// exponentially growing backoff between failures. It returns the number of
// attempts made and the final error (nil on success). run_count is the
// caller's concern — this loop only counts handler invocations within one
// firing.
func executeWithRetry(fn func() error, cfg RetryConfig, sleep sleeper) (attempts int, err error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn()
		attempts = attempt
		if err == nil {
			return attempts, nil
		}
		if attempt < cfg.MaxAttempts {
			sleep(backoffDelay(cfg, attempt))
		}
	}
	return attempts, err
}
