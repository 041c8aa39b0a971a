package seedpool

import (
	"errors"
	"io/fs"
	"time"
)

// TileSourceError marks a failure fetching or rendering a meta-tile as
// transient, the canonical recoverable failure class.
type TileSourceError struct {
	Op  string
	Err error
}

func (e *TileSourceError) Error() string {
	return "tile source: " + e.Op + ": " + e.Err.Error()
}

func (e *TileSourceError) Unwrap() error { return e.Err }

// Recoverable reports whether exp_backoff should retry err rather than
// propagate it immediately.
type Recoverable func(error) bool

// DefaultRecoverable retries TileSourceError, filesystem I/O failures, and
// anything exposing the net-style Temporary() bool contract; every other
// error is treated as fatal and is never retried.
func DefaultRecoverable(err error) bool {
	var tse *TileSourceError
	if errors.As(err, &tse) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}

// BackoffConfig parameterizes ExpBackoff.
type BackoffConfig struct {
	MaxRepeat   int
	Start       time.Duration
	Recoverable Recoverable
	Sleep       func(time.Duration)
	// OnRetry, if set, is called just before each sleep between attempts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.MaxRepeat <= 0 {
		c.MaxRepeat = 10
	}
	if c.Start <= 0 {
		c.Start = 2 * time.Second
	}
	if c.Recoverable == nil {
		c.Recoverable = DefaultRecoverable
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// ExpBackoff calls f until it succeeds, returns a non-recoverable error, or
// has been called cfg.MaxRepeat times, sleeping cfg.Start between attempts
// and doubling the delay each time. It never sleeps after the last attempt,
// so total sleep across a run is at most start*(2^max_repeat - 1).
func ExpBackoff(f func() error, cfg BackoffConfig) error {
	cfg = cfg.withDefaults()

	delay := cfg.Start
	var err error
	for attempt := 1; attempt <= cfg.MaxRepeat; attempt++ {
		err = f()
		if err == nil {
			return nil
		}
		if !cfg.Recoverable(err) {
			return err
		}
		if attempt == cfg.MaxRepeat {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		cfg.Sleep(delay)
		delay *= 2
	}
	return err
}
