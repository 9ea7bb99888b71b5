package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how an operation is retried. The backoff is exponential:
// the delay starts at InitialInterval and doubles after each failed attempt.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultPolicy matches the retry behaviour used by the fetch repositories.
var DefaultPolicy = Policy{MaxAttempts: 3, InitialInterval: time.Second}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do gives up immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do runs fn until it succeeds, MaxAttempts is exhausted, fn returns a
// permanent error, or ctx is cancelled. The last error is returned unwrapped
// from its Permanent marker.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.InitialInterval
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var pe *permanentError
		if errors.As(lastErr, &pe) {
			return pe.err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
