// Package retry runs a single network operation under a bounded exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures the executor. MaxRetries counts retries, not attempts:
// MaxRetries=2 means up to three calls of the operation.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	// OnRetry is called before each wait with the failure that triggered it,
	// the 1-based retry number and the delay about to be slept.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("retry: max retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.InitialDelay <= 0 {
		return fmt.Errorf("retry: initial delay must be > 0, got %s", p.InitialDelay)
	}
	return nil
}

// terminalError marks a failure that must not be retried.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so the executor returns it without retrying
// (malformed request, bad credentials and other 4xx-class failures).
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err, or anything it wraps, was marked Terminal.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Executor applies a Policy to operations.
type Executor struct {
	policy Policy
	timer  backoff.Timer
}

// New builds an executor after validating the policy.
func New(p Policy) (*Executor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Executor{policy: p}, nil
}

func (e *Executor) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 24 * time.Hour
	// no elapsed-time cap: the retry count is the only bound
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.policy.MaxRetries)), ctx)
}

// Do runs op until it succeeds, fails terminally, or retries are exhausted.
// The returned error is the last failure; Terminal markers are preserved for IsTerminal.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := op(ctx)
		if err != nil && IsTerminal(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		attempt++
		if e.policy.OnRetry != nil {
			e.policy.OnRetry(err, attempt, delay)
		}
	}
	return backoff.RetryNotifyWithTimer(operation, e.newBackOff(ctx), notify, e.timer)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
