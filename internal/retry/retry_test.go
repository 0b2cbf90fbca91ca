package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer fires immediately and records every requested delay.
type instantTimer struct {
	c      chan time.Time
	starts []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.starts = append(t.starts, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func newTestExecutor(t *testing.T, p Policy) (*Executor, *instantTimer) {
	t.Helper()
	e, err := New(p)
	require.NoError(t, err)
	timer := newInstantTimer()
	e.timer = timer
	return e, timer
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"zero retries ok", Policy{MaxRetries: 0, InitialDelay: time.Millisecond}, false},
		{"typical", Policy{MaxRetries: 2, InitialDelay: time.Second}, false},
		{"negative retries", Policy{MaxRetries: -1, InitialDelay: time.Second}, true},
		{"zero delay", Policy{MaxRetries: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_BackoffGrowth(t *testing.T) {
	type retryCall struct {
		attempt int
		delay   time.Duration
	}
	var calls []retryCall
	e, timer := newTestExecutor(t, Policy{
		MaxRetries:   2,
		InitialDelay: 1000 * time.Millisecond,
		OnRetry: func(_ error, attempt int, delay time.Duration) {
			calls = append(calls, retryCall{attempt, delay})
		},
	})

	attempts := 0
	transient := errors.New("connection reset")
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 3, attempts)
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].attempt)
	assert.Equal(t, 2, calls[1].attempt)
	assert.Equal(t, time.Second, calls[0].delay)
	assert.Equal(t, 2*time.Second, calls[1].delay)
	assert.GreaterOrEqual(t, calls[1].delay, calls[0].delay)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.starts)
}

func TestDo_SucceedsAfterTransientFailure(t *testing.T) {
	e, _ := newTestExecutor(t, Policy{MaxRetries: 3, InitialDelay: time.Millisecond})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("503")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_TerminalNotRetried(t *testing.T) {
	retried := false
	e, _ := newTestExecutor(t, Policy{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		OnRetry:      func(error, int, time.Duration) { retried = true },
	})

	attempts := 0
	badKey := errors.New("401 invalid api key")
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return Terminal(badKey)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, badKey)
	assert.True(t, IsTerminal(err))
	assert.Equal(t, 1, attempts)
	assert.False(t, retried)
}

func TestDo_ZeroRetries(t *testing.T) {
	e, timer := newTestExecutor(t, Policy{MaxRetries: 0, InitialDelay: time.Second})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("timeout")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, timer.starts)
}

func TestDo_CancelledContext(t *testing.T) {
	e, _ := newTestExecutor(t, Policy{MaxRetries: 3, InitialDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := e.Do(ctx, func(context.Context) error {
		attempts++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestDoValue(t *testing.T) {
	e, _ := newTestExecutor(t, Policy{MaxRetries: 1, InitialDelay: time.Millisecond})

	calls := 0
	v, err := DoValue(context.Background(), e, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("502")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestTerminalNil(t *testing.T) {
	assert.NoError(t, Terminal(nil))
	assert.False(t, IsTerminal(errors.New("plain")))
}
