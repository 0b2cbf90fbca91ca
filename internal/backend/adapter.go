package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"workorder-intake-go/internal/metrics"
	"workorder-intake-go/internal/prompts"
	"workorder-intake-go/internal/retry"
	"workorder-intake-go/internal/types"
)

// Reasons an Attempt produced no candidate.
const (
	ReasonPrompt       = "prompt"
	ReasonTransport    = "transport"
	ReasonTerminal     = "terminal"
	ReasonInvalidReply = "invalid_reply"
	ReasonCancelled    = "cancelled"
)

// Attempt is the outcome of one adapter call: either a candidate record or the reason there is none.
type Attempt struct {
	OK     bool
	Record types.ExtractedRecord
	Reason string
	Err    error
}

func failed(reason string, err error) Attempt {
	return Attempt{Reason: reason, Err: err}
}

// Options configures an Adapter.
type Options struct {
	Policy retry.Policy
	// RateLimitPerMin caps outbound calls; 0 disables limiting.
	RateLimitPerMin int
	// Timeout bounds each individual call; 0 leaves it to the caller's context.
	Timeout time.Duration
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Adapter turns one provider into a source of candidate records.
type Adapter struct {
	source  types.Source
	client  Completer
	retry   *retry.Executor
	limiter *rate.Limiter
	timeout time.Duration
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewAdapter wires a provider client to the retry policy, rate limiter, logger and metrics.
func NewAdapter(source types.Source, client Completer, opts Options) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("%s adapter: nil client", source)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"component": "backend", "backend": string(source), "provider": client.Provider()})

	a := &Adapter{
		source:  source,
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 1),
		timeout: opts.Timeout,
		log:     log,
		metrics: opts.Metrics,
	}
	if opts.RateLimitPerMin > 0 {
		burst := opts.RateLimitPerMin / 10
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMin)/60.0), burst)
	}

	policy := opts.Policy
	observe := policy.OnRetry
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		a.metrics.RecordRetry(string(source))
		a.log.WithError(err).WithFields(logrus.Fields{
			"retry":    attempt,
			"delay_ms": delay.Milliseconds(),
		}).Warn("backend call failed, retrying")
		if observe != nil {
			observe(err, attempt, delay)
		}
	}
	exec, err := retry.New(policy)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", source, err)
	}
	a.retry = exec
	return a, nil
}

// Source is the tag results from this adapter carry.
func (a *Adapter) Source() types.Source { return a.source }

// Attempt asks the backend for a record. It never returns an error or panics:
// every failure is folded into Attempt{OK: false}.
func (a *Adapter) Attempt(ctx context.Context, raw string, today time.Time) (out Attempt) {
	defer func() {
		if p := recover(); p != nil {
			out = failed(ReasonTransport, fmt.Errorf("%s: panic: %v", a.source, p))
		}
	}()

	instruction, err := prompts.BuildExtraction(raw, today)
	if err != nil {
		return failed(ReasonPrompt, err)
	}

	start := time.Now()
	reply, err := retry.DoValue(ctx, a.retry, func(ctx context.Context) (string, error) {
		return a.call(ctx, instruction)
	})
	log := a.log.WithFields(logrus.Fields{
		"text_len":    len(raw),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		reason := ReasonTransport
		switch {
		case ctx.Err() != nil:
			reason = ReasonCancelled
		case retry.IsTerminal(err):
			reason = ReasonTerminal
		}
		log.WithError(err).WithFields(logrus.Fields{
			"reason":  reason,
			"network": IsNetworkError(err),
		}).Warn("backend unavailable")
		return failed(reason, err)
	}

	rec, err := ParseReply(reply)
	if err != nil {
		a.metrics.RecordAttempt(string(a.source), metrics.OutcomeInvalidReply)
		log.WithError(err).WithField("reply_len", len(reply)).Warn("backend reply rejected")
		return failed(ReasonInvalidReply, err)
	}
	rec.ScheduledStart = types.NormalizeSchedule(rec.ScheduledStart, today)

	a.metrics.RecordAttempt(string(a.source), metrics.OutcomeSuccess)
	log.Info("backend produced candidate")
	return Attempt{OK: true, Record: rec}
}

// call is one outbound request, rate limited and bounded by the per-call timeout.
func (a *Adapter) call(ctx context.Context, in prompts.Instruction) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.metrics.RecordAttempt(string(a.source), metrics.OutcomeCancelled)
		return "", retry.Terminal(fmt.Errorf("rate limiter: %w", err))
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reply, err := a.client.Complete(ctx, in.System, in.User)
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, context.Canceled):
		a.metrics.RecordAttempt(string(a.source), metrics.OutcomeCancelled)
	case retry.IsTerminal(err):
		a.metrics.RecordAttempt(string(a.source), metrics.OutcomeTerminal)
	default:
		a.metrics.RecordAttempt(string(a.source), metrics.OutcomeTransport)
	}
	return "", err
}
