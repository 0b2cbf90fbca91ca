package extractor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"workorder-intake-go/internal/backend"
	"workorder-intake-go/internal/confidence"
	"workorder-intake-go/internal/metrics"
	"workorder-intake-go/internal/types"
)

// Candidate is a backend the orchestrator can ask for a record.
// *backend.Adapter is the production implementation.
type Candidate interface {
	Source() types.Source
	Attempt(ctx context.Context, raw string, today time.Time) backend.Attempt
}

// Orchestrator tries the configured backends in priority order and falls back to the
// heuristic extractor, which always produces a record.
type Orchestrator struct {
	backends []Candidate
	now      func() time.Time
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

type Option func(*Orchestrator)

// WithClock sets the reference clock used for date resolution.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator builds the fallback chain primary, secondary, heuristic.
// Pass nil for a slot that is not configured.
func NewOrchestrator(primary, secondary Candidate, opts ...Option) *Orchestrator {
	o := &Orchestrator{now: time.Now, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("component", "orchestrator")

	for _, c := range []Candidate{primary, secondary} {
		if configured(c) {
			o.backends = append(o.backends, c)
		}
	}
	return o
}

func configured(c Candidate) bool {
	if c == nil {
		return false
	}
	if a, ok := c.(*backend.Adapter); ok && a == nil {
		return false
	}
	return true
}

// Backends returns the sources that will be tried before the heuristic, in order.
func (o *Orchestrator) Backends() []types.Source {
	out := make([]types.Source, 0, len(o.backends))
	for _, c := range o.backends {
		out = append(out, c.Source())
	}
	return out
}

// Extract returns exactly one scored result for raw. Backend failures are logged
// and counted, never returned; when ctx ends early the heuristic answers.
func (o *Orchestrator) Extract(ctx context.Context, raw string) types.ExtractionResult {
	now := o.now()
	log := o.log.WithField("text_len", len(raw))

	for _, c := range o.backends {
		if err := ctx.Err(); err != nil {
			log.WithError(err).WithField("skipped", c.Source()).Warn("deadline reached, skipping remaining backends")
			break
		}
		attempt := c.Attempt(ctx, raw, now)
		if attempt.OK {
			return o.finish(log, attempt.Record, c.Source())
		}
		log.WithError(attempt.Err).WithFields(logrus.Fields{
			"backend": c.Source(),
			"reason":  attempt.Reason,
		}).Warn("backend produced no candidate, falling through")
	}

	return o.finish(log, Heuristic(raw, now), types.SourceHeuristic)
}

func (o *Orchestrator) finish(log logrus.FieldLogger, rec types.ExtractedRecord, src types.Source) types.ExtractionResult {
	res := confidence.Result(rec, src)
	o.metrics.RecordExtraction(string(src), res.Confidence)
	log.WithFields(logrus.Fields{
		"source":     src,
		"confidence": res.Confidence,
	}).Info("extraction finished")
	return res
}
