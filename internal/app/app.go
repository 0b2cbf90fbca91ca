// Package app constructs the extraction pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"workorder-intake-go/internal/backend"
	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/extractor"
	"workorder-intake-go/internal/logger"
	"workorder-intake-go/internal/metrics"
	"workorder-intake-go/internal/processor"
	"workorder-intake-go/internal/retry"
	"workorder-intake-go/internal/types"
)

// App holds the long-lived pieces built once at startup.
type App struct {
	Config       config.Config
	Metrics      *metrics.Metrics
	Orchestrator *extractor.Orchestrator
	Processor    *processor.Processor

	closers []io.Closer
}

// Build constructs adapters for every configured backend slot, the orchestrator and the processor.
// A slot whose client cannot be created is logged and left out, so the chain degrades rather than fails.
func Build(ctx context.Context, cfg config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(reg)}

	primary, err := a.adapter(ctx, types.SourcePrimary, cfg.Primary, log)
	if err != nil {
		return nil, err
	}
	secondary, err := a.adapter(ctx, types.SourceSecondary, cfg.Secondary, log)
	if err != nil {
		return nil, err
	}

	a.Orchestrator = extractor.NewOrchestrator(primary, secondary,
		extractor.WithLogger(log.Entry),
		extractor.WithMetrics(a.Metrics),
	)
	a.Processor = processor.New(a.Orchestrator, cfg.RequestTimeout(), cfg.BatchConcurrency, log.Entry)

	log.Component("app").WithField("backends", a.Orchestrator.Backends()).Info("extraction chain ready")
	return a, nil
}

// adapter returns nil, nil for an unconfigured slot.
func (a *App) adapter(ctx context.Context, src types.Source, b config.Backend, log *logger.Logger) (extractor.Candidate, error) {
	if !b.Enabled() {
		return nil, nil
	}
	client, err := backend.NewCompleter(ctx, b, a.Config.BackendTimeout())
	if err != nil {
		log.Component("app").WithError(err).WithField("backend", src).Warn("backend disabled")
		return nil, nil
	}
	if c, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	adapter, err := backend.NewAdapter(src, client, backend.Options{
		Policy: retry.Policy{
			MaxRetries:   a.Config.Retry.MaxRetries,
			InitialDelay: a.Config.InitialDelay(),
		},
		RateLimitPerMin: a.Config.RateLimitPerMin,
		Timeout:         a.Config.BackendTimeout(),
		Logger:          log.Entry,
		Metrics:         a.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", src, err)
	}
	return adapter, nil
}

// Close releases provider clients.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
