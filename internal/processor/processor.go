// Package processor validates extraction requests and runs them under a deadline, singly or in batches.
package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"workorder-intake-go/internal/types"
)

// ErrEmptyInput is the only caller-visible failure: the request carried no usable text.
var ErrEmptyInput = errors.New("raw_text is required and must not be blank")

// Extractor produces exactly one result per text; *extractor.Orchestrator implements it.
type Extractor interface {
	Extract(ctx context.Context, raw string) types.ExtractionResult
}

type Processor struct {
	extractor   Extractor
	validate    *validator.Validate
	timeout     time.Duration
	concurrency int
	log         logrus.FieldLogger
}

// New builds a processor. timeout bounds each extraction (0 means no bound);
// concurrency caps parallel batch items.
func New(ex Extractor, timeout time.Duration, concurrency int, log logrus.FieldLogger) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		extractor:   ex,
		validate:    validator.New(),
		timeout:     timeout,
		concurrency: concurrency,
		log:         log.WithField("component", "processor"),
	}
}

// Validate rejects missing or whitespace-only text before any extraction is attempted.
func (p *Processor) Validate(req types.ExtractRequest) error {
	trimmed := types.ExtractRequest{RawText: strings.TrimSpace(req.RawText)}
	if err := p.validate.Struct(trimmed); err != nil {
		return ErrEmptyInput
	}
	return nil
}

// Process validates req and extracts a record. Backend trouble never surfaces here;
// when the deadline fires the heuristic answer is returned.
func (p *Processor) Process(ctx context.Context, req types.ExtractRequest) (types.ExtractionResult, error) {
	if err := p.Validate(req); err != nil {
		return types.ExtractionResult{}, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	res := p.extractor.Extract(ctx, req.RawText)
	p.log.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"source":      res.Source,
		"confidence":  res.Confidence,
	}).Info("processor finished")
	return res, nil
}

type BatchItem struct {
	ID      string
	RawText string
}

type BatchResult struct {
	ID     string
	Result types.ExtractionResult
	Err    error
}

// ProcessBatch extracts every item with bounded parallelism. Results keep input order;
// an invalid item carries its error and does not stop the others.
func (p *Processor) ProcessBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, item := range items {
		g.Go(func() error {
			res, err := p.Process(ctx, types.ExtractRequest{RawText: item.RawText})
			results[i] = BatchResult{ID: item.ID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	p.log.WithFields(logrus.Fields{
		"items":       len(items),
		"concurrency": p.concurrency,
	}).Info("batch finished")
	return results
}
