package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// RunFunc archives one seed and returns its report. The BatchRunner calls
// it once per seed; each call is expected to build its own engine and fetch
// session so that no state is shared between concurrent seeds.
type RunFunc func(ctx context.Context, seed string) (*model.ArchiveReport, error)

// BatchRunner archives multiple seeds concurrently. Every seed still runs a
// strictly sequential crawl with its own browser session; the concurrency
// here is across independent sites only, so the single-threaded invariants
// of Engine are untouched.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool because each seed is one self-contained unit of work and
// errgroup already handles the limit and cancellation correctly.
type BatchRunner struct {
	run         RunFunc
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchConcurrency sets the number of seeds archived in parallel.
// Default is 1, which degenerates to sequential runs.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets the batch-level logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) { b.logger = logger }
}

// NewBatchRunner creates a runner invoking run for each seed.
func NewBatchRunner(run RunFunc, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{run: run, concurrency: 1}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Run archives all seeds and returns their reports in seed order.
// A failed seed yields its (partial) report and does not stop the batch;
// only context cancellation aborts the remaining seeds. The error return
// reflects cancellation, not per-seed failures.
func (b *BatchRunner) Run(ctx context.Context, seeds []string) ([]*model.ArchiveReport, error) {
	b.logger.Info("starting batch archive",
		"seeds", len(seeds),
		"concurrency", b.concurrency,
	)
	start := time.Now()

	reports := make([]*model.ArchiveReport, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			report, err := b.run(gctx, seed)
			reports[i] = report
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Error("seed failed", "seed", seed, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("batch archive complete",
		"seeds", len(seeds),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return reports, err
}
