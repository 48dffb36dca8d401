package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// Fetcher is the fetch capability the engine drives: one call per URL,
// returning the normalized response shape regardless of which tier
// (rendered navigation or raw fetch) produced it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Resource, error)
}

// Storer persists a response body at the path derived from its canonical
// URL and reports whether anything was written.
type Storer interface {
	Save(canonicalURL string, body []byte) (*model.SaveResult, error)
}

// Recorder receives every fetched exchange. It backs the optional traffic
// archive; recording failures are logged but never interrupt the crawl.
type Recorder interface {
	Record(ctx context.Context, res *model.Resource) error
}

// Engine is the crawl orchestrator. It owns the work queue and the visited
// set, drives the breadth-first loop, and composes the canonicalizer,
// extractor, domain filter, fetch strategy, persistence store, and pacer
// around a single fetch session.
//
// The engine is strictly single-threaded: one URL is processed to
// completion before the next is considered, so the queue, the visited set,
// and the session are touched by exactly one goroutine and need no locking.
// Parallelism across independent seeds lives in BatchRunner, where every
// seed gets its own Engine and session.
type Engine struct {
	fetcher   Fetcher
	store     Storer
	filter    *DomainFilter
	canon     *Canonicalizer
	extractor Extractor
	pacer     *Pacer
	recorder  Recorder
	logger    *slog.Logger

	// maxPages caps processed URLs per run; 0 means unlimited.
	maxPages int

	// ignorePatterns / followPatterns restrict enqueued paths (glob).
	ignorePatterns []string
	followPatterns []string

	// visited holds every canonical URL already dequeued for processing.
	// A URL enters exactly once, at dequeue time, before its fetch is
	// attempted; that ordering is what makes the at-most-once-fetch
	// guarantee hold even when the fetch later fails.
	visited map[string]bool

	// queue is the discovery-ordered work frontier.
	queue *frontier
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithExtractor swaps the link extractor. Defaults to AttrExtractor.
func WithExtractor(x Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithPacer sets the inter-request pacer. Defaults to no pacing, which is
// only appropriate in tests; real runs pass the configured delay.
func WithPacer(p *Pacer) Option {
	return func(e *Engine) { e.pacer = p }
}

// WithDirResolve makes relative links resolve against the containing
// directory of a base URL that ends in a filename.
func WithDirResolve(on bool) Option {
	return func(e *Engine) { e.canon.DirResolve = on }
}

// WithRecorder attaches a traffic recorder to the run.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithMaxPages caps the number of URLs processed per run. 0 is unlimited.
func WithMaxPages(n int) Option {
	return func(e *Engine) { e.maxPages = n }
}

// WithIgnorePatterns sets URL path glob patterns that are never enqueued.
func WithIgnorePatterns(patterns []string) Option {
	return func(e *Engine) { e.ignorePatterns = patterns }
}

// WithFollowPatterns restricts enqueueing to matching paths when non-empty.
func WithFollowPatterns(patterns []string) Option {
	return func(e *Engine) { e.followPatterns = patterns }
}

// NewEngine creates a crawl engine over the given fetch session, store,
// and domain filter.
//
// Design decision: The engine requires its collaborators rather than
// constructing them because:
//  1. The fetch session's lifetime is owned by the caller, which must
//     guarantee its release on every exit path
//  2. Stub fetchers and stores are how the crawl loop is tested
//  3. The same engine works against any transport that satisfies Fetcher
func NewEngine(fetcher Fetcher, store Storer, filter *DomainFilter, opts ...Option) *Engine {
	e := &Engine{
		fetcher:   fetcher,
		store:     store,
		filter:    filter,
		canon:     &Canonicalizer{},
		extractor: AttrExtractor{},
		pacer:     NewPacer(0, 0),
		visited:   make(map[string]bool),
		queue:     newFrontier(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run crawls from seed until the work queue drains, archiving every fetched
// resource. Per-URL failures are recorded in the report and never abort the
// run; persistence failures do, because they indicate an unusable output
// target. The returned report is non-nil even on error.
func (e *Engine) Run(ctx context.Context, seed, outputDir string) (*model.ArchiveReport, error) {
	report := model.NewArchiveReport(seed, outputDir)

	start, err := e.canon.Canonicalize(seed, seed)
	if err != nil {
		report.FinishedAt = time.Now()
		return report, fmt.Errorf("invalid seed URL %q: %w", seed, err)
	}
	report.Seed = start
	e.queue.push(start)

	e.logger.Info("starting archive run", "seed", start, "output", outputDir)

	for e.queue.len() > 0 {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			report.FinishedAt = time.Now()
			return report, err
		}
		if e.maxPages > 0 && report.Processed() >= e.maxPages {
			e.logger.Warn("page limit reached, stopping", "maxPages", e.maxPages)
			break
		}

		current := e.queue.pop()
		if e.visited[current] {
			continue
		}
		e.visited[current] = true

		if err := e.step(ctx, current, report); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}

		if e.queue.len() > 0 {
			if err := e.pacer.Wait(ctx); err != nil {
				report.Cancelled = true
				report.FinishedAt = time.Now()
				return report, err
			}
		}
	}

	report.FinishedAt = time.Now()
	e.logger.Info("archive run complete",
		"archived", report.Archived,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"elapsed", report.Duration().Round(time.Millisecond),
	)
	return report, nil
}

// step processes one dequeued URL: fetch, record, persist, discover.
// Fetch failures are isolated here; a persistence failure is returned and
// aborts the run.
func (e *Engine) step(ctx context.Context, current string, report *model.ArchiveReport) error {
	res, err := e.fetcher.Fetch(ctx, current)
	if err != nil {
		// One bad resource never terminates the run.
		e.logger.Warn("fetch failed", "url", current, "error", err)
		report.AddFailure(current, err)
		return nil
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, res); err != nil {
			e.logger.Warn("traffic record failed", "url", current, "error", err)
		}
	}

	if !res.Success() {
		e.logger.Debug("skipping non-success response",
			"url", current, "status", res.StatusCode)
		report.Rejected++
		return nil
	}

	saved, err := e.store.Save(current, res.Body)
	if err != nil {
		// An unwritable output tree is systemic, not per-URL: surface it.
		return fmt.Errorf("persist %s: %w", current, err)
	}
	if saved.Written {
		report.Archived++
		report.BytesWritten += saved.Bytes
		if res.Binary {
			report.Binary++
		}
		e.logger.Debug("archived", "url", current, "path", saved.Path, "bytes", saved.Bytes)
	} else {
		report.Skipped++
		e.logger.Debug("exists, skipping write", "url", current, "path", saved.Path)
	}

	// Binary resources are never mined for links.
	if res.Binary {
		return nil
	}
	e.discover(res)
	return nil
}

// discover extracts candidate links from a textual resource and enqueues
// the admissible unseen ones. Links resolve against the resource's final
// URL so that redirected pages yield correct siblings.
func (e *Engine) discover(res *model.Resource) {
	base := res.FinalURL
	if base == "" {
		base = res.URL
	}

	for _, raw := range e.extractor.Extract(res.Text) {
		candidate, err := e.canon.Canonicalize(base, raw)
		if err != nil {
			// Not a link; drop the candidate, never abort.
			continue
		}
		if !e.filter.Admit(candidate) {
			continue
		}
		if !pathAllowed(candidate, e.ignorePatterns, e.followPatterns) {
			continue
		}
		if e.visited[candidate] || e.queue.contains(candidate) {
			continue
		}
		e.queue.push(candidate)
	}
}
