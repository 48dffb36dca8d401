package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

func TestBatchRunnerReportsInSeedOrder(t *testing.T) {
	t.Parallel()

	seeds := []string{
		"http://a.example/",
		"http://b.example/",
		"http://c.example/",
	}

	run := func(_ context.Context, seed string) (*model.ArchiveReport, error) {
		return model.NewArchiveReport(seed, "out"), nil
	}

	batch := NewBatchRunner(run, WithBatchConcurrency(3))
	reports, err := batch.Run(context.Background(), seeds)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if len(reports) != len(seeds) {
		t.Fatalf("got %d reports, want %d", len(reports), len(seeds))
	}
	for i, seed := range seeds {
		if reports[i] == nil || reports[i].Seed != seed {
			t.Errorf("reports[%d].Seed = %v, want %q", i, reports[i], seed)
		}
	}
}

func TestBatchRunnerSeedFailureDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	run := func(_ context.Context, seed string) (*model.ArchiveReport, error) {
		if seed == "http://b.example/" {
			return model.NewArchiveReport(seed, "out"), errors.New("browser crashed")
		}
		return model.NewArchiveReport(seed, "out"), nil
	}

	batch := NewBatchRunner(run)
	reports, err := batch.Run(context.Background(), []string{
		"http://a.example/",
		"http://b.example/",
		"http://c.example/",
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v, want nil for per-seed failures", err)
	}
	for i, r := range reports {
		if r == nil {
			t.Errorf("reports[%d] is nil, want partial report", i)
		}
	}
}

func TestBatchRunnerRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var inFlight, peak int

	started := make(chan struct{})
	release := make(chan struct{})

	run := func(_ context.Context, seed string) (*model.ArchiveReport, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		started <- struct{}{}
		<-release

		mu.Lock()
		inFlight--
		mu.Unlock()
		return model.NewArchiveReport(seed, "out"), nil
	}

	batch := NewBatchRunner(run, WithBatchConcurrency(2))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = batch.Run(context.Background(), []string{
			"http://a.example/", "http://b.example/",
			"http://c.example/", "http://d.example/",
		})
	}()

	// Two seeds start immediately; releasing them admits the next two.
	<-started
	<-started
	close(release)
	for range 2 {
		<-started
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrent seeds = %d, want at most 2", peak)
	}
}

func TestBatchRunnerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := func(ctx context.Context, seed string) (*model.ArchiveReport, error) {
		return nil, ctx.Err()
	}

	batch := NewBatchRunner(run)
	_, err := batch.Run(ctx, []string{"http://a.example/"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
