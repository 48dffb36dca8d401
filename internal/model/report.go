package model

import "time"

// ArchiveReport summarizes one archive run for reporting and storage.
//
// Design decision: The engine accumulates results into a report struct
// rather than streaming events because:
//  1. A run is bounded (the queue drains), so totals are natural
//  2. Report writers can render the whole run in one pass
//  3. The same struct serializes to JSON, Markdown, and the database
type ArchiveReport struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// OutputDir is the root of the archive tree written by this run.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the queue drained or the run was cancelled.
	FinishedAt time.Time `json:"finished_at"`

	// Archived is the number of resources persisted to the output tree.
	Archived int `json:"archived"`

	// Skipped is the number of resources left untouched because a file
	// already existed at the derived path and overwrite was disabled.
	Skipped int `json:"skipped"`

	// Binary is the number of archived resources fetched through the raw
	// tier (no link discovery).
	Binary int `json:"binary"`

	// Rejected is the number of non-2xx responses that were neither
	// persisted nor mined for links.
	Rejected int `json:"rejected"`

	// BytesWritten is the total payload size written to the archive tree.
	BytesWritten int64 `json:"bytes_written"`

	// Failures lists the URLs whose fetch failed. Failures never abort the
	// run; they are recorded here for the operator.
	Failures []Failure `json:"failures,omitempty"`

	// Cancelled reports that the run was interrupted before the queue
	// drained.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Failure records one URL whose fetch failed during a run.
type Failure struct {
	// URL is the canonical URL that failed.
	URL string `json:"url"`

	// Reason is the error message from the fetch layer.
	Reason string `json:"reason"`
}

// NewArchiveReport creates a report for a run starting now.
func NewArchiveReport(seed, outputDir string) *ArchiveReport {
	return &ArchiveReport{
		Seed:      seed,
		OutputDir: outputDir,
		StartedAt: time.Now(),
	}
}

// AddFailure records a failed URL.
func (r *ArchiveReport) AddFailure(url string, err error) {
	r.Failures = append(r.Failures, Failure{URL: url, Reason: err.Error()})
}

// Duration returns the elapsed run time.
func (r *ArchiveReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Processed returns the total number of URLs that reached the fetch layer.
func (r *ArchiveReport) Processed() int {
	return r.Archived + r.Skipped + r.Rejected + len(r.Failures)
}
