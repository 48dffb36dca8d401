package report

import (
	"io"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// Writer outputs an archive run report.
//
// Design decision: An interface rather than concrete writers everywhere
// because the same run is written to the terminal, a file, or both, and
// the format (simple text, Markdown, JSON) is chosen at the CLI layer.
type Writer interface {
	// Write outputs the report to the configured destination, returning
	// the number of bytes written.
	Write(report *model.ArchiveReport) (int, error)
}

// MultiWriter writes one report to several Writers, e.g. terminal and
// file simultaneously.
//
// Design decision: A separate type rather than io.MultiWriter because the
// Writer interface here writes reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer fanning out to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer, stopping on the first error.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(report *model.ArchiveReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter carries the shared output destination.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
