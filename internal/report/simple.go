package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// SimpleWriter outputs a human-readable text report, the default format
// for terminal use.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter outputting to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as plain text.
func (w *SimpleWriter) Write(report *model.ArchiveReport) (int, error) {
	var b strings.Builder

	b.WriteString("Archive run\n")
	b.WriteString("===========\n")
	fmt.Fprintf(&b, "Seed:       %s\n", report.Seed)
	fmt.Fprintf(&b, "Output:     %s\n", report.OutputDir)
	fmt.Fprintf(&b, "Started:    %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration:   %s\n", report.Duration().Round(time.Millisecond))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Archived:   %d (%d binary)\n", report.Archived, report.Binary)
	fmt.Fprintf(&b, "Skipped:    %d (already present)\n", report.Skipped)
	fmt.Fprintf(&b, "Rejected:   %d (non-success status)\n", report.Rejected)
	fmt.Fprintf(&b, "Failed:     %d\n", len(report.Failures))
	fmt.Fprintf(&b, "Bytes:      %d\n", report.BytesWritten)

	if report.Cancelled {
		b.WriteString("\nRun was cancelled before the queue drained.\n")
	}

	if len(report.Failures) > 0 {
		b.WriteString("\nFailures\n")
		b.WriteString("--------\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "  %s\n    %s\n", f.URL, f.Reason)
		}
	}

	return io.WriteString(w.output, b.String())
}
