package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// MarkdownWriter outputs the run report as GitHub-flavored Markdown,
// suitable for committing next to the archived tree or pasting into a
// change record.
//
// Design decision: We use the nao1215/markdown library for fluent
// generation rather than string templates because it keeps tables and
// escaping correct without format strings scattered through the code.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter outputting to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ArchiveReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Site Archive Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Output directory", "`" + report.OutputDir + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	md.H2("Totals")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Archived", strconv.Itoa(report.Archived)},
			{"Archived (binary)", strconv.Itoa(report.Binary)},
			{"Skipped (already present)", strconv.Itoa(report.Skipped)},
			{"Rejected (non-success status)", strconv.Itoa(report.Rejected)},
			{"Failed", strconv.Itoa(len(report.Failures))},
			{"Bytes written", strconv.FormatInt(report.BytesWritten, 10)},
		},
	})
	md.PlainText("")

	if report.Cancelled {
		md.PlainText("Run was cancelled before the queue drained.")
		md.PlainText("")
	}

	if len(report.Failures) > 0 {
		md.H2("Failures")
		rows := make([][]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			rows = append(rows, []string{"`" + f.URL + "`", f.Reason})
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Reason"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}
