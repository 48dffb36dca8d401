package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

func sampleReport() *model.ArchiveReport {
	r := model.NewArchiveReport("http://site.example/", "./site_archive")
	r.StartedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.FinishedAt = r.StartedAt.Add(90 * time.Second)
	r.Archived = 10
	r.Binary = 2
	r.Skipped = 3
	r.Rejected = 1
	r.BytesWritten = 123456
	r.AddFailure("http://site.example/broken", errors.New("connection refused"))
	return r
}

func TestSimpleWriterWrite(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	n, err := NewSimpleWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() = %d bytes, output holds %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"http://site.example/",
		"./site_archive",
		"Archived:   10 (2 binary)",
		"Skipped:    3",
		"Rejected:   1",
		"Failed:     1",
		"Bytes:      123456",
		"http://site.example/broken",
		"connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimpleWriterCancelledNote(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Cancelled = true

	var buf strings.Builder
	if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "cancelled") {
		t.Errorf("output missing cancellation note:\n%s", buf.String())
	}
}

func TestMarkdownWriterWrite(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	n, err := NewMarkdownWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if n == 0 {
		t.Error("Write() reported zero bytes")
	}

	out := buf.String()
	for _, want := range []string{
		"# Site Archive Report",
		"## Totals",
		"`http://site.example/`",
		"| Archived",
		"## Failures",
		"connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriterNoFailureSection(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Failures = nil

	var buf strings.Builder
	if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if strings.Contains(buf.String(), "## Failures") {
		t.Errorf("failure section present for a clean run:\n%s", buf.String())
	}
}

func TestMultiWriterFansOut(t *testing.T) {
	t.Parallel()

	var a, b strings.Builder
	mw := NewMultiWriter(NewSimpleWriter(&a), NewSimpleWriter(&b))

	n, err := mw.Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if a.String() != b.String() {
		t.Error("writers received different output")
	}
	if n != a.Len()+b.Len() {
		t.Errorf("Write() = %d bytes, want the sum %d", n, a.Len()+b.Len())
	}
}

// failWriter always errors after writing nothing.
type failWriter struct{ err error }

func (f failWriter) Write(*model.ArchiveReport) (int, error) { return 0, f.err }

func TestMultiWriterStopsOnError(t *testing.T) {
	t.Parallel()

	sink := errors.New("sink failed")
	var after strings.Builder
	mw := NewMultiWriter(failWriter{err: sink}, NewSimpleWriter(&after))

	if _, err := mw.Write(sampleReport()); !errors.Is(err, sink) {
		t.Errorf("Write() error = %v, want the sink error", err)
	}
	if after.Len() != 0 {
		t.Errorf("later writer ran after an error: %q", after.String())
	}
}
