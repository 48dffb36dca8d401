// Package report renders archive run reports in human-readable text and
// Markdown. JSON output is handled at the CLI layer with a plain encoder.
package report
