// Package log provides logging helpers for sitemirror.
//
// The archiver logs fetched URLs, response headers, and proxy settings at
// debug level. Sites being mirrored may require session cookies or tokens,
// so the package wraps slog handlers with credential redaction before any
// attribute reaches the log destination.
package log
