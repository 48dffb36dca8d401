// Package database provides the SQLite-backed traffic archive: a
// replayable record of every request/response an archive run performed.
// The file tree under the output directory holds the mirrored site; this
// database holds the transport-level evidence of how it got there.
package database
