package model

// SaveResult reports what the persistence mapper did for one resource.
type SaveResult struct {
	// Path is the file the resource maps to inside the archive tree.
	Path string

	// Written reports whether bytes were written. False means the write
	// was skipped: either a file already existed at Path with overwrite
	// disabled, or the body was absent.
	Written bool

	// Bytes is the payload size written; 0 when Written is false.
	Bytes int64
}
