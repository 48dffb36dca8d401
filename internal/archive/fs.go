package archive

import "os"

// FS is the narrow file-system capability the store writes through.
type FS interface {
	// EnsureDir creates the directory and any missing parents. It is
	// idempotent: repeated calls for sibling URLs sharing a prefix are
	// routine.
	EnsureDir(path string) error

	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool

	// WriteFile writes data verbatim to path, replacing any existing file.
	WriteFile(path string, data []byte) error
}

// OSFS is the real file system.
type OSFS struct{}

// EnsureDir creates the directory tree with owner-and-group permissions.
func (OSFS) EnsureDir(path string) error {
	return os.MkdirAll(path, 0750)
}

// Exists reports whether path exists.
func (OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFile writes data to path.
func (OSFS) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0600)
}
