package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// ErrUnsafePath is returned when a URL would map to a file outside the
// output root. The canonicalizer resolves dot segments before URLs reach
// the store, so seeing this means a caller bypassed canonicalization.
var ErrUnsafePath = errors.New("derived path escapes the output root")

// DefaultFilename names resources whose URL ends at a directory boundary.
const DefaultFilename = "index"

// Store maps canonical URLs onto an on-disk directory tree that mirrors
// the site's URL hierarchy and writes response bodies there.
//
// Known limitation: a site serving the same path segment as both a file
// and a directory (/a alongside /a/b) cannot be mirrored onto a plain
// file system. Whichever form lands second fails to write and the run
// aborts with a persistence error naming the colliding URL.
//
// Design decision: The store goes through the narrow FS capability rather
// than calling the os package directly because:
//  1. The skip-if-exists guarantee is verified in tests by counting writes
//  2. Directory creation must be idempotent, which a stub can assert
//  3. Nothing else about the file system matters to the mapper
type Store struct {
	root      string
	overwrite bool
	fs        FS
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOverwrite makes existing files eligible for rewriting. The default
// is to skip them, which keeps repeated runs idempotent.
func WithOverwrite(on bool) StoreOption {
	return func(s *Store) { s.overwrite = on }
}

// WithFS substitutes the file-system capability. Defaults to the real one.
func WithFS(fs FS) StoreOption {
	return func(s *Store) { s.fs = fs }
}

// WithStoreLogger sets the store's logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store rooted at the given output directory.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{root: root, fs: OSFS{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Root returns the output directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// PathFor derives the (directory, filename) pair a canonical URL maps to.
// The scheme is stripped, the remainder is percent-decoded and split on
// path separators; the last segment becomes the filename, or "index" when
// the URL ends at a directory boundary. A query string stays part of the
// last segment so that two URLs differing only in query never collide.
func (s *Store) PathFor(canonicalURL string) (dir, filename string, err error) {
	rest := canonicalURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}

	// Store paths decoded: %20 in a URL should be a space on disk.
	if decoded, derr := url.PathUnescape(rest); derr == nil {
		rest = decoded
	}

	segments := strings.Split(rest, "/")
	filename = segments[len(segments)-1]
	dirSegments := segments[:len(segments)-1]
	if filename == "" {
		filename = DefaultFilename
	}

	for _, seg := range append(dirSegments, filename) {
		if seg == ".." {
			return "", "", fmt.Errorf("%w: %s", ErrUnsafePath, canonicalURL)
		}
	}

	dir = filepath.Join(append([]string{s.root}, dirSegments...)...)
	return dir, filename, nil
}

// Save writes body at the path derived from canonicalURL.
//
// A nil body is not written at all; an empty non-nil body is written as a
// zero-length file — the two are distinct. When overwrite is disabled and
// a file already exists at the derived path, the write is skipped, which
// is the idempotence guarantee across repeated runs. Errors from the file
// system propagate: an unusable output target must abort the run.
func (s *Store) Save(canonicalURL string, body []byte) (*model.SaveResult, error) {
	dir, filename, err := s.PathFor(canonicalURL)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, filename)

	if body == nil {
		s.logger.Debug("no body, nothing to write", "url", canonicalURL)
		return &model.SaveResult{Path: path}, nil
	}

	if err := s.fs.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if !s.overwrite && s.fs.Exists(path) {
		return &model.SaveResult{Path: path}, nil
	}

	if err := s.fs.WriteFile(path, body); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	return &model.SaveResult{
		Path:    path,
		Written: true,
		Bytes:   int64(len(body)),
	}, nil
}
