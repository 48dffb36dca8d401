package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FetchKind tags how a Resource was obtained.
//
// Design decision: We use a tagged kind rather than inspecting field
// nullability at runtime because:
//  1. Callers can switch on the kind instead of guessing from shape
//  2. Each kind documents which fields are meaningful for it
//  3. It makes the navigation-vs-raw fallback in the fetch strategy explicit
type FetchKind int

const (
	// KindNavigation marks a resource obtained through a rendered browser
	// navigation. Text holds the rendered document and FinalURL may differ
	// from the requested URL after redirects.
	KindNavigation FetchKind = iota

	// KindRaw marks a resource obtained through a raw transport-level fetch.
	// Body holds the verbatim response bytes; no rendering occurred.
	KindRaw
)

// String returns a human-readable name for the fetch kind.
func (k FetchKind) String() string {
	switch k {
	case KindNavigation:
		return "navigation"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Resource represents one fetched URL with its response data.
// It is constructed per request, persisted, mined for links, and discarded.
//
// Design decision: We store both raw bytes and decoded text because:
//  1. Raw bytes are what gets written to the archive tree
//  2. Decoded text is what the link extractor scans
//  3. The hash allows change detection across runs in the traffic archive
type Resource struct {
	// Kind records whether this came from a rendered navigation or a raw fetch.
	Kind FetchKind `json:"kind"`

	// URL is the canonical URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Relative links found in the body
	// must be resolved against this, not against URL.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains the response headers in canonical form.
	Headers map[string][]string `json:"headers"`

	// ContentType is the MIME type from the Content-Type header,
	// without parameters.
	ContentType string `json:"content_type"`

	// Body contains the raw response bytes, capped by the configured
	// body-size limit.
	Body []byte `json:"-"`

	// Text is the decoded textual form of the body. Empty for binary
	// resources.
	Text string `json:"-"`

	// Binary reports that the resource was re-fetched raw because neither
	// its URL suffix nor its content type looked HTML-like. Binary
	// resources are archived but never mined for links.
	Binary bool `json:"binary"`
}

// MaxBodySize is the default cap on response bodies.
// Larger responses are truncated to keep memory bounded on pathological
// pages; the archive then holds the truncated prefix.
const MaxBodySize = 32 * 1024 * 1024 // 32 MB

// Hash returns the SHA-256 hex digest of the body, or "" for an empty body.
// Used by the traffic archive for change detection and dedup queries.
func (r *Resource) Hash() string {
	if len(r.Body) == 0 {
		return ""
	}
	sum := sha256.Sum256(r.Body)
	return hex.EncodeToString(sum[:])
}

// Header returns the first value of the named header, or "".
// Header names are stored in Go's canonical form.
func (r *Resource) Header(name string) string {
	if vs, ok := r.Headers[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Success reports whether the status code is in the 2xx range.
// Only successful responses are persisted and mined for links.
func (r *Resource) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsHTML reports whether the content type indicates an HTML-like document.
func (r *Resource) IsHTML() bool {
	for _, mt := range htmlMIMETypes {
		if strings.HasPrefix(r.ContentType, mt) {
			return true
		}
	}
	return false
}

// htmlMIMETypes are the content types treated as renderable documents by
// the fetch strategy's tier decision.
var htmlMIMETypes = []string{
	"text/html",
	"application/xhtml+xml",
	"text/xml",
	"application/xml",
}

// TruncateBody enforces the body-size cap. Call after setting Body.
func (r *Resource) TruncateBody(limit int64) {
	if limit <= 0 {
		limit = MaxBodySize
	}
	if int64(len(r.Body)) > limit {
		r.Body = r.Body[:limit]
	}
	if int64(len(r.Text)) > limit {
		r.Text = r.Text[:limit]
	}
}
