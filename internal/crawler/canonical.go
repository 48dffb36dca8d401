package crawler

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ErrMalformedURL is returned when a candidate link cannot be turned into a
// canonical URL. Callers treat this as "not a link" and drop the candidate;
// it never aborts a crawl.
var ErrMalformedURL = errors.New("malformed URL")

// schemePattern matches links that already carry an http(s) scheme.
var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// pseudoSchemes are link prefixes that never name a fetchable resource.
var pseudoSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "ftp:"}

// Canonicalizer normalizes raw link strings into canonical URLs: absolute,
// lowercase scheme and host, no doubled path separators, no fragment, no
// explicit default port. Two strings that canonicalize to the same value are
// the same crawl unit.
//
// Design decision: Relative links are joined to the base by concatenation
// and then path-cleaned, rather than RFC 3986 reference resolution. The
// archiver's job is to reconstruct the link graph exactly as the doubled
// separators and sloppy relative links on real sites flatten out on disk,
// and clean-after-join gives one rule that covers both `a/../b` segments
// and `//`-riddled paths.
type Canonicalizer struct {
	// DirResolve controls how the base URL is prepared before a relative
	// link is joined. When true and the base path ends in a filename, the
	// filename is replaced by its containing directory so sibling-relative
	// links resolve against the directory. A base ending in "/" is left
	// unchanged either way.
	DirResolve bool
}

// Canonicalize turns rawLink, found on the page at base, into a canonical
// URL. Absolute http(s) links are normalized as-is; anything else is joined
// to base. Returns ErrMalformedURL for empty, fragment-only, pseudo-scheme,
// or unparseable candidates.
func (c *Canonicalizer) Canonicalize(base, rawLink string) (string, error) {
	link := strings.TrimSpace(rawLink)
	if link == "" || strings.HasPrefix(link, "#") {
		return "", ErrMalformedURL
	}
	lower := strings.ToLower(link)
	for _, p := range pseudoSchemes {
		if strings.HasPrefix(lower, p) {
			return "", ErrMalformedURL
		}
	}

	// Fragments never change the fetched resource.
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
		if link == "" {
			return "", ErrMalformedURL
		}
	}

	if schemePattern.MatchString(link) {
		return normalize(link)
	}

	scheme, host, basePath, err := splitBase(base)
	if err != nil {
		return "", err
	}

	if c.DirResolve && !strings.HasSuffix(basePath, "/") {
		basePath = basePath[:strings.LastIndexByte(basePath, '/')+1]
	}

	// Keep the link's query; it distinguishes resources.
	query := ""
	if i := strings.IndexByte(link, '?'); i >= 0 {
		query = link[i:]
		link = link[:i]
	}

	joined := path.Clean(basePath + "/" + link)
	if strings.HasSuffix(link, "/") && joined != "/" {
		joined += "/"
	}

	return normalize(scheme + "://" + host + joined + query)
}

// splitBase breaks a page URL into scheme, host, and path, discarding any
// query or fragment. The base must itself be an absolute http(s) URL.
func splitBase(base string) (scheme, host, basePath string, err error) {
	b := strings.TrimSpace(base)
	if i := strings.IndexAny(b, "?#"); i >= 0 {
		b = b[:i]
	}
	if !schemePattern.MatchString(b) {
		return "", "", "", ErrMalformedURL
	}

	i := strings.Index(b, "://")
	scheme = b[:i]
	rest := b[i+3:]

	if j := strings.IndexByte(rest, '/'); j >= 0 {
		host, basePath = rest[:j], rest[j:]
	} else {
		host, basePath = rest, "/"
	}
	if host == "" {
		return "", "", "", ErrMalformedURL
	}
	// The base's own path may carry doubled separators; flatten them so
	// the join point cannot reintroduce any.
	basePath = path.Clean(basePath)
	return scheme, host, basePath, nil
}

// normalize parses an absolute URL and rewrites it into canonical form:
// lowercase scheme and host, percent-encoded path, no fragment, no explicit
// default port, "/" instead of an empty path.
func normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrMalformedURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	// No doubled separators anywhere after "scheme://"; the canonical form
	// must be byte-comparable for dedup.
	if cleaned := path.Clean(u.Path); cleaned != u.Path {
		if strings.HasSuffix(u.Path, "/") && cleaned != "/" {
			cleaned += "/"
		}
		u.Path = cleaned
	}

	// An explicit default port and no port name the same origin.
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	return u.String(), nil
}
