package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// pathAllowed checks a URL's path against ignore/follow glob patterns.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise crawl it
func pathAllowed(target string, ignore, follow []string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(follow) > 0 {
		for _, pattern := range follow {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks a path against a glob pattern:
//   - "/admin/*" matches "/admin/dashboard" and "/admin" itself
//   - "*.pdf" matches any path ending in .pdf
//   - otherwise filepath.Match semantics apply, plus a basename match for
//     slash-free wildcard patterns
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// filepath.Match is segment-scoped, so "*.css" will not cross the
	// slashes in "/static/site.css"; retry against the basename.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
