package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// ErrSessionInit is returned when the browser session cannot be started.
// This is fatal: the run aborts before any crawling work begins.
var ErrSessionInit = errors.New("fetch session initialization failed")

// Client is the browser/network capability the fetch strategy decides
// over. Navigate loads a URL through the rendered browser pipeline;
// RawFetch returns only transport-level bytes with no rendering or script
// execution. Both normalize into the same Resource shape.
type Client interface {
	Navigate(ctx context.Context, url string) (*model.Resource, error)
	RawFetch(ctx context.Context, url string) (*model.Resource, error)
	Close() error
}

// Options configures a fetch session.
type Options struct {
	// Timeout bounds each individual navigation or raw fetch.
	Timeout time.Duration

	// MaxRetries bounds transient-failure retries in the raw tier.
	MaxRetries int

	// Proxy is an optional proxy URL applied to both tiers.
	Proxy string

	// UserAgent is sent with every request.
	UserAgent string

	// Headers are extra request headers (e.g., auth) for the raw tier.
	Headers map[string]string

	// Cookie is an optional Cookie header value for the raw tier.
	Cookie string

	// MaxBodyBytes caps response bodies. 0 means model.MaxBodySize.
	MaxBodyBytes int64

	// Logger receives fetch-level diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// htmlExtensions are URL suffixes treated as renderable documents.
var htmlExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
	".xml":   true,
}

// htmlLikeURL classifies a URL by its file-extension suffix. Extensionless
// paths count as HTML-like: pages on real sites rarely carry an extension,
// and misclassifying a page as binary would lose its links.
func htmlLikeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return true
	}
	return htmlExtensions[ext]
}

// Strategy is the per-URL fetch-tier decision. Every URL goes through a
// rendered navigation first; when neither the URL suffix nor the response
// content type looks HTML-like, the rendered result is discarded and the
// request is re-issued raw, marked binary.
//
// Rationale: rendering is required to resolve relative links and observe
// DOM-visible content of dynamic pages, but pushing large binary payloads
// through a browser pipeline is wasteful and often semantically wrong, so
// those are re-fetched at the transport level.
type Strategy struct {
	client Client
	logger *slog.Logger
}

// NewStrategy wraps a fetch session with the tier decision.
func NewStrategy(client Client, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{client: client, logger: logger}
}

// Fetch resolves one URL into a Resource via the two-tier decision.
func (s *Strategy) Fetch(ctx context.Context, target string) (*model.Resource, error) {
	res, err := s.client.Navigate(ctx, target)
	if err != nil {
		return nil, err
	}

	if !htmlLikeURL(target) && !res.IsHTML() {
		s.logger.Debug("non-document resource, re-fetching raw",
			"url", target, "contentType", res.ContentType)
		raw, err := s.client.RawFetch(ctx, target)
		if err != nil {
			return nil, err
		}
		raw.Binary = true
		return raw, nil
	}

	return res, nil
}
