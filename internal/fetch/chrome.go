package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// settleDelay is how long the session waits after the navigation response
// is committed before snapshotting the DOM, giving inline scripts a moment
// to rewrite the document without waiting for full network idle.
const settleDelay = 250 * time.Millisecond

// Session is the browser/network capability for one archive run: a single
// headless Chrome instance for rendered navigations plus an HTTP client
// for raw fetches. It is created once per run and must be released through
// Close on every exit path.
type Session struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	raw           *rawFetcher
	timeout       time.Duration
	logger        *slog.Logger
}

// NewSession starts the headless browser and prepares the raw tier.
// Failures here are ErrSessionInit: fatal, before any crawling work.
//
// Design decision: The browser is started eagerly rather than on first
// Navigate because a missing Chrome binary or a bad proxy address should
// abort the run before the output directory is touched.
func NewSession(opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	opts.Logger = logger

	raw, err := newRawFetcher(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInit, err)
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		// Self-signed certificates are routine on the staging and
		// localhost targets this tool archives.
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1366, 768),
	)
	if opts.Proxy != "" {
		execOpts = append(execOpts, chromedp.ProxyServer(opts.Proxy))
	}
	if opts.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Running an empty task list starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrSessionInit, err)
	}

	logger.Debug("browser session started", "proxy", opts.Proxy)
	return &Session{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		raw:           raw,
		timeout:       opts.Timeout,
		logger:        logger,
	}, nil
}

// Navigate loads target through the rendered browser pipeline and returns
// the committed response with the rendered DOM as its body.
//
// Wait policy: the action returns once the navigation's first document
// response is committed plus a short settle delay, not when the network
// goes fully idle. Pages holding long-lived connections (analytics beacons,
// websockets) would otherwise stall every fetch until the timeout.
func (s *Session) Navigate(parent context.Context, target string) (*model.Resource, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, s.timeout)
	defer timeoutCancel()

	// chromedp tab contexts descend from the browser context, not from the
	// caller's; link the caller's cancellation in by hand.
	stop := context.AfterFunc(parent, tabCancel)
	defer stop()

	capture := newNavCapture()
	chromedp.ListenTarget(tabCtx, capture.observe)

	var dom, finalURL string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, _, err := page.Navigate(target).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return fmt.Errorf("navigation failed: %s", errText)
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-capture.committed:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &dom, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", target, err)
	}

	status, respURL, mimeType, headers := capture.snapshot()

	if finalURL == "" || finalURL == BlankPageURL {
		finalURL = respURL
	}
	if finalURL == "" {
		finalURL = target
	}

	contentType := MediaType(headerValue(headers, "Content-Type"))
	if contentType == "" {
		contentType = strings.ToLower(mimeType)
	}

	res := &model.Resource{
		Kind:        model.KindNavigation,
		URL:         target,
		FinalURL:    finalURL,
		StatusCode:  status,
		Headers:     headers,
		ContentType: contentType,
		Body:        []byte(dom),
		Text:        dom,
	}
	res.TruncateBody(s.raw.maxBodyBytes)

	s.logger.Debug("navigation complete",
		"url", target,
		"finalUrl", finalURL,
		"status", status,
		"contentType", contentType,
		"bytes", len(res.Body),
	)
	return res, nil
}

// BlankPageURL is Chrome's empty-tab location.
const BlankPageURL = "about:blank"

// navCapture latches the first document response of a navigation.
//
// Iframe documents inside the page also fire Document-typed response
// events on the same target; without the latch, a subframe arriving
// during the settle window would overwrite the main page's status and
// content type and misclassify the whole page.
type navCapture struct {
	once      sync.Once
	committed chan struct{}

	mu       sync.Mutex
	status   int
	url      string
	mimeType string
	headers  map[string][]string
}

func newNavCapture() *navCapture {
	return &navCapture{
		committed: make(chan struct{}),
		headers:   make(map[string][]string),
	}
}

// observe handles one chromedp target event. Only the first Document
// response is captured; committed is closed once it lands.
func (c *navCapture) observe(ev interface{}) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	c.once.Do(func() {
		c.mu.Lock()
		c.status = int(e.Response.Status)
		c.url = e.Response.URL
		c.mimeType = e.Response.MimeType
		for k, v := range e.Response.Headers {
			key := http.CanonicalHeaderKey(k)
			c.headers[key] = append(c.headers[key], fmt.Sprint(v))
		}
		c.mu.Unlock()
		close(c.committed)
	})
}

// snapshot returns the captured response fields.
func (c *navCapture) snapshot() (status int, url, mimeType string, headers map[string][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.url, c.mimeType, c.headers
}

// RawFetch retrieves target at the transport level: no rendering, no
// script execution, retries per the configured bound.
func (s *Session) RawFetch(ctx context.Context, target string) (*model.Resource, error) {
	return s.raw.fetch(ctx, target)
}

// Close shuts the browser down. Safe to call exactly once; the caller
// guarantees it runs on every exit path of the run.
func (s *Session) Close() error {
	s.browserCancel()
	s.allocCancel()
	s.logger.Debug("browser session closed")
	return nil
}

// headerValue returns the first value of the named header.
func headerValue(headers map[string][]string, name string) string {
	if vs, ok := headers[http.CanonicalHeaderKey(name)]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
