package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// rawFetcher is the transport-level tier: plain HTTP GET, no rendering.
// Transient network failures are retried with exponential backoff up to
// the configured bound; HTTP error statuses are returned to the caller as
// results, not retried, because the engine decides what a non-2xx means.
type rawFetcher struct {
	client       *http.Client
	userAgent    string
	headers      map[string]string
	cookie       string
	maxRetries   int
	maxBodyBytes int64
	logger       *slog.Logger
}

// newRawFetcher builds the raw tier from session options.
func newRawFetcher(opts Options) (*rawFetcher, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = model.MaxBodySize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &rawFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:    opts.UserAgent,
		headers:      opts.Headers,
		cookie:       opts.Cookie,
		maxRetries:   opts.MaxRetries,
		maxBodyBytes: maxBody,
		logger:       logger,
	}, nil
}

// fetch performs one GET with retries and normalizes the response.
func (f *rawFetcher) fetch(ctx context.Context, target string) (*model.Resource, error) {
	var resp *http.Response

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		req.Header.Set("Accept", "*/*")
		if f.cookie != "" {
			req.Header.Set("Cookie", f.cookie)
		}
		for k, v := range f.headers {
			req.Header.Set(k, v)
		}

		resp, err = f.client.Do(req) //nolint:bodyclose // Closed after body read below
		if err != nil {
			f.logger.Debug("raw fetch attempt failed", "url", target, "error", err)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("raw fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", target, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	contentType := MediaType(resp.Header.Get("Content-Type"))
	res := &model.Resource{
		Kind:        model.KindRaw,
		URL:         target,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        body,
	}
	if Textual(contentType) {
		res.Text = DecodeText(body, resp.Header.Get("Content-Type"))
	}
	res.TruncateBody(f.maxBodyBytes)
	return res, nil
}
